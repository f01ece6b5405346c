package gpu

import (
	"errors"
	"testing"

	"voxstream/internal/meshing"
	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube() *meshing.MeshBatch {
	g := world.NewCellGrid(16)
	g.Set(1, 1, 1, world.CellStone)
	return meshing.NewGreedyMesher(false, 0).Generate(g, nil)
}

func TestMemoryBackendLifecycle(t *testing.T) {
	m := NewMemoryBackend()
	h, err := m.Upload(cube())
	require.NoError(t, err)
	assert.NotZero(t, h)
	info, ok := m.Info(h)
	require.True(t, ok)
	assert.Equal(t, 24, info.Vertices)
	assert.Equal(t, 36, info.Indices)

	m.Draw(h, mgl32.Ident4())
	m.Release(h)
	m.Draw(h, mgl32.Ident4())
	m.Release(h)

	uploads, releases, draws, bad := m.Counters()
	assert.Equal(t, 1, uploads)
	assert.Equal(t, 1, releases)
	assert.Equal(t, 1, draws)
	assert.Equal(t, 2, bad)
	assert.Zero(t, m.Live())
}

func TestMemoryBackendFailures(t *testing.T) {
	m := NewMemoryBackend()
	_, err := m.Upload(nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)

	boom := errors.New("device lost")
	m.FailNext(boom)
	_, err = m.Upload(cube())
	assert.ErrorIs(t, err, boom)

	_, err = m.Upload(cube())
	assert.NoError(t, err)
	assert.Equal(t, 1, m.Live())
}
