package game

import (
	"testing"
	"time"

	"voxstream/internal/config"
	"voxstream/internal/geom"
	"voxstream/internal/gpu"
	"voxstream/internal/streaming"
	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrchestrator(t *testing.T) (*Orchestrator, *gpu.MemoryBackend) {
	t.Helper()
	cfg := config.Default()
	cfg.Streaming.NearRadius = 1
	cfg.Streaming.NearVertical = 0
	cfg.Streaming.FarRadius = 3
	cfg.Streaming.FarVertical = 0
	cfg.Streaming.MinChunkY, cfg.Streaming.MaxChunkY = 0, 0
	cfg.Streaming.Workers = 2
	backend := gpu.NewMemoryBackend()
	sched := streaming.NewScheduler(cfg, world.NewFlatGenerator(8), backend)
	o := NewOrchestrator(sched, backend, time.Second)
	t.Cleanup(o.Close)
	return o, backend
}

func run(t *testing.T, o *Orchestrator, viewer mgl32.Vec3) streaming.Statistics {
	t.Helper()
	var st streaming.Statistics
	require.Eventually(t, func() bool {
		o.Tick(viewer, geom.Frustum{})
		st = o.Statistics()
		return st.Queued == 0 && st.Building == 0 && st.Active == 0 && st.Waiting == 0
	}, 10*time.Second, time.Millisecond)
	return st
}

func TestDrawAllCullsByFrustum(t *testing.T) {
	o, backend := newOrchestrator(t)
	viewer := mgl32.Vec3{8, 12, 8}
	st := run(t, o, viewer)
	require.NotZero(t, st.Loaded)

	all := o.DrawAll(gpu.EffectParams{Ambient: 0.3}, geom.Frustum{})
	assert.Equal(t, 5+24, all, "one draw per near chunk and per far active level")
	_, _, draws, bad := backend.Counters()
	assert.Equal(t, all, draws)
	assert.Zero(t, bad)
	assert.Equal(t, float32(0.3), backend.Effect().Ambient)

	cam := geom.NewCamera(800, 600)
	cam.Position = viewer
	cam.Yaw = 0 // looking down +X
	visible := o.DrawAll(gpu.EffectParams{}, cam.Frustum())
	assert.Greater(t, visible, 0)
	assert.Less(t, visible, all)
}

func TestOrchestratorEdits(t *testing.T) {
	o, _ := newOrchestrator(t)
	run(t, o, mgl32.Vec3{8, 12, 8})

	require.NoError(t, o.SetCell(4, 9, 4, world.CellStone))
	got, ok := o.Cell(4, 9, 4)
	require.True(t, ok)
	assert.Equal(t, world.CellStone, got)
	st := run(t, o, mgl32.Vec3{8, 12, 8})
	assert.Zero(t, st.Failed)

	total, _ := o.Frames()
	assert.Greater(t, total, 0)
	assert.Greater(t, o.LastTick(), time.Duration(0))
}

func TestFPSLimiterPaces(t *testing.T) {
	f := NewFPSLimiter(200)
	start := time.Now()
	for i := 0; i < 10; i++ {
		f.Wait()
	}
	assert.GreaterOrEqual(t, time.Since(start), 45*time.Millisecond)

	f.SetLimit(0)
	start = time.Now()
	f.Wait()
	assert.Less(t, time.Since(start), 5*time.Millisecond)
}
