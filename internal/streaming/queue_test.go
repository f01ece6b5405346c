package streaming

import (
	"testing"

	"voxstream/internal/config"
	"voxstream/internal/world"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(x, z, level int) workKey {
	return workKey{Coord: world.ChunkCoord{X: x, Z: z}, Level: level}
}

func TestWorkQueueOrdering(t *testing.T) {
	q := newWorkQueue()
	q.push(key(5, 0, 1), priority{dist: 1, level: 1})
	q.push(key(4, 0, 0), priority{dist: 1, level: 0})
	q.push(key(3, 0, 0), priority{dist: 9, level: 0})
	q.push(key(2, 0, nearLevel), priority{near: true, dist: 1})
	q.push(key(1, 0, nearLevel), priority{near: true, inFrustum: true, dist: 16})
	q.push(key(0, 0, nearLevel), priority{near: true, inFrustum: true, dist: 4})

	var got []int
	for {
		k, ok := q.pop()
		if !ok {
			break
		}
		got = append(got, k.Coord.X)
	}
	assert.Equal(t, []int{0, 1, 2, 4, 5, 3}, got)
}

func TestWorkQueueUpdateAndRemove(t *testing.T) {
	q := newWorkQueue()
	q.push(key(0, 0, 0), priority{dist: 5})
	q.push(key(1, 0, 0), priority{dist: 3})
	q.push(key(0, 0, 0), priority{dist: 1}) // same key, new priority
	require.Equal(t, 2, q.Len())

	k, ok := q.pop()
	require.True(t, ok)
	assert.Equal(t, 0, k.Coord.X)

	q.remove(key(1, 0, 0))
	assert.Zero(t, q.Len())
	assert.False(t, q.contains(key(1, 0, 0)))
	_, ok = q.pop()
	assert.False(t, ok)
}

func TestWorkQueueReprioritize(t *testing.T) {
	q := newWorkQueue()
	for x := 0; x < 10; x++ {
		q.push(key(x, 0, 0), priority{dist: x})
	}
	// reverse the order and drop odd keys
	q.reprioritize(func(k workKey) (priority, bool) {
		return priority{dist: 100 - k.Coord.X}, k.Coord.X%2 == 0
	})
	require.Equal(t, 5, q.Len())
	var got []int
	for q.Len() > 0 {
		k, _ := q.pop()
		got = append(got, k.Coord.X)
	}
	assert.Equal(t, []int{8, 6, 4, 2, 0}, got)
}

func TestDesiredSets(t *testing.T) {
	s := config.StreamingConfig{NearRadius: 2, NearVertical: 1, FarRadius: 3, FarVertical: 0, MinChunkY: 0, MaxChunkY: 10}
	center := world.ChunkCoord{X: 10, Y: 5, Z: -3}

	near := desiredNear(center, s)
	// 13 columns with dx²+dz² <= 4, three rows each
	assert.Len(t, near, 39)
	for c := range near {
		dx, dz := c.X-center.X, c.Z-center.Z
		assert.LessOrEqual(t, dx*dx+dz*dz, 4)
		assert.LessOrEqual(t, abs(c.Y-center.Y), 1)
	}

	far := desiredFar(center, s, near)
	// 29 columns within radius 3 on the center row, minus the 13 near ones
	assert.Len(t, far, 16)
	for c := range far {
		assert.False(t, near.has(c))
		assert.Equal(t, center.Y, c.Y)
	}

	// rows are clamped to the configured range
	s.MinChunkY, s.MaxChunkY = 5, 5
	assert.Len(t, desiredNear(center, s), 13)
}

func TestSelectActiveLevel(t *testing.T) {
	rec := newTieredChunkRecord(world.ChunkCoord{}, 3)
	rec.Desired = 1
	rec.selectActive()
	assert.Nil(t, rec.Active(), "no ready level must not be renderable")

	fine := &Renderable{Level: 2, Handle: 7}
	rec.Levels[2].mesh = fine
	rec.selectActive()
	assert.Same(t, fine, rec.Active())

	coarse := &Renderable{Level: 0, Handle: 3}
	rec.Levels[0].mesh = coarse
	rec.selectActive()
	assert.Same(t, coarse, rec.Active(), "coarser level wins at equal index distance")

	ideal := &Renderable{Level: 1, Handle: 5}
	rec.Levels[1].mesh = ideal
	rec.selectActive()
	assert.Same(t, ideal, rec.Active())
}

func TestSynthesisLevel(t *testing.T) {
	for stride, want := range map[int]int{0: 0, 1: 0, 2: 1, 4: 2, 8: 3, 16: 4} {
		assert.Equal(t, want, synthesisLevel(stride), "stride %d", stride)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
