package geom

import (
	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned box in world units.
type AABB struct {
	Min, Max mgl32.Vec3
}

// ChunkAABB returns the world-space bounds of the chunk at c.
func ChunkAABB(c world.ChunkCoord, size int) AABB {
	o := c.Origin(size)
	s := float32(size)
	return AABB{Min: o, Max: o.Add(mgl32.Vec3{s, s, s})}
}

// Expand grows the box by m on every side.
func (b AABB) Expand(m float32) AABB {
	d := mgl32.Vec3{m, m, m}
	return AABB{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Contains reports whether v lies inside the box, borders included.
func (b AABB) Contains(v mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if v[i] < b.Min[i] || v[i] > b.Max[i] {
			return false
		}
	}
	return true
}
