package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ChunkCoord identifies a chunk in chunk space (world position / N, floored).
type ChunkCoord struct {
	X, Y, Z int
}

// ChunkCoordFromWorld returns the chunk containing a world-space point.
func ChunkCoordFromWorld(pos mgl32.Vec3, n int) ChunkCoord {
	return ChunkCoord{
		X: floorDiv(int(math.Floor(float64(pos.X()))), n),
		Y: floorDiv(int(math.Floor(float64(pos.Y()))), n),
		Z: floorDiv(int(math.Floor(float64(pos.Z()))), n),
	}
}

// ChunkCoordFromCell returns the chunk containing a world cell and the
// cell's local coordinates inside it.
func ChunkCoordFromCell(x, y, z, n int) (ChunkCoord, int, int, int) {
	c := ChunkCoord{X: floorDiv(x, n), Y: floorDiv(y, n), Z: floorDiv(z, n)}
	return c, mod(x, n), mod(y, n), mod(z, n)
}

// Offset returns the coordinate shifted by (dx, dy, dz) chunks.
func (c ChunkCoord) Offset(dx, dy, dz int) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Y: c.Y + dy, Z: c.Z + dz}
}

// Origin returns the world-space position of the chunk's minimum corner.
func (c ChunkCoord) Origin(n int) mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X * n), float32(c.Y * n), float32(c.Z * n)}
}

// Center returns the world-space center of the chunk.
func (c ChunkCoord) Center(n int) mgl32.Vec3 {
	h := float32(n) / 2
	return c.Origin(n).Add(mgl32.Vec3{h, h, h})
}

// DistanceSq returns the squared distance in chunk units.
func (c ChunkCoord) DistanceSq(o ChunkCoord) int {
	dx, dy, dz := c.X-o.X, c.Y-o.Y, c.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// HorizontalDistanceSq ignores Y.
func (c ChunkCoord) HorizontalDistanceSq(o ChunkCoord) int {
	dx, dz := c.X-o.X, c.Z-o.Z
	return dx*dx + dz*dz
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
