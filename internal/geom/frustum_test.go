package geom

import (
	"testing"

	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

func TestZeroFrustumContainsEverything(t *testing.T) {
	var f Frustum
	if !f.IntersectsAABB(AABB{Min: mgl32.Vec3{1e6, 1e6, 1e6}, Max: mgl32.Vec3{1e6 + 1, 1e6 + 1, 1e6 + 1}}) {
		t.Fatalf("zero frustum rejected a box")
	}
}

func TestCameraFrustumCulling(t *testing.T) {
	cam := NewCamera(800, 600)
	cam.Position = mgl32.Vec3{0, 0, 0}
	cam.Yaw = -90 // looking down -Z
	f := cam.Frustum()

	ahead := ChunkAABB(world.ChunkCoord{X: -1, Y: -1, Z: -4}, 16)
	if !f.IntersectsAABB(ahead) {
		t.Fatalf("chunk ahead of the camera was culled")
	}
	behind := ChunkAABB(world.ChunkCoord{X: 0, Y: 0, Z: 4}, 16)
	if f.IntersectsAABB(behind) {
		t.Fatalf("chunk behind the camera was not culled")
	}
	if !f.ContainsPoint(mgl32.Vec3{0, 0, -10}) {
		t.Fatalf("point ahead not contained")
	}
	if f.ContainsPoint(mgl32.Vec3{0, 0, 10}) {
		t.Fatalf("point behind contained")
	}
}

func TestChunkAABB(t *testing.T) {
	b := ChunkAABB(world.ChunkCoord{X: 1, Y: -1, Z: 2}, 16)
	if b.Min != (mgl32.Vec3{16, -16, 32}) || b.Max != (mgl32.Vec3{32, 0, 48}) {
		t.Fatalf("got %v..%v", b.Min, b.Max)
	}
	if !b.Contains(b.Center()) {
		t.Fatalf("center outside box")
	}
}
