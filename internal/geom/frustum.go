package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

type plane struct {
	a, b, c, d float32
}

func (p plane) distance(v mgl32.Vec3) float32 {
	return p.a*v[0] + p.b*v[1] + p.c*v[2] + p.d
}

// Frustum holds the six clip planes of a view volume. The zero value
// contains everything, which headless callers use when no camera exists.
type Frustum struct {
	planes [6]plane
	set    bool
	// Margin inflates boxes before testing, in world units.
	Margin float32
}

// NewFrustum builds the frustum of the combined projection*view matrix.
// Planes are ordered left, right, bottom, top, near, far.
func NewFrustum(clip mgl32.Mat4) Frustum {
	// mgl32 matrices are column-major
	row := func(r int) [4]float32 {
		return [4]float32{clip[r], clip[4+r], clip[8+r], clip[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)
	combine := func(a [4]float32, sign float32) plane {
		return normalizePlane(plane{
			r3[0] + sign*a[0],
			r3[1] + sign*a[1],
			r3[2] + sign*a[2],
			r3[3] + sign*a[3],
		})
	}

	f := Frustum{set: true, Margin: 1}
	f.planes[0] = combine(r0, 1)
	f.planes[1] = combine(r0, -1)
	f.planes[2] = combine(r1, 1)
	f.planes[3] = combine(r1, -1)
	f.planes[4] = combine(r2, 1)
	f.planes[5] = combine(r2, -1)
	return f
}

func normalizePlane(p plane) plane {
	l := float32(math.Sqrt(float64(p.a*p.a + p.b*p.b + p.c*p.c)))
	if l == 0 {
		return p
	}
	return plane{p.a / l, p.b / l, p.c / l, p.d / l}
}

// IntersectsAABB reports whether any part of box lies inside the frustum.
func (f Frustum) IntersectsAABB(box AABB) bool {
	if !f.set {
		return true
	}
	if f.Margin > 0 {
		box = box.Expand(f.Margin)
	}
	for _, p := range f.planes {
		// positive vertex for this plane normal
		v := box.Max
		if p.a < 0 {
			v[0] = box.Min[0]
		}
		if p.b < 0 {
			v[1] = box.Min[1]
		}
		if p.c < 0 {
			v[2] = box.Min[2]
		}
		if p.distance(v) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether v is inside every plane.
func (f Frustum) ContainsPoint(v mgl32.Vec3) bool {
	if !f.set {
		return true
	}
	for _, p := range f.planes {
		if p.distance(v) < 0 {
			return false
		}
	}
	return true
}
