package gpu

import (
	"errors"

	"voxstream/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// Handle identifies an uploaded mesh. Zero is never a valid handle.
type Handle uint64

// EffectParams are the per-frame shader inputs shared by every chunk.
type EffectParams struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	LightDir   mgl32.Vec3
	Ambient    float32
	FogColor   mgl32.Vec3
	FogStart   float32
	FogEnd     float32
}

// DefaultEffect returns lighting and fog suited to a far radius in world units.
func DefaultEffect(view, projection mgl32.Mat4, fogEnd float32) EffectParams {
	return EffectParams{
		View:       view,
		Projection: projection,
		LightDir:   mgl32.Vec3{-0.4, -1, -0.3}.Normalize(),
		Ambient:    0.45,
		FogColor:   mgl32.Vec3{0.62, 0.76, 0.92},
		FogStart:   fogEnd * 0.6,
		FogEnd:     fogEnd,
	}
}

// ErrEmptyBatch is returned when asked to upload a batch without triangles.
var ErrEmptyBatch = errors.New("gpu: empty mesh batch")

// Backend is the render collaborator. Every method is called from the
// mutation thread only.
type Backend interface {
	Upload(b *meshing.MeshBatch) (Handle, error)
	Release(h Handle)
	SetEffect(p EffectParams)
	Draw(h Handle, world mgl32.Mat4)
}
