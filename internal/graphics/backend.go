package graphics

import (
	_ "embed"
	"fmt"

	"voxstream/internal/gpu"
	"voxstream/internal/logging"
	"voxstream/internal/meshing"
	"voxstream/internal/profiling"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	//go:embed chunk.vert
	chunkVertSrc string
	//go:embed chunk.frag
	chunkFragSrc string
)

type chunkBuffers struct {
	vao, vbo, ebo uint32
	indices       int32
}

// Backend uploads mesh batches into one VAO per handle and draws them with
// the chunk shader. All methods must be called on the thread that owns the
// GL context.
type Backend struct {
	shader  *Shader
	buffers map[gpu.Handle]*chunkBuffers
	next    gpu.Handle
}

// NewBackend compiles the chunk shader. A GL context must be current.
func NewBackend() (*Backend, error) {
	shader, err := NewShader(chunkVertSrc, chunkFragSrc)
	if err != nil {
		return nil, fmt.Errorf("chunk shader: %w", err)
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	return &Backend{shader: shader, buffers: make(map[gpu.Handle]*chunkBuffers)}, nil
}

// Upload implements gpu.Backend.
func (b *Backend) Upload(batch *meshing.MeshBatch) (gpu.Handle, error) {
	defer profiling.Track("graphics.Upload")()
	if batch.Empty() {
		return 0, gpu.ErrEmptyBatch
	}
	verts := batch.Interleave()

	buf := &chunkBuffers{indices: int32(len(batch.Indices))}
	gl.GenVertexArrays(1, &buf.vao)
	gl.GenBuffers(1, &buf.vbo)
	gl.GenBuffers(1, &buf.ebo)

	gl.BindVertexArray(buf.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(batch.Indices)*2, gl.Ptr(batch.Indices), gl.STATIC_DRAW)

	// Stride: 9 floats = 36 bytes (position, normal, color)
	stride := int32(meshing.VertexStride * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 3, gl.FLOAT, false, stride, gl.PtrOffset(6*4))

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		b.deleteBuffers(buf)
		return 0, fmt.Errorf("gl error 0x%x during upload", code)
	}

	b.next++
	b.buffers[b.next] = buf
	return b.next, nil
}

// Release implements gpu.Backend.
func (b *Backend) Release(h gpu.Handle) {
	buf, ok := b.buffers[h]
	if !ok {
		logging.Warn("release of unknown buffer handle %d", h)
		return
	}
	b.deleteBuffers(buf)
	delete(b.buffers, h)
}

func (b *Backend) deleteBuffers(buf *chunkBuffers) {
	gl.DeleteBuffers(1, &buf.vbo)
	gl.DeleteBuffers(1, &buf.ebo)
	gl.DeleteVertexArrays(1, &buf.vao)
}

// SetEffect implements gpu.Backend.
func (b *Backend) SetEffect(p gpu.EffectParams) {
	b.shader.Use()
	b.shader.SetMat4("view", p.View)
	b.shader.SetMat4("projection", p.Projection)
	b.shader.SetVec3("lightDir", p.LightDir)
	b.shader.SetFloat("ambient", p.Ambient)
	b.shader.SetVec3("fogColor", p.FogColor)
	b.shader.SetFloat("fogStart", p.FogStart)
	b.shader.SetFloat("fogEnd", p.FogEnd)
}

// Draw implements gpu.Backend.
func (b *Backend) Draw(h gpu.Handle, model mgl32.Mat4) {
	buf, ok := b.buffers[h]
	if !ok {
		return
	}
	b.shader.SetMat4("model", model)
	gl.BindVertexArray(buf.vao)
	gl.DrawElements(gl.TRIANGLES, buf.indices, gl.UNSIGNED_SHORT, gl.PtrOffset(0))
}

// Live returns the number of uploaded buffers.
func (b *Backend) Live() int {
	return len(b.buffers)
}

// Dispose frees every buffer and the shader.
func (b *Backend) Dispose() {
	for h, buf := range b.buffers {
		b.deleteBuffers(buf)
		delete(b.buffers, h)
	}
	b.shader.Delete()
}

var _ gpu.Backend = (*Backend)(nil)
