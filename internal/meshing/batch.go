package meshing

import "github.com/go-gl/mathgl/mgl32"

// VertexStride is number of float32 per interleaved vertex (pos.xyz + normal.xyz + color.rgb)
const VertexStride = 9

// MaxIndexedVertices is the number of vertices addressable by a uint16 index.
const MaxIndexedVertices = 1 << 16

// Vertex is one corner of an emitted quad, in chunk-local cell units.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	Color    mgl32.Vec3
}

// MeshBatch is the triangle list produced for one chunk. Every quad adds
// four vertices and six indices.
type MeshBatch struct {
	Vertices []Vertex
	Indices  []uint16

	// Truncated is set when geometry was dropped to stay inside the index range.
	Truncated bool

	limit int
}

func newMeshBatch(limit int) *MeshBatch {
	if limit <= 0 || limit > MaxIndexedVertices {
		limit = MaxIndexedVertices
	}
	return &MeshBatch{
		Vertices: make([]Vertex, 0, 256),
		Indices:  make([]uint16, 0, 384),
		limit:    limit,
	}
}

// Empty reports whether the batch holds no triangles.
func (b *MeshBatch) Empty() bool {
	return b == nil || len(b.Indices) == 0
}

// QuadCount returns the number of emitted quads.
func (b *MeshBatch) QuadCount() int {
	if b == nil {
		return 0
	}
	return len(b.Indices) / 6
}

// Interleave flattens the vertices into VertexStride floats each, the layout
// uploaded to vertex buffers.
func (b *MeshBatch) Interleave() []float32 {
	out := make([]float32, 0, len(b.Vertices)*VertexStride)
	for _, v := range b.Vertices {
		out = append(out,
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.Color[0], v.Color[1], v.Color[2],
		)
	}
	return out
}

// appendQuad adds one quad whose corners are already in counter-clockwise
// order. flip selects the 1-3 diagonal instead of 0-2. It returns false and
// marks the batch truncated when the quad would overflow the index range.
func (b *MeshBatch) appendQuad(corners [4]mgl32.Vec3, normal mgl32.Vec3, colors [4]mgl32.Vec3, flip bool) bool {
	if len(b.Vertices)+4 > b.limit {
		b.Truncated = true
		return false
	}
	base := uint16(len(b.Vertices))
	for i := range corners {
		b.Vertices = append(b.Vertices, Vertex{Position: corners[i], Normal: normal, Color: colors[i]})
	}
	if flip {
		b.Indices = append(b.Indices, base, base+1, base+3, base+1, base+2, base+3)
	} else {
		b.Indices = append(b.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return true
}

// faceCorners returns the CCW corners of the face of box [lo, hi) that
// points along dir, plus for each returned corner the index of its AO
// sample in (-u,-v), (+u,-v), (+u,+v), (-u,+v) order.
func faceCorners(dir Direction, lo, hi [3]int) ([4]mgl32.Vec3, [4]int) {
	axis := dir.Axis()
	u, v := dir.Tangents()

	plane := lo[axis]
	if dir.Sign() > 0 {
		plane = hi[axis]
	}
	at := func(pu, pv int) mgl32.Vec3 {
		var p mgl32.Vec3
		p[axis] = float32(plane)
		p[u] = float32(pu)
		p[v] = float32(pv)
		return p
	}

	if dir.Sign() > 0 {
		return [4]mgl32.Vec3{
			at(lo[u], lo[v]),
			at(hi[u], lo[v]),
			at(hi[u], hi[v]),
			at(lo[u], hi[v]),
		}, [4]int{0, 1, 2, 3}
	}
	return [4]mgl32.Vec3{
		at(lo[u], lo[v]),
		at(lo[u], hi[v]),
		at(hi[u], hi[v]),
		at(hi[u], lo[v]),
	}, [4]int{0, 3, 2, 1}
}
