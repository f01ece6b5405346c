package meshing

// AOSampler computes per-corner ambient occlusion for a cell face.
type AOSampler struct {
	oracle   VisibilityOracle
	strength float32
}

// NewAOSampler creates a sampler; strength is clamped to [0, 1].
func NewAOSampler(oracle VisibilityOracle, strength float32) *AOSampler {
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	return &AOSampler{oracle: oracle, strength: strength}
}

// Strength returns the clamped darkening strength.
func (s *AOSampler) Strength() float32 {
	return s.strength
}

var cornerSigns = [4][2]int{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

// Sample returns the light factor of the four corners of the face of cell
// (x, y, z) pointing along dir, ordered (-u,-v), (+u,-v), (+u,+v), (-u,+v)
// over dir's tangent axes. Values lie in [1-strength, 1].
func (s *AOSampler) Sample(x, y, z int, dir Direction) [4]float32 {
	u, v := dir.Tangents()
	base := [3]int{x, y, z}
	step := dir.Step()
	for i := range base {
		base[i] += step[i]
	}

	var out [4]float32
	for i, sg := range cornerSigns {
		side1, side2, corner := base, base, base
		side1[u] += sg[0]
		side2[v] += sg[1]
		corner[u] += sg[0]
		corner[v] += sg[1]

		o1 := opaqueAt(s.oracle, side1[0], side1[1], side1[2])
		o2 := opaqueAt(s.oracle, side2[0], side2[1], side2[2])
		if o1 && o2 {
			out[i] = 1 - s.strength
			continue
		}
		count := 0
		if o1 {
			count++
		}
		if o2 {
			count++
		}
		if opaqueAt(s.oracle, corner[0], corner[1], corner[2]) {
			count++
		}
		out[i] = 1 - s.strength*float32(count)/3
	}
	return out
}
