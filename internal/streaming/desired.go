package streaming

import (
	"voxstream/internal/config"
	"voxstream/internal/world"
)

// chunkSet is a set of chunk coordinates.
type chunkSet map[world.ChunkCoord]struct{}

func (s chunkSet) has(c world.ChunkCoord) bool {
	_, ok := s[c]
	return ok
}

// desiredNear returns the near cylinder around center: dx²+dz² <= R²,
// |dy| <= V, limited to the configured chunk rows.
func desiredNear(center world.ChunkCoord, s config.StreamingConfig) chunkSet {
	return cylinder(center, s.NearRadius, s.NearVertical, s.MinChunkY, s.MaxChunkY, nil)
}

// desiredFar returns the far cylinder around center minus the near set.
func desiredFar(center world.ChunkCoord, s config.StreamingConfig, near chunkSet) chunkSet {
	return cylinder(center, s.FarRadius, s.FarVertical, s.MinChunkY, s.MaxChunkY, near)
}

func cylinder(center world.ChunkCoord, r, v, minY, maxY int, exclude chunkSet) chunkSet {
	out := make(chunkSet, (2*r+1)*(2*r+1)*(2*v+1))
	y0 := max(center.Y-v, minY)
	y1 := min(center.Y+v, maxY)
	for dx := -r; dx <= r; dx++ {
		for dz := -r; dz <= r; dz++ {
			if dx*dx+dz*dz > r*r {
				continue
			}
			for y := y0; y <= y1; y++ {
				c := world.ChunkCoord{X: center.X + dx, Y: y, Z: center.Z + dz}
				if exclude.has(c) {
					continue
				}
				out[c] = struct{}{}
			}
		}
	}
	return out
}
