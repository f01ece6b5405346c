package config

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable consulted when Load gets no path.
const EnvPath = "VOXSTREAM_CONFIG"

// Config is the root of the YAML configuration.
type Config struct {
	Streaming StreamingConfig `yaml:"streaming"`
	Levels    []LevelConfig   `yaml:"levels"`
	Meshing   MeshingConfig   `yaml:"meshing"`
	World     WorldConfig     `yaml:"world"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// StreamingConfig sizes the two chunk tiers and the worker pool. Radii are
// in chunks.
type StreamingConfig struct {
	ChunkSize    int           `yaml:"chunk_size"`
	NearRadius   int           `yaml:"near_radius"`
	NearVertical int           `yaml:"near_vertical"`
	FarRadius    int           `yaml:"far_radius"`
	FarVertical  int           `yaml:"far_vertical"`
	MinChunkY    int           `yaml:"min_chunk_y"`
	MaxChunkY    int           `yaml:"max_chunk_y"`
	Workers      int           `yaml:"workers"`
	BuildTimeout time.Duration `yaml:"build_timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	SlowTick     time.Duration `yaml:"slow_tick"`
}

// LevelConfig describes one far-tier detail level. MaxDistance is the
// farthest chunk distance at which this level is still the desired one.
type LevelConfig struct {
	Stride      int  `yaml:"stride"`
	WithTrees   bool `yaml:"with_trees"`
	MaxDistance int  `yaml:"max_distance"`
}

type MeshingConfig struct {
	AmbientOcclusion bool    `yaml:"ambient_occlusion"`
	AOStrength       float32 `yaml:"ao_strength"`
	MaxVertices      int     `yaml:"max_vertices"`
}

type MetricsConfig struct {
	Addr     string        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultWorkers is the pool size used when none is configured: one worker
// per CPU, minus one for the mutation thread.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()-1)
}

// Default returns a valid configuration.
func Default() *Config {
	return &Config{
		Streaming: StreamingConfig{
			ChunkSize:    16,
			NearRadius:   8,
			NearVertical: 3,
			FarRadius:    24,
			FarVertical:  1,
			MinChunkY:    0,
			MaxChunkY:    7,
			Workers:      DefaultWorkers(),
			BuildTimeout: 10 * time.Second,
			MaxRetries:   3,
			SlowTick:     20 * time.Millisecond,
		},
		Levels: []LevelConfig{
			{Stride: 8, WithTrees: false, MaxDistance: 0},
			{Stride: 4, WithTrees: false, MaxDistance: 18},
			{Stride: 2, WithTrees: true, MaxDistance: 12},
		},
		Meshing: MeshingConfig{
			AmbientOcclusion: true,
			AOStrength:       0.5,
			MaxVertices:      1 << 16,
		},
		World:   DefaultWorld(),
		Metrics: MetricsConfig{Addr: ":2112", Interval: time.Second},
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults and normalizes the result.
// An empty path falls back to $VOXSTREAM_CONFIG, then to Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping values the document omits, and
// normalizes the result.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	cfg.Normalize()
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Normalize clamps every value into its supported range.
func (c *Config) Normalize() {
	s := &c.Streaming
	if s.ChunkSize <= 16 {
		s.ChunkSize = 16
	} else {
		s.ChunkSize = 32
	}
	s.NearRadius = clamp(s.NearRadius, 1, 32)
	s.NearVertical = clamp(s.NearVertical, 0, 16)
	s.FarRadius = clamp(s.FarRadius, s.NearRadius+1, 128)
	s.FarVertical = clamp(s.FarVertical, 0, 16)
	if s.MaxChunkY < s.MinChunkY {
		s.MinChunkY, s.MaxChunkY = s.MaxChunkY, s.MinChunkY
	}
	if s.Workers <= 0 {
		s.Workers = DefaultWorkers()
	}
	s.Workers = clamp(s.Workers, 1, 64)
	if s.BuildTimeout < 100*time.Millisecond {
		s.BuildTimeout = 100 * time.Millisecond
	}
	s.MaxRetries = clamp(s.MaxRetries, 0, 10)
	if s.SlowTick <= 0 {
		s.SlowTick = 20 * time.Millisecond
	}

	c.normalizeLevels()

	m := &c.Meshing
	if m.AOStrength < 0 {
		m.AOStrength = 0
	}
	if m.AOStrength > 1 {
		m.AOStrength = 1
	}
	m.MaxVertices = clamp(m.MaxVertices, 4, 1<<16)

	c.World.normalize()

	if c.Metrics.Interval <= 0 {
		c.Metrics.Interval = time.Second
	}
}

// normalizeLevels rounds strides down to powers of two within the chunk,
// drops duplicates and orders levels coarsest first.
func (c *Config) normalizeLevels() {
	n := c.Streaming.ChunkSize
	seen := make(map[int]bool)
	out := make([]LevelConfig, 0, len(c.Levels))
	for _, l := range c.Levels {
		l.Stride = clamp(l.Stride, 1, n)
		p := 1
		for p*2 <= l.Stride {
			p *= 2
		}
		l.Stride = p
		if l.MaxDistance < 0 {
			l.MaxDistance = 0
		}
		if seen[l.Stride] {
			continue
		}
		seen[l.Stride] = true
		out = append(out, l)
	}
	if len(out) == 0 {
		out = append(out, LevelConfig{Stride: min(8, n)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stride > out[j].Stride })
	c.Levels = out
}

// DesiredLevel returns the finest level whose MaxDistance covers dist
// chunks. Level 0, the coarsest, covers everything.
func (c *Config) DesiredLevel(dist float64) int {
	best := 0
	for i := 1; i < len(c.Levels); i++ {
		if dist <= float64(c.Levels[i].MaxDistance) {
			best = i
		}
	}
	return best
}
