package config

import "voxstream/internal/world"

// WorldConfig tunes the reference terrain generator.
type WorldConfig struct {
	Seed         int64   `yaml:"seed"`
	Flat         bool    `yaml:"flat"`
	FlatHeight   int     `yaml:"flat_height"`
	BaseHeight   int     `yaml:"base_height"`
	Amplitude    float64 `yaml:"amplitude"`
	Scale        float64 `yaml:"scale"`
	Octaves      int     `yaml:"octaves"`
	SeaLevel     int     `yaml:"sea_level"`
	SnowLine     int     `yaml:"snow_line"`
	TreeMaxLevel int     `yaml:"tree_max_level"`
}

// DefaultWorld mirrors world.DefaultGeneratorSettings.
func DefaultWorld() WorldConfig {
	d := world.DefaultGeneratorSettings(1337)
	return WorldConfig{
		Seed:         d.Seed,
		FlatHeight:   8,
		BaseHeight:   d.BaseHeight,
		Amplitude:    d.Amplitude,
		Scale:        d.Scale,
		Octaves:      d.Octaves,
		SeaLevel:     d.SeaLevel,
		SnowLine:     d.SnowLine,
		TreeMaxLevel: d.TreeMaxLevel,
	}
}

func (w *WorldConfig) normalize() {
	w.Octaves = clamp(w.Octaves, 1, 8)
	if w.Amplitude < 0 {
		w.Amplitude = 0
	}
	if w.Scale <= 0 {
		w.Scale = world.DefaultGeneratorSettings(0).Scale
	}
	if w.BaseHeight < 1 {
		w.BaseHeight = 1
	}
	if w.FlatHeight < 0 {
		w.FlatHeight = 0
	}
	if w.TreeMaxLevel < 0 {
		w.TreeMaxLevel = 0
	}
}

// Synthesizer builds the world source described by the config.
func (w WorldConfig) Synthesizer() world.Synthesizer {
	if w.Flat {
		return world.NewFlatGenerator(w.FlatHeight)
	}
	s := world.DefaultGeneratorSettings(w.Seed)
	s.BaseHeight = w.BaseHeight
	s.Amplitude = w.Amplitude
	s.Scale = w.Scale
	s.Octaves = w.Octaves
	s.SeaLevel = w.SeaLevel
	s.SnowLine = w.SnowLine
	s.TreeMaxLevel = w.TreeMaxLevel
	return world.NewGenerator(s)
}
