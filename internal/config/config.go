// Package config handles creature runtime configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/creature/internal/engine/animation"
	"github.com/Faultbox/creature/internal/engine/model"
	"github.com/Faultbox/creature/internal/engine/skeleton"
	"github.com/Faultbox/creature/internal/logger"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid config")

// Config holds all runtime settings.
type Config struct {
	Asset    AssetConfig    `yaml:"asset"`
	Playback PlaybackConfig `yaml:"playback"`
	Skinning SkinningConfig `yaml:"skinning"`
	Logging  logger.Config  `yaml:"logging"`
}

// AssetConfig holds creature document locations.
type AssetConfig struct {
	Path          string `yaml:"path"`            // Creature JSON document
	PointCacheDir string `yaml:"point_cache_dir"` // Where baked clips are written
}

// PlaybackConfig holds animation playback settings.
type PlaybackConfig struct {
	TimeScale      float64     `yaml:"time_scale"` // Frames per second
	Loop           bool        `yaml:"loop"`
	StartAnimation string      `yaml:"start_animation"`
	Blend          BlendConfig `yaml:"blend"`
}

// BlendConfig holds two-clip blending settings.
type BlendConfig struct {
	Enabled bool    `yaml:"enabled"`
	From    string  `yaml:"from"`
	To      string  `yaml:"to"`
	Factor  float64 `yaml:"factor"`
}

// SkinningConfig holds mesh deformation settings.
type SkinningConfig struct {
	WeightCutoff float64 `yaml:"weight_cutoff"`
	RegionZStep  float64 `yaml:"region_z_step"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Asset: AssetConfig{
			PointCacheDir: ".",
		},
		Playback: PlaybackConfig{
			TimeScale: 30,
			Loop:      true,
			Blend: BlendConfig{
				Factor: 0.5,
			},
		},
		Skinning: SkinningConfig{
			WeightCutoff: skeleton.DefaultWeightCutoff,
			RegionZStep:  0.001,
		},
		Logging: logger.DefaultConfig(),
	}
}

// Validate checks that numeric settings are in range and blending names
// both clips.
func (c *Config) Validate() error {
	switch {
	case c.Playback.TimeScale <= 0:
		return fmt.Errorf("%w: playback.time_scale must be positive, got %v", ErrInvalid, c.Playback.TimeScale)
	case c.Playback.Blend.Factor < 0 || c.Playback.Blend.Factor > 1:
		return fmt.Errorf("%w: playback.blend.factor must be in [0, 1], got %v", ErrInvalid, c.Playback.Blend.Factor)
	case c.Playback.Blend.Enabled && (c.Playback.Blend.From == "" || c.Playback.Blend.To == ""):
		return fmt.Errorf("%w: playback.blend needs from and to", ErrInvalid)
	case c.Skinning.WeightCutoff < 0 || c.Skinning.WeightCutoff >= 1:
		return fmt.Errorf("%w: skinning.weight_cutoff must be in [0, 1), got %v", ErrInvalid, c.Skinning.WeightCutoff)
	case c.Skinning.RegionZStep < 0:
		return fmt.Errorf("%w: skinning.region_z_step must not be negative, got %v", ErrInvalid, c.Skinning.RegionZStep)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalid, err)
	}
	return nil
}

// PlaybackOptions converts the playback and skinning settings for the
// animation manager.
func (c *Config) PlaybackOptions() animation.Options {
	return animation.Options{
		TimeScale:   c.Playback.TimeScale,
		Loop:        c.Playback.Loop,
		RegionZStep: c.Skinning.RegionZStep,
	}
}

// BuildOptions converts the skinning settings for mesh construction.
func (c *Config) BuildOptions() model.BuildOptions {
	return model.BuildOptions{
		WeightCutoff: c.Skinning.WeightCutoff,
	}
}
