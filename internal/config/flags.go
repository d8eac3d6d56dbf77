package config

import "flag"

// Overrides holds command-line values that take priority over the config
// file. Zero values leave the file setting alone.
type Overrides struct {
	ConfigPath string
	Asset      string
	Animation  string
	TimeScale  float64
	Debug      bool
	NoLoop     bool
	LogFile    string
}

// BindFlags registers the shared flags on fs.
func BindFlags(fs *flag.FlagSet) *Overrides {
	o := &Overrides{}
	fs.StringVar(&o.ConfigPath, "config", "", "Path to config file")
	fs.StringVar(&o.Asset, "asset", "", "Creature JSON document")
	fs.StringVar(&o.Animation, "anim", "", "Animation to start with")
	fs.Float64Var(&o.TimeScale, "fps", 0, "Playback frames per second")
	fs.BoolVar(&o.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&o.NoLoop, "no-loop", false, "Clamp at the clip end instead of looping")
	fs.StringVar(&o.LogFile, "log", "", "Log file path")
	return o
}

// apply applies CLI flag overrides to the config.
func (o *Overrides) apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.Asset != "" {
		cfg.Asset.Path = o.Asset
	}
	if o.Animation != "" {
		cfg.Playback.StartAnimation = o.Animation
	}
	if o.TimeScale > 0 {
		cfg.Playback.TimeScale = o.TimeScale
	}
	if o.NoLoop {
		cfg.Playback.Loop = false
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
}
