// Package config loads fretwise settings from a YAML/JSON file and
// FRETWISE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ayusman/fretwise/internal/capture"
	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/fretboard"
)

// EnvPrefix is the prefix for environment overrides, e.g. FRETWISE_SERVER_ADDR.
const EnvPrefix = "FRETWISE"

// ErrInvalid is returned when a loaded value is out of range.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Camera   CameraConfig   `mapstructure:"camera"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Grid     GridConfig     `mapstructure:"grid"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Scorer   ScorerConfig   `mapstructure:"scorer"`
	Detector DetectorConfig `mapstructure:"detector"`
	Practice PracticeConfig `mapstructure:"practice"`
	Tray     TrayConfig     `mapstructure:"tray"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	StaticDir string `mapstructure:"static_dir"`
}

type CameraConfig struct {
	Device          int     `mapstructure:"device"`
	FPS             int     `mapstructure:"fps"`
	Width           int     `mapstructure:"width"`
	Height          int     `mapstructure:"height"`
	Mirror          bool    `mapstructure:"mirror"`
	MotionThreshold float64 `mapstructure:"motion_threshold"`
	MotionMaxSkip   int     `mapstructure:"motion_max_skip"`
}

type TrackerConfig struct {
	History int `mapstructure:"history"`
}

type GridConfig struct {
	FretRatio float64 `mapstructure:"fret_ratio"`
}

type ResolverConfig struct {
	NearestThreshold float64 `mapstructure:"nearest_threshold"`
	// AxisTolerance enables the axis-aligned fallback when every quad edge is
	// within this many pixels of horizontal/vertical. Zero disables it.
	AxisTolerance float64 `mapstructure:"axis_tolerance"`
}

type ScorerConfig struct {
	MaxDistance float64 `mapstructure:"max_distance"`
}

type DetectorConfig struct {
	MaxHands        int           `mapstructure:"max_hands"`
	MinConfidence   float64       `mapstructure:"min_confidence"`
	MinTrackingConf float64       `mapstructure:"min_tracking_confidence"`
	PressMargin     float64       `mapstructure:"press_margin"`
	Script          string        `mapstructure:"script"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
}

type PracticeConfig struct {
	// Mode is "free" or "practice".
	Mode   string `mapstructure:"mode"`
	Target string `mapstructure:"target"`
}

type TrayConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Default returns the built-in configuration.
func Default() Config {
	cam := capture.DefaultConfig()
	det := detector.DefaultConfig()
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Camera: CameraConfig{
			Device:          cam.DeviceID,
			FPS:             cam.FPS,
			Width:           cam.Width,
			Height:          cam.Height,
			Mirror:          det.Mirror,
			MotionThreshold: 1.0,
			MotionMaxSkip:   10,
		},
		Tracker:  TrackerConfig{History: fretboard.DefaultHistorySize},
		Grid:     GridConfig{FretRatio: fretboard.DefaultFretRatio},
		Resolver: ResolverConfig{NearestThreshold: fretboard.DefaultNearestThreshold},
		Scorer:   ScorerConfig{MaxDistance: chord.DefaultMaxDistance},
		Detector: DetectorConfig{
			MaxHands:        det.MaxHands,
			MinConfidence:   det.MinConfidence,
			MinTrackingConf: det.MinTrackingConf,
			PressMargin:     det.PressMargin,
			IdleTimeout:     det.IdleTimeout,
		},
		Practice: PracticeConfig{Mode: "free"},
	}
}

// setDefaults registers every default so env overrides apply to keys that are
// absent from the file.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.static_dir", d.Server.StaticDir)
	v.SetDefault("camera.device", d.Camera.Device)
	v.SetDefault("camera.fps", d.Camera.FPS)
	v.SetDefault("camera.width", d.Camera.Width)
	v.SetDefault("camera.height", d.Camera.Height)
	v.SetDefault("camera.mirror", d.Camera.Mirror)
	v.SetDefault("camera.motion_threshold", d.Camera.MotionThreshold)
	v.SetDefault("camera.motion_max_skip", d.Camera.MotionMaxSkip)
	v.SetDefault("tracker.history", d.Tracker.History)
	v.SetDefault("grid.fret_ratio", d.Grid.FretRatio)
	v.SetDefault("resolver.nearest_threshold", d.Resolver.NearestThreshold)
	v.SetDefault("resolver.axis_tolerance", d.Resolver.AxisTolerance)
	v.SetDefault("scorer.max_distance", d.Scorer.MaxDistance)
	v.SetDefault("detector.max_hands", d.Detector.MaxHands)
	v.SetDefault("detector.min_confidence", d.Detector.MinConfidence)
	v.SetDefault("detector.min_tracking_confidence", d.Detector.MinTrackingConf)
	v.SetDefault("detector.press_margin", d.Detector.PressMargin)
	v.SetDefault("detector.script", d.Detector.Script)
	v.SetDefault("detector.idle_timeout", d.Detector.IdleTimeout)
	v.SetDefault("practice.mode", d.Practice.Mode)
	v.SetDefault("practice.target", d.Practice.Target)
	v.SetDefault("tray.enabled", d.Tray.Enabled)
}

// Load reads path (if non-empty) over the defaults, then applies FRETWISE_*
// environment overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise be silently replaced by
// component defaults.
func (c Config) Validate() error {
	switch {
	case c.Tracker.History < 1:
		return fmt.Errorf("%w: tracker.history must be at least 1", ErrInvalid)
	case c.Grid.FretRatio <= 1:
		return fmt.Errorf("%w: grid.fret_ratio must be greater than 1", ErrInvalid)
	case c.Resolver.NearestThreshold <= 0:
		return fmt.Errorf("%w: resolver.nearest_threshold must be positive", ErrInvalid)
	case c.Resolver.AxisTolerance < 0:
		return fmt.Errorf("%w: resolver.axis_tolerance must not be negative", ErrInvalid)
	case c.Scorer.MaxDistance < 0:
		return fmt.Errorf("%w: scorer.max_distance must not be negative", ErrInvalid)
	case c.Detector.PressMargin < 0:
		return fmt.Errorf("%w: detector.press_margin must not be negative", ErrInvalid)
	case c.Practice.Mode != "free" && c.Practice.Mode != "practice":
		return fmt.Errorf("%w: practice.mode must be \"free\" or \"practice\"", ErrInvalid)
	}
	return nil
}

// CameraSettings converts the camera section for capture.NewCamera.
func (c Config) CameraSettings() capture.Config {
	return capture.Config{
		DeviceID: c.Camera.Device,
		FPS:      c.Camera.FPS,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
	}
}

// DetectorSettings converts the detector section for the detector package.
func (c Config) DetectorSettings() detector.Config {
	return detector.Config{
		MaxHands:        c.Detector.MaxHands,
		MinConfidence:   c.Detector.MinConfidence,
		MinTrackingConf: c.Detector.MinTrackingConf,
		PressMargin:     c.Detector.PressMargin,
		Mirror:          c.Camera.Mirror,
		ScriptPath:      c.Detector.Script,
		IdleTimeout:     c.Detector.IdleTimeout,
	}
}

// ProjectorSettings converts the grid section for fretboard.NewProjector.
func (c Config) ProjectorSettings() fretboard.ProjectorConfig {
	cfg := fretboard.DefaultProjectorConfig()
	cfg.FretRatio = c.Grid.FretRatio
	return cfg
}

// ResolverSettings converts the resolver section for fretboard.NewResolver.
func (c Config) ResolverSettings() fretboard.ResolverConfig {
	return fretboard.ResolverConfig{NearestThreshold: c.Resolver.NearestThreshold}
}
