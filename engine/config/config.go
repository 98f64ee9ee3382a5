package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/anima2d/engine/core"
)

// Config is the engine configuration, usually read from an `engine.toml`.
type Config struct {
	Application ApplicationConfig `toml:"application"`
	Video       VideoConfig       `toml:"video"`
	Audio       AudioConfig       `toml:"audio"`
	Assets      AssetsConfig      `toml:"assets"`
	Log         LogConfig         `toml:"log"`
}

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Window starting position, if applicable.
	PosX int32 `toml:"pos_x"`
	PosY int32 `toml:"pos_y"`
	// Window starting size.
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	// Show the splash frame before the first game frame.
	Splash string `toml:"splash"`
	// Stop after this many frames; 0 runs until the window closes.
	MaxFrames uint64 `toml:"max_frames"`
}

type VideoConfig struct {
	// One of software, opengl, direct3d9, ebitengine.
	Backend string `toml:"backend"`
	// Fixed-function or programmable, only honoured by backends with both.
	Pipeline string `toml:"pipeline"`
	VSync    bool   `toml:"vsync"`
	// Floor sprite positions to whole pixels.
	RoundUpPosition bool `toml:"round_up_position"`
	// Background color as RGBA in [0,1].
	Background [4]float32 `toml:"background"`
	// Query GPU limits through Vulkan before opening the device.
	ProbeLimits bool `toml:"probe_limits"`
	// Default sprite density divisor for high DPI assets.
	Density float32 `toml:"density"`
	// Render the scene into an off-screen target and blit it on present.
	DynamicBackBuffer bool `toml:"dynamic_back_buffer"`
}

type AudioConfig struct {
	Enabled      bool    `toml:"enabled"`
	GlobalVolume float32 `toml:"global_volume"`
	SampleRate   int     `toml:"sample_rate"`
}

type AssetsConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:   "anima2d",
			PosX:   100,
			PosY:   100,
			Width:  1280,
			Height: 720,
		},
		Video: VideoConfig{
			Backend:         "software",
			Pipeline:        "programmable",
			VSync:           true,
			RoundUpPosition: true,
			Background:      [4]float32{0, 0, 0, 1},
			Density:         1,
		},
		Audio: AudioConfig{
			Enabled:      true,
			GlobalVolume: 1,
			SampleRate:   44100,
		},
		Assets: AssetsConfig{
			Dir:   "assets",
			Watch: false,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a TOML file on top of the defaults. A missing file is not an
// error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			core.LogWarn("config file '%s' not found, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse '%s': %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg and validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate checks ranges and known enum values.
func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Application.Width, c.Application.Height)
	}
	switch c.Video.Backend {
	case "software", "opengl", "direct3d9", "ebitengine":
	default:
		return fmt.Errorf("%w: '%s'", core.ErrUnknownBackend, c.Video.Backend)
	}
	switch c.Video.Pipeline {
	case "", "programmable", "fixed":
	default:
		return fmt.Errorf("unknown pipeline '%s'", c.Video.Pipeline)
	}
	if c.Video.Density <= 0 {
		return fmt.Errorf("density must be positive, got %f", c.Video.Density)
	}
	if c.Audio.GlobalVolume < 0 {
		return fmt.Errorf("global volume must not be negative, got %f", c.Audio.GlobalVolume)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.Audio.SampleRate)
	}
	return nil
}

// Save writes the configuration as TOML.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
