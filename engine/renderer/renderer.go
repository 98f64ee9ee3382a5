package renderer

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spaghettifunk/anima2d/engine/config"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Options is what a backend factory receives.
type Options struct {
	Name        string
	Title       string
	Pipeline    metadata.Pipeline
	Width       uint32
	Height      uint32
	VSync       bool
	Rounding    bool
	Background  metadata.Color
	FileManager platform.FileManager
	Platform    *platform.Platform
	// Limits overrides the backend defaults when set, e.g. with values
	// probed from a Vulkan device.
	Limits *DeviceLimits
}

// Factory creates a video device.
type Factory func(opts Options) (Video, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register makes a backend available by name. Backends call it from init.
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	name = strings.ToLower(name)
	if _, dup := factories[name]; dup {
		panic("renderer: Register called twice for backend " + name)
	}
	factories[name] = f
}

// Backends lists the registered backend names.
func Backends() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func Open(opts Options) (Video, error) {
	factoriesMu.RLock()
	f, ok := factories[strings.ToLower(opts.Name)]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("video backend %q (have %v): %w", opts.Name, Backends(), core.ErrUnknownBackend)
	}

	v, err := f(opts)
	if err != nil {
		return nil, err
	}
	v.SetRoundingUpPosition(opts.Rounding)
	core.LogInfo("video backend '%s' opened (%s pipeline, %dx%d)", v.Name(), v.Pipeline(), opts.Width, opts.Height)
	return v, nil
}

// OptionsFromConfig maps the [video] and [application] config sections.
func OptionsFromConfig(cfg *config.Config, fm platform.FileManager, p *platform.Platform) (Options, error) {
	pipeline, err := metadata.ParsePipeline(cfg.Video.Pipeline)
	if err != nil {
		return Options{}, err
	}
	bg := cfg.Video.Background
	return Options{
		Name:        cfg.Video.Backend,
		Title:       cfg.Application.Name,
		Pipeline:    pipeline,
		Width:       cfg.Application.Width,
		Height:      cfg.Application.Height,
		VSync:       cfg.Video.VSync,
		Rounding:    cfg.Video.RoundUpPosition,
		Background:  ColorFromVec4(math.NewVec4(bg[0], bg[1], bg[2], bg[3])),
		FileManager: fm,
		Platform:    p,
	}, nil
}

// ColorFromVec4 packs normalized (r, g, b, a) into a Color.
func ColorFromVec4(v math.Vec4) metadata.Color {
	return metadata.NewColor(unit(v.W), unit(v.X), unit(v.Y), unit(v.Z))
}

func unit(f float32) uint8 {
	return uint8(math.Clamp(f, 0, 1)*255 + 0.5)
}
