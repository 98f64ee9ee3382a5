package engine

import (
	"os"
	"path/filepath"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

const (
	// seconds the splash stays on screen
	splashSeconds = 2.0
	launchMarker  = ".launched"
)

// ComputeSplashScale shrinks a splash of the given size so it fits the
// screen width. Splashes narrower than the screen are drawn at scale 1.
func ComputeSplashScale(size, screen math.Vec2) float32 {
	if size.X <= 0 || screen.X <= 0 || size.X <= screen.X {
		return 1
	}
	return screen.X / size.X
}

// Splash shows one frame of a 1x2 sprite sheet centered on the screen:
// the first frame on the first launch, the second one afterwards.
type Splash struct {
	sprite    renderer.Sprite
	scale     float32
	remaining float64
}

func NewSplash(v renderer.Video, path string, firstLaunch bool) (*Splash, error) {
	sprite, err := v.CreateSprite(path)
	if err != nil {
		return nil, err
	}
	if err := sprite.SetupSpriteRects(1, 2); err != nil {
		sprite.Release()
		return nil, err
	}
	frame := uint32(1)
	if firstLaunch {
		frame = 0
	}
	if err := sprite.SetRect(frame); err != nil {
		sprite.Release()
		return nil, err
	}
	sprite.SetOrigin(math.NewVec2(0.5, 0.5))
	return &Splash{
		sprite:    sprite,
		scale:     ComputeSplashScale(sprite.FrameSize(), v.ScreenSizeF()),
		remaining: splashSeconds,
	}, nil
}

func (s *Splash) Frame() uint32 {
	return s.sprite.RectIndex()
}

// Update counts the splash down and reports whether it is still showing.
func (s *Splash) Update(deltaTime float64) bool {
	s.remaining -= deltaTime
	return s.remaining > 0
}

func (s *Splash) Draw(v renderer.Video) bool {
	center := v.CameraPos().Add(v.ScreenSizeF().MulScalar(0.5))
	return s.sprite.Draw(center, metadata.ColorWhite, 0, math.NewVec2(s.scale, s.scale))
}

// Resize refits the splash to a new screen size.
func (s *Splash) Resize(screen math.Vec2) {
	s.scale = ComputeSplashScale(s.sprite.FrameSize(), screen)
}

func (s *Splash) Release() {
	s.sprite.Release()
}

// FirstLaunch reports whether dir holds no launch marker yet, and leaves
// one behind. Failing to read or write the marker counts as a first launch.
func FirstLaunch(dir string) bool {
	marker := filepath.Join(dir, launchMarker)
	if _, err := os.Stat(marker); err == nil {
		return false
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		core.LogDebug("launch marker: %s", err)
		return true
	}
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		core.LogDebug("launch marker: %s", err)
	}
	return true
}

// launchDir is where the launch marker of an application lives.
var launchDir = func(appName string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "anima2d", appName)
}
