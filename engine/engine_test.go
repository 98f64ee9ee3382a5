package engine

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima2d/engine/config"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
	"github.com/spaghettifunk/anima2d/engine/renderer/software"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	markers := t.TempDir()
	previous := launchDir
	launchDir = func(string) string { return markers }
	t.Cleanup(func() { launchDir = previous })

	cfg := config.Default()
	cfg.Application.Name = "engine-test"
	cfg.Application.Width = 64
	cfg.Application.Height = 48
	cfg.Video.Backend = software.BackendName
	cfg.Audio.Enabled = false
	cfg.Assets.Dir = t.TempDir()
	cfg.Log.Level = "error"
	return cfg
}

type recordingGame struct {
	app     *Application
	hero    renderer.Sprite
	updates int
	renders int
	resizes [][2]uint32
	stopped bool
}

func (g *recordingGame) game() *Game {
	return &Game{
		State: g,
		FnInitialize: func(app *Application) error {
			g.app = app
			hero, err := app.Sprites.Get("hero.png")
			if err != nil {
				return err
			}
			g.hero = hero
			return nil
		},
		FnUpdate: func(deltaTime float64) error {
			g.updates++
			return nil
		},
		FnRender: func(video renderer.Video, deltaTime float64) error {
			g.renders++
			g.hero.Draw(math.NewVec2(8, 8), metadata.ColorWhite, 0, math.NewVec2One())
			return nil
		},
		FnOnResize: func(width, height uint32) error {
			g.resizes = append(g.resizes, [2]uint32{width, height})
			return nil
		},
		FnShutdown: func() error {
			g.stopped = true
			return nil
		},
	}
}

func startEngine(t *testing.T, cfg *config.Config, g *recordingGame) *Engine {
	t.Helper()
	writePNG(t, filepath.Join(cfg.Assets.Dir, "hero.png"), 8, 8)
	e, err := New(g.game(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { e.Shutdown() })
	return e
}

func TestNewNeedsRender(t *testing.T) {
	if _, err := New(&Game{}, nil); err == nil {
		t.Fatalf("New accepted a game without render function")
	}
	cfg := config.Default()
	cfg.Video.Backend = "metal"
	if _, err := New(&Game{FnRender: func(renderer.Video, float64) error { return nil }}, cfg); !errors.Is(err, core.ErrUnknownBackend) {
		t.Fatalf("invalid config: err = %v", err)
	}
}

func TestRunStopsAfterMaxFrames(t *testing.T) {
	cfg := testConfig(t)
	cfg.Application.MaxFrames = 3
	g := &recordingGame{}
	e := startEngine(t, cfg, g)

	if len(g.resizes) != 1 || g.resizes[0] != [2]uint32{64, 48} {
		t.Fatalf("initial resize = %v", g.resizes)
	}
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames() != 3 || g.updates != 3 || g.renders != 3 {
		t.Fatalf("frames %d updates %d renders %d, want 3", e.Frames(), g.updates, g.renders)
	}
	if g.app.Frames() != 3 {
		t.Fatalf("Application.Frames = %d", g.app.Frames())
	}
	if got := g.app.Video.(*software.ProgrammableVideo).Frames(); got != 3 {
		t.Fatalf("presented %d frames, want 3", got)
	}

	if err := e.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !g.stopped {
		t.Fatalf("game shutdown not called")
	}
	if _, ok := g.app.Video.Handle().Resolve(); ok {
		t.Fatalf("video handle still valid after shutdown")
	}
}

func TestRunWithDynamicBackBuffer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Application.MaxFrames = 2
	cfg.Video.DynamicBackBuffer = true
	g := &recordingGame{}
	e := startEngine(t, cfg, g)

	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if g.renders != 2 {
		t.Fatalf("renders = %d, want 2", g.renders)
	}
	frame := g.app.Video.(*software.ProgrammableVideo).Frame()
	if c := frame.NRGBAAt(10, 10); c.B != 200 {
		t.Fatalf("presented pixel = %+v, want the hero sprite", c)
	}
}

func TestQuitEventStopsLoop(t *testing.T) {
	cfg := testConfig(t)
	g := &recordingGame{}
	e := startEngine(t, cfg, g)

	inner := e.gameInstance.FnUpdate
	e.gameInstance.FnUpdate = func(deltaTime float64) error {
		if g.updates == 1 {
			g.app.Quit()
		}
		return inner(deltaTime)
	}
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames() != 2 {
		t.Fatalf("frames = %d, want 2", e.Frames())
	}
}

func TestRequestQuitFromAnotherGoroutine(t *testing.T) {
	cfg := testConfig(t)
	g := &recordingGame{}
	e := startEngine(t, cfg, g)

	done := make(chan struct{})
	go func() {
		e.RequestQuit()
		close(done)
	}()
	<-done
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames() != 0 || g.updates != 0 {
		t.Fatalf("frames %d updates %d after quit request, want 0", e.Frames(), g.updates)
	}
}

func TestJobsCompleteOnTheLoop(t *testing.T) {
	cfg := testConfig(t)
	// upper bound in case the preload never reports back
	cfg.Application.MaxFrames = 100000
	writePNG(t, filepath.Join(cfg.Assets.Dir, "tiles.png"), 16, 16)
	g := &recordingGame{}
	e := startEngine(t, cfg, g)

	var preloaded []string
	var preloadErr error
	inner := e.gameInstance.FnUpdate
	e.gameInstance.FnUpdate = func(deltaTime float64) error {
		if g.updates == 0 {
			err := g.app.Sprites.Preload(g.app.Jobs, []string{"tiles.png"}, func(path string, err error) {
				preloaded = append(preloaded, path)
				preloadErr = err
				g.app.Quit()
			})
			if err != nil {
				return err
			}
		}
		return inner(deltaTime)
	}
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(preloaded) != 1 || preloadErr != nil {
		t.Fatalf("preload = %v (%v)", preloaded, preloadErr)
	}
	if !g.app.Sprites.Contains("tiles.png") {
		t.Fatalf("preloaded sprite missing from the cache")
	}
	if e.Frames() >= cfg.Application.MaxFrames {
		t.Fatalf("loop ran to the frame limit")
	}
}

func TestUpdateErrorStopsLoop(t *testing.T) {
	cfg := testConfig(t)
	g := &recordingGame{}
	e := startEngine(t, cfg, g)
	e.gameInstance.FnUpdate = func(float64) error { return errors.New("boom") }
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.Frames() != 0 || g.renders != 0 {
		t.Fatalf("frames %d renders %d after failing update", e.Frames(), g.renders)
	}
}

func TestDeviceEventsBackupAndRecover(t *testing.T) {
	cfg := testConfig(t)
	g := &recordingGame{}
	e := startEngine(t, cfg, g)
	video := g.app.Video.(*software.ProgrammableVideo)

	e.events.Fire(core.EVENT_CODE_DEVICE_LOST, e.platform, core.EventContext{})
	if !video.IsLost() || !e.isSuspended {
		t.Fatalf("device lost event: lost %v suspended %v", video.IsLost(), e.isSuspended)
	}
	if state := g.hero.Texture().State(); state != metadata.TextureStateLost {
		t.Fatalf("texture after loss = %s", state)
	}

	e.events.Fire(core.EVENT_CODE_DEVICE_RESTORED, e.platform, core.EventContext{})
	if video.IsLost() || e.isSuspended {
		t.Fatalf("device restored event: lost %v suspended %v", video.IsLost(), e.isSuspended)
	}
	if state := g.hero.Texture().State(); state != metadata.TextureStateRecovered {
		t.Fatalf("texture after recovery = %s", state)
	}
}

func TestResizeEvent(t *testing.T) {
	cfg := testConfig(t)
	cfg.Video.DynamicBackBuffer = true
	g := &recordingGame{}
	e := startEngine(t, cfg, g)

	e.events.Fire(core.EVENT_CODE_RESIZED, e.platform, core.EventContext{Width: 0, Height: 0})
	if !e.isSuspended {
		t.Fatalf("minimized window did not suspend")
	}
	e.events.Fire(core.EVENT_CODE_RESIZED, e.platform, core.EventContext{Width: 100, Height: 50})
	if e.isSuspended {
		t.Fatalf("restored window still suspended")
	}
	if size := g.app.Video.ScreenSizeF(); size != math.NewVec2(100, 50) {
		t.Fatalf("screen size = %v", size)
	}
	if got := e.backBuffer.Target().BitmapSizeF(); got != math.NewVec2(100, 50) {
		t.Fatalf("back buffer size = %v", got)
	}
	if last := g.resizes[len(g.resizes)-1]; last != [2]uint32{100, 50} {
		t.Fatalf("game resize = %v", last)
	}
	if w, h := e.GetFramebufferSize(); w != 100 || h != 50 {
		t.Fatalf("GetFramebufferSize = %d, %d", w, h)
	}
}

func TestAssetChangeReloadsSprite(t *testing.T) {
	cfg := testConfig(t)
	g := &recordingGame{}
	e := startEngine(t, cfg, g)

	writePNG(t, filepath.Join(cfg.Assets.Dir, "hero.png"), 16, 4)
	e.events.Fire(core.EVENT_CODE_ASSET_CHANGED, e, core.EventContext{Path: "hero.png"})
	if size := g.hero.BitmapSize(); size.X != 16 || size.Y != 4 {
		t.Fatalf("hero size after reload = %v, want 16x4", size)
	}

	// paths the cache never loaded are ignored
	e.events.Fire(core.EVENT_CODE_ASSET_CHANGED, e, core.EventContext{Path: "other.png"})
	if g.app.Sprites.Contains("other.png") {
		t.Fatalf("unrelated change added a sprite")
	}
}

func TestSplashRunsBeforeGame(t *testing.T) {
	cfg := testConfig(t)
	cfg.Application.MaxFrames = 2
	cfg.Application.Splash = "splash.png"
	writePNG(t, filepath.Join(cfg.Assets.Dir, "splash.png"), 4, 8)
	g := &recordingGame{}
	e := startEngine(t, cfg, g)

	if e.splash == nil {
		t.Fatalf("splash not created")
	}
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if g.updates != 0 || g.renders != 0 {
		t.Fatalf("game ran during the splash: updates %d renders %d", g.updates, g.renders)
	}
}

func TestComputeSplashScale(t *testing.T) {
	tests := []struct {
		size   math.Vec2
		screen math.Vec2
		want   float32
	}{
		{math.NewVec2(512, 256), math.NewVec2(1280, 720), 1},
		{math.NewVec2(1280, 720), math.NewVec2(640, 480), 0.5},
		{math.NewVec2(800, 600), math.NewVec2(800, 600), 1},
		{math.NewVec2(512, 256), math.NewVec2(0, 720), 1},
	}
	for _, tt := range tests {
		if got := ComputeSplashScale(tt.size, tt.screen); got != tt.want {
			t.Fatalf("ComputeSplashScale(%v, %v) = %v, want %v", tt.size, tt.screen, got, tt.want)
		}
	}
}

func TestSplashFrameFollowsFirstLaunch(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "splash.png"), 4, 8)
	video, err := software.New(renderer.Options{
		Pipeline:    metadata.PipelineProgrammable,
		Width:       1280,
		Height:      720,
		FileManager: platform.NewStdFileManager(dir),
	})
	if err != nil {
		t.Fatalf("software.New: %v", err)
	}
	defer video.Destroy()

	for _, first := range []bool{true, false} {
		s, err := NewSplash(video, "splash.png", first)
		if err != nil {
			t.Fatalf("NewSplash: %v", err)
		}
		want := uint32(1)
		if first {
			want = 0
		}
		if s.Frame() != want {
			t.Fatalf("first launch %v: frame %d, want %d", first, s.Frame(), want)
		}
		if s.sprite.FrameSize() != math.NewVec2(4, 4) || s.sprite.Origin() != math.NewVec2(0.5, 0.5) {
			t.Fatalf("splash frame %v origin %v", s.sprite.FrameSize(), s.sprite.Origin())
		}
		if !s.Update(1) || s.Update(1.5) {
			t.Fatalf("splash countdown wrong")
		}
		s.Release()
	}
}

func TestFirstLaunch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	if !FirstLaunch(dir) {
		t.Fatalf("first call reported a previous launch")
	}
	if FirstLaunch(dir) {
		t.Fatalf("second call reported a first launch")
	}
}
