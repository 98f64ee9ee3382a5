package engine

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/audio"
	"github.com/spaghettifunk/anima2d/engine/config"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
	"github.com/spaghettifunk/anima2d/engine/renderer/vulkan"
)

// jobs queued beyond this block Submit until a worker frees up
const jobQueueSize = 64

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything
	EngineStageShutdown
)

// Devices that own the main loop, like ebiten, implement runner.
type runner interface {
	Run(frame func() bool) error
}

type resizer interface {
	Resize(width, height uint32)
}

// Devices that handle loss themselves. Others are backed up and recovered
// through the generic Video calls.
type lossHandler interface {
	LoseDevice()
	RestoreDevice()
}

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *config.Config
	app          *Application

	events       *core.EventSystem
	platform     *platform.Platform
	files        platform.FileManager
	assetManager *assets.AssetManager
	video        renderer.Video
	sprites      *renderer.SpriteCache
	backBuffer   *renderer.DynamicBackBuffer
	audio        *audio.Context
	jobs         *core.JobSystem
	splash       *Splash
	background   metadata.Color

	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64
	frames   uint64

	isRunning   bool
	isSuspended bool
	width       uint32
	height      uint32

	// set from other goroutines, read by the loop
	quitRequested atomic.Bool
}

func New(g *Game, cfg *config.Config) (*Engine, error) {
	if g == nil || g.FnRender == nil {
		return nil, errors.New("game needs at least a render function")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	core.SetLogLevel(core.LogLevelFromString(cfg.Log.Level))

	events := core.NewEventSystem()
	return &Engine{
		currentStage: EngineStageBootComplete,
		gameInstance: g,
		config:       cfg,
		events:       events,
		platform:     platform.New(events),
		files:        platform.NewStdFileManager(cfg.Assets.Dir),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        cfg.Application.Width,
		height:       cfg.Application.Height,
	}, nil
}

// windowConfig picks the window the backend needs: a GL context for
// opengl, a bare window for direct3d9 and none for backends that present
// on their own.
func (e *Engine) windowConfig() platform.WindowConfig {
	app := e.config.Application
	wc := platform.WindowConfig{
		Title:  app.Name,
		X:      app.PosX,
		Y:      app.PosY,
		Width:  app.Width,
		Height: app.Height,
		VSync:  e.config.Video.VSync,
	}
	switch e.config.Video.Backend {
	case "opengl":
		wc.API = platform.ClientAPIOpenGL
	case "direct3d9":
		wc.API = platform.ClientAPINone
	default:
		wc.Headless = true
	}
	return wc
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageBootComplete {
		return fmt.Errorf("engine initialized twice")
	}
	e.currentStage = EngineStageInitializing

	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	e.events.Register(core.EVENT_CODE_DEVICE_LOST, e, e.onDevice)
	e.events.Register(core.EVENT_CODE_DEVICE_RESTORED, e, e.onDevice)
	e.events.Register(core.EVENT_CODE_ASSET_CHANGED, e, e.onAssetChanged)

	if err := e.platform.Startup(e.windowConfig()); err != nil {
		return err
	}

	opts, err := renderer.OptionsFromConfig(e.config, e.files, e.platform)
	if err != nil {
		return err
	}
	if e.config.Video.ProbeLimits {
		if limits, err := vulkan.Probe(e.config.Application.Name); err != nil {
			core.LogWarn("device limits probe failed, using backend defaults: %s", err)
		} else {
			opts.Limits = &limits
		}
	}
	if e.video, err = renderer.Open(opts); err != nil {
		return err
	}
	e.background = opts.Background
	e.sprites = renderer.NewSpriteCache(e.video, e.config.Video.Density)

	if e.config.Video.DynamicBackBuffer {
		if err := e.createBackBuffer(); err != nil {
			return err
		}
	}

	e.audio = audio.NewContextFromConfig(e.config.Audio)

	if e.jobs, err = core.NewJobSystem(runtime.NumCPU(), jobQueueSize); err != nil {
		return err
	}

	e.assetManager = assets.NewAssetManager(e.files)
	if _, err := os.Stat(e.config.Assets.Dir); err == nil {
		if err := e.assetManager.Initialize(e.config.Assets.Dir, e.config.Assets.Watch); err != nil {
			return err
		}
	} else {
		core.LogWarn("asset directory '%s' not found, hot reload disabled", e.config.Assets.Dir)
	}

	if path := e.config.Application.Splash; path != "" {
		first := FirstLaunch(launchDir(e.config.Application.Name))
		if e.splash, err = NewSplash(e.video, path, first); err != nil {
			core.LogWarn("splash '%s' skipped: %s", path, err)
		}
	}

	e.app = &Application{
		Config:  e.config,
		Video:   e.video,
		Sprites: e.sprites,
		Audio:   e.audio,
		Jobs:    e.jobs,
		Assets:  e.assetManager,
		Files:   e.files,
		Events:  e.events,
		Metrics: e.metrics,
		engine:  e,
	}
	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e.app); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) createBackBuffer() error {
	if e.backBuffer != nil {
		e.backBuffer.Release()
		e.backBuffer = nil
	}
	bb, err := renderer.NewDynamicBackBuffer(e.video, e.video.ScreenSizeF())
	if err != nil {
		return fmt.Errorf("dynamic back buffer: %w", err)
	}
	e.backBuffer = bb
	return nil
}

// Run drives frames until the window closes, the game asks to quit or the
// configured frame count is reached.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	if r, ok := e.video.(runner); ok {
		return r.Run(e.frame)
	}
	for e.frame() {
	}
	return nil
}

// frame runs one iteration of the loop and reports whether to go on.
func (e *Engine) frame() bool {
	if !e.platform.PumpMessages() || e.quitRequested.Load() {
		e.isRunning = false
	}
	if !e.isRunning {
		return false
	}
	e.drainAssetChanges()
	if e.isSuspended {
		e.platform.Sleep(10)
		return true
	}

	e.clock.Update()
	currentTime := e.clock.Elapsed()
	delta := currentTime - e.lastTime
	frameStartTime := platform.GetAbsoluteTime()

	e.audio.Update(time.Duration(delta * float64(time.Second)))
	e.jobs.Update()

	if err := e.update(delta); err != nil {
		core.LogError("game update failed, shutting down: %s", err)
		e.isRunning = false
		return false
	}
	if err := e.render(delta); err != nil {
		core.LogError("game render failed, shutting down: %s", err)
		e.isRunning = false
		return false
	}

	e.metrics.Update(platform.GetAbsoluteTime() - frameStartTime)
	e.lastTime = currentTime
	e.frames++
	if limit := e.config.Application.MaxFrames; limit > 0 && e.frames >= limit {
		core.LogInfo("stopping after %d frames (%.1f fps)", e.frames, e.metrics.FPS())
		e.isRunning = false
	}
	return e.isRunning
}

func (e *Engine) update(delta float64) error {
	if e.splash != nil {
		if !e.splash.Update(delta) {
			e.splash.Release()
			e.splash = nil
		}
		return nil
	}
	if e.gameInstance.FnUpdate != nil {
		return e.gameInstance.FnUpdate(delta)
	}
	return nil
}

func (e *Engine) render(delta float64) error {
	draw := func() error {
		if e.splash != nil {
			e.splash.Draw(e.video)
			return nil
		}
		return e.gameInstance.FnRender(e.video, delta)
	}

	if e.backBuffer != nil {
		if !e.backBuffer.BeginRendering() {
			core.LogDebug("frame skipped, back buffer unavailable")
			return nil
		}
		err := draw()
		e.backBuffer.EndRendering()
		e.backBuffer.Present()
		return err
	}

	if !e.video.BeginSpriteScene(e.background) {
		core.LogDebug("frame skipped, scene unavailable")
		return nil
	}
	err := draw()
	e.video.EndSpriteScene()
	return err
}

// drainAssetChanges forwards watcher notifications without blocking.
func (e *Engine) drainAssetChanges() {
	if e.assetManager == nil {
		return
	}
	for {
		select {
		case p := <-e.assetManager.Changes():
			e.events.Fire(core.EVENT_CODE_ASSET_CHANGED, e, core.EventContext{Path: p})
		default:
			return
		}
	}
}

// RequestQuit stops the loop before its next frame. Unlike
// Application.Quit it may be called from any goroutine.
func (e *Engine) RequestQuit() {
	e.quitRequested.Store(true)
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("game shutdown: %s", err)
		}
	}
	if e.jobs != nil {
		_ = e.jobs.Shutdown()
	}
	if e.splash != nil {
		e.splash.Release()
		e.splash = nil
	}
	if e.backBuffer != nil {
		e.backBuffer.Release()
		e.backBuffer = nil
	}
	if e.sprites != nil {
		e.sprites.Clear()
	}
	if e.video != nil {
		e.video.Destroy()
	}
	if e.audio != nil {
		if err := e.audio.Close(); err != nil {
			core.LogWarn("audio shutdown: %s", err)
		}
	}
	if e.assetManager != nil {
		if err := e.assetManager.Close(); err != nil {
			core.LogWarn("asset watcher shutdown: %s", err)
		}
	}
	e.events.Shutdown()
	e.currentStage = EngineStageShutdown
	return e.platform.Shutdown()
}

// GetFramebufferSize returns the width and height (in this order) of the
// application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Frames() uint64 {
	return e.frames
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	width, height := context.Width, context.Height
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	core.LogDebug("window resize: %d, %d", width, height)

	if width == 0 || height == 0 {
		core.LogInfo("window minimized, suspending application")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("window restored, resuming application")
		e.isSuspended = false
	}

	if r, ok := e.video.(resizer); ok {
		r.Resize(width, height)
	}
	if e.backBuffer != nil {
		if err := e.createBackBuffer(); err != nil {
			core.LogError("%s", err)
		}
	}
	if e.splash != nil {
		e.splash.Resize(math.NewVec2(float32(width), float32(height)))
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError("game resize: %s", err)
		}
	}
	return false
}

func (e *Engine) onDevice(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if e.video == nil {
		return false
	}
	h, handles := e.video.(lossHandler)
	switch code {
	case core.EVENT_CODE_DEVICE_LOST:
		e.isSuspended = true
		if handles {
			h.LoseDevice()
		} else {
			e.video.BackupResources()
		}
	case core.EVENT_CODE_DEVICE_RESTORED:
		if handles {
			h.RestoreDevice()
		} else {
			e.video.RecoverResources()
		}
		e.isSuspended = e.width == 0 || e.height == 0
	}
	return false
}

func (e *Engine) onAssetChanged(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if e.sprites == nil || !e.sprites.Contains(context.Path) {
		return false
	}
	if err := e.sprites.Reload(context.Path); err != nil {
		core.LogWarn("hot reload of '%s' failed: %s", context.Path, err)
	}
	return false
}
