package engine

import (
	"github.com/spaghettifunk/anima2d/engine/assets"
	"github.com/spaghettifunk/anima2d/engine/audio"
	"github.com/spaghettifunk/anima2d/engine/config"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

// Application is what the engine hands to the game once it is initialized.
type Application struct {
	Config  *config.Config
	Video   renderer.Video
	Sprites *renderer.SpriteCache
	Audio   *audio.Context
	Jobs    *core.JobSystem
	Assets  *assets.AssetManager
	Files   platform.FileManager
	Events  *core.EventSystem
	Metrics *core.Metrics

	engine *Engine
}

// Quit stops the loop after the current frame.
func (a *Application) Quit() {
	a.Events.Fire(core.EVENT_CODE_APPLICATION_QUIT, a, core.EventContext{})
}

// Frames returns the number of frames run so far.
func (a *Application) Frames() uint64 {
	return a.engine.frames
}
