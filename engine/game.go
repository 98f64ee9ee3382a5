package engine

import (
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

// Game is the application driven by the engine. Only FnRender is required.
type Game struct {
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

type Initialize func(app *Application) error
type Update func(deltaTime float64) error

// Render draws one frame. The scene, or the dynamic back buffer target, is
// already bound when it is called.
type Render func(video renderer.Video, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
