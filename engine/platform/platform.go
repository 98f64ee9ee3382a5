//go:build !headless

package platform

import (
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/anima2d/engine/core"
)

var startTime time.Time = time.Now()

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type Platform struct {
	Window *glfw.Window

	events      *core.EventSystem
	config      WindowConfig
	closing     bool
	initialized bool
}

func New(events *core.EventSystem) *Platform {
	return &Platform{
		Window: nil,
		events: events,
	}
}

func (p *Platform) Startup(config WindowConfig) error {
	p.config = config
	if config.Headless {
		core.LogInfo("platform started without a window")
		return nil
	}

	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}
	p.initialized = true

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	switch config.API {
	case ClientAPIOpenGL:
		glfw.WindowHint(glfw.ContextVersionMajor, 4)
		glfw.WindowHint(glfw.ContextVersionMinor, 1)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	default:
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	}

	window, err := glfw.CreateWindow(int(config.Width), int(config.Height), config.Title, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		return err
	}
	p.Window = window

	if config.API == ClientAPIOpenGL {
		p.Window.MakeContextCurrent()
		if config.VSync {
			glfw.SwapInterval(1)
		} else {
			glfw.SwapInterval(0)
		}
	}

	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetIconifyCallback(p.iconifyCallback)
	p.Window.SetFocusCallback(p.focusCallback)
	p.Window.SetPos(int(config.X), int(config.Y))
	p.Window.Show()

	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	if p.initialized {
		glfw.Terminate()
		p.initialized = false
	}
	return nil
}

// PumpMessages processes pending window events. It returns false once the
// window asked to close.
func (p *Platform) PumpMessages() bool {
	if p.Window == nil {
		return !p.closing
	}
	glfw.PollEvents()
	return !p.closing && !p.Window.ShouldClose()
}

// SwapBuffers presents the back buffer of a GL context window.
func (p *Platform) SwapBuffers() {
	if p.Window != nil && p.config.API == ClientAPIOpenGL {
		p.Window.SwapBuffers()
	}
}

// FramebufferSize returns the drawable size in pixels.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	if p.Window == nil {
		return p.config.Width, p.config.Height
	}
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

// RequestClose makes the next PumpMessages return false.
func (p *Platform) RequestClose() {
	p.closing = true
}

func (p *Platform) Sleep(ms float64) {
	time.Sleep(time.Duration(ms * float64(time.Millisecond)))
}

// GetAbsoluteTime returns the seconds since the process started.
func GetAbsoluteTime() float64 {
	return time.Since(startTime).Seconds()
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, p, core.EventContext{})
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.events.Fire(core.EVENT_CODE_RESIZED, p, core.EventContext{
		Width:  uint32(width),
		Height: uint32(height),
	})
}

// Minimizing a fullscreen Direct3D9 window invalidates the device; treat the
// iconify transition as the loss and restore signal for every backend.
func (p *Platform) iconifyCallback(w *glfw.Window, iconified bool) {
	if iconified {
		p.events.Fire(core.EVENT_CODE_DEVICE_LOST, p, core.EventContext{})
	} else {
		p.events.Fire(core.EVENT_CODE_DEVICE_RESTORED, p, core.EventContext{})
	}
}

func (p *Platform) focusCallback(w *glfw.Window, focused bool) {
	p.events.Fire(core.EVENT_CODE_FOCUS_CHANGED, p, core.EventContext{Data: focused})
}
