//go:build headless

package platform

import (
	"time"

	"github.com/spaghettifunk/anima2d/engine/core"
)

var startTime time.Time = time.Now()

// Platform is the window-less stand-in used by headless builds.
type Platform struct {
	events  *core.EventSystem
	config  WindowConfig
	closing bool
}

func New(events *core.EventSystem) *Platform {
	return &Platform{events: events}
}

func (p *Platform) Startup(config WindowConfig) error {
	p.config = config
	core.LogInfo("headless platform started (%dx%d)", config.Width, config.Height)
	return nil
}

func (p *Platform) Shutdown() error {
	return nil
}

func (p *Platform) PumpMessages() bool {
	return !p.closing
}

func (p *Platform) SwapBuffers() {}

func (p *Platform) FramebufferSize() (uint32, uint32) {
	return p.config.Width, p.config.Height
}

func (p *Platform) RequestClose() {
	p.closing = true
}

func (p *Platform) Sleep(ms float64) {
	time.Sleep(time.Duration(ms * float64(time.Millisecond)))
}

func GetAbsoluteTime() float64 {
	return time.Since(startTime).Seconds()
}
