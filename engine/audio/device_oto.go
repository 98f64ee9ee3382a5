//go:build !headless

package audio

import (
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/spaghettifunk/anima2d/engine/core"
)

var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoRate    int
	otoErr     error
	suspended  bool
)

// OtoDevice plays voices on the system audio output.
type OtoDevice struct {
	ctx *oto.Context
}

// OpenDevice opens the system output. oto allows a single context per
// process, so later calls share the first one and its sample rate.
func OpenDevice(sampleRate int) (Device, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoErr = err
			return
		}
		<-ready
		otoContext = ctx
		otoRate = sampleRate
	})
	if otoErr != nil {
		return nil, fmt.Errorf("audio output: %v: %w", otoErr, core.ErrUnavailable)
	}
	if suspended {
		if err := otoContext.Resume(); err != nil {
			return nil, fmt.Errorf("audio output: %v: %w", err, core.ErrUnavailable)
		}
		suspended = false
	}
	if otoRate != sampleRate {
		core.LogWarn("audio output already opened at %d Hz, ignoring %d Hz", otoRate, sampleRate)
	}
	return &OtoDevice{ctx: otoContext}, nil
}

func (d *OtoDevice) SampleRate() int {
	return otoRate
}

func (d *OtoDevice) NewVoice(src io.ReadSeeker) Voice {
	return d.ctx.NewPlayer(src)
}

// Close suspends the output. The context itself lives as long as the
// process.
func (d *OtoDevice) Close() error {
	suspended = true
	return d.ctx.Suspend()
}
