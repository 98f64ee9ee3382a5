package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/spaghettifunk/anima2d/engine/config"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
)

// Context owns the output device and the loaded samples.
type Context struct {
	mu           sync.Mutex
	device       Device
	globalVolume float32
	samples      []*Sample
}

func NewContext(device Device) *Context {
	return &Context{device: device, globalVolume: 1}
}

// NewContextFromConfig opens the output device described by the [audio]
// section. Disabled audio, or an output that fails to open, falls back to
// a null device.
func NewContextFromConfig(cfg config.AudioConfig) *Context {
	var device Device = NewNullDevice(cfg.SampleRate)
	if cfg.Enabled {
		d, err := OpenDevice(cfg.SampleRate)
		if err != nil {
			core.LogWarn("audio disabled: %s", err)
		} else {
			device = d
		}
	}
	c := NewContext(device)
	c.SetGlobalVolume(cfg.GlobalVolume)
	return c
}

func (c *Context) Device() Device {
	return c.device
}

func (c *Context) GlobalVolume() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.globalVolume
}

// SetGlobalVolume scales every sample, clamped to [0, 1].
func (c *Context) SetGlobalVolume(volume float32) {
	c.mu.Lock()
	c.globalVolume = math.Clamp(volume, 0, 1)
	global := c.globalVolume
	samples := append([]*Sample(nil), c.samples...)
	c.mu.Unlock()

	for _, s := range samples {
		s.mu.Lock()
		s.applyVolume(global)
		s.mu.Unlock()
	}
}

func (c *Context) LoadSample(path string, fm platform.FileManager, kind SampleType) (*Sample, error) {
	buf, ok := fm.GetFileBuffer(path)
	if !ok {
		return nil, fmt.Errorf("sample '%s': %w", path, core.ErrLoad)
	}
	s, err := c.load(buf, kind, platform.GetFileName(path))
	if err != nil {
		return nil, fmt.Errorf("sample '%s': %w", path, err)
	}
	return s, nil
}

// LoadSampleAsync decodes the sample on a job worker and hands it to done
// from JobSystem.Update.
func (c *Context) LoadSampleAsync(jobs *core.JobSystem, path string, fm platform.FileManager, kind SampleType, done func(*Sample, error)) error {
	return jobs.Submit(core.Job{
		Name: "sample " + path,
		Work: func() (interface{}, error) {
			return c.LoadSample(path, fm, kind)
		},
		OnComplete: func(result interface{}) { done(result.(*Sample), nil) },
		OnFailure:  func(err error) { done(nil, err) },
	})
}

func (c *Context) LoadSampleFromMemory(buf []byte, kind SampleType) (*Sample, error) {
	return c.load(buf, kind, "memory")
}

func (c *Context) load(buf []byte, kind SampleType, name string) (*Sample, error) {
	rate := c.device.SampleRate()
	pcm, length, err := decode(buf, rate, kind.Streams())
	if err != nil {
		return nil, err
	}

	proc := newProcessor(pcm)
	s := &Sample{
		id:     core.NewIdentifier(),
		name:   name,
		kind:   kind,
		ctx:    c,
		proc:   proc,
		voice:  c.device.NewVoice(proc),
		volume: 1,
		speed:  1,
	}
	if length > 0 && rate > 0 {
		s.duration = time.Duration(length / frameSize * int64(time.Second) / int64(rate))
	}
	s.applyVolume(c.GlobalVolume())

	c.mu.Lock()
	c.samples = append(c.samples, s)
	c.mu.Unlock()
	core.LogDebug("loaded %s sample '%s' (%s)", kind, name, s.duration)
	return s, nil
}

func (c *Context) forget(s *Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, other := range c.samples {
		if other == s {
			c.samples = append(c.samples[:i], c.samples[i+1:]...)
			return
		}
	}
}

// Update advances devices that do not run on their own clock.
func (c *Context) Update(elapsed time.Duration) {
	if d, ok := c.device.(interface{ Advance(time.Duration) }); ok {
		d.Advance(elapsed)
	}
}

func (c *Context) Close() error {
	c.mu.Lock()
	samples := append([]*Sample(nil), c.samples...)
	c.mu.Unlock()
	for _, s := range samples {
		s.Release()
	}
	return c.device.Close()
}
