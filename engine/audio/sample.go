package audio

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
)

type SampleType int

const (
	SampleTypeUnknown SampleType = iota
	SampleTypeSoundEffect
	SampleTypeMusic
	SampleTypeAmbientSFX
	SampleTypeSoundtrack
)

func (t SampleType) String() string {
	switch t {
	case SampleTypeSoundEffect:
		return "sound effect"
	case SampleTypeMusic:
		return "music"
	case SampleTypeAmbientSFX:
		return "ambient sfx"
	case SampleTypeSoundtrack:
		return "soundtrack"
	}
	return "unknown"
}

// Streams reports whether samples of this type are decoded while playing.
func (t SampleType) Streams() bool {
	return t == SampleTypeMusic || t == SampleTypeAmbientSFX || t == SampleTypeSoundtrack
}

type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	}
	return "stopped"
}

const (
	MinSpeed = 0.5
	MaxSpeed = 2
)

// Sample is a loaded sound and its playback state.
type Sample struct {
	mu sync.Mutex

	id       uuid.UUID
	name     string
	kind     SampleType
	duration time.Duration

	ctx   *Context
	proc  *processor
	voice Voice

	status   Status
	released bool
	volume   float32
	speed    float32
	pan      float32
	loop     bool
}

func (s *Sample) ID() uuid.UUID           { return s.id }
func (s *Sample) Name() string            { return s.name }
func (s *Sample) Type() SampleType        { return s.kind }
func (s *Sample) Duration() time.Duration { return s.duration }

// Play starts the sample, resuming a paused one. A sample that is already
// playing restarts from the beginning.
func (s *Sample) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshStatus() == StatusPlaying {
		s.voice.Pause()
		s.rewind()
	}
	s.voice.Play()
	s.status = StatusPlaying
}

func (s *Sample) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshStatus() != StatusPlaying {
		return
	}
	s.voice.Pause()
	s.status = StatusPaused
}

// Stop halts playback and rewinds to the start.
func (s *Sample) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voice.Pause()
	s.rewind()
	s.status = StatusStopped
}

func (s *Sample) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshStatus()
}

func (s *Sample) IsPlaying() bool {
	return s.Status() == StatusPlaying
}

// refreshStatus turns a finished playing sample into a stopped one.
func (s *Sample) refreshStatus() Status {
	if s.status == StatusPlaying && !s.voice.IsPlaying() {
		s.status = StatusStopped
		s.rewind()
	}
	return s.status
}

func (s *Sample) rewind() {
	if _, err := s.voice.Seek(0, io.SeekStart); err != nil {
		core.LogWarn("sample '%s': rewind failed: %s", s.name, err)
	}
}

func (s *Sample) SetLoop(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loop = loop
	s.proc.setLoop(loop)
}

func (s *Sample) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

// SetSpeed changes the playback rate, clamped to [MinSpeed, MaxSpeed].
func (s *Sample) SetSpeed(speed float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = math.Clamp(speed, MinSpeed, MaxSpeed)
	s.proc.setSpeed(float64(s.speed))
}

func (s *Sample) Speed() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// SetPan moves the sound between the left (-1) and right (1) channel.
func (s *Sample) SetPan(pan float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pan = math.Clamp(pan, -1, 1)
	s.proc.setPan(float64(s.pan))
}

func (s *Sample) Pan() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pan
}

// SetVolume sets the sample volume in [0, 1]. The output volume is scaled
// by the context global volume.
func (s *Sample) SetVolume(volume float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = math.Clamp(volume, 0, 1)
	s.applyVolume(s.ctx.GlobalVolume())
}

func (s *Sample) Volume() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// EffectiveVolume is the volume the device plays at.
func (s *Sample) EffectiveVolume() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume * s.ctx.GlobalVolume()
}

func (s *Sample) applyVolume(global float32) {
	s.voice.SetVolume(float64(s.volume * global))
}

func (s *Sample) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	s.voice.Pause()
	s.status = StatusStopped
	if err := s.voice.Close(); err != nil {
		core.LogDebug("sample '%s': close: %s", s.name, err)
	}
	s.ctx.forget(s)
}
