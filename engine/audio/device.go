package audio

import (
	"io"
	"sync"
	"time"
)

// bytes per frame of 16-bit stereo PCM
const frameSize = 4

// Voice plays one PCM stream on an output device.
type Voice interface {
	Play()
	Pause()
	IsPlaying() bool
	SetVolume(volume float64)
	// Seek repositions the source and drops whatever the voice buffered.
	Seek(offset int64, whence int) (int64, error)
	Close() error
}

// Device mixes voices of signed 16-bit little endian stereo PCM.
type Device interface {
	SampleRate() int
	NewVoice(src io.ReadSeeker) Voice
	Close() error
}

// NullDevice consumes audio without producing sound. Playback only
// advances through Advance, which keeps it deterministic.
type NullDevice struct {
	mu         sync.Mutex
	sampleRate int
	voices     []*nullVoice
}

func NewNullDevice(sampleRate int) *NullDevice {
	return &NullDevice{sampleRate: sampleRate}
}

func (d *NullDevice) SampleRate() int {
	return d.sampleRate
}

func (d *NullDevice) NewVoice(src io.ReadSeeker) Voice {
	d.mu.Lock()
	defer d.mu.Unlock()
	v := &nullVoice{device: d, src: src, volume: 1}
	d.voices = append(d.voices, v)
	return v
}

// Advance pulls elapsed worth of frames out of every playing voice.
func (d *NullDevice) Advance(elapsed time.Duration) {
	frames := int64(elapsed.Seconds() * float64(d.sampleRate))
	if frames <= 0 {
		return
	}
	d.mu.Lock()
	voices := append([]*nullVoice(nil), d.voices...)
	d.mu.Unlock()

	for _, v := range voices {
		v.consume(frames * frameSize)
	}
}

func (d *NullDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.voices = nil
	return nil
}

func (d *NullDevice) remove(v *nullVoice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, other := range d.voices {
		if other == v {
			d.voices = append(d.voices[:i], d.voices[i+1:]...)
			return
		}
	}
}

type nullVoice struct {
	mu      sync.Mutex
	device  *NullDevice
	src     io.ReadSeeker
	playing bool
	volume  float64
	scratch []byte
}

func (v *nullVoice) Play() {
	v.mu.Lock()
	v.playing = true
	v.mu.Unlock()
}

func (v *nullVoice) Pause() {
	v.mu.Lock()
	v.playing = false
	v.mu.Unlock()
}

func (v *nullVoice) IsPlaying() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.playing
}

func (v *nullVoice) SetVolume(volume float64) {
	v.mu.Lock()
	v.volume = volume
	v.mu.Unlock()
}

func (v *nullVoice) Seek(offset int64, whence int) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.src.Seek(offset, whence)
}

func (v *nullVoice) Close() error {
	v.Pause()
	v.device.remove(v)
	return nil
}

func (v *nullVoice) consume(n int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.playing {
		return
	}
	if int64(cap(v.scratch)) < n {
		v.scratch = make([]byte, n)
	}
	read, err := io.ReadFull(v.src, v.scratch[:n])
	if err != nil || int64(read) < n {
		v.playing = false
	}
}
