package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"testing/fstest"
	"time"

	"github.com/spaghettifunk/anima2d/engine/config"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
)

const testRate = 44100

// pcmWAV builds a 16-bit stereo WAV holding frames copies of (l, r).
func pcmWAV(frames int, l, r int16) []byte {
	data := new(bytes.Buffer)
	for i := 0; i < frames; i++ {
		binary.Write(data, binary.LittleEndian, l)
		binary.Write(data, binary.LittleEndian, r)
	}

	out := new(bytes.Buffer)
	out.WriteString("RIFF")
	binary.Write(out, binary.LittleEndian, uint32(36+data.Len()))
	out.WriteString("WAVE")
	out.WriteString("fmt ")
	binary.Write(out, binary.LittleEndian, uint32(16))
	binary.Write(out, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(out, binary.LittleEndian, uint16(2))
	binary.Write(out, binary.LittleEndian, uint32(testRate))
	binary.Write(out, binary.LittleEndian, uint32(testRate*frameSize))
	binary.Write(out, binary.LittleEndian, uint16(frameSize))
	binary.Write(out, binary.LittleEndian, uint16(16))
	out.WriteString("data")
	binary.Write(out, binary.LittleEndian, uint32(data.Len()))
	out.Write(data.Bytes())
	return out.Bytes()
}

func rawFrames(frames int, l, r int16) []byte {
	buf := make([]byte, frames*frameSize)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(buf[i*frameSize:], uint16(l))
		binary.LittleEndian.PutUint16(buf[i*frameSize+2:], uint16(r))
	}
	return buf
}

// readFrames drains r through a frame-aligned buffer.
func readFrames(r io.Reader) ([]byte, error) {
	var out []byte
	buf := make([]byte, 64*frameSize)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}

func newTestContext() (*Context, *NullDevice) {
	device := NewNullDevice(testRate)
	return NewContext(device), device
}

func loadEffect(t *testing.T, ctx *Context, frames int) *Sample {
	t.Helper()
	s, err := ctx.LoadSampleFromMemory(pcmWAV(frames, 1000, -1000), SampleTypeSoundEffect)
	if err != nil {
		t.Fatalf("LoadSampleFromMemory: %v", err)
	}
	return s
}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want Encoding
	}{
		{"wav", pcmWAV(1, 0, 0), EncodingWAV},
		{"ogg", []byte("OggS\x00\x02"), EncodingVorbis},
		{"riff without wave", []byte("RIFF\x00\x00\x00\x00AVI "), EncodingUnknown},
		{"empty", nil, EncodingUnknown},
	}
	for _, tt := range tests {
		if got := DetectEncoding(tt.buf); got != tt.want {
			t.Fatalf("%s: DetectEncoding = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	ctx, _ := newTestContext()
	if _, err := ctx.LoadSampleFromMemory([]byte("not audio"), SampleTypeSoundEffect); !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Fatalf("unknown data: err = %v, want ErrUnsupportedFormat", err)
	}
	broken := pcmWAV(10, 0, 0)[:20]
	if _, err := ctx.LoadSampleFromMemory(broken, SampleTypeSoundEffect); !errors.Is(err, core.ErrLoad) {
		t.Fatalf("truncated wav: err = %v, want ErrLoad", err)
	}
	fm := platform.NewFSFileManager(fstest.MapFS{})
	if _, err := ctx.LoadSample("sfx/missing.wav", fm, SampleTypeSoundEffect); !errors.Is(err, core.ErrLoad) {
		t.Fatalf("missing file: err = %v, want ErrLoad", err)
	}
}

func TestLoadSampleFromFile(t *testing.T) {
	ctx, _ := newTestContext()
	fm := platform.NewFSFileManager(fstest.MapFS{
		"music/theme.wav": {Data: pcmWAV(testRate, 1, 1)},
	})
	s, err := ctx.LoadSample("music/theme.wav", fm, SampleTypeMusic)
	if err != nil {
		t.Fatalf("LoadSample: %v", err)
	}
	if s.Name() != "theme.wav" || s.Type() != SampleTypeMusic {
		t.Fatalf("sample = %q %s", s.Name(), s.Type())
	}
	if s.Duration() != time.Second {
		t.Fatalf("Duration = %s, want 1s", s.Duration())
	}
	if s.Status() != StatusStopped {
		t.Fatalf("new sample status = %s", s.Status())
	}
}

func TestLoadSampleAsync(t *testing.T) {
	ctx, _ := newTestContext()
	jobs, err := core.NewJobSystem(1, 2)
	if err != nil {
		t.Fatalf("NewJobSystem: %v", err)
	}
	defer jobs.Shutdown()
	fm := platform.NewFSFileManager(fstest.MapFS{
		"sfx/shot.wav": {Data: pcmWAV(testRate/10, 1, 1)},
	})

	var loaded *Sample
	var failed error
	if err := ctx.LoadSampleAsync(jobs, "sfx/shot.wav", fm, SampleTypeSoundEffect, func(s *Sample, err error) { loaded = s }); err != nil {
		t.Fatalf("LoadSampleAsync: %v", err)
	}
	if err := ctx.LoadSampleAsync(jobs, "sfx/missing.wav", fm, SampleTypeSoundEffect, func(s *Sample, err error) { failed = err }); err != nil {
		t.Fatalf("LoadSampleAsync: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for jobs.Pending() > 0 && time.Now().Before(deadline) {
		jobs.Update()
		time.Sleep(time.Millisecond)
	}
	if loaded == nil || loaded.Name() != "shot.wav" {
		t.Fatalf("sample not delivered: %v", loaded)
	}
	if !errors.Is(failed, core.ErrLoad) {
		t.Fatalf("missing file: err = %v, want ErrLoad", failed)
	}
}

func TestSampleTypeStreams(t *testing.T) {
	streaming := map[SampleType]bool{
		SampleTypeUnknown:     false,
		SampleTypeSoundEffect: false,
		SampleTypeMusic:       true,
		SampleTypeAmbientSFX:  true,
		SampleTypeSoundtrack:  true,
	}
	for kind, want := range streaming {
		if kind.Streams() != want {
			t.Fatalf("%s.Streams() = %v, want %v", kind, kind.Streams(), want)
		}
	}
}

func TestPlayPauseResume(t *testing.T) {
	ctx, device := newTestContext()
	s := loadEffect(t, ctx, testRate/10)

	s.Play()
	if !s.IsPlaying() {
		t.Fatalf("status after Play = %s", s.Status())
	}
	device.Advance(20 * time.Millisecond)
	s.Pause()
	if s.Status() != StatusPaused {
		t.Fatalf("status after Pause = %s", s.Status())
	}
	paused := s.proc.cursor
	device.Advance(time.Second)
	if s.proc.cursor != paused {
		t.Fatalf("paused sample advanced from %v to %v", paused, s.proc.cursor)
	}

	s.Play()
	if s.Status() != StatusPlaying || s.proc.cursor != paused {
		t.Fatalf("resume: status %s cursor %v, want playing at %v", s.Status(), s.proc.cursor, paused)
	}
}

func TestPlayFinishesIntoStopped(t *testing.T) {
	ctx, device := newTestContext()
	s := loadEffect(t, ctx, testRate/10)

	s.Play()
	ctx.Update(time.Second)
	if s.Status() != StatusStopped {
		t.Fatalf("finished sample status = %s, want stopped", s.Status())
	}
	if s.proc.cursor != 0 {
		t.Fatalf("finished sample not rewound, cursor %v", s.proc.cursor)
	}

	s.Play()
	device.Advance(10 * time.Millisecond)
	if !s.IsPlaying() {
		t.Fatalf("replay after finish did not start")
	}
}

func TestStopRewinds(t *testing.T) {
	ctx, device := newTestContext()
	s := loadEffect(t, ctx, testRate)

	s.Play()
	device.Advance(100 * time.Millisecond)
	if s.proc.cursor == 0 {
		t.Fatalf("playing sample did not advance")
	}
	s.Stop()
	if s.Status() != StatusStopped || s.proc.cursor != 0 {
		t.Fatalf("Stop: status %s cursor %v", s.Status(), s.proc.cursor)
	}
}

func TestPlayWhilePlayingRestarts(t *testing.T) {
	ctx, device := newTestContext()
	s := loadEffect(t, ctx, testRate)

	s.Play()
	device.Advance(100 * time.Millisecond)
	s.Play()
	if s.proc.cursor != 0 || !s.IsPlaying() {
		t.Fatalf("restart: cursor %v status %s", s.proc.cursor, s.Status())
	}
}

func TestLoopKeepsPlaying(t *testing.T) {
	ctx, device := newTestContext()
	s := loadEffect(t, ctx, testRate/100)
	s.SetLoop(true)
	s.Play()
	device.Advance(time.Second)
	if !s.IsPlaying() || !s.Loop() {
		t.Fatalf("looping sample stopped")
	}
}

func TestClamps(t *testing.T) {
	ctx, _ := newTestContext()
	s := loadEffect(t, ctx, 10)

	speeds := []struct{ in, want float32 }{{5, MaxSpeed}, {0.1, MinSpeed}, {1.25, 1.25}}
	for _, tt := range speeds {
		s.SetSpeed(tt.in)
		if s.Speed() != tt.want {
			t.Fatalf("SetSpeed(%v) = %v, want %v", tt.in, s.Speed(), tt.want)
		}
	}
	pans := []struct{ in, want float32 }{{-3, -1}, {2, 1}, {0.25, 0.25}}
	for _, tt := range pans {
		s.SetPan(tt.in)
		if s.Pan() != tt.want {
			t.Fatalf("SetPan(%v) = %v, want %v", tt.in, s.Pan(), tt.want)
		}
	}
}

func TestVolumeScalesWithGlobal(t *testing.T) {
	ctx, _ := newTestContext()
	s := loadEffect(t, ctx, 10)
	voice := s.voice.(*nullVoice)

	ctx.SetGlobalVolume(0.5)
	s.SetVolume(0.5)
	if got := s.EffectiveVolume(); got != 0.25 {
		t.Fatalf("EffectiveVolume = %v, want 0.25", got)
	}
	if voice.volume != 0.25 {
		t.Fatalf("voice volume = %v, want 0.25", voice.volume)
	}

	ctx.SetGlobalVolume(2)
	if ctx.GlobalVolume() != 1 || voice.volume != 0.5 {
		t.Fatalf("global clamp: global %v voice %v", ctx.GlobalVolume(), voice.volume)
	}
	s.SetVolume(-1)
	if s.Volume() != 0 {
		t.Fatalf("SetVolume(-1) = %v", s.Volume())
	}
}

func TestProcessorPan(t *testing.T) {
	tests := []struct {
		pan  float64
		l, r int16
	}{
		{0, 1000, 1000},
		{0.5, 500, 1000},
		{-1, 1000, 0},
		{1, 0, 1000},
	}
	for _, tt := range tests {
		p := newProcessor(bytes.NewReader(rawFrames(4, 1000, 1000)))
		p.setPan(tt.pan)
		out := make([]byte, frameSize)
		if _, err := p.Read(out); err != nil {
			t.Fatalf("pan %v: Read: %v", tt.pan, err)
		}
		l := int16(binary.LittleEndian.Uint16(out))
		r := int16(binary.LittleEndian.Uint16(out[2:]))
		if l != tt.l || r != tt.r {
			t.Fatalf("pan %v: got (%d, %d), want (%d, %d)", tt.pan, l, r, tt.l, tt.r)
		}
	}
}

func TestProcessorSpeed(t *testing.T) {
	tests := []struct {
		speed float64
		want  int
	}{
		{1, 100},
		{2, 50},
		{0.5, 200},
	}
	for _, tt := range tests {
		p := newProcessor(bytes.NewReader(rawFrames(100, 1, 1)))
		p.setSpeed(tt.speed)
		out, err := readFrames(p)
		if err != nil {
			t.Fatalf("speed %v: ReadAll: %v", tt.speed, err)
		}
		if got := len(out) / frameSize; got != tt.want {
			t.Fatalf("speed %v: %d frames, want %d", tt.speed, got, tt.want)
		}
	}
}

func TestProcessorSeekOnlyRewinds(t *testing.T) {
	p := newProcessor(bytes.NewReader(rawFrames(10, 1, 1)))
	if _, err := p.Seek(4, io.SeekStart); err == nil {
		t.Fatalf("Seek(4) succeeded")
	}
	readFrames(p)
	if _, err := p.Seek(0, io.SeekStart); err != nil || p.cursor != 0 {
		t.Fatalf("rewind: err %v cursor %v", err, p.cursor)
	}
}

func TestContextFromConfigDisabled(t *testing.T) {
	ctx := NewContextFromConfig(config.AudioConfig{Enabled: false, GlobalVolume: 0.7, SampleRate: 22050})
	if _, ok := ctx.Device().(*NullDevice); !ok {
		t.Fatalf("disabled audio opened %T", ctx.Device())
	}
	if ctx.Device().SampleRate() != 22050 || ctx.GlobalVolume() != 0.7 {
		t.Fatalf("config not applied: rate %d volume %v", ctx.Device().SampleRate(), ctx.GlobalVolume())
	}
}

func TestCloseReleasesSamples(t *testing.T) {
	ctx, device := newTestContext()
	s := loadEffect(t, ctx, 10)
	s.Play()
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s.IsPlaying() || len(ctx.samples) != 0 || len(device.voices) != 0 {
		t.Fatalf("Close left state behind: playing %v samples %d voices %d", s.IsPlaying(), len(ctx.samples), len(device.voices))
	}
}
