package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"
)

const readChunk = 4096

// processor resamples a 16-bit stereo stream by the playback speed,
// applies the pan and loops when asked to. It is the source the device
// pulls from.
type processor struct {
	mu  sync.Mutex
	src io.ReadSeeker

	speed float64
	pan   float64
	loop  bool

	// source frames [bufStart, bufStart+len(buf)/frameSize) are buffered
	buf      []byte
	bufStart int64
	cursor   float64
	eof      bool
}

func newProcessor(src io.ReadSeeker) *processor {
	return &processor{src: src, speed: 1}
}

func (p *processor) setSpeed(speed float64) {
	p.mu.Lock()
	p.speed = speed
	p.mu.Unlock()
}

func (p *processor) setPan(pan float64) {
	p.mu.Lock()
	p.pan = pan
	p.mu.Unlock()
}

func (p *processor) setLoop(loop bool) {
	p.mu.Lock()
	p.loop = loop
	p.mu.Unlock()
}

func (p *processor) Read(out []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for n+frameSize <= len(out) {
		l, r, ok, err := p.frame(int64(p.cursor))
		if err != nil {
			return n, err
		}
		if !ok {
			if p.loop && p.cursor >= 1 {
				if err := p.rewind(); err != nil {
					return n, err
				}
				continue
			}
			break
		}
		l, r = applyPan(l, r, p.pan)
		binary.LittleEndian.PutUint16(out[n:], uint16(l))
		binary.LittleEndian.PutUint16(out[n+2:], uint16(r))
		n += frameSize
		p.cursor += p.speed
	}
	if n == 0 && len(out) >= frameSize {
		return 0, io.EOF
	}
	return n, nil
}

// Seek only supports rewinding to the start, which is what stopping a
// sample needs.
func (p *processor) Seek(offset int64, whence int) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if offset != 0 || whence != io.SeekStart {
		return 0, errors.New("audio: processor only seeks to the start")
	}
	return 0, p.rewind()
}

func (p *processor) rewind() error {
	if _, err := p.src.Seek(0, io.SeekStart); err != nil {
		return err
	}
	p.buf = p.buf[:0]
	p.bufStart = 0
	p.cursor = 0
	p.eof = false
	return nil
}

// frame returns source frame i, reading ahead as needed.
func (p *processor) frame(i int64) (int16, int16, bool, error) {
	for i >= p.bufStart+int64(len(p.buf)/frameSize) {
		if p.eof {
			return 0, 0, false, nil
		}
		if err := p.fill(i); err != nil {
			return 0, 0, false, err
		}
	}
	off := (i - p.bufStart) * frameSize
	l := int16(binary.LittleEndian.Uint16(p.buf[off:]))
	r := int16(binary.LittleEndian.Uint16(p.buf[off+2:]))
	return l, r, true, nil
}

// fill drops frames before i and appends the next chunk of the source.
func (p *processor) fill(i int64) error {
	buffered := int64(len(p.buf) / frameSize)
	if drop := i - p.bufStart; drop > 0 {
		if drop > buffered {
			drop = buffered
		}
		p.buf = append(p.buf[:0], p.buf[drop*frameSize:]...)
		p.bufStart += drop
	}

	start := len(p.buf)
	p.buf = append(p.buf, make([]byte, readChunk)...)
	read, err := io.ReadAtLeast(p.src, p.buf[start:], frameSize)
	read -= read % frameSize
	p.buf = p.buf[:start+read]
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		p.eof = true
	case err != nil:
		return err
	}
	return nil
}

// applyPan attenuates the channel opposite to pan, -1 being full left.
func applyPan(l, r int16, pan float64) (int16, int16) {
	switch {
	case pan > 0:
		l = int16(float64(l) * (1 - pan))
	case pan < 0:
		r = int16(float64(r) * (1 + pan))
	}
	return l, r
}
