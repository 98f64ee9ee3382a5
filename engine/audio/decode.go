package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"

	"github.com/spaghettifunk/anima2d/engine/core"
)

// Encoding of a sample file, detected from its header.
type Encoding int

const (
	EncodingUnknown Encoding = iota
	EncodingWAV
	EncodingVorbis
)

func (e Encoding) String() string {
	switch e {
	case EncodingWAV:
		return "wav"
	case EncodingVorbis:
		return "vorbis"
	}
	return "unknown"
}

func DetectEncoding(buf []byte) Encoding {
	switch {
	case len(buf) >= 12 && string(buf[:4]) == "RIFF" && string(buf[8:12]) == "WAVE":
		return EncodingWAV
	case len(buf) >= 4 && string(buf[:4]) == "OggS":
		return EncodingVorbis
	}
	return EncodingUnknown
}

type pcmStream interface {
	io.ReadSeeker
	Length() int64
}

// decode returns 16-bit stereo PCM at sampleRate. Streaming types keep the
// decoder, the others are decoded up front.
func decode(buf []byte, sampleRate int, streaming bool) (io.ReadSeeker, int64, error) {
	var (
		stream pcmStream
		err    error
	)
	switch enc := DetectEncoding(buf); enc {
	case EncodingWAV:
		stream, err = wav.DecodeWithSampleRate(sampleRate, bytes.NewReader(buf))
	case EncodingVorbis:
		stream, err = vorbis.DecodeWithSampleRate(sampleRate, bytes.NewReader(buf))
	default:
		return nil, 0, fmt.Errorf("audio encoding: %w", core.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("decode audio: %v: %w", err, core.ErrLoad)
	}
	if streaming {
		return stream, stream.Length(), nil
	}

	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, 0, fmt.Errorf("decode audio: %v: %w", err, core.ErrLoad)
	}
	return bytes.NewReader(pcm), int64(len(pcm)), nil
}
