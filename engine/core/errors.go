package core

import (
	"errors"
)

var (
	// ErrLoad is returned when a bitmap cannot be decoded or uploaded.
	ErrLoad = errors.New("load failed")
	// ErrAllocation is returned when the device rejects a render target.
	ErrAllocation = errors.New("allocation rejected by device")
	// ErrBounds is returned for animation frame indices outside the grid.
	ErrBounds = errors.New("index out of bounds")
	// ErrDeviceLost marks operations skipped because the video device is gone.
	ErrDeviceLost = errors.New("video device lost")

	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrUnknownBackend    = errors.New("unknown video backend")
	ErrUnavailable       = errors.New("not available")
	ErrUnknown           = errors.New("unknown")
)
