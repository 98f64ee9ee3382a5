package metadata

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/math"
)

/** @brief The in-memory layout of texture pixels. */
type PixelFormat int

const (
	/** @brief 8 bits per channel, stored R, G, B, A. */
	PixelFormatRGBA8 PixelFormat = iota
	/** @brief 8 bits per channel, stored B, G, R, A (Direct3D A8R8G8B8 in memory). */
	PixelFormatBGRA8
)

func (f PixelFormat) String() string {
	switch f {
	case PixelFormatRGBA8:
		return "RGBA8"
	case PixelFormatBGRA8:
		return "BGRA8"
	}
	return fmt.Sprintf("PixelFormat(%d)", int(f))
}

/** @brief Requested format for render target textures. */
type TargetFormat int

const (
	/** @brief Whatever the backend considers its native 32 bit format. */
	TargetFormatDefault TargetFormat = iota
	/** @brief 32 bit with alpha. */
	TargetFormatARGB
	/** @brief 32 bit, alpha is ignored. */
	TargetFormatRGB
)

/** @brief Encodings available when saving a bitmap to disk. */
type BitmapFormat int

const (
	BitmapFormatBMP BitmapFormat = iota
	BitmapFormatJPG
	BitmapFormatPNG
	BitmapFormatTIFF
	/** @brief Recognized for completeness; encoding always fails. */
	BitmapFormatTGA
	BitmapFormatDDS
)

func (f BitmapFormat) Extension() string {
	switch f {
	case BitmapFormatBMP:
		return ".bmp"
	case BitmapFormatJPG:
		return ".jpg"
	case BitmapFormatPNG:
		return ".png"
	case BitmapFormatTIFF:
		return ".tiff"
	case BitmapFormatTGA:
		return ".tga"
	case BitmapFormatDDS:
		return ".dds"
	}
	return ""
}

/**
 * @brief Describes a texture: its size in texels and pixel layout.
 */
type TextureProfile struct {
	Width  uint32
	Height uint32
	Format PixelFormat
}

// Size returns the profile dimensions as a float vector.
func (p TextureProfile) Size() math.Vec2 {
	return math.NewVec2(float32(p.Width), float32(p.Height))
}

/** @brief The kind of resource a sprite wraps. */
type SpriteType int

const (
	/** @brief A texture loaded from an image. */
	SpriteTypeBitmap SpriteType = iota
	/** @brief A texture that can be rendered into. */
	SpriteTypeTarget
)

func (t SpriteType) String() string {
	if t == SpriteTypeTarget {
		return "target"
	}
	return "bitmap"
}

// Color is a packed 0xAARRGGBB value.
type Color uint32

const (
	ColorWhite       Color = 0xFFFFFFFF
	ColorBlack       Color = 0xFF000000
	ColorTransparent Color = 0x00000000
)

func NewColor(a, r, g, b uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

// Vec4 returns the color as normalized (r, g, b, a).
func (c Color) Vec4() math.Vec4 {
	return math.NewVec4(
		float32(c.R())/255.0,
		float32(c.G())/255.0,
		float32(c.B())/255.0,
		float32(c.A())/255.0,
	)
}

/**
 * @brief Represents the validity of a texture's backend handle across
 * device loss.
 */
type TextureState int

const (
	/** @brief The handle is valid and holds the current contents. */
	TextureStateLive TextureState = iota
	/** @brief The handle is still valid and a copy of its contents was taken. */
	TextureStateBackedUp
	/** @brief The device was lost; the handle must not be used. */
	TextureStateLost
	/** @brief The handle was recreated and its contents restored. */
	TextureStateRecovered
)

func (s TextureState) String() string {
	switch s {
	case TextureStateLive:
		return "live"
	case TextureStateBackedUp:
		return "backed-up"
	case TextureStateLost:
		return "lost"
	case TextureStateRecovered:
		return "recovered"
	}
	return fmt.Sprintf("TextureState(%d)", int(s))
}

// TextureLifecycle tracks TextureState transitions. Backend textures embed
// it and call the transition methods from their own backup, loss and
// recovery code.
type TextureLifecycle struct {
	state TextureState
}

func (l *TextureLifecycle) State() TextureState {
	return l.state
}

// IsValid reports whether the backend handle may be used.
func (l *TextureLifecycle) IsValid() bool {
	return l.state != TextureStateLost
}

// OnBackup moves a valid texture to BackedUp. A lost texture has nothing to
// copy and stays lost.
func (l *TextureLifecycle) OnBackup() bool {
	switch l.state {
	case TextureStateLive, TextureStateRecovered, TextureStateBackedUp:
		l.state = TextureStateBackedUp
		return true
	}
	return false
}

func (l *TextureLifecycle) OnLost() {
	l.state = TextureStateLost
}

// OnRecover completes a recovery. restored says whether pixel data was
// written back into the new handle.
func (l *TextureLifecycle) OnRecover(restored bool) TextureState {
	switch l.state {
	case TextureStateLost:
		if restored {
			l.state = TextureStateRecovered
		} else {
			l.state = TextureStateLive
		}
	case TextureStateBackedUp:
		l.state = TextureStateLive
	}
	return l.state
}
