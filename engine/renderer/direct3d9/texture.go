//go:build windows && !headless

package direct3d9

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gonutz/d3d9"
	"github.com/google/uuid"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Texture is a Direct3D9 texture. Bitmaps live in the managed pool and
// survive a device reset on their own; render targets live in the default
// pool and are rebuilt from a system memory backup.
type Texture struct {
	metadata.TextureLifecycle

	id      uuid.UUID
	profile metadata.TextureProfile
	format  d3d9.FORMAT
	target  bool
	video   *Video

	tex *d3d9.Texture

	// BGRA rows, 4*width bytes each
	backup   []byte
	released bool
}

func (v *Video) newBitmapTexture(img *image.NRGBA) (*Texture, error) {
	b := img.Bounds()
	t := &Texture{
		id:      core.NewIdentifier(),
		profile: metadata.TextureProfile{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Format: metadata.PixelFormatBGRA8},
		format:  d3d9.FMT_A8R8G8B8,
		video:   v,
	}
	tex, err := v.device.CreateTexture(uint(b.Dx()), uint(b.Dy()), 1, 0, t.format, d3d9.POOL_MANAGED, 0)
	if err != nil {
		return nil, fmt.Errorf("create texture: %v: %w", err, core.ErrAllocation)
	}
	t.tex = tex
	if err := t.writeLevel(nrgbaToBGRA(img)); err != nil {
		tex.Release()
		return nil, err
	}
	return t, nil
}

func (v *Video) newTargetTexture(width, height uint32, format metadata.TargetFormat) (*Texture, error) {
	t := &Texture{
		id:      core.NewIdentifier(),
		profile: metadata.TextureProfile{Width: width, Height: height, Format: metadata.PixelFormatBGRA8},
		format:  d3d9.FMT_A8R8G8B8,
		target:  true,
		video:   v,
	}
	if format == metadata.TargetFormatRGB {
		t.format = d3d9.FMT_X8R8G8B8
	}
	if err := t.allocateTarget(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Texture) ID() uuid.UUID                    { return t.id }
func (t *Texture) Profile() metadata.TextureProfile { return t.profile }
func (t *Texture) IsRenderTarget() bool             { return t.target }

func (t *Texture) allocateTarget() error {
	tex, err := t.video.device.CreateTexture(uint(t.profile.Width), uint(t.profile.Height), 1, d3d9.USAGE_RENDERTARGET, t.format, d3d9.POOL_DEFAULT, 0)
	if err != nil {
		return fmt.Errorf("create render target: %v: %w", err, core.ErrAllocation)
	}
	t.tex = tex
	return nil
}

// writeLevel fills a managed texture.
func (t *Texture) writeLevel(bgra []byte) error {
	rect, err := t.tex.LockRect(0, nil, 0)
	if err != nil {
		return fmt.Errorf("lock texture: %v: %w", err, core.ErrAllocation)
	}
	rect.SetAllBytes(bgra, int(t.profile.Width)*4)
	return t.tex.UnlockRect(0)
}

// uploadTarget copies bgra into a default pool target through a system
// memory surface.
func (t *Texture) uploadTarget(bgra []byte) error {
	device := t.video.device
	staging, err := device.CreateOffscreenPlainSurface(uint(t.profile.Width), uint(t.profile.Height), t.format, d3d9.POOL_SYSTEMMEM, 0)
	if err != nil {
		return err
	}
	defer staging.Release()

	rect, err := staging.LockRect(nil, 0)
	if err != nil {
		return err
	}
	rect.SetAllBytes(bgra, int(t.profile.Width)*4)
	staging.UnlockRect()

	dst, err := t.tex.GetSurfaceLevel(0)
	if err != nil {
		return err
	}
	defer dst.Release()
	return device.UpdateSurface(staging, nil, dst, nil)
}

// read copies the texture to client memory as BGRA.
func (t *Texture) read() ([]byte, error) {
	if t.tex == nil {
		return nil, core.ErrDeviceLost
	}
	if !t.target {
		rect, err := t.tex.LockRect(0, nil, d3d9.LOCK_READONLY)
		if err != nil {
			return nil, err
		}
		defer t.tex.UnlockRect(0)
		return copyLocked(rect, t.profile.Width, t.profile.Height), nil
	}

	surface, err := t.tex.GetSurfaceLevel(0)
	if err != nil {
		return nil, err
	}
	defer surface.Release()
	return t.video.readSurface(surface, t.profile.Width, t.profile.Height, t.format)
}

func (t *Texture) SaveBitmap(path string, format metadata.BitmapFormat, rect *math.Rect2D) error {
	bgra, err := t.read()
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return renderer.WriteBitmap(path, bgraToNRGBA(bgra, t.profile.Width, t.profile.Height), format, rect)
}

func (t *Texture) SaveTargetSurfaceBackup() error {
	if t.tex == nil {
		return fmt.Errorf("backup of texture %s: %w", core.ShortID(t.id), core.ErrDeviceLost)
	}
	if t.target {
		bgra, err := t.read()
		if err != nil {
			return fmt.Errorf("backup of texture %s: %v: %w", core.ShortID(t.id), err, core.ErrDeviceLost)
		}
		t.backup = bgra
	}
	t.OnBackup()
	return nil
}

// OnLostDevice drops default pool resources. Managed bitmaps keep their
// handle.
func (t *Texture) OnLostDevice() {
	if t.target && t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
	t.OnLost()
}

func (t *Texture) Recover() error {
	switch t.State() {
	case metadata.TextureStateLost:
		if !t.target {
			t.OnRecover(true)
			return nil
		}
		if err := t.allocateTarget(); err != nil {
			return err
		}
		restored := false
		if t.backup != nil {
			if err := t.uploadTarget(t.backup); err != nil {
				core.LogWarn("texture %s: restoring backup failed: %s", core.ShortID(t.id), err)
			} else {
				restored = true
			}
		}
		t.backup = nil
		t.OnRecover(restored)
	case metadata.TextureStateBackedUp:
		t.backup = nil
		t.OnRecover(false)
	}
	return nil
}

func (t *Texture) Release() {
	if t.released {
		return
	}
	t.released = true
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
	t.backup = nil
}

func copyLocked(rect d3d9.LOCKED_RECT, width, height uint32) []byte {
	rowBytes := int(width) * 4
	out := make([]byte, rowBytes*int(height))
	for y := 0; y < int(height); y++ {
		row := unsafe.Pointer(uintptr(rect.PBits) + uintptr(y)*uintptr(rect.Pitch))
		copy(out[y*rowBytes:(y+1)*rowBytes], unsafe.Slice((*byte)(row), rowBytes))
	}
	return out
}

func nrgbaToBGRA(img *image.NRGBA) []byte {
	b := img.Bounds()
	out := make([]byte, 4*b.Dx()*b.Dy())
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			o := img.PixOffset(x, y)
			out[i] = img.Pix[o+2]
			out[i+1] = img.Pix[o+1]
			out[i+2] = img.Pix[o]
			out[i+3] = img.Pix[o+3]
			i += 4
		}
	}
	return out
}

func bgraToNRGBA(buf []byte, width, height uint32) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	for i := 0; i+3 < len(buf) && i+3 < len(img.Pix); i += 4 {
		img.Pix[i] = buf[i+2]
		img.Pix[i+1] = buf[i+1]
		img.Pix[i+2] = buf[i]
		img.Pix[i+3] = buf[i+3]
	}
	return img
}
