//go:build ebitengine

package ebitengine

import (
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Texture wraps an ebiten image. Backups hold premultiplied RGBA as
// returned by ReadPixels.
type Texture struct {
	metadata.TextureLifecycle

	id      uuid.UUID
	profile metadata.TextureProfile
	target  bool
	image   *ebiten.Image

	source   *image.NRGBA
	backup   []byte
	released bool
}

func newBitmapTexture(img *image.NRGBA) *Texture {
	b := img.Bounds()
	return &Texture{
		id:      core.NewIdentifier(),
		profile: metadata.TextureProfile{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Format: metadata.PixelFormatRGBA8},
		image:   ebiten.NewImageFromImage(img),
		source:  img,
	}
}

func newTargetTexture(width, height uint32) *Texture {
	return &Texture{
		id:      core.NewIdentifier(),
		profile: metadata.TextureProfile{Width: width, Height: height, Format: metadata.PixelFormatRGBA8},
		target:  true,
		image:   ebiten.NewImage(int(width), int(height)),
	}
}

func (t *Texture) ID() uuid.UUID                    { return t.id }
func (t *Texture) Profile() metadata.TextureProfile { return t.profile }
func (t *Texture) IsRenderTarget() bool             { return t.target }

func (t *Texture) readPixels() []byte {
	if t.image == nil {
		return nil
	}
	buf := make([]byte, 4*t.profile.Width*t.profile.Height)
	t.image.ReadPixels(buf)
	return buf
}

func (t *Texture) SaveBitmap(path string, format metadata.BitmapFormat, rect *math.Rect2D) error {
	buf := t.readPixels()
	if buf == nil {
		return fmt.Errorf("save %s: %w", path, core.ErrDeviceLost)
	}
	return renderer.WriteBitmap(path, premultipliedToNRGBA(buf, t.profile.Width, t.profile.Height), format, rect)
}

func (t *Texture) SaveTargetSurfaceBackup() error {
	if t.image == nil {
		return fmt.Errorf("backup of texture %s: %w", core.ShortID(t.id), core.ErrDeviceLost)
	}
	if t.target {
		t.backup = t.readPixels()
	}
	t.OnBackup()
	return nil
}

func (t *Texture) OnLostDevice() {
	if t.image != nil {
		t.image.Deallocate()
		t.image = nil
	}
	t.OnLost()
}

func (t *Texture) Recover() error {
	switch t.State() {
	case metadata.TextureStateLost:
		restored := true
		switch {
		case t.backup != nil:
			t.image = ebiten.NewImage(int(t.profile.Width), int(t.profile.Height))
			t.image.WritePixels(t.backup)
		case t.source != nil:
			t.image = ebiten.NewImageFromImage(t.source)
		default:
			t.image = ebiten.NewImage(int(t.profile.Width), int(t.profile.Height))
			restored = false
			core.LogWarn("texture %s recovered without a backup", core.ShortID(t.id))
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
	if t.image != nil {
		t.image.Deallocate()
		t.image = nil
	}
	t.source = nil
	t.backup = nil
}

func premultipliedToNRGBA(buf []byte, width, height uint32) *image.NRGBA {
	rgba := &image.RGBA{
		Pix:    buf,
		Stride: int(width) * 4,
		Rect:   image.Rect(0, 0, int(width), int(height)),
	}
	return loaders.ToNRGBA(rgba)
}
