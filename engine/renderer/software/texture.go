package software

import (
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Texture keeps its pixels in memory. A device loss drops them; bitmaps
// come back from their source copy, targets from the backup taken before.
type Texture struct {
	metadata.TextureLifecycle

	id      uuid.UUID
	profile metadata.TextureProfile
	target  bool

	pixels *image.NRGBA
	source *image.NRGBA
	backup *image.NRGBA

	released bool
}

func newBitmapTexture(img *image.NRGBA) *Texture {
	b := img.Bounds()
	return &Texture{
		id:      core.NewIdentifier(),
		profile: metadata.TextureProfile{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Format: metadata.PixelFormatRGBA8},
		pixels:  img,
		source:  cloneImage(img),
	}
}

func newTargetTexture(width, height uint32) *Texture {
	return &Texture{
		id:      core.NewIdentifier(),
		profile: metadata.TextureProfile{Width: width, Height: height, Format: metadata.PixelFormatRGBA8},
		target:  true,
		pixels:  loaders.Blank(width, height),
	}
}

func (t *Texture) ID() uuid.UUID                    { return t.id }
func (t *Texture) Profile() metadata.TextureProfile { return t.profile }
func (t *Texture) IsRenderTarget() bool             { return t.target }

// Pixels returns the live pixel buffer, nil while the device is lost.
func (t *Texture) Pixels() *image.NRGBA {
	if t.released || !t.IsValid() {
		return nil
	}
	return t.pixels
}

func (t *Texture) SaveBitmap(path string, format metadata.BitmapFormat, rect *math.Rect2D) error {
	px := t.Pixels()
	if px == nil {
		return fmt.Errorf("save %s: %w", path, core.ErrDeviceLost)
	}
	return renderer.WriteBitmap(path, px, format, rect)
}

func (t *Texture) SaveTargetSurfaceBackup() error {
	px := t.Pixels()
	if px == nil {
		return fmt.Errorf("backup of texture %s: %w", core.ShortID(t.id), core.ErrDeviceLost)
	}
	if t.target {
		t.backup = cloneImage(px)
	}
	t.OnBackup()
	return nil
}

func (t *Texture) OnLostDevice() {
	t.pixels = nil
	t.OnLost()
}

func (t *Texture) Recover() error {
	if t.released {
		return nil
	}
	switch t.State() {
	case metadata.TextureStateLost:
		restored := false
		switch {
		case t.target && t.backup != nil:
			t.pixels = t.backup
			restored = true
		case !t.target && t.source != nil:
			t.pixels = cloneImage(t.source)
			restored = true
		default:
			core.LogInfo("texture %s recovered without backup, contents are blank", core.ShortID(t.id))
			t.pixels = loaders.Blank(t.profile.Width, t.profile.Height)
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
	t.released = true
	t.pixels = nil
	t.source = nil
	t.backup = nil
}

func cloneImage(img *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(img.Rect)
	copy(out.Pix, img.Pix)
	return out
}
