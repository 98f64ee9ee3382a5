//go:build !headless

package opengl

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/google/uuid"

	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Texture is a GL texture object. Render targets also own a framebuffer.
// Bitmaps keep their decoded pixels so that a lost context can be refilled.
type Texture struct {
	metadata.TextureLifecycle

	id      uuid.UUID
	profile metadata.TextureProfile
	video   *Video
	target  bool

	handle uint32
	fbo    uint32

	source   *image.NRGBA
	backup   *image.NRGBA
	released bool
}

func (v *Video) newBitmapTexture(img *image.NRGBA) (*Texture, error) {
	b := img.Bounds()
	t := &Texture{
		id:      core.NewIdentifier(),
		profile: metadata.TextureProfile{Width: uint32(b.Dx()), Height: uint32(b.Dy()), Format: metadata.PixelFormatRGBA8},
		video:   v,
		source:  img,
	}
	if err := t.allocate(img); err != nil {
		return nil, err
	}
	return t, nil
}

func (v *Video) newTargetTexture(width, height uint32) (*Texture, error) {
	t := &Texture{
		id:      core.NewIdentifier(),
		profile: metadata.TextureProfile{Width: width, Height: height, Format: metadata.PixelFormatRGBA8},
		video:   v,
		target:  true,
	}
	if err := t.allocate(nil); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Texture) ID() uuid.UUID                    { return t.id }
func (t *Texture) Profile() metadata.TextureProfile { return t.profile }
func (t *Texture) IsRenderTarget() bool             { return t.target }

// allocate creates the GL objects and uploads pixels, which may be nil.
func (t *Texture) allocate(pixels *image.NRGBA) error {
	var ptr unsafe.Pointer
	if pixels != nil {
		ptr = gl.Ptr(pixels.Pix)
	}

	gl.GenTextures(1, &t.handle)
	gl.BindTexture(gl.TEXTURE_2D, t.handle)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(t.profile.Width), int32(t.profile.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, ptr)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if !t.target {
		return nil
	}

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.handle, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	if pixels == nil {
		gl.ClearColor(0, 0, 0, 0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
	}
	t.video.bindCurrentFramebuffer()

	if status != gl.FRAMEBUFFER_COMPLETE {
		t.free()
		return fmt.Errorf("framebuffer status 0x%x: %w", status, core.ErrAllocation)
	}
	return nil
}

func (t *Texture) free() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
		t.fbo = 0
	}
	if t.handle != 0 {
		gl.DeleteTextures(1, &t.handle)
		t.handle = 0
	}
}

// read copies the texture back to client memory, top row first.
func (t *Texture) read() *image.NRGBA {
	if t.handle == 0 {
		return nil
	}
	img := loaders.Blank(t.profile.Width, t.profile.Height)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	if t.target {
		gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
		gl.ReadPixels(0, 0, int32(t.profile.Width), int32(t.profile.Height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		t.video.bindCurrentFramebuffer()
	} else {
		gl.BindTexture(gl.TEXTURE_2D, t.handle)
		gl.GetTexImage(gl.TEXTURE_2D, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		gl.BindTexture(gl.TEXTURE_2D, 0)
	}
	return img
}

func (t *Texture) SaveBitmap(path string, format metadata.BitmapFormat, rect *math.Rect2D) error {
	img := t.read()
	if img == nil {
		return fmt.Errorf("save %s: %w", path, core.ErrDeviceLost)
	}
	return renderer.WriteBitmap(path, img, format, rect)
}

func (t *Texture) SaveTargetSurfaceBackup() error {
	if t.handle == 0 {
		return fmt.Errorf("backup of texture %s: %w", core.ShortID(t.id), core.ErrDeviceLost)
	}
	if t.target {
		t.backup = t.read()
	}
	t.OnBackup()
	return nil
}

func (t *Texture) OnLostDevice() {
	t.free()
	t.OnLost()
}

func (t *Texture) Recover() error {
	switch t.State() {
	case metadata.TextureStateLost:
		pixels := t.backup
		if pixels == nil {
			pixels = t.source
		}
		if err := t.allocate(pixels); err != nil {
			return err
		}
		t.backup = nil
		if pixels == nil {
			core.LogWarn("texture %s recovered without a backup", core.ShortID(t.id))
		}
		t.OnRecover(pixels != nil)
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
	t.free()
	t.source = nil
	t.backup = nil
}
