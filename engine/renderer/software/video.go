package software

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

const BackendName = "software"

func init() {
	renderer.Register(BackendName, func(opts renderer.Options) (renderer.Video, error) {
		return New(opts)
	})
}

// New opens a software device with the requested pipeline.
func New(opts renderer.Options) (renderer.Video, error) {
	if opts.Width == 0 || opts.Height == 0 {
		return nil, fmt.Errorf("software video %dx%d: %w", opts.Width, opts.Height, core.ErrAllocation)
	}
	if opts.Pipeline == metadata.PipelineFixedFunction {
		return NewFixedVideo(opts), nil
	}
	return NewProgrammableVideo(opts), nil
}

// device is the state both pipelines share: the back buffer, the front
// buffer that holds the last presented frame and the current render target.
type device struct {
	*renderer.VideoBase

	back   *image.NRGBA
	front  *image.NRGBA
	target *Texture
	rect   *rectRenderer

	background metadata.Color
	inScene    bool
	lost       bool
	frames     uint64
	drawCalls  uint64
}

func newDevice(opts renderer.Options, pipeline metadata.Pipeline) *device {
	d := &device{
		VideoBase:  renderer.NewVideoBase(BackendName, pipeline, math.NewVec2(float32(opts.Width), float32(opts.Height)), opts.FileManager),
		back:       loaders.Blank(opts.Width, opts.Height),
		front:      loaders.Blank(opts.Width, opts.Height),
		background: opts.Background,
	}
	if opts.Limits != nil {
		d.SetLimits(*opts.Limits)
	}
	return d
}

func (d *device) RectRenderer() renderer.RectRenderer {
	return d.rect
}

func (d *device) CreateTextureFromMemory(buf []byte, mask metadata.Color, width, height uint32) (renderer.Texture, error) {
	img, err := loaders.DecodeImage(buf, uint32(mask), width, height)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if !d.Limits().AllowsSize(uint32(b.Dx()), uint32(b.Dy())) {
		return nil, fmt.Errorf("texture %dx%d: %w", b.Dx(), b.Dy(), core.ErrAllocation)
	}
	return newBitmapTexture(img), nil
}

func (d *device) CreateRenderTargetTexture(width, height uint32, format metadata.TargetFormat) (renderer.Texture, error) {
	if d.lost {
		return nil, fmt.Errorf("render target: %w", core.ErrDeviceLost)
	}
	return newTargetTexture(width, height), nil
}

func (d *device) SetRenderTarget(target renderer.Sprite) error {
	if target == nil {
		d.target = nil
		d.SetCurrentTarget(nil)
		return nil
	}
	if target.Type() != metadata.SpriteTypeTarget {
		return fmt.Errorf("sprite %s is not a render target", core.ShortID(target.ID()))
	}
	tex, ok := target.Texture().(*Texture)
	if !ok {
		return fmt.Errorf("render target belongs to another backend")
	}
	if tex.Pixels() == nil {
		return fmt.Errorf("render target %s: %w", core.ShortID(target.ID()), core.ErrDeviceLost)
	}
	d.target = tex
	d.SetCurrentTarget(target)
	return nil
}

func (d *device) BeginSpriteScene(background metadata.Color) bool {
	if d.lost {
		return false
	}
	fill(d.back, background)
	d.inScene = true
	return true
}

// EndSpriteScene presents the back buffer.
func (d *device) EndSpriteScene() bool {
	if !d.inScene {
		return false
	}
	d.inScene = false
	copy(d.front.Pix, d.back.Pix)
	d.frames++
	return true
}

func (d *device) BeginTargetScene(background metadata.Color, clear bool) bool {
	if d.target == nil {
		return false
	}
	if clear {
		if px := d.target.Pixels(); px != nil {
			fill(px, background)
		}
	}
	return true
}

func (d *device) EndTargetScene() bool {
	return d.target != nil
}

// Frame returns the last presented frame.
func (d *device) Frame() *image.NRGBA {
	return d.front
}

func (d *device) Frames() uint64 {
	return d.frames
}

func (d *device) DrawCalls() uint64 {
	return d.drawCalls
}

func (d *device) SaveScreenshot(path string, format metadata.BitmapFormat) error {
	return renderer.WriteBitmap(path, d.front, format, nil)
}

// LoseDevice simulates a device loss: every sprite is backed up and its
// pixels are dropped.
func (d *device) LoseDevice() {
	if d.lost {
		return
	}
	d.BackupResources()
	d.lost = true
	d.target = nil
	d.SetCurrentTarget(nil)
	core.LogWarn("software device lost")
}

// RestoreDevice recreates the textures dropped by LoseDevice.
func (d *device) RestoreDevice() {
	if !d.lost {
		return
	}
	d.lost = false
	d.RecoverResources()
	core.LogInfo("software device restored")
}

func (d *device) IsLost() bool {
	return d.lost
}

func (d *device) Resize(width, height uint32) {
	d.SetScreenSize(math.NewVec2(float32(width), float32(height)))
	d.back = loaders.Blank(width, height)
	d.front = loaders.Blank(width, height)
}

// destination is where draws go: the render target or the back buffer.
func (d *device) destination() *image.NRGBA {
	if d.lost {
		return nil
	}
	if d.target != nil {
		return d.target.Pixels()
	}
	return d.back
}

func (d *device) drawQuad(q [4]renderer.QuadVertex, mode metadata.RectMode, shade pixelFunc) bool {
	dst := d.destination()
	if dst == nil || shade == nil {
		return false
	}
	verts, idx := renderer.Triangulate(q, mode)
	for i := 0; i+2 < len(idx); i += 3 {
		rasterTriangle(dst, verts[idx[i]], verts[idx[i+1]], verts[idx[i+2]], shade, d.AlphaMode())
	}
	d.drawCalls++
	return true
}

type rectRenderer struct {
	draw func(mode metadata.RectMode) bool
}

func (r *rectRenderer) Draw(mode metadata.RectMode) bool {
	return r.draw(mode)
}

func fill(img *image.NRGBA, c metadata.Color) {
	col := color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}
	draw.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
}
