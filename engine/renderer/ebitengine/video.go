//go:build ebitengine

package ebitengine

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

const BackendName = "ebitengine"

func init() {
	renderer.Register(BackendName, func(opts renderer.Options) (renderer.Video, error) {
		v, err := New(opts)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// Video evaluates the vertex programs on the CPU and hands the resulting
// triangles to ebiten. Pixel programs that need a second texture or an
// alpha test run as Kage shaders.
type Video struct {
	*renderer.VideoBase

	rect *rectRenderer

	vs renderer.Shader
	ps renderer.Shader

	defaultVS  *Shader
	fontVS     *Shader
	defaultPS  *Shader
	modulatePS *Shader
	addPS      *Shader

	activeVS *Shader
	activePS *Shader

	kage map[metadata.ShaderKind]*ebiten.Shader

	back  *ebiten.Image
	front *ebiten.Image

	target    *Texture
	inScene   bool
	frames    uint64
	drawCalls uint64
}

func New(opts renderer.Options) (*Video, error) {
	if opts.Pipeline != metadata.PipelineProgrammable {
		return nil, fmt.Errorf("ebitengine: %s pipeline: %w", opts.Pipeline, core.ErrUnsupportedFormat)
	}
	if opts.Width == 0 || opts.Height == 0 {
		return nil, fmt.Errorf("ebitengine video %dx%d: %w", opts.Width, opts.Height, core.ErrAllocation)
	}

	ebiten.SetWindowSize(int(opts.Width), int(opts.Height))
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetVsyncEnabled(opts.VSync)

	v := &Video{
		VideoBase: renderer.NewVideoBase(BackendName, metadata.PipelineProgrammable, math.NewVec2(float32(opts.Width), float32(opts.Height)), opts.FileManager),
		kage:      make(map[metadata.ShaderKind]*ebiten.Shader),
		back:      ebiten.NewImage(int(opts.Width), int(opts.Height)),
		front:     ebiten.NewImage(int(opts.Width), int(opts.Height)),
	}
	v.rect = &rectRenderer{video: v}
	v.defaultVS = newShader(v, metadata.ShaderKindDefaultVS)
	v.fontVS = newShader(v, metadata.ShaderKindFontVS)
	v.defaultPS = newShader(v, metadata.ShaderKindDefaultPS)
	v.modulatePS = newShader(v, metadata.ShaderKindModulatePS)
	v.addPS = newShader(v, metadata.ShaderKindAddPS)

	for kind, src := range map[metadata.ShaderKind]string{
		metadata.ShaderKindDefaultPS:  kageDefault,
		metadata.ShaderKindModulatePS: kageModulate,
		metadata.ShaderKindAddPS:      kageAdd,
	} {
		s, err := ebiten.NewShader([]byte(src))
		if err != nil {
			return nil, fmt.Errorf("ebitengine shader %d: %v: %w", kind, err, core.ErrAllocation)
		}
		v.kage[kind] = s
	}

	limits := renderer.DefaultLimits()
	limits.Source = BackendName
	if opts.Limits != nil {
		limits = *opts.Limits
	}
	v.SetLimits(limits)
	v.Bind(v)
	return v, nil
}

func (v *Video) VertexShader() renderer.Shader {
	if v.vs == nil {
		return v.defaultVS
	}
	return v.vs
}

func (v *Video) SetVertexShader(s renderer.Shader) {
	v.vs = s
}

func (v *Video) PixelShader() renderer.Shader {
	if v.ps == nil {
		return v.defaultPS
	}
	return v.ps
}

func (v *Video) SetPixelShader(s renderer.Shader) {
	v.ps = s
}

func (v *Video) FontShader() renderer.Shader        { return v.fontVS }
func (v *Video) DefaultVS() renderer.Shader         { return v.defaultVS }
func (v *Video) DefaultPS() renderer.Shader         { return v.defaultPS }
func (v *Video) DefaultModulatePS() renderer.Shader { return v.modulatePS }
func (v *Video) DefaultAddPS() renderer.Shader      { return v.addPS }

func (v *Video) RectRenderer() renderer.RectRenderer {
	return v.rect
}

func (v *Video) CreateTextureFromMemory(buf []byte, mask metadata.Color, width, height uint32) (renderer.Texture, error) {
	img, err := loaders.DecodeImage(buf, uint32(mask), width, height)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if !v.Limits().AllowsSize(uint32(b.Dx()), uint32(b.Dy())) {
		return nil, fmt.Errorf("texture %dx%d: %w", b.Dx(), b.Dy(), core.ErrAllocation)
	}
	return newBitmapTexture(img), nil
}

func (v *Video) CreateRenderTargetTexture(width, height uint32, format metadata.TargetFormat) (renderer.Texture, error) {
	return newTargetTexture(width, height), nil
}

func (v *Video) SetRenderTarget(target renderer.Sprite) error {
	if target == nil {
		v.target = nil
		v.SetCurrentTarget(nil)
		return nil
	}
	if target.Type() != metadata.SpriteTypeTarget {
		return fmt.Errorf("sprite %s is not a render target", core.ShortID(target.ID()))
	}
	tex, ok := target.Texture().(*Texture)
	if !ok {
		return fmt.Errorf("render target belongs to another backend")
	}
	if tex.image == nil {
		return fmt.Errorf("render target %s: %w", core.ShortID(target.ID()), core.ErrDeviceLost)
	}
	v.target = tex
	v.SetCurrentTarget(target)
	return nil
}

func toColor(c metadata.Color) color.NRGBA {
	return color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}
}

func (v *Video) BeginSpriteScene(background metadata.Color) bool {
	v.back.Fill(toColor(background))
	v.inScene = true
	return true
}

// EndSpriteScene publishes the back buffer. ebiten shows it on its next
// Draw call.
func (v *Video) EndSpriteScene() bool {
	if !v.inScene {
		return false
	}
	v.inScene = false
	v.front.DrawImage(v.back, &ebiten.DrawImageOptions{Blend: ebiten.BlendCopy})
	v.frames++
	return true
}

func (v *Video) BeginTargetScene(background metadata.Color, clear bool) bool {
	if v.target == nil || v.target.image == nil {
		return false
	}
	if clear {
		v.target.image.Fill(toColor(background))
	}
	return true
}

func (v *Video) EndTargetScene() bool {
	return v.target != nil
}

func (v *Video) SaveScreenshot(path string, format metadata.BitmapFormat) error {
	size := v.ScreenSizeF()
	w, h := uint32(size.X), uint32(size.Y)
	buf := make([]byte, 4*w*h)
	v.front.ReadPixels(buf)
	return renderer.WriteBitmap(path, premultipliedToNRGBA(buf, w, h), format, nil)
}

func (v *Video) Frames() uint64 {
	return v.frames
}

func (v *Video) Resize(width, height uint32) {
	v.SetScreenSize(math.NewVec2(float32(width), float32(height)))
	v.back.Deallocate()
	v.front.Deallocate()
	v.back = ebiten.NewImage(int(width), int(height))
	v.front = ebiten.NewImage(int(width), int(height))
}

func (v *Video) destination() *ebiten.Image {
	if v.target != nil {
		return v.target.image
	}
	return v.back
}

func blendFor(mode metadata.AlphaMode) ebiten.Blend {
	switch mode {
	case metadata.AlphaModePixel:
		return ebiten.BlendSourceOver
	case metadata.AlphaModeAdd:
		return ebiten.BlendLighter
	case metadata.AlphaModeModulate:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
			BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
			BlendFactorDestinationRGB:   ebiten.BlendFactorZero,
			BlendFactorDestinationAlpha: ebiten.BlendFactorZero,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	}
	return ebiten.BlendCopy
}

var errNoTexture = errors.New("no live diffuse texture bound")

func (v *Video) drawRect(mode metadata.RectMode) bool {
	if v.activeVS == nil || v.activePS == nil {
		return false
	}
	dst := v.destination()
	if dst == nil {
		return false
	}
	diffuse, ok := v.activePS.Texture(metadata.ConstantTextureDiffuse).(*Texture)
	if !ok || diffuse.image == nil {
		core.LogDebug("ebitengine draw skipped: %s", errNoTexture)
		return false
	}

	q := renderer.ParamsFromConstants(v.activeVS.ConstantTable, v.activeVS.kind).Quad()
	verts, indices := renderer.Triangulate(q, mode)
	size := diffuse.profile.Size()
	vertices := make([]ebiten.Vertex, len(verts))
	for i, qv := range verts {
		vertices[i] = ebiten.Vertex{
			DstX:   qv.Position.X,
			DstY:   qv.Position.Y,
			SrcX:   qv.Texcoord.X * size.X,
			SrcY:   qv.Texcoord.Y * size.Y,
			ColorR: qv.Color.X,
			ColorG: qv.Color.Y,
			ColorB: qv.Color.Z,
			ColorA: qv.Color.W,
		}
	}

	alpha := v.AlphaMode()
	blend := blendFor(alpha)
	kind := v.activePS.kind

	if kind == metadata.ShaderKindDefaultPS && alpha != metadata.AlphaModeAlphaTest {
		dst.DrawTriangles(vertices, indices, diffuse.image, &ebiten.DrawTrianglesOptions{
			Blend:   blend,
			Address: ebiten.AddressRepeat,
		})
		v.drawCalls++
		return true
	}

	ref := float32(0)
	if alpha == metadata.AlphaModeAlphaTest {
		ref = float32(metadata.AlphaTestReference) / 255
	}
	opts := &ebiten.DrawTrianglesShaderOptions{
		Blend:    blend,
		Uniforms: map[string]any{"AlphaRef": ref},
	}
	opts.Images[0] = diffuse.image

	if kind != metadata.ShaderKindDefaultPS {
		pass1, ok := v.activePS.Texture(metadata.ConstantTexturePass1).(*Texture)
		switch {
		case !ok || pass1.image == nil:
			kind = metadata.ShaderKindDefaultPS
		case pass1.profile.Width != diffuse.profile.Width || pass1.profile.Height != diffuse.profile.Height:
			core.LogWarn("ebitengine: pass1 texture must match the diffuse size, drawing single pass")
			kind = metadata.ShaderKindDefaultPS
		default:
			opts.Images[1] = pass1.image
		}
	}

	dst.DrawTrianglesShader(vertices, indices, v.kage[kind], opts)
	v.drawCalls++
	return true
}

type rectRenderer struct {
	video *Video
}

func (r *rectRenderer) Draw(mode metadata.RectMode) bool {
	return r.video.drawRect(mode)
}

func (v *Video) Destroy() {
	v.activeVS, v.activePS = nil, nil
	v.vs, v.ps = nil, nil
	v.target = nil
	v.VideoBase.Destroy()
	for kind, s := range v.kage {
		s.Deallocate()
		delete(v.kage, kind)
	}
}
