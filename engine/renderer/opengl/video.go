//go:build !headless

package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

const BackendName = "opengl"

func init() {
	renderer.Register(BackendName, func(opts renderer.Options) (renderer.Video, error) {
		v, err := New(opts)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// Video draws sprites with GLSL programs on the window's GL 4.1 context.
type Video struct {
	*renderer.VideoBase

	platform *platform.Platform
	rect     *rectRenderer

	vs renderer.Shader
	ps renderer.Shader

	defaultVS  *Shader
	fontVS     *Shader
	defaultPS  *Shader
	modulatePS *Shader
	addPS      *Shader

	activeVS *Shader
	activePS *Shader

	programs map[programKey]*program

	vao, vbo, ebo uint32
	fourOffset    uintptr
	twoCount      int32
	fourCount     int32

	target  *Texture
	inScene bool
	frames  uint64
}

func New(opts renderer.Options) (*Video, error) {
	if opts.Pipeline != metadata.PipelineProgrammable {
		return nil, fmt.Errorf("opengl: %s pipeline: %w", opts.Pipeline, core.ErrUnsupportedFormat)
	}
	if opts.Platform == nil || opts.Platform.Window == nil {
		return nil, fmt.Errorf("opengl needs a window with a GL context: %w", core.ErrAllocation)
	}

	opts.Platform.Window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl init: %v: %w", err, core.ErrAllocation)
	}
	core.LogInfo("OpenGL %s (%s)", gl.GoStr(gl.GetString(gl.VERSION)), gl.GoStr(gl.GetString(gl.RENDERER)))

	v := &Video{
		VideoBase: renderer.NewVideoBase(BackendName, metadata.PipelineProgrammable, math.NewVec2(float32(opts.Width), float32(opts.Height)), opts.FileManager),
		platform:  opts.Platform,
		programs:  make(map[programKey]*program),
	}
	v.rect = &rectRenderer{video: v}

	var err error
	for _, s := range []struct {
		dst  **Shader
		kind metadata.ShaderKind
	}{
		{&v.defaultVS, metadata.ShaderKindDefaultVS},
		{&v.fontVS, metadata.ShaderKindFontVS},
		{&v.defaultPS, metadata.ShaderKindDefaultPS},
		{&v.modulatePS, metadata.ShaderKindModulatePS},
		{&v.addPS, metadata.ShaderKindAddPS},
	} {
		if *s.dst, err = newShader(v, s.kind); err != nil {
			v.destroyGL()
			return nil, fmt.Errorf("opengl: %v: %w", err, core.ErrAllocation)
		}
	}
	v.createQuad()

	if opts.Limits != nil {
		v.SetLimits(*opts.Limits)
	} else {
		var maxSize int32
		gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxSize)
		limits := renderer.DefaultLimits()
		limits.MaxTextureSize = uint32(maxSize)
		limits.Source = BackendName
		v.SetLimits(limits)
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	v.Bind(v)
	return v, nil
}

// createQuad uploads the unit quad, its center vertex and the index lists
// of both rect modes.
func (v *Video) createQuad() {
	vertices := make([]float32, 0, 5*6)
	for i, c := range renderer.UnitCorners {
		var w [4]float32
		w[i] = 1
		vertices = append(vertices, c.X, c.Y, w[0], w[1], w[2], w[3])
	}
	vertices = append(vertices, 0.5, 0.5, 0.25, 0.25, 0.25, 0.25)

	var none [4]renderer.QuadVertex
	_, two := renderer.Triangulate(none, metadata.RectModeTwoTriangles)
	_, four := renderer.Triangulate(none, metadata.RectModeFourTriangles)
	indices := append(append([]uint16{}, two...), four...)
	v.twoCount = int32(len(two))
	v.fourCount = int32(len(four))
	v.fourOffset = uintptr(len(two) * 2)

	gl.GenVertexArrays(1, &v.vao)
	gl.GenBuffers(1, &v.vbo)
	gl.GenBuffers(1, &v.ebo)

	gl.BindVertexArray(v.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, v.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, v.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*2, gl.Ptr(indices), gl.STATIC_DRAW)

	stride := int32(6 * 4)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 4, gl.FLOAT, false, stride, 2*4)
	gl.EnableVertexAttribArray(1)
	gl.BindVertexArray(0)
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
	return v.newBitmapTexture(img)
}

func (v *Video) CreateRenderTargetTexture(width, height uint32, format metadata.TargetFormat) (renderer.Texture, error) {
	return v.newTargetTexture(width, height)
}

func (v *Video) SetRenderTarget(target renderer.Sprite) error {
	if target == nil {
		v.target = nil
		v.SetCurrentTarget(nil)
		v.bindCurrentFramebuffer()
		return nil
	}
	if target.Type() != metadata.SpriteTypeTarget {
		return fmt.Errorf("sprite %s is not a render target", core.ShortID(target.ID()))
	}
	tex, ok := target.Texture().(*Texture)
	if !ok {
		return fmt.Errorf("render target belongs to another backend")
	}
	if tex.fbo == 0 {
		return fmt.Errorf("render target %s: %w", core.ShortID(target.ID()), core.ErrDeviceLost)
	}
	v.target = tex
	v.SetCurrentTarget(target)
	v.bindCurrentFramebuffer()
	return nil
}

// bindCurrentFramebuffer restores the binding for the current target.
func (v *Video) bindCurrentFramebuffer() {
	if v.target != nil && v.target.fbo != 0 {
		gl.BindFramebuffer(gl.FRAMEBUFFER, v.target.fbo)
		gl.Viewport(0, 0, int32(v.target.profile.Width), int32(v.target.profile.Height))
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	w, h := v.platform.FramebufferSize()
	gl.Viewport(0, 0, int32(w), int32(h))
}

func clearColor(c metadata.Color) {
	rgba := c.Vec4()
	gl.ClearColor(rgba.X, rgba.Y, rgba.Z, rgba.W)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (v *Video) BeginSpriteScene(background metadata.Color) bool {
	v.bindCurrentFramebuffer()
	clearColor(background)
	v.inScene = true
	return true
}

func (v *Video) EndSpriteScene() bool {
	if !v.inScene {
		return false
	}
	v.inScene = false
	v.platform.SwapBuffers()
	v.frames++
	return true
}

func (v *Video) BeginTargetScene(background metadata.Color, clearTarget bool) bool {
	if v.target == nil {
		return false
	}
	if clearTarget {
		clearColor(background)
	}
	return true
}

func (v *Video) EndTargetScene() bool {
	return v.target != nil
}

func (v *Video) Frames() uint64 {
	return v.frames
}

// Resize follows the framebuffer after the window changed size.
func (v *Video) Resize(width, height uint32) {
	v.SetScreenSize(math.NewVec2(float32(width), float32(height)))
	v.bindCurrentFramebuffer()
}

// SaveScreenshot reads the front buffer, which holds the last presented
// frame.
func (v *Video) SaveScreenshot(path string, format metadata.BitmapFormat) error {
	w, h := v.platform.FramebufferSize()
	img := loaders.Blank(w, h)

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.ReadBuffer(gl.FRONT)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.ReadBuffer(gl.BACK)
	v.bindCurrentFramebuffer()

	// GL rows run bottom-up
	stride := img.Stride
	row := make([]byte, stride)
	for y := 0; y < int(h)/2; y++ {
		top := img.Pix[y*stride : (y+1)*stride]
		bottom := img.Pix[(int(h)-1-y)*stride : (int(h)-y)*stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
	return renderer.WriteBitmap(path, img, format, nil)
}

func (v *Video) program(vs, ps *Shader) (*program, error) {
	key := programKey{vs: vs.kind, ps: ps.kind}
	if p, ok := v.programs[key]; ok {
		return p, nil
	}
	p, err := linkProgram(vs, ps)
	if err != nil {
		return nil, err
	}
	v.programs[key] = p
	return p, nil
}

func (v *Video) screenUniforms(p *program) {
	size := v.ScreenSizeF()
	flip := float32(-1)
	if v.target != nil {
		size = v.target.profile.Size()
		flip = 1
	}
	gl.Uniform2f(p.location("screenSize"), size.X, size.Y)
	gl.Uniform1f(p.location("screenFlip"), flip)

	ref := float32(0)
	if v.AlphaMode() == metadata.AlphaModeAlphaTest {
		ref = float32(metadata.AlphaTestReference) / 255
	}
	gl.Uniform1f(p.location("alphaRef"), ref)
}

func applyAlphaMode(mode metadata.AlphaMode) {
	switch mode {
	case metadata.AlphaModePixel:
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	case metadata.AlphaModeAdd:
		gl.Enable(gl.BLEND)
		gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE, gl.ONE, gl.ONE)
	case metadata.AlphaModeModulate:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.DST_COLOR, gl.ZERO)
	default:
		gl.Disable(gl.BLEND)
	}
}

func (v *Video) drawRect(mode metadata.RectMode) bool {
	if v.activeVS == nil || v.activePS == nil {
		return false
	}
	p, err := v.program(v.activeVS, v.activePS)
	if err != nil {
		core.LogError("opengl: %s", err)
		return false
	}

	gl.UseProgram(p.id)
	p.upload(v.activeVS)
	p.upload(v.activePS)
	if err := p.bindTextures(v.activePS); err != nil {
		core.LogDebug("opengl draw skipped: %s", err)
		return false
	}
	v.screenUniforms(p)
	applyAlphaMode(v.AlphaMode())

	gl.BindVertexArray(v.vao)
	if mode == metadata.RectModeFourTriangles {
		gl.DrawElementsWithOffset(gl.TRIANGLES, v.fourCount, gl.UNSIGNED_SHORT, v.fourOffset)
	} else {
		gl.DrawElementsWithOffset(gl.TRIANGLES, v.twoCount, gl.UNSIGNED_SHORT, 0)
	}
	gl.BindVertexArray(0)
	return true
}

type rectRenderer struct {
	video *Video
}

func (r *rectRenderer) Draw(mode metadata.RectMode) bool {
	return r.video.drawRect(mode)
}

func (v *Video) destroyGL() {
	for key, p := range v.programs {
		gl.DeleteProgram(p.id)
		delete(v.programs, key)
	}
	for _, s := range []*Shader{v.defaultVS, v.fontVS, v.defaultPS, v.modulatePS, v.addPS} {
		if s != nil {
			s.destroy()
		}
	}
	if v.ebo != 0 {
		gl.DeleteBuffers(1, &v.ebo)
	}
	if v.vbo != 0 {
		gl.DeleteBuffers(1, &v.vbo)
	}
	if v.vao != 0 {
		gl.DeleteVertexArrays(1, &v.vao)
	}
	v.vao, v.vbo, v.ebo = 0, 0, 0
}

func (v *Video) Destroy() {
	v.activeVS, v.activePS = nil, nil
	v.vs, v.ps = nil, nil
	v.target = nil
	v.VideoBase.Destroy()
	v.destroyGL()
}
