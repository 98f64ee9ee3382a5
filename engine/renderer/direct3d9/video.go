//go:build windows && !headless

package direct3d9

import (
	"fmt"
	"unsafe"

	"github.com/gonutz/d3d9"

	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

const (
	BackendName = "direct3d9"

	maxStages = 2
	vertexFVF = d3d9.FVF_XYZ | d3d9.FVF_DIFFUSE | d3d9.FVF_TEX1
)

func init() {
	renderer.Register(BackendName, func(opts renderer.Options) (renderer.Video, error) {
		v, err := New(opts)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

type vertex struct {
	X, Y, Z float32
	Color   uint32
	U, V    float32
}

type stage struct {
	texture *Texture
	state   renderer.StageState
}

// Video is a two-stage fixed-function device on top of Direct3D 9.
type Video struct {
	*renderer.VideoBase

	platform *platform.Platform
	rect     *rectRenderer

	d3d        *d3d9.Direct3D
	device     *d3d9.Device
	params     d3d9.PRESENT_PARAMETERS
	backBuffer *d3d9.Surface

	stages    [maxStages]stage
	committed [maxStages]stage
	ready     bool

	target     *Texture
	sceneDepth int
	lost       bool
	frames     uint64
}

func New(opts renderer.Options) (*Video, error) {
	if opts.Pipeline != metadata.PipelineFixedFunction {
		return nil, fmt.Errorf("direct3d9: %s pipeline: %w", opts.Pipeline, core.ErrUnsupportedFormat)
	}
	if opts.Platform == nil || opts.Platform.NativeHandle() == 0 {
		return nil, fmt.Errorf("direct3d9 needs a window: %w", core.ErrAllocation)
	}

	d3d, err := d3d9.Create(d3d9.SDK_VERSION)
	if err != nil {
		return nil, fmt.Errorf("direct3d9 create: %v: %w", err, core.ErrAllocation)
	}

	interval := uint32(d3d9.PRESENT_INTERVAL_IMMEDIATE)
	if opts.VSync {
		interval = d3d9.PRESENT_INTERVAL_ONE
	}
	hwnd := d3d9.HWND(opts.Platform.NativeHandle())
	params := d3d9.PRESENT_PARAMETERS{
		Windowed:             1,
		HDeviceWindow:        hwnd,
		SwapEffect:           d3d9.SWAPEFFECT_COPY,
		BackBufferFormat:     d3d9.FMT_UNKNOWN,
		BackBufferWidth:      opts.Width,
		BackBufferHeight:     opts.Height,
		PresentationInterval: interval,
	}
	device, params, err := d3d.CreateDevice(
		d3d9.ADAPTER_DEFAULT,
		d3d9.DEVTYPE_HAL,
		hwnd,
		d3d9.CREATE_HARDWARE_VERTEXPROCESSING,
		params,
	)
	if err != nil {
		d3d.Release()
		return nil, fmt.Errorf("direct3d9 device: %v: %w", err, core.ErrAllocation)
	}

	v := &Video{
		VideoBase: renderer.NewVideoBase(BackendName, metadata.PipelineFixedFunction, math.NewVec2(float32(opts.Width), float32(opts.Height)), opts.FileManager),
		platform:  opts.Platform,
		d3d:       d3d,
		device:    device,
		params:    params,
	}
	v.rect = &rectRenderer{video: v}

	if opts.Limits != nil {
		v.SetLimits(*opts.Limits)
	} else {
		limits := renderer.DefaultLimits()
		limits.MaxTextureSize = 4096
		limits.Source = BackendName
		v.SetLimits(limits)
	}

	if err := v.acquireBackBuffer(); err != nil {
		v.Destroy()
		return nil, err
	}
	v.setupStates()
	v.Bind(v)
	return v, nil
}

func (v *Video) acquireBackBuffer() error {
	bb, err := v.device.GetBackBuffer(0, 0, d3d9.BACKBUFFER_TYPE_MONO)
	if err != nil {
		return fmt.Errorf("direct3d9 back buffer: %v: %w", err, core.ErrAllocation)
	}
	v.backBuffer = bb
	return nil
}

// setupStates sets the render states that never change between draws. A
// device reset wipes them.
func (v *Video) setupStates() {
	d := v.device
	d.SetRenderState(d3d9.RS_CULLMODE, d3d9.CULL_NONE)
	d.SetRenderState(d3d9.RS_ZENABLE, d3d9.ZB_FALSE)
	d.SetRenderState(d3d9.RS_LIGHTING, 0)
	d.SetRenderState(d3d9.RS_ALPHAREF, uint32(metadata.AlphaTestReference))
	d.SetRenderState(d3d9.RS_ALPHAFUNC, d3d9.CMP_GREATEREQUAL)

	for s := uint32(0); s < maxStages; s++ {
		d.SetSamplerState(s, d3d9.SAMP_MINFILTER, d3d9.TEXF_LINEAR)
		d.SetSamplerState(s, d3d9.SAMP_MAGFILTER, d3d9.TEXF_LINEAR)
		d.SetSamplerState(s, d3d9.SAMP_ADDRESSU, d3d9.TADDRESS_WRAP)
		d.SetSamplerState(s, d3d9.SAMP_ADDRESSV, d3d9.TADDRESS_WRAP)
		d.SetTextureStageState(s, d3d9.TSS_TEXCOORDINDEX, 0)
		d.SetTextureStageState(s, d3d9.TSS_TEXTURETRANSFORMFLAGS, d3d9.TTFF_COUNT2)
	}

	d.SetTextureStageState(0, d3d9.TSS_COLOROP, d3d9.TOP_MODULATE)
	d.SetTextureStageState(0, d3d9.TSS_COLORARG1, d3d9.TA_TEXTURE)
	d.SetTextureStageState(0, d3d9.TSS_COLORARG2, d3d9.TA_DIFFUSE)
	d.SetTextureStageState(0, d3d9.TSS_ALPHAOP, d3d9.TOP_MODULATE)
	d.SetTextureStageState(0, d3d9.TSS_ALPHAARG1, d3d9.TA_TEXTURE)
	d.SetTextureStageState(0, d3d9.TSS_ALPHAARG2, d3d9.TA_DIFFUSE)
	d.SetTextureStageState(1, d3d9.TSS_COLOROP, d3d9.TOP_DISABLE)
	d.SetTextureStageState(2, d3d9.TSS_COLOROP, d3d9.TOP_DISABLE)

	d.SetFVF(vertexFVF)
	v.setProjection()
}

// setProjection maps pixels of the current destination to clip space,
// with the half pixel shift Direct3D 9 needs to hit texel centers.
func (v *Video) setProjection() {
	size := v.ScreenSizeF()
	if v.target != nil {
		size = v.target.profile.Size()
	}
	proj := d3d9.MATRIX{
		2 / size.X, 0, 0, 0,
		0, -2 / size.Y, 0, 0,
		0, 0, 1, 0,
		-1 - 1/size.X, 1 + 1/size.Y, 0, 1,
	}
	v.device.SetTransform(d3d9.TS_PROJECTION, proj)
	v.device.SetTransform(d3d9.TS_VIEW, d3d9.MATRIX(math.NewMat4Identity().Data))
}

func (v *Video) RectRenderer() renderer.RectRenderer {
	return v.rect
}

func (v *Video) CreateTextureFromMemory(buf []byte, mask metadata.Color, width, height uint32) (renderer.Texture, error) {
	if v.lost {
		return nil, fmt.Errorf("texture: %w", core.ErrDeviceLost)
	}
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
	if v.lost {
		return nil, fmt.Errorf("render target: %w", core.ErrDeviceLost)
	}
	return v.newTargetTexture(width, height, format)
}

func (v *Video) SetRenderTarget(target renderer.Sprite) error {
	if target == nil {
		v.target = nil
		v.SetCurrentTarget(nil)
		return v.bindCurrentSurface()
	}
	if target.Type() != metadata.SpriteTypeTarget {
		return fmt.Errorf("sprite %s is not a render target", core.ShortID(target.ID()))
	}
	tex, ok := target.Texture().(*Texture)
	if !ok {
		return fmt.Errorf("render target belongs to another backend")
	}
	if tex.tex == nil || v.lost {
		return fmt.Errorf("render target %s: %w", core.ShortID(target.ID()), core.ErrDeviceLost)
	}
	v.target = tex
	v.SetCurrentTarget(target)
	return v.bindCurrentSurface()
}

func (v *Video) bindCurrentSurface() error {
	if v.lost {
		return nil
	}
	defer v.setProjection()
	if v.target == nil {
		return v.device.SetRenderTarget(0, v.backBuffer)
	}
	surface, err := v.target.tex.GetSurfaceLevel(0)
	if err != nil {
		return err
	}
	defer surface.Release()
	return v.device.SetRenderTarget(0, surface)
}

func (v *Video) beginScene() bool {
	if v.sceneDepth == 0 {
		if err := v.device.BeginScene(); err != nil {
			core.LogDebug("direct3d9 begin scene: %s", err)
			return false
		}
	}
	v.sceneDepth++
	return true
}

func (v *Video) endScene() {
	if v.sceneDepth == 0 {
		return
	}
	v.sceneDepth--
	if v.sceneDepth == 0 {
		v.device.EndScene()
	}
}

func (v *Video) clear(c metadata.Color) {
	rgba := c.Vec4()
	v.device.Clear(nil, d3d9.CLEAR_TARGET, d3d9.ColorValue(rgba.X, rgba.Y, rgba.Z, rgba.W), 1, 0)
}

func (v *Video) BeginSpriteScene(background metadata.Color) bool {
	if v.lost && !v.reset() {
		return false
	}
	if err := v.bindCurrentSurface(); err != nil {
		core.LogDebug("direct3d9: %s", err)
		return false
	}
	v.clear(background)
	return v.beginScene()
}

// EndSpriteScene presents the back buffer. A failing Present means the
// device is gone; the next BeginSpriteScene tries to reset it.
func (v *Video) EndSpriteScene() bool {
	if v.sceneDepth == 0 {
		return false
	}
	v.endScene()
	if err := v.device.Present(nil, nil, 0, nil); err != nil {
		core.LogWarn("direct3d9 present failed: %s", err)
		v.LoseDevice()
		return false
	}
	v.frames++
	return true
}

func (v *Video) BeginTargetScene(background metadata.Color, clearTarget bool) bool {
	if v.target == nil || v.lost {
		return false
	}
	if clearTarget {
		v.clear(background)
	}
	return v.beginScene()
}

func (v *Video) EndTargetScene() bool {
	if v.target == nil {
		return false
	}
	v.endScene()
	return true
}

func (v *Video) Frames() uint64 {
	return v.frames
}

func (v *Video) IsLost() bool {
	return v.lost
}

// LoseDevice backs up every sprite and drops default pool resources so the
// device can be reset.
func (v *Video) LoseDevice() {
	if v.lost {
		return
	}
	v.BackupResources()
	v.lost = true
	v.target = nil
	v.SetCurrentTarget(nil)
	v.sceneDepth = 0
	if v.backBuffer != nil {
		v.backBuffer.Release()
		v.backBuffer = nil
	}
	core.LogWarn("direct3d9 device lost")
}

// RestoreDevice tries a reset right away. When the device is not ready yet
// the next scene retries.
func (v *Video) RestoreDevice() {
	if v.lost {
		v.reset()
	}
}

func (v *Video) reset() bool {
	params, err := v.device.Reset(v.params)
	if err != nil {
		core.LogDebug("direct3d9 reset pending: %s", err)
		return false
	}
	v.params = params
	if err := v.acquireBackBuffer(); err != nil {
		core.LogError("%s", err)
		return false
	}
	v.lost = false
	v.setupStates()
	v.RecoverResources()
	core.LogInfo("direct3d9 device restored")
	return true
}

// Resize recreates the swap chain at the new size.
func (v *Video) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	v.SetScreenSize(math.NewVec2(float32(width), float32(height)))
	v.params.BackBufferWidth = width
	v.params.BackBufferHeight = height
	v.LoseDevice()
	v.reset()
}

// SaveScreenshot reads the back buffer, which keeps the presented frame
// with a copy swap effect.
func (v *Video) SaveScreenshot(path string, format metadata.BitmapFormat) error {
	if v.lost || v.backBuffer == nil {
		return fmt.Errorf("screenshot: %w", core.ErrDeviceLost)
	}
	desc, err := v.backBuffer.GetDesc()
	if err != nil {
		return err
	}
	bgra, err := v.readSurface(v.backBuffer, desc.Width, desc.Height, desc.Format)
	if err != nil {
		return err
	}
	return renderer.WriteBitmap(path, bgraToNRGBA(bgra, desc.Width, desc.Height), format, nil)
}

func (v *Video) readSurface(surface *d3d9.Surface, width, height uint32, format d3d9.FORMAT) ([]byte, error) {
	staging, err := v.device.CreateOffscreenPlainSurface(uint(width), uint(height), format, d3d9.POOL_SYSTEMMEM, 0)
	if err != nil {
		return nil, err
	}
	defer staging.Release()
	if err := v.device.GetRenderTargetData(surface, staging); err != nil {
		return nil, err
	}
	rect, err := staging.LockRect(nil, d3d9.LOCK_READONLY)
	if err != nil {
		return nil, err
	}
	defer staging.UnlockRect()
	out := copyLocked(rect, width, height)
	if format == d3d9.FMT_X8R8G8B8 {
		for i := 3; i < len(out); i += 4 {
			out[i] = 0xFF
		}
	}
	return out, nil
}

func (v *Video) SetStageTexture(index uint32, tex renderer.Texture) bool {
	if index >= maxStages {
		return false
	}
	t, ok := tex.(*Texture)
	if !ok && tex != nil {
		return false
	}
	v.stages[index].texture = t
	return true
}

func (v *Video) SetStageState(index uint32, state renderer.StageState) bool {
	if index >= maxStages {
		return false
	}
	v.stages[index].state = state
	return true
}

func (v *Video) CommitStages() bool {
	if v.stages[0].texture == nil {
		return false
	}
	v.committed = v.stages
	v.ready = true
	return true
}

func (v *Video) ResetStages() {
	v.stages = [maxStages]stage{}
	v.committed = [maxStages]stage{}
	v.ready = false
	if v.device != nil && !v.lost {
		v.device.SetTexture(0, nil)
		v.device.SetTexture(1, nil)
	}
}

// textureMatrix moves the 2D translation to the third row, where a
// TTFF_COUNT2 transform reads it.
func textureMatrix(m math.Mat4) d3d9.MATRIX {
	out := d3d9.MATRIX(m.Data)
	out[8], out[9] = m.Data[12], m.Data[13]
	out[12], out[13] = 0, 0
	return out
}

func (v *Video) applyAlphaMode(mode metadata.AlphaMode) {
	d := v.device
	d.SetRenderState(d3d9.RS_ALPHATESTENABLE, 0)
	switch mode {
	case metadata.AlphaModePixel:
		d.SetRenderState(d3d9.RS_ALPHABLENDENABLE, 1)
		d.SetRenderState(d3d9.RS_SRCBLEND, d3d9.BLEND_SRCALPHA)
		d.SetRenderState(d3d9.RS_DESTBLEND, d3d9.BLEND_INVSRCALPHA)
	case metadata.AlphaModeAdd:
		d.SetRenderState(d3d9.RS_ALPHABLENDENABLE, 1)
		d.SetRenderState(d3d9.RS_SRCBLEND, d3d9.BLEND_SRCALPHA)
		d.SetRenderState(d3d9.RS_DESTBLEND, d3d9.BLEND_ONE)
	case metadata.AlphaModeModulate:
		d.SetRenderState(d3d9.RS_ALPHABLENDENABLE, 1)
		d.SetRenderState(d3d9.RS_SRCBLEND, d3d9.BLEND_DESTCOLOR)
		d.SetRenderState(d3d9.RS_DESTBLEND, d3d9.BLEND_ZERO)
	case metadata.AlphaModeAlphaTest:
		d.SetRenderState(d3d9.RS_ALPHABLENDENABLE, 0)
		d.SetRenderState(d3d9.RS_ALPHATESTENABLE, 1)
	default:
		d.SetRenderState(d3d9.RS_ALPHABLENDENABLE, 0)
	}
}

func (v *Video) bindSecondStage() {
	d := v.device
	second := v.committed[1].texture
	if second == nil || second.tex == nil {
		d.SetTexture(1, nil)
		d.SetTextureStageState(1, d3d9.TSS_COLOROP, d3d9.TOP_DISABLE)
		return
	}

	d.SetTexture(1, second.tex)
	d.SetTransform(d3d9.TS_TEXTURE1, textureMatrix(v.committed[0].state.TexTransform))
	d.SetTextureStageState(1, d3d9.TSS_COLORARG1, d3d9.TA_TEXTURE)
	d.SetTextureStageState(1, d3d9.TSS_COLORARG2, d3d9.TA_CURRENT)
	d.SetTextureStageState(1, d3d9.TSS_ALPHAARG1, d3d9.TA_TEXTURE)
	d.SetTextureStageState(1, d3d9.TSS_ALPHAARG2, d3d9.TA_CURRENT)
	if v.BlendMode(1) == metadata.BlendModeModulate {
		d.SetTextureStageState(1, d3d9.TSS_COLOROP, d3d9.TOP_MODULATE)
		d.SetTextureStageState(1, d3d9.TSS_ALPHAOP, d3d9.TOP_MODULATE)
	} else {
		d.SetTextureStageState(1, d3d9.TSS_COLOROP, d3d9.TOP_ADD)
		d.SetTextureStageState(1, d3d9.TSS_ALPHAOP, d3d9.TOP_SELECTARG2)
	}
}

func (v *Video) drawRect(mode metadata.RectMode) bool {
	if !v.ready || v.lost {
		return false
	}
	first := v.committed[0]
	if first.texture == nil || first.texture.tex == nil {
		return false
	}

	d := v.device
	d.SetTexture(0, first.texture.tex)
	d.SetTransform(d3d9.TSWorldMatrix(0), d3d9.MATRIX(first.state.World.Data))
	d.SetTransform(d3d9.TS_TEXTURE0, textureMatrix(first.state.TexTransform))
	v.bindSecondStage()
	v.applyAlphaMode(v.AlphaMode())

	// Positions and texcoords are the unit corners; the stage transforms
	// do the rest.
	var unit [4]renderer.QuadVertex
	for i, c := range renderer.UnitCorners {
		unit[i] = renderer.QuadVertex{Position: c, Texcoord: c, Color: first.state.Colors[i], Depth: first.state.Depth}
	}
	verts, idx := renderer.Triangulate(unit, mode)
	list := make([]vertex, len(idx))
	for i, n := range idx {
		q := verts[n]
		list[i] = vertex{
			X:     q.Position.X,
			Y:     q.Position.Y,
			Z:     q.Depth,
			Color: uint32(renderer.ColorFromVec4(q.Color)),
			U:     q.Texcoord.X,
			V:     q.Texcoord.Y,
		}
	}

	d.SetFVF(vertexFVF)
	err := d.DrawPrimitiveUP(
		d3d9.PT_TRIANGLELIST,
		uint(len(list)/3),
		uintptr(unsafe.Pointer(&list[0])),
		uint(unsafe.Sizeof(vertex{})),
	)
	if err != nil {
		core.LogDebug("direct3d9 draw: %s", err)
		return false
	}
	return true
}

type rectRenderer struct {
	video *Video
}

func (r *rectRenderer) Draw(mode metadata.RectMode) bool {
	return r.video.drawRect(mode)
}

func (v *Video) Destroy() {
	v.ResetStages()
	v.target = nil
	v.VideoBase.Destroy()
	if v.backBuffer != nil {
		v.backBuffer.Release()
		v.backBuffer = nil
	}
	if v.device != nil {
		v.device.Release()
		v.device = nil
	}
	if v.d3d != nil {
		v.d3d.Release()
		v.d3d = nil
	}
}
