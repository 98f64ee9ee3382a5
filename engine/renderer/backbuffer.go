package renderer

import (
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// DynamicBackBuffer renders the scene into an off-screen target and blits
// it to the screen on Present.
type DynamicBackBuffer struct {
	video  VideoHandle
	target Sprite
}

func NewDynamicBackBuffer(v Video, size math.Vec2) (*DynamicBackBuffer, error) {
	target, err := v.CreateRenderTarget(uint32(size.X), uint32(size.Y), metadata.TargetFormatDefault)
	if err != nil {
		return nil, err
	}
	return &DynamicBackBuffer{video: v.Handle(), target: target}, nil
}

func (b *DynamicBackBuffer) Target() Sprite {
	return b.target
}

func (b *DynamicBackBuffer) BeginRendering() bool {
	video, ok := b.video.Resolve()
	if !ok {
		return false
	}
	if err := video.SetRenderTarget(b.target); err != nil {
		return false
	}
	video.SetAlphaMode(metadata.AlphaModePixel)
	video.BeginTargetScene(metadata.ColorTransparent, true)
	resetShaders(video)
	return true
}

func (b *DynamicBackBuffer) EndRendering() bool {
	video, ok := b.video.Resolve()
	if !ok {
		return false
	}
	video.EndTargetScene()
	return video.SetRenderTarget(nil) == nil
}

// Present draws the target over the whole screen with blending disabled.
func (b *DynamicBackBuffer) Present() bool {
	video, ok := b.video.Resolve()
	if !ok {
		return false
	}
	resetShaders(video)
	video.BeginSpriteScene(metadata.ColorBlack)

	alpha := video.AlphaMode()
	video.SetAlphaMode(metadata.AlphaModeNone)
	one := math.NewVec4One()
	b.target.DrawShaped(video.CameraPos(), video.ScreenSizeF(), one, one, one, one, 0)
	video.SetAlphaMode(alpha)

	return video.EndSpriteScene()
}

func (b *DynamicBackBuffer) MatchesScreenSize() bool {
	return false
}

func (b *DynamicBackBuffer) Release() {
	if b.target != nil {
		b.target.Release()
		b.target = nil
	}
}

func resetShaders(v Video) {
	switch dev := v.(type) {
	case ProgrammableVideo:
		dev.SetVertexShader(nil)
		dev.SetPixelShader(nil)
	case FixedFunctionVideo:
		dev.ResetStages()
	}
}
