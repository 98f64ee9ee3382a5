package renderer

import (
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// FixedSprite draws by folding its parameters into texture stage 0.
type FixedSprite struct {
	*spriteBase
	fast bool
}

func (s *FixedSprite) Draw(pos math.Vec2, color metadata.Color, angle float32, scale math.Vec2) bool {
	c := uniform(color)
	return s.DrawShaped(pos, s.scaledSize(scale), c[0], c[1], c[2], c[3], angle)
}

func (s *FixedSprite) DrawOptimal(pos math.Vec2, color metadata.Color, angle float32, size math.Vec2) bool {
	c := uniform(color)
	return s.DrawShaped(pos, s.optimalSize(size), c[0], c[1], c[2], c[3], angle)
}

func (s *FixedSprite) DrawShaped(pos, size math.Vec2, c0, c1, c2, c3 math.Vec4, angle float32) bool {
	if size.IsZero() {
		return true
	}
	video, ok := s.video.FixedFunction()
	if !ok {
		logDeviceGone("DrawShaped", s.id)
		return true
	}

	p := ComputeDrawParams(s.drawInput(video, pos, size, [4]math.Vec4{c0, c1, c2, c3}, angle))

	video.SetStageTexture(0, s.texture)
	video.SetStageState(0, p.StageState())
	if !video.CommitStages() {
		return emitted("DrawShaped", s.id, false)
	}
	return emitted("DrawShaped", s.id, video.RectRenderer().Draw(s.rectMode))
}

func (s *FixedSprite) BeginFastRendering() bool {
	video, ok := s.video.FixedFunction()
	if !ok {
		logDeviceGone("BeginFastRendering", s.id)
		return true
	}
	s.fast = true
	return video.SetStageTexture(0, s.texture)
}

// DrawShapedFast skips rotation, pivot, flipping and scrolling, matching the
// programmable font shader.
func (s *FixedSprite) DrawShapedFast(pos, size math.Vec2, color math.Vec4) bool {
	if size.IsZero() {
		return true
	}
	video, ok := s.video.FixedFunction()
	if !ok {
		logDeviceGone("DrawShapedFast", s.id)
		return true
	}
	if !s.fast {
		video.SetStageTexture(0, s.texture)
	}

	flipMul, flipAdd := FlipParameters(false, false)
	rectSize, rectPos := EffectiveRect(s.rect, s.bitmapSize)
	p := DrawParams{
		Size:       size,
		EntityPos:  RoundPosition(pos, video.IsRoundingUpPosition()),
		FlipMul:    flipMul,
		FlipAdd:    flipAdd,
		BitmapSize: s.bitmapSize,
		Multiply:   math.NewVec2One(),
		CameraPos:  video.CameraPos(),
		RectSize:   rectSize,
		RectPos:    rectPos,
		Rotation:   math.NewMat4Identity(),
		Colors:     [4]math.Vec4{color, color, color, color},
		Depth:      video.SpriteDepth(),
	}
	video.SetStageState(0, p.StageState())
	if !video.CommitStages() {
		return emitted("DrawShapedFast", s.id, false)
	}
	return emitted("DrawShapedFast", s.id, video.RectRenderer().Draw(s.rectMode))
}

func (s *FixedSprite) EndFastRendering() {
	s.fast = false
	video, ok := s.video.FixedFunction()
	if !ok {
		return
	}
	video.ResetStages()
}

// SetAsTexture binds the sprite on stage 1; the blend mode of pass 1 picks
// how the stage combines with stage 0.
func (s *FixedSprite) SetAsTexture(pass uint32) bool {
	video, ok := s.video.FixedFunction()
	if !ok {
		logDeviceGone("SetAsTexture", s.id)
		return true
	}
	if pass != 1 {
		return true
	}
	return video.SetStageTexture(1, s.texture)
}

func (s *FixedSprite) Release() {
	s.release(s)
}
