package renderer

import (
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// ProgrammableSprite draws by binding constants on the device vertex shader.
type ProgrammableSprite struct {
	*spriteBase
}

func (s *ProgrammableSprite) Draw(pos math.Vec2, color metadata.Color, angle float32, scale math.Vec2) bool {
	c := uniform(color)
	return s.DrawShaped(pos, s.scaledSize(scale), c[0], c[1], c[2], c[3], angle)
}

func (s *ProgrammableSprite) DrawOptimal(pos math.Vec2, color metadata.Color, angle float32, size math.Vec2) bool {
	c := uniform(color)
	return s.DrawShaped(pos, s.optimalSize(size), c[0], c[1], c[2], c[3], angle)
}

func (s *ProgrammableSprite) DrawShaped(pos, size math.Vec2, c0, c1, c2, c3 math.Vec4, angle float32) bool {
	if size.IsZero() {
		return true
	}
	video, ok := s.video.Programmable()
	if !ok {
		logDeviceGone("DrawShaped", s.id)
		return true
	}

	p := ComputeDrawParams(s.drawInput(video, pos, size, [4]math.Vec4{c0, c1, c2, c3}, angle))

	vs := video.VertexShader()
	vs.SetMatrixConstant(metadata.ConstantRotation, p.Rotation)
	vs.SetConstant(metadata.ConstantSize, p.Size.X, p.Size.Y)
	vs.SetConstant(metadata.ConstantEntityPos, p.EntityPos.X, p.EntityPos.Y)
	vs.SetConstant(metadata.ConstantCenter, p.Center.X, p.Center.Y)
	vs.SetConstant(metadata.ConstantFlipMul, p.FlipMul.X, p.FlipMul.Y)
	vs.SetConstant(metadata.ConstantFlipAdd, p.FlipAdd.X, p.FlipAdd.Y)
	vs.SetConstant(metadata.ConstantBitmapSize, p.BitmapSize.X, p.BitmapSize.Y)
	vs.SetConstant(metadata.ConstantScroll, p.Scroll.X, p.Scroll.Y)
	vs.SetConstant(metadata.ConstantMultiply, p.Multiply.X, p.Multiply.Y)

	if vs.ConstantExist(metadata.ConstantCameraPos) {
		vs.SetConstant(metadata.ConstantCameraPos, p.CameraPos.X, p.CameraPos.Y)
	}

	vs.SetConstant(metadata.ConstantRectSize, p.RectSize.X, p.RectSize.Y)
	vs.SetConstant(metadata.ConstantRectPos, p.RectPos.X, p.RectPos.Y)

	setColor(vs, metadata.ConstantColor0, c0)
	setColor(vs, metadata.ConstantColor1, c1)
	setColor(vs, metadata.ConstantColor2, c2)
	setColor(vs, metadata.ConstantColor3, c3)

	if vs.ConstantExist(metadata.ConstantDepth) {
		vs.SetConstant(metadata.ConstantDepth, p.Depth)
	}

	ps := video.PixelShader()
	ps.SetTexture(metadata.ConstantTextureDiffuse, s.texture)

	vs.SetShader()
	ps.SetShader()

	return emitted("DrawShaped", s.id, video.RectRenderer().Draw(s.rectMode))
}

// BeginFastRendering binds the font shader and the texture once for a run
// of DrawShapedFast calls.
func (s *ProgrammableSprite) BeginFastRendering() bool {
	video, ok := s.video.Programmable()
	if !ok {
		logDeviceGone("BeginFastRendering", s.id)
		return true
	}
	video.SetVertexShader(video.FontShader())
	vs := video.VertexShader()
	vs.SetConstant(metadata.ConstantBitmapSize, s.bitmapSize.X, s.bitmapSize.Y)
	if vs.ConstantExist(metadata.ConstantCameraPos) {
		cam := video.CameraPos()
		vs.SetConstant(metadata.ConstantCameraPos, cam.X, cam.Y)
	}

	ps := video.PixelShader()
	ps.SetTexture(metadata.ConstantTextureDiffuse, s.texture)
	return ps.SetShader()
}

func (s *ProgrammableSprite) DrawShapedFast(pos, size math.Vec2, color math.Vec4) bool {
	if size.IsZero() {
		return true
	}
	video, ok := s.video.Programmable()
	if !ok {
		logDeviceGone("DrawShapedFast", s.id)
		return true
	}

	vs := video.VertexShader()
	entityPos := RoundPosition(pos, video.IsRoundingUpPosition())
	vs.SetConstant(metadata.ConstantSize, size.X, size.Y)
	vs.SetConstant(metadata.ConstantEntityPos, entityPos.X, entityPos.Y)
	setColor(vs, metadata.ConstantColor0, color)

	rectSize, rectPos := EffectiveRect(s.rect, s.bitmapSize)
	vs.SetConstant(metadata.ConstantRectSize, rectSize.X, rectSize.Y)
	vs.SetConstant(metadata.ConstantRectPos, rectPos.X, rectPos.Y)

	vs.SetShader()
	return emitted("DrawShapedFast", s.id, video.RectRenderer().Draw(s.rectMode))
}

func (s *ProgrammableSprite) EndFastRendering() {
	video, ok := s.video.Programmable()
	if !ok {
		return
	}
	video.SetVertexShader(nil)
	video.SetPixelShader(nil)
}

// SetAsTexture binds the sprite as the second texture of a two-pass draw.
// Only pass 1 is meaningful, and only while the default pixel shader is
// bound.
func (s *ProgrammableSprite) SetAsTexture(pass uint32) bool {
	video, ok := s.video.Programmable()
	if !ok {
		logDeviceGone("SetAsTexture", s.id)
		return true
	}
	if pass != 1 || video.PixelShader() != video.DefaultPS() {
		return true
	}

	ps := video.DefaultAddPS()
	if video.BlendMode(1) == metadata.BlendModeModulate {
		ps = video.DefaultModulatePS()
	}
	video.SetPixelShader(ps)
	ps.SetTexture(metadata.ConstantTexturePass1, s.texture)
	return true
}

func (s *ProgrammableSprite) Release() {
	s.release(s)
}

func setColor(sh Shader, name string, c math.Vec4) {
	sh.SetConstant(name, c.X, c.Y, c.Z, c.W)
}
