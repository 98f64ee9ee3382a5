package renderer

import (
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// DrawInput is everything a sprite knows at draw time.
type DrawInput struct {
	Pos        math.Vec2
	Size       math.Vec2
	Colors     [4]math.Vec4
	Angle      float32
	Origin     math.Vec2
	FlipX      bool
	FlipY      bool
	Round      bool
	CameraPos  math.Vec2
	BitmapSize math.Vec2
	Rect       math.Rect2D
	Scroll     math.Vec2
	Multiply   math.Vec2
	Depth      float32
}

// DrawParams are the derived values pushed into shader constants or folded
// into texture stage state.
type DrawParams struct {
	Size       math.Vec2
	EntityPos  math.Vec2
	Center     math.Vec2
	FlipMul    math.Vec2
	FlipAdd    math.Vec2
	BitmapSize math.Vec2
	Scroll     math.Vec2
	Multiply   math.Vec2
	CameraPos  math.Vec2
	RectSize   math.Vec2
	RectPos    math.Vec2
	Rotation   math.Mat4
	Colors     [4]math.Vec4
	Depth      float32
}

// FlipParameters maps texture coordinates t to t*mul + add so that a
// flipped axis runs from 1 to 0.
func FlipParameters(flipX, flipY bool) (mul, add math.Vec2) {
	mul = math.NewVec2One()
	add = math.NewVec2Zero()
	if flipX {
		mul.X = -1
		add.X = 1
	}
	if flipY {
		mul.Y = -1
		add.Y = 1
	}
	return mul, add
}

func PivotOffset(origin, size math.Vec2) math.Vec2 {
	return origin.Mul(size)
}

// RotationMatrix returns the identity for a zero angle without evaluating
// any trigonometry.
func RotationMatrix(angleDegrees float32) math.Mat4 {
	if angleDegrees == 0 {
		return math.NewMat4Identity()
	}
	return math.NewMat4EulerZ(math.DegToRad(angleDegrees))
}

func RoundPosition(pos math.Vec2, round bool) math.Vec2 {
	if round {
		return pos.Floor()
	}
	return pos
}

// EffectiveRect resolves the zero-size rect sentinel to the full bitmap.
func EffectiveRect(rect math.Rect2D, bitmapSize math.Vec2) (size, pos math.Vec2) {
	if rect.IsSizeZero() {
		return bitmapSize, math.NewVec2Zero()
	}
	return rect.Size, rect.Pos
}

func ComputeDrawParams(in DrawInput) DrawParams {
	flipMul, flipAdd := FlipParameters(in.FlipX, in.FlipY)
	rectSize, rectPos := EffectiveRect(in.Rect, in.BitmapSize)
	return DrawParams{
		Size:       in.Size,
		EntityPos:  RoundPosition(in.Pos, in.Round),
		Center:     PivotOffset(in.Origin, in.Size),
		FlipMul:    flipMul,
		FlipAdd:    flipAdd,
		BitmapSize: in.BitmapSize,
		Scroll:     in.Scroll,
		Multiply:   in.Multiply,
		CameraPos:  in.CameraPos,
		RectSize:   rectSize,
		RectPos:    rectPos,
		Rotation:   RotationMatrix(in.Angle),
		Colors:     in.Colors,
		Depth:      in.Depth,
	}
}

// ParamsFromConstants rebuilds DrawParams from the constants a sprite bound
// on a vertex shader. The font shader ignores rotation, pivot, flipping,
// scrolling and per-corner colors.
func ParamsFromConstants(t *ConstantTable, kind metadata.ShaderKind) DrawParams {
	zero := math.NewVec2Zero()
	one := math.NewVec2One()
	white := math.NewVec4One()

	p := DrawParams{
		Size:       t.Vec2(metadata.ConstantSize, zero),
		EntityPos:  t.Vec2(metadata.ConstantEntityPos, zero),
		BitmapSize: t.Vec2(metadata.ConstantBitmapSize, one),
		CameraPos:  t.Vec2(metadata.ConstantCameraPos, zero),
		RectSize:   t.Vec2(metadata.ConstantRectSize, zero),
		RectPos:    t.Vec2(metadata.ConstantRectPos, zero),
		Depth:      t.Float(metadata.ConstantDepth, 0),
	}
	c0 := t.Vec4(metadata.ConstantColor0, white)

	if kind == metadata.ShaderKindFontVS {
		p.FlipMul = one
		p.Multiply = one
		p.Rotation = math.NewMat4Identity()
		p.Colors = [4]math.Vec4{c0, c0, c0, c0}
		return p
	}

	p.Center = t.Vec2(metadata.ConstantCenter, zero)
	p.FlipMul = t.Vec2(metadata.ConstantFlipMul, one)
	p.FlipAdd = t.Vec2(metadata.ConstantFlipAdd, zero)
	p.Scroll = t.Vec2(metadata.ConstantScroll, zero)
	p.Multiply = t.Vec2(metadata.ConstantMultiply, one)
	p.Rotation = t.Matrix(metadata.ConstantRotation)
	p.Colors = [4]math.Vec4{
		c0,
		t.Vec4(metadata.ConstantColor1, c0),
		t.Vec4(metadata.ConstantColor2, c0),
		t.Vec4(metadata.ConstantColor3, c0),
	}
	return p
}

// QuadVertex is one corner of a sprite quad in camera-relative screen
// pixels with normalized texture coordinates.
type QuadVertex struct {
	Position math.Vec2
	Texcoord math.Vec2
	Color    math.Vec4
	Depth    float32
}

// Corners of the unit quad in the order color0..color3 are assigned.
var UnitCorners = [4]math.Vec2{
	{X: 0, Y: 0},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: 1, Y: 1},
}

// Quad evaluates the sprite vertex shader on the four unit corners.
func (p DrawParams) Quad() [4]QuadVertex {
	var out [4]QuadVertex
	for i, c := range UnitCorners {
		local := c.Mul(p.Size).Sub(p.Center)
		pos := local.Transform(p.Rotation).Add(p.EntityPos).Sub(p.CameraPos)

		tc := c.Mul(p.FlipMul).Add(p.FlipAdd)
		uv := tc.Mul(p.RectSize).Add(p.RectPos).Add(p.Scroll).Div(p.BitmapSize).Mul(p.Multiply)

		out[i] = QuadVertex{Position: pos, Texcoord: uv, Color: p.Colors[i], Depth: p.Depth}
	}
	return out
}

// StageState is the fixed-function equivalent of the sprite constants: one
// transform for positions, one for texture coordinates.
type StageState struct {
	World        math.Mat4
	TexTransform math.Mat4
	Colors       [4]math.Vec4
	Depth        float32
}

func (p DrawParams) StageState() StageState {
	world := math.NewMat4Scale2D(p.Size).
		Mul(math.NewMat4Translation2D(p.Center.MulScalar(-1))).
		Mul(p.Rotation).
		Mul(math.NewMat4Translation2D(p.EntityPos.Sub(p.CameraPos)))

	inv := math.NewVec2(1/p.BitmapSize.X, 1/p.BitmapSize.Y)
	tex := math.NewMat4Scale2D(p.FlipMul).
		Mul(math.NewMat4Translation2D(p.FlipAdd)).
		Mul(math.NewMat4Scale2D(p.RectSize)).
		Mul(math.NewMat4Translation2D(p.RectPos.Add(p.Scroll))).
		Mul(math.NewMat4Scale2D(inv)).
		Mul(math.NewMat4Scale2D(p.Multiply))

	return StageState{
		World:        world,
		TexTransform: tex,
		Colors:       p.Colors,
		Depth:        p.Depth,
	}
}

// Quad applies the stage transforms to the four unit corners.
func (s StageState) Quad() [4]QuadVertex {
	var out [4]QuadVertex
	for i, c := range UnitCorners {
		out[i] = QuadVertex{
			Position: c.Transform(s.World),
			Texcoord: c.Transform(s.TexTransform),
			Color:    s.Colors[i],
			Depth:    s.Depth,
		}
	}
	return out
}

// Triangulate expands a quad into an indexed triangle list.
func Triangulate(q [4]QuadVertex, mode metadata.RectMode) ([]QuadVertex, []uint16) {
	if mode != metadata.RectModeFourTriangles {
		return q[:], []uint16{0, 1, 2, 1, 3, 2}
	}

	var center QuadVertex
	for _, v := range q {
		center.Position = center.Position.Add(v.Position)
		center.Texcoord = center.Texcoord.Add(v.Texcoord)
		center.Color = center.Color.Add(v.Color)
		center.Depth += v.Depth
	}
	center.Position = center.Position.MulScalar(0.25)
	center.Texcoord = center.Texcoord.MulScalar(0.25)
	center.Color = center.Color.MulScalar(0.25)
	center.Depth *= 0.25

	verts := append(q[:], center)
	return verts, []uint16{4, 0, 1, 4, 1, 3, 4, 3, 2, 4, 2, 0}
}
