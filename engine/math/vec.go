package math

import gomath "math"

// Vec2 is a point or extent in pixels.
type Vec2 struct {
	X, Y float32
}

// Vec2i is an integer pixel coordinate.
type Vec2i struct {
	X, Y int32
}

// Vec4 holds four floats. Colors use X, Y, Z, W as R, G, B, A.
type Vec4 struct {
	X, Y, Z, W float32
}

func NewVec2(x, y float32) Vec2 { return Vec2{X: x, Y: y} }
func NewVec2Zero() Vec2         { return Vec2{} }
func NewVec2One() Vec2          { return Vec2{X: 1, Y: 1} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Mul and Div work per component.
func (v Vec2) Mul(o Vec2) Vec2 { return Vec2{v.X * o.X, v.Y * o.Y} }
func (v Vec2) Div(o Vec2) Vec2 { return Vec2{v.X / o.X, v.Y / o.Y} }

func (v Vec2) MulScalar(s float32) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) DivScalar(s float32) Vec2 { return Vec2{v.X / s, v.Y / s} }

func (v Vec2) Length() float32 {
	return float32(gomath.Hypot(float64(v.X), float64(v.Y)))
}

func (v Vec2) Floor() Vec2 {
	return Vec2{
		X: float32(gomath.Floor(float64(v.X))),
		Y: float32(gomath.Floor(float64(v.Y))),
	}
}

func (v Vec2) IsZero() bool { return v == Vec2{} }

// Compare reports whether each component of v is within tolerance of o.
func (v Vec2) Compare(o Vec2, tolerance float32) bool {
	d := v.Sub(o)
	return d.X <= tolerance && -d.X <= tolerance && d.Y <= tolerance && -d.Y <= tolerance
}

// Transform applies mt to v as a row vector on the z=0 plane.
func (v Vec2) Transform(mt Mat4) Vec2 {
	d := &mt.Data
	return Vec2{
		X: v.X*d[0] + v.Y*d[4] + d[12],
		Y: v.X*d[1] + v.Y*d[5] + d[13],
	}
}

// ToVec2i truncates toward zero.
func (v Vec2) ToVec2i() Vec2i { return Vec2i{int32(v.X), int32(v.Y)} }

func (v Vec2i) ToVec2() Vec2 { return Vec2{float32(v.X), float32(v.Y)} }

func NewVec4(x, y, z, w float32) Vec4 { return Vec4{X: x, Y: y, Z: z, W: w} }
func NewVec4Zero() Vec4               { return Vec4{} }
func NewVec4One() Vec4                { return Vec4{1, 1, 1, 1} }

func (v Vec4) Add(o Vec4) Vec4 {
	return Vec4{v.X + o.X, v.Y + o.Y, v.Z + o.Z, v.W + o.W}
}

// Mul modulates v by o per component, which is how tints combine.
func (v Vec4) Mul(o Vec4) Vec4 {
	return Vec4{v.X * o.X, v.Y * o.Y, v.Z * o.Z, v.W * o.W}
}

func (v Vec4) MulScalar(s float32) Vec4 {
	return Vec4{v.X * s, v.Y * s, v.Z * s, v.W * s}
}
