package math

import gomath "math"

// Mat4 is a 4x4 matrix stored row by row. Points are row vectors, so a
// product a.Mul(b) applies a first. Translation lives in Data[12..14].
type Mat4 struct {
	Data [16]float32
}

var identity = Mat4{Data: [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}}

func NewMat4Identity() Mat4 { return identity }

func (mt Mat4) IsIdentity() bool { return mt == identity }

func (mt Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 16; r += 4 {
		a := mt.Data[r : r+4]
		for c := 0; c < 4; c++ {
			out.Data[r+c] = a[0]*o.Data[c] + a[1]*o.Data[4+c] + a[2]*o.Data[8+c] + a[3]*o.Data[12+c]
		}
	}
	return out
}

// NewMat4Transposed swaps rows and columns.
func NewMat4Transposed(mt Mat4) Mat4 {
	var out Mat4
	for i, v := range mt.Data {
		out.Data[(i%4)*4+i/4] = v
	}
	return out
}

func NewMat4Translation2D(v Vec2) Mat4 {
	out := identity
	out.Data[12], out.Data[13] = v.X, v.Y
	return out
}

func NewMat4Scale2D(v Vec2) Mat4 {
	out := identity
	out.Data[0], out.Data[5] = v.X, v.Y
	return out
}

// NewMat4EulerZ rotates counterclockwise by rad around the z axis.
func NewMat4EulerZ(rad float32) Mat4 {
	s, c := gomath.Sincos(float64(rad))
	out := identity
	out.Data[0], out.Data[1] = float32(c), float32(s)
	out.Data[4], out.Data[5] = float32(-s), float32(c)
	return out
}
