package software

import (
	"image"
	m "math"

	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// pixelFunc shades one fragment from interpolated texture coordinates and
// vertex color. The result is non-premultiplied RGBA in [0,1].
type pixelFunc func(uv math.Vec2, c math.Vec4) math.Vec4

func edge(a, b, p math.Vec2) float32 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}

// topLeft reports whether a fragment exactly on edge a->b belongs to the
// triangle, for positively oriented triangles in y-down space.
func topLeft(a, b math.Vec2) bool {
	dx, dy := b.X-a.X, b.Y-a.Y
	return dy < 0 || (dy == 0 && dx > 0)
}

func covers(w float32, a, b math.Vec2) bool {
	return w > 0 || (w == 0 && topLeft(a, b))
}

// rasterTriangle fills the pixels whose centers fall inside the triangle.
func rasterTriangle(dst *image.NRGBA, v0, v1, v2 renderer.QuadVertex, shade pixelFunc, mode metadata.AlphaMode) {
	area := edge(v0.Position, v1.Position, v2.Position)
	if area == 0 {
		return
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}
	p0, p1, p2 := v0.Position, v1.Position, v2.Position

	b := dst.Bounds()
	minX := maxInt(b.Min.X, int(m.Floor(float64(min3(p0.X, p1.X, p2.X)))))
	minY := maxInt(b.Min.Y, int(m.Floor(float64(min3(p0.Y, p1.Y, p2.Y)))))
	maxX := minInt(b.Max.X-1, int(m.Ceil(float64(max3(p0.X, p1.X, p2.X)))))
	maxY := minInt(b.Max.Y-1, int(m.Ceil(float64(max3(p0.Y, p1.Y, p2.Y)))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := math.NewVec2(float32(x)+0.5, float32(y)+0.5)
			w0 := edge(p1, p2, p)
			w1 := edge(p2, p0, p)
			w2 := edge(p0, p1, p)
			if !covers(w0, p1, p2) || !covers(w1, p2, p0) || !covers(w2, p0, p1) {
				continue
			}
			b0, b1, b2 := w0/area, w1/area, w2/area

			uv := v0.Texcoord.MulScalar(b0).Add(v1.Texcoord.MulScalar(b1)).Add(v2.Texcoord.MulScalar(b2))
			col := v0.Color.MulScalar(b0).Add(v1.Color.MulScalar(b1)).Add(v2.Color.MulScalar(b2))
			blendPixel(dst, x, y, shade(uv, col), mode)
		}
	}
}

func blendPixel(dst *image.NRGBA, x, y int, src math.Vec4, mode metadata.AlphaMode) {
	off := dst.PixOffset(x, y)
	px := dst.Pix[off : off+4 : off+4]
	d := math.NewVec4(float32(px[0])/255, float32(px[1])/255, float32(px[2])/255, float32(px[3])/255)

	var out math.Vec4
	switch mode {
	case metadata.AlphaModeNone:
		out = src
	case metadata.AlphaModePixel:
		a := src.W
		out = math.NewVec4(
			src.X*a+d.X*(1-a),
			src.Y*a+d.Y*(1-a),
			src.Z*a+d.Z*(1-a),
			a+d.W*(1-a),
		)
	case metadata.AlphaModeAdd:
		a := src.W
		out = math.NewVec4(src.X*a+d.X, src.Y*a+d.Y, src.Z*a+d.Z, a+d.W)
	case metadata.AlphaModeModulate:
		out = src.Mul(d)
	case metadata.AlphaModeAlphaTest:
		if toByte(src.W) < metadata.AlphaTestReference {
			return
		}
		out = src
	default:
		out = src
	}

	px[0] = toByte(out.X)
	px[1] = toByte(out.Y)
	px[2] = toByte(out.Z)
	px[3] = toByte(out.W)
}

// sample fetches the nearest texel, wrapping coordinates outside [0,1).
func sample(img *image.NRGBA, uv math.Vec2) math.Vec4 {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return math.NewVec4Zero()
	}
	x := wrap(int(m.Floor(float64(uv.X*float32(w)))), w)
	y := wrap(int(m.Floor(float64(uv.Y*float32(h)))), h)
	off := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
	px := img.Pix[off : off+4 : off+4]
	return math.NewVec4(float32(px[0])/255, float32(px[1])/255, float32(px[2])/255, float32(px[3])/255)
}

func toByte(f float32) uint8 {
	return uint8(math.Clamp(f, 0, 1)*255 + 0.5)
}

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func min3(a, b, c float32) float32 { return min(a, min(b, c)) }
func max3(a, b, c float32) float32 { return max(a, max(b, c)) }

func minInt(a, b int) int { return min(a, b) }
func maxInt(a, b int) int { return max(a, b) }
