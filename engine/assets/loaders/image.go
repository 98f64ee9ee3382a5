package loaders

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
)

// ImageParams control how a bitmap is decoded.
type ImageParams struct {
	// ColorKey is a packed 0xAARRGGBB color made fully transparent. Zero
	// disables keying.
	ColorKey uint32
	// Width and Height resize the decoded image when non-zero.
	Width  uint32
	Height uint32
}

type ImageLoader struct {
	FileManager platform.FileManager
}

func (il *ImageLoader) Load(path string, params interface{}) (interface{}, error) {
	p, _ := params.(*ImageParams)
	if p == nil {
		p = &ImageParams{}
	}
	buf, ok := il.FileManager.GetFileBuffer(path)
	if !ok {
		return nil, fmt.Errorf("image %s not found: %w", path, core.ErrLoad)
	}
	return DecodeImage(buf, p.ColorKey, p.Width, p.Height)
}

// DecodeImage decodes any registered image format into NRGBA, keying out
// colorKey and resizing to width x height (either may be zero to keep the
// native size on that axis).
func DecodeImage(buf []byte, colorKey uint32, width, height uint32) (*image.NRGBA, error) {
	src, format, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode image: %v: %w", err, core.ErrLoad)
	}

	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)

	if colorKey != 0 {
		ApplyColorKey(img, colorKey)
	}

	w, h := uint32(b.Dx()), uint32(b.Dy())
	if width != 0 {
		w = width
	}
	if height != 0 {
		h = height
	}
	if w != uint32(b.Dx()) || h != uint32(b.Dy()) {
		img = Resize(img, w, h)
	}

	core.LogDebug("decoded %s image %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

// ApplyColorKey clears every pixel whose RGB matches key.
func ApplyColorKey(img *image.NRGBA, key uint32) {
	kr, kg, kb := uint8(key>>16), uint8(key>>8), uint8(key)
	for i := 0; i+3 < len(img.Pix); i += 4 {
		if img.Pix[i] == kr && img.Pix[i+1] == kg && img.Pix[i+2] == kb {
			img.Pix[i+0] = 0
			img.Pix[i+1] = 0
			img.Pix[i+2] = 0
			img.Pix[i+3] = 0
		}
	}
}

func Resize(img *image.NRGBA, width, height uint32) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// ToNRGBA copies any image into a zero-origin NRGBA.
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)
	return img
}

// Blank returns a transparent NRGBA of the given size.
func Blank(width, height uint32) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{}), image.Point{}, draw.Src)
	return img
}
