package renderer

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// EncodeBitmap writes img to w in the given format.
func EncodeBitmap(w io.Writer, img image.Image, format metadata.BitmapFormat) error {
	switch format {
	case metadata.BitmapFormatBMP:
		return bmp.Encode(w, img)
	case metadata.BitmapFormatPNG:
		return png.Encode(w, img)
	case metadata.BitmapFormatJPG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case metadata.BitmapFormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("bitmap format %s: %w", format.Extension(), core.ErrUnsupportedFormat)
}

// CropBitmap returns the part of img covered by rect, clipped to its
// bounds. A nil rect returns img.
func CropBitmap(img *image.NRGBA, rect *math.Rect2D) *image.NRGBA {
	if rect == nil {
		return img
	}
	r := image.Rect(
		int(rect.Pos.X), int(rect.Pos.Y),
		int(rect.Pos.X+rect.Size.X), int(rect.Pos.Y+rect.Size.Y),
	).Intersect(img.Bounds())
	return img.SubImage(r).(*image.NRGBA)
}

// WriteBitmap encodes img (or its rect part) to a new file at path.
func WriteBitmap(path string, img *image.NRGBA, format metadata.BitmapFormat, rect *math.Rect2D) error {
	sub := CropBitmap(img, rect)
	if sub.Bounds().Empty() {
		return fmt.Errorf("save %s: empty region: %w", path, core.ErrBounds)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeBitmap(f, sub, format); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("save %s: %w", path, err)
	}
	return f.Close()
}
