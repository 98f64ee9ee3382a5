package renderer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{A: 255}
			if (x+y)%2 == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestEncodeBitmapFormats(t *testing.T) {
	img := checker(4, 4)
	for _, f := range []metadata.BitmapFormat{
		metadata.BitmapFormatPNG, metadata.BitmapFormatBMP,
		metadata.BitmapFormatJPG, metadata.BitmapFormatTIFF,
	} {
		var buf bytes.Buffer
		if err := EncodeBitmap(&buf, img, f); err != nil {
			t.Fatalf("%s: %s", f.Extension(), err)
		}
		if buf.Len() == 0 {
			t.Fatalf("%s: nothing written", f.Extension())
		}
	}

	var buf bytes.Buffer
	for _, f := range []metadata.BitmapFormat{metadata.BitmapFormatTGA, metadata.BitmapFormatDDS} {
		if err := EncodeBitmap(&buf, img, f); !errors.Is(err, core.ErrUnsupportedFormat) {
			t.Fatalf("%s: expected ErrUnsupportedFormat, got %v", f.Extension(), err)
		}
	}
}

func TestWriteBitmapRegion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.bmp")
	rect := math.NewRect2D(1, 1, 2, 3)

	if err := WriteBitmap(path, checker(4, 4), metadata.BitmapFormatBMP, &rect); err != nil {
		t.Fatalf("WriteBitmap: %s", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	defer f.Close()
	img, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 2 || bounds.Dy() != 3 {
		t.Fatalf("expected a 2x3 image, got %v", bounds)
	}
	r, _, _, _ := img.At(bounds.Min.X, bounds.Min.Y).RGBA()
	if r != 0xffff {
		t.Fatalf("pixel (1,1) of the source is white, got r=%x", r)
	}
}

func TestWriteBitmapEmptyRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	rect := math.NewRect2D(10, 10, 4, 4)
	if err := WriteBitmap(path, checker(4, 4), metadata.BitmapFormatPNG, &rect); !errors.Is(err, core.ErrBounds) {
		t.Fatalf("expected ErrBounds, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file should be created")
	}
}

func TestWriteBitmapUnsupportedRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.dds")
	if err := WriteBitmap(path, checker(2, 2), metadata.BitmapFormatDDS, nil); !errors.Is(err, core.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("partial file should be removed")
	}
}

func TestCropBitmapPNGRoundTrip(t *testing.T) {
	rect := math.NewRect2D(2, 0, 2, 2)
	sub := CropBitmap(checker(4, 4), &rect)
	var buf bytes.Buffer
	if err := png.Encode(&buf, sub); err != nil {
		t.Fatalf("encode: %s", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}
