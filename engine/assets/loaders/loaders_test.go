package loaders

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 0, B: 255, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
			}
		}
	}
	return img
}

func TestDecodeImageColorKey(t *testing.T) {
	img, err := DecodeImage(encodePNG(t, checker(4, 2)), 0xFFFF00FF, 0, 0)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 2 {
		t.Fatalf("size = %v", img.Bounds())
	}
	if c := img.NRGBAAt(0, 0); c.A != 0 {
		t.Fatalf("keyed pixel = %+v, want transparent", c)
	}
	if c := img.NRGBAAt(1, 0); c != (color.NRGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Fatalf("unkeyed pixel = %+v", c)
	}
}

func TestDecodeImageResize(t *testing.T) {
	img, err := DecodeImage(encodePNG(t, checker(4, 2)), 0, 8, 0)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 2 {
		t.Fatalf("resized to %v, want 8x2", img.Bounds())
	}
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	if _, err := DecodeImage([]byte("nope"), 0, 0, 0); !errors.Is(err, core.ErrLoad) {
		t.Fatalf("err = %v, want ErrLoad", err)
	}
}

func TestImageLoader(t *testing.T) {
	fm := platform.NewFSFileManager(fstest.MapFS{
		"hero.png": {Data: encodePNG(t, checker(2, 2))},
	})
	il := &ImageLoader{FileManager: fm}
	v, err := il.Load("hero.png", &ImageParams{Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img := v.(*image.NRGBA); img.Bounds().Dx() != 4 {
		t.Fatalf("size = %v", img.Bounds())
	}
	if _, err := il.Load("missing.png", nil); !errors.Is(err, core.ErrLoad) {
		t.Fatalf("missing: err = %v, want ErrLoad", err)
	}
}

func TestToNRGBAAndBlank(t *testing.T) {
	src := image.NewRGBA(image.Rect(2, 2, 5, 4))
	src.Set(2, 2, color.RGBA{R: 255, A: 255})
	n := ToNRGBA(src)
	if n.Rect.Min != (image.Point{}) || n.Bounds().Dx() != 3 || n.Bounds().Dy() != 2 {
		t.Fatalf("ToNRGBA bounds = %v", n.Bounds())
	}
	if c := n.NRGBAAt(0, 0); c.R != 255 {
		t.Fatalf("origin pixel = %+v", c)
	}
	b := Blank(3, 3)
	for i := 3; i < len(b.Pix); i += 4 {
		if b.Pix[i] != 0 {
			t.Fatalf("blank image has opaque pixels")
		}
	}
}

func testFont() *BitmapFont {
	return &BitmapFont{
		LineHeight: 18,
		Glyphs: map[rune]Glyph{
			'A': {ID: 'A', Width: 8, Height: 10, XAdvance: 9},
			'V': {ID: 'V', Width: 8, Height: 10, XAdvance: 9},
			' ': {ID: ' ', XAdvance: 4},
		},
		Kerning: map[KerningPair]float32{
			{First: 'A', Second: 'V'}: -2,
		},
	}
}

func TestBitmapFontAdvance(t *testing.T) {
	f := testFont()
	if got := f.Advance('A', 'V'); got != 7 {
		t.Fatalf("Advance(A, V) = %v, want 7", got)
	}
	if got := f.Advance('A', 'A'); got != 9 {
		t.Fatalf("Advance(A, A) = %v, want 9", got)
	}
	if got := f.Advance('?', 'A'); got != 0 {
		t.Fatalf("unknown glyph advance = %v", got)
	}
}

func TestBitmapFontMeasure(t *testing.T) {
	f := testFont()
	w, h := f.Measure("AV A\nA")
	// 7 + 9 + 4 + 9 on the first line
	if w != 29 || h != 36 {
		t.Fatalf("Measure = %vx%v, want 29x36", w, h)
	}
}
