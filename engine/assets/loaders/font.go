package loaders

import (
	"fmt"

	"github.com/fzipp/bmfont"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/platform"
)

type Glyph struct {
	ID       rune
	X        float32
	Y        float32
	Width    float32
	Height   float32
	XOffset  float32
	YOffset  float32
	XAdvance float32
	Page     int
}

type KerningPair struct {
	First  rune
	Second rune
}

// BitmapFont is an AngelCode font descriptor with page paths resolved
// against the directory of the .fnt file.
type BitmapFont struct {
	Face       string
	Size       int
	LineHeight float32
	Base       float32
	ScaleW     float32
	ScaleH     float32
	Pages      map[int]string
	Glyphs     map[rune]Glyph
	Kerning    map[KerningPair]float32
}

type FontLoader struct{}

func (fl *FontLoader) Load(path string, params interface{}) (interface{}, error) {
	return LoadBitmapFont(path)
}

func LoadBitmapFont(path string) (*BitmapFont, error) {
	font, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("bitmap font %s: %v: %w", path, err, core.ErrLoad)
	}
	desc := font.Descriptor

	out := &BitmapFont{
		Face:       desc.Info.Face,
		Size:       int(desc.Info.Size),
		LineHeight: float32(desc.Common.LineHeight),
		Base:       float32(desc.Common.Base),
		ScaleW:     float32(desc.Common.ScaleW),
		ScaleH:     float32(desc.Common.ScaleH),
		Pages:      make(map[int]string, len(desc.Pages)),
		Glyphs:     make(map[rune]Glyph, len(desc.Chars)),
		Kerning:    make(map[KerningPair]float32, len(desc.Kerning)),
	}

	dir := platform.GetFilePath(path)
	for _, p := range desc.Pages {
		out.Pages[int(p.ID)] = dir + p.File
	}
	for _, g := range desc.Chars {
		out.Glyphs[rune(g.ID)] = Glyph{
			ID:       rune(g.ID),
			X:        float32(g.X),
			Y:        float32(g.Y),
			Width:    float32(g.Width),
			Height:   float32(g.Height),
			XOffset:  float32(g.XOffset),
			YOffset:  float32(g.YOffset),
			XAdvance: float32(g.XAdvance),
			Page:     int(g.Page),
		}
	}
	for p, k := range desc.Kerning {
		out.Kerning[KerningPair{First: rune(p.First), Second: rune(p.Second)}] = float32(k.Amount)
	}

	core.LogDebug("loaded bitmap font '%s' with %d glyphs", out.Face, len(out.Glyphs))
	return out, nil
}

// Advance returns the horizontal distance from r to next, including
// kerning.
func (f *BitmapFont) Advance(r, next rune) float32 {
	g, ok := f.Glyphs[r]
	if !ok {
		return 0
	}
	return g.XAdvance + f.Kerning[KerningPair{First: r, Second: next}]
}

// Measure returns the size of text laid out on as many lines as it has.
func (f *BitmapFont) Measure(text string) (float32, float32) {
	runes := []rune(text)
	var width, lineWidth float32
	lines := 1
	for i, r := range runes {
		if r == '\n' {
			lines++
			lineWidth = 0
			continue
		}
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		lineWidth += f.Advance(r, next)
		if lineWidth > width {
			width = lineWidth
		}
	}
	return width, float32(lines) * f.LineHeight
}
