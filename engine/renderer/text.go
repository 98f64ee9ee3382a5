package renderer

import (
	"fmt"
	"sort"

	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// TextDrawer renders strings with a bitmap font through the sprite fast
// path, one Begin/End run per font page.
type TextDrawer struct {
	font  *loaders.BitmapFont
	pages map[int]Sprite
	order []int
}

func NewTextDrawer(v Video, font *loaders.BitmapFont) (*TextDrawer, error) {
	t := &TextDrawer{font: font, pages: make(map[int]Sprite, len(font.Pages))}
	for id, path := range font.Pages {
		s, err := v.LoadSprite(path, 0, 0, 0)
		if err != nil {
			t.Release()
			return nil, fmt.Errorf("font page %d: %w", id, err)
		}
		t.pages[id] = s
		t.order = append(t.order, id)
	}
	sort.Ints(t.order)
	return t, nil
}

type placedGlyph struct {
	rect math.Rect2D
	pos  math.Vec2
	size math.Vec2
}

// layout positions every glyph of text, grouped by page.
func (t *TextDrawer) layout(pos math.Vec2, text string, scale float32) map[int][]placedGlyph {
	out := make(map[int][]placedGlyph)
	runes := []rune(text)
	cursor := pos
	for i, r := range runes {
		if r == '\n' {
			cursor.X = pos.X
			cursor.Y += t.font.LineHeight * scale
			continue
		}
		g, ok := t.font.Glyphs[r]
		if !ok {
			continue
		}
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		if g.Width > 0 && g.Height > 0 {
			out[g.Page] = append(out[g.Page], placedGlyph{
				rect: math.NewRect2D(g.X, g.Y, g.Width, g.Height),
				pos:  cursor.Add(math.NewVec2(g.XOffset, g.YOffset).MulScalar(scale)),
				size: math.NewVec2(g.Width, g.Height).MulScalar(scale),
			})
		}
		cursor.X += t.font.Advance(r, next) * scale
	}
	return out
}

func (t *TextDrawer) Draw(pos math.Vec2, text string, color metadata.Color, scale float32) bool {
	c := color.Vec4()
	ok := true
	placed := t.layout(pos, text, scale)
	for _, page := range t.order {
		glyphs := placed[page]
		if len(glyphs) == 0 {
			continue
		}
		s := t.pages[page]
		saved := s.Rect()
		if !s.BeginFastRendering() {
			ok = false
			continue
		}
		for _, g := range glyphs {
			s.SetCustomRect(g.rect)
			ok = s.DrawShapedFast(g.pos, g.size, c) && ok
		}
		s.EndFastRendering()
		s.SetCustomRect(saved)
	}
	return ok
}

// Measure returns the size of text at the given scale.
func (t *TextDrawer) Measure(text string, scale float32) math.Vec2 {
	w, h := t.font.Measure(text)
	return math.NewVec2(w, h).MulScalar(scale)
}

func (t *TextDrawer) Release() {
	for _, id := range t.order {
		t.pages[id].Release()
	}
	t.pages = nil
	t.order = nil
}
