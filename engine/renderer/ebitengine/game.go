//go:build ebitengine

package ebitengine

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// game adapts the engine frame function to ebiten's loop.
type game struct {
	video *Video
	frame func() bool
}

func (g *game) Update() error {
	if !g.frame() {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.video.front, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := g.video.ScreenSizeF()
	return int(size.X), int(size.Y)
}

// Run hands the main loop to ebiten. frame is called once per tick and
// returns false to stop.
func (v *Video) Run(frame func() bool) error {
	return ebiten.RunGame(&game{video: v, frame: frame})
}
