package testbed

import (
	"fmt"
	gomath "math"

	"github.com/spaghettifunk/anima2d/engine"
	"github.com/spaghettifunk/anima2d/engine/assets/loaders"
	"github.com/spaghettifunk/anima2d/engine/audio"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

const (
	shipSheet   = "sprites/ship.png"
	shipColumns = 4
	fontPath    = "fonts/default.fnt"
	musicPath   = "sounds/theme.ogg"
	// frames per second of the ship animation
	animationRate = 8.0
	minimapSize   = 256
)

type TestGame struct {
	*engine.Game
	app *engine.Application
}

type gameState struct {
	width  uint32
	height uint32

	elapsed float64
	angle   float32

	ship    renderer.Sprite
	minimap renderer.Sprite
	text    *renderer.TextDrawer
	music   *audio.Sample
}

func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			State: &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(app *engine.Application) error {
	core.LogInfo("initializing testbed...")
	g.app = app
	state := g.state()

	ship, err := app.Sprites.Get(shipSheet)
	if err != nil {
		return fmt.Errorf("testbed: %w", err)
	}
	if err := ship.SetupSpriteRects(shipColumns, 1); err != nil {
		return err
	}
	ship.SetOrigin(math.NewVec2(0.5, 0.5))
	state.ship = ship

	minimap, err := app.Video.CreateRenderTarget(minimapSize, minimapSize, metadata.TargetFormatDefault)
	if err != nil {
		core.LogWarn("testbed: no minimap: %s", err)
	} else {
		state.minimap = minimap
	}

	if info, ok := app.Assets.Info(fontPath); ok {
		font, err := app.Assets.Load(info.Path, nil)
		if err != nil {
			core.LogWarn("testbed: %s", err)
		} else if text, err := renderer.NewTextDrawer(app.Video, font.(*loaders.BitmapFont)); err != nil {
			core.LogWarn("testbed: %s", err)
		} else {
			state.text = text
		}
	}

	if app.Files.FileExists(musicPath) {
		err := app.Audio.LoadSampleAsync(app.Jobs, musicPath, app.Files, audio.SampleTypeMusic, func(music *audio.Sample, err error) {
			if err != nil {
				core.LogWarn("testbed: %s", err)
				return
			}
			music.SetLoop(true)
			music.SetVolume(0.6)
			music.Play()
			state.music = music
		})
		if err != nil {
			core.LogWarn("testbed: %s", err)
		}
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()
	state.elapsed += deltaTime
	state.angle = float32(gomath.Mod(state.elapsed*45, 360))
	if state.ship != nil {
		frame := uint32(state.elapsed*animationRate) % state.ship.NumRects()
		if err := state.ship.SetRect(frame); err != nil {
			return err
		}
	}
	return nil
}

func (g *TestGame) Render(video renderer.Video, deltaTime float64) error {
	state := g.state()
	screen := video.ScreenSizeF()
	center := video.CameraPos().Add(screen.MulScalar(0.5))

	if state.minimap != nil {
		g.renderMinimap(video)
	}

	// background tiles through the fast path
	if state.ship.BeginFastRendering() {
		tile := state.ship.FrameSize().MulScalar(0.5)
		tint := metadata.NewColor(96, 255, 255, 255).Vec4()
		for y := float32(0); y < screen.Y; y += tile.Y * 2 {
			for x := float32(0); x < screen.X; x += tile.X * 2 {
				state.ship.DrawShapedFast(math.NewVec2(x, y), tile, tint)
			}
		}
		state.ship.EndFastRendering()
	}

	video.SetAlphaMode(metadata.AlphaModePixel)
	state.ship.Draw(center, metadata.ColorWhite, state.angle, math.NewVec2(2, 2))

	video.SetAlphaMode(metadata.AlphaModeAdd)
	state.ship.Draw(center, metadata.NewColor(128, 255, 160, 64), -state.angle, math.NewVec2(2.5, 2.5))
	video.SetAlphaMode(metadata.AlphaModePixel)

	if state.minimap != nil {
		state.minimap.SetOrigin(math.NewVec2(1, 0))
		state.minimap.Draw(math.NewVec2(screen.X-8, 8), metadata.ColorWhite, 0, math.NewVec2(0.5, 0.5))
	}

	if state.text != nil {
		label := fmt.Sprintf("%s | %.0f fps | %d frames", video.Name(), g.app.Metrics.FPS(), g.app.Frames())
		state.text.Draw(math.NewVec2(8, 8), label, metadata.ColorWhite, 1)
	}
	return nil
}

// renderMinimap draws the ship into the minimap target.
func (g *TestGame) renderMinimap(video renderer.Video) {
	state := g.state()
	if err := video.SetRenderTarget(state.minimap); err != nil {
		core.LogWarn("testbed: %s", err)
		return
	}
	if video.BeginTargetScene(metadata.NewColor(255, 16, 24, 48), true) {
		half := float32(minimapSize) * 0.5
		state.ship.Draw(math.NewVec2(half, half), metadata.ColorWhite, state.angle, math.NewVec2(1, 1))
		video.EndTargetScene()
	}
	if err := video.SetRenderTarget(nil); err != nil {
		core.LogWarn("testbed: %s", err)
	}
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width = width
	state.height = height
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("shutting down testbed...")
	state := g.state()
	if state.music != nil {
		state.music.Stop()
		state.music.Release()
	}
	if state.text != nil {
		state.text.Release()
	}
	if state.minimap != nil {
		state.minimap.Release()
	}
	// the ship belongs to the sprite cache
	state.ship = nil
	return nil
}
