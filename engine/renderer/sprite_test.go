package renderer

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

func testFiles() platform.FileManager {
	return platform.NewFSFileManager(fstest.MapFS{
		"hero.png":  {Data: []byte("not decoded by the mock")},
		"empty.png": {Data: []byte{}},
	})
}

func loadHero(t *testing.T, v Video) Sprite {
	t.Helper()
	s, err := v.CreateSprite("hero.png")
	if err != nil {
		t.Fatalf("CreateSprite: %s", err)
	}
	return s
}

func vec2(t *testing.T, sh *recordingShader, name string) math.Vec2 {
	t.Helper()
	if !sh.Has(name) {
		t.Fatalf("constant %s was not set", name)
	}
	return sh.Vec2(name, math.NewVec2Zero())
}

func TestSpriteVariantFollowsPipeline(t *testing.T) {
	pv := newMockVideo(testFiles())
	if _, ok := loadHero(t, pv).(*ProgrammableSprite); !ok {
		t.Fatalf("expected a programmable sprite")
	}
	fv := newMockFixedVideo(testFiles())
	if _, ok := loadHero(t, fv).(*FixedSprite); !ok {
		t.Fatalf("expected a fixed-function sprite")
	}
}

func TestSetupSpriteRectsGrid(t *testing.T) {
	v := newMockVideo(testFiles())
	s := loadHero(t, v)

	if err := s.SetupSpriteRects(4, 4); err != nil {
		t.Fatalf("SetupSpriteRects: %s", err)
	}
	if s.NumRects() != 16 {
		t.Fatalf("expected 16 rects, got %d", s.NumRects())
	}
	if s.RectIndex() != 0 {
		t.Fatalf("grid setup should select rect 0, got %d", s.RectIndex())
	}
	if err := s.SetRect(5); err != nil {
		t.Fatalf("SetRect(5): %s", err)
	}
	r := s.Rect()
	if r.Pos != math.NewVec2(16, 16) || r.Size != math.NewVec2(16, 16) {
		t.Fatalf("rect 5 should be (16,16)+(16,16), got %+v", r)
	}
	if s.FrameSize() != math.NewVec2(16, 16) {
		t.Fatalf("frame size should follow the rect, got %+v", s.FrameSize())
	}
}

func TestSetRectOutOfBoundsKeepsCurrent(t *testing.T) {
	v := newMockVideo(testFiles())
	s := loadHero(t, v)
	_ = s.SetupSpriteRects(2, 2)
	_ = s.SetRect(3)

	err := s.SetRect(4)
	if !errors.Is(err, core.ErrBounds) {
		t.Fatalf("expected ErrBounds, got %v", err)
	}
	if s.RectIndex() != 3 || s.Rect().Pos != math.NewVec2(32, 32) {
		t.Fatalf("failed SetRect must keep rect 3, got %d %+v", s.RectIndex(), s.Rect())
	}
	if err := s.SetupSpriteRects(0, 2); !errors.Is(err, core.ErrBounds) {
		t.Fatalf("expected ErrBounds for zero columns, got %v", err)
	}
	if s.NumRects() != 4 {
		t.Fatalf("failed grid setup must keep the old grid")
	}
}

func TestSpriteDensity(t *testing.T) {
	v := newMockVideo(testFiles())
	s := loadHero(t, v)

	s.SetSpriteDensityValue(2)
	if s.BitmapSizeF() != math.NewVec2(32, 32) {
		t.Fatalf("density 2 should halve the logical size, got %+v", s.BitmapSizeF())
	}
	if s.Profile().Width != 64 {
		t.Fatalf("density must not change the texture")
	}

	s.SetSpriteDensityValue(0)
	s.SetSpriteDensityValue(-1)
	if s.SpriteDensityValue() != 2 {
		t.Fatalf("non-positive density must be ignored, got %f", s.SpriteDensityValue())
	}

	target, err := v.CreateRenderTarget(128, 64, metadata.TargetFormatDefault)
	if err != nil {
		t.Fatalf("CreateRenderTarget: %s", err)
	}
	target.SetSpriteDensityValue(4)
	if target.BitmapSizeF() != math.NewVec2(128, 64) {
		t.Fatalf("render targets keep their size, got %+v", target.BitmapSizeF())
	}
}

func TestDrawBindsConstants(t *testing.T) {
	v := newMockVideo(testFiles())
	v.SetCameraPos(math.NewVec2(5, 6))
	v.SetSpriteDepth(0.25)
	s := loadHero(t, v)
	s.SetOrigin(math.NewVec2(0.5, 0.5))
	s.SetFlipX(true)

	if !s.Draw(math.NewVec2(100, 50), metadata.ColorWhite, 0, math.NewVec2(2, 2)) {
		t.Fatalf("Draw failed")
	}
	vs := v.defaultVS

	if got := vec2(t, vs, metadata.ConstantSize); got != math.NewVec2(128, 128) {
		t.Fatalf("size: %+v", got)
	}
	if got := vec2(t, vs, metadata.ConstantCenter); got != math.NewVec2(64, 64) {
		t.Fatalf("center: %+v", got)
	}
	if got := vec2(t, vs, metadata.ConstantFlipMul); got != math.NewVec2(-1, 1) {
		t.Fatalf("flipMul: %+v", got)
	}
	if got := vec2(t, vs, metadata.ConstantFlipAdd); got != math.NewVec2(1, 0) {
		t.Fatalf("flipAdd: %+v", got)
	}
	if got := vec2(t, vs, metadata.ConstantCameraPos); got != math.NewVec2(5, 6) {
		t.Fatalf("cameraPos: %+v", got)
	}
	if got := vec2(t, vs, metadata.ConstantRectSize); got != math.NewVec2(64, 64) {
		t.Fatalf("a zero rect must map to the full bitmap, got %+v", got)
	}
	if got := vs.Float(metadata.ConstantDepth, -1); got != 0.25 {
		t.Fatalf("depth: %f", got)
	}
	if !vs.Matrix(metadata.ConstantRotation).IsIdentity() {
		t.Fatalf("angle 0 must bind the identity rotation")
	}
	if v.defaultPS.Texture(metadata.ConstantTextureDiffuse) != s.Texture() {
		t.Fatalf("diffuse texture not bound")
	}
	if vs.commits != 1 || v.defaultPS.commits != 1 {
		t.Fatalf("expected one commit per stage, got vs=%d ps=%d", vs.commits, v.defaultPS.commits)
	}
	if len(v.rect.draws) != 1 || v.rect.draws[0] != metadata.RectModeTwoTriangles {
		t.Fatalf("expected one two-triangle draw, got %v", v.rect.draws)
	}

	s.Draw(math.NewVec2(0, 0), metadata.ColorWhite, 90, math.NewVec2One())
	if vs.Matrix(metadata.ConstantRotation).IsIdentity() {
		t.Fatalf("a rotated draw must not bind the identity")
	}
}

func TestOptionalConstantsSkipped(t *testing.T) {
	names := []string{}
	for _, n := range allVertexConstants() {
		if n != metadata.ConstantCameraPos && n != metadata.ConstantDepth {
			names = append(names, n)
		}
	}
	v := newMockVideo(testFiles(), names...)
	v.SetCameraPos(math.NewVec2(5, 6))
	s := loadHero(t, v)
	s.Draw(math.NewVec2(1, 1), metadata.ColorWhite, 0, math.NewVec2One())

	if v.defaultVS.Has(metadata.ConstantCameraPos) || v.defaultVS.Has(metadata.ConstantDepth) {
		t.Fatalf("undeclared constants must not be set")
	}
	if len(v.rect.draws) != 1 {
		t.Fatalf("draw should still happen")
	}
}

func TestZeroSizeDrawIsNoOp(t *testing.T) {
	v := newMockVideo(testFiles())
	s := loadHero(t, v)
	if !s.Draw(math.NewVec2(1, 1), metadata.ColorWhite, 0, math.NewVec2Zero()) {
		t.Fatalf("zero size draw should report success")
	}
	if !s.DrawShapedFast(math.NewVec2(1, 1), math.NewVec2Zero(), math.NewVec4One()) {
		t.Fatalf("zero size fast draw should report success")
	}
	if len(v.rect.draws) != 0 || v.defaultVS.commits != 0 {
		t.Fatalf("nothing should reach the device")
	}
}

func TestDrawOptimalNaturalSize(t *testing.T) {
	v := newMockVideo(testFiles())
	s := loadHero(t, v)
	_ = s.SetupSpriteRects(2, 1)
	s.DrawOptimal(math.NewVec2Zero(), metadata.ColorWhite, 0, math.NewVec2(-1, -1))
	if got := vec2(t, v.defaultVS, metadata.ConstantSize); got != math.NewVec2(32, 64) {
		t.Fatalf("natural size should be the frame size, got %+v", got)
	}
	s.DrawOptimal(math.NewVec2Zero(), metadata.ColorWhite, 0, math.NewVec2(10, 20))
	if got := vec2(t, v.defaultVS, metadata.ConstantSize); got != math.NewVec2(10, 20) {
		t.Fatalf("explicit size ignored, got %+v", got)
	}
}

func TestRoundingUpPosition(t *testing.T) {
	v := newMockVideo(testFiles())
	v.SetRoundingUpPosition(true)
	s := loadHero(t, v)
	s.Draw(math.NewVec2(10.7, 3.2), metadata.ColorWhite, 0, math.NewVec2One())
	if got := vec2(t, v.defaultVS, metadata.ConstantEntityPos); got != math.NewVec2(10, 3) {
		t.Fatalf("position should be floored, got %+v", got)
	}
}

func TestFastRenderingUsesFontShader(t *testing.T) {
	v := newMockVideo(testFiles())
	s := loadHero(t, v)

	if !s.BeginFastRendering() {
		t.Fatalf("BeginFastRendering failed")
	}
	if v.VertexShader() != Shader(v.fontVS) {
		t.Fatalf("font shader should be bound")
	}
	s.DrawShapedFast(math.NewVec2(3, 4), math.NewVec2(8, 8), math.NewVec4One())
	s.DrawShapedFast(math.NewVec2(13, 4), math.NewVec2(8, 8), math.NewVec4One())
	s.EndFastRendering()

	if v.fontVS.commits != 2 || len(v.rect.draws) != 2 {
		t.Fatalf("expected two fast draws, got %d commits %d draws", v.fontVS.commits, len(v.rect.draws))
	}
	if got := vec2(t, v.fontVS, metadata.ConstantEntityPos); got != math.NewVec2(13, 4) {
		t.Fatalf("entityPos: %+v", got)
	}
	if v.VertexShader() != Shader(v.defaultVS) || v.PixelShader() != Shader(v.defaultPS) {
		t.Fatalf("EndFastRendering must restore the default shaders")
	}
}

func TestSetAsTexture(t *testing.T) {
	v := newMockVideo(testFiles())
	s := loadHero(t, v)

	s.SetAsTexture(0)
	if v.PixelShader() != Shader(v.defaultPS) {
		t.Fatalf("pass 0 must not change the pixel shader")
	}

	s.SetAsTexture(1)
	if v.PixelShader() != Shader(v.modulatePS) {
		t.Fatalf("modulate blend should bind the modulate shader")
	}
	if v.modulatePS.Texture(metadata.ConstantTexturePass1) != s.Texture() {
		t.Fatalf("pass1 texture not bound")
	}

	// a custom shader is left alone
	s.SetAsTexture(1)
	if v.PixelShader() != Shader(v.modulatePS) {
		t.Fatalf("non-default shader should be kept")
	}

	v.SetPixelShader(nil)
	v.SetBlendMode(1, metadata.BlendModeAdd)
	s.SetAsTexture(1)
	if v.PixelShader() != Shader(v.addPS) {
		t.Fatalf("add blend should bind the add shader")
	}
}

func TestFixedSpriteFoldsStageState(t *testing.T) {
	fv := newMockFixedVideo(testFiles())
	s := loadHero(t, fv)
	s.SetOrigin(math.NewVec2(0.5, 0.5))

	if !s.Draw(math.NewVec2(100, 100), metadata.ColorWhite, 30, math.NewVec2One()) {
		t.Fatalf("Draw failed")
	}
	if fv.texture[0] != s.Texture() || fv.commits != 1 {
		t.Fatalf("stage 0 not committed")
	}

	in := DrawInput{
		Pos: math.NewVec2(100, 100), Size: math.NewVec2(64, 64), Angle: 30,
		Origin: math.NewVec2(0.5, 0.5), BitmapSize: math.NewVec2(64, 64),
		Multiply: math.NewVec2One(), Colors: uniform(metadata.ColorWhite),
	}
	want := ComputeDrawParams(in).Quad()
	got := fv.stages[0].Quad()
	for i := range want {
		if !got[i].Position.Compare(want[i].Position, 1e-3) || !got[i].Texcoord.Compare(want[i].Texcoord, 1e-5) {
			t.Fatalf("corner %d: stage %+v, shader %+v", i, got[i], want[i])
		}
	}

	s.BeginFastRendering()
	s.DrawShapedFast(math.NewVec2(1, 1), math.NewVec2(4, 4), math.NewVec4One())
	s.EndFastRendering()
	if fv.resets != 1 {
		t.Fatalf("EndFastRendering must reset the stages")
	}

	s.SetAsTexture(1)
	if fv.texture[1] != s.Texture() {
		t.Fatalf("SetAsTexture(1) must bind stage 1")
	}
}

func TestDestroyedVideoInvalidatesHandles(t *testing.T) {
	v := newMockVideo(testFiles())
	s := loadHero(t, v)
	h := v.Handle()
	v.Destroy()

	if _, ok := h.Resolve(); ok {
		t.Fatalf("handle should not resolve after Destroy")
	}
	if !s.Draw(math.NewVec2Zero(), metadata.ColorWhite, 0, math.NewVec2One()) {
		t.Fatalf("drawing with a gone device is a no-op success")
	}
	if !s.BeginFastRendering() {
		t.Fatalf("BeginFastRendering with a gone device is a no-op success")
	}
	if !s.DrawShapedFast(math.NewVec2Zero(), math.NewVec2One(), math.NewVec4One()) {
		t.Fatalf("DrawShapedFast with a gone device is a no-op success")
	}
	s.EndFastRendering()
	if len(v.rect.draws) != 0 {
		t.Fatalf("nothing should be drawn")
	}
	if !s.Texture().(*mockTexture).released {
		t.Fatalf("Destroy should release the textures")
	}
}

func TestLoadErrors(t *testing.T) {
	v := newMockVideo(testFiles())
	if _, err := v.CreateSprite("missing.png"); !errors.Is(err, core.ErrLoad) {
		t.Fatalf("missing file: expected ErrLoad, got %v", err)
	}
	if _, err := v.CreateSprite("empty.png"); !errors.Is(err, core.ErrLoad) {
		t.Fatalf("empty file: expected ErrLoad, got %v", err)
	}
	v.failLoad = true
	if _, err := v.CreateSprite("hero.png"); !errors.Is(err, core.ErrLoad) {
		t.Fatalf("decode failure: expected ErrLoad, got %v", err)
	}
	if len(v.Sprites()) != 0 {
		t.Fatalf("failed loads must not register sprites")
	}
}

func TestRenderTargetLimits(t *testing.T) {
	v := newMockVideo(testFiles())
	v.SetLimits(DeviceLimits{MaxTextureSize: 256, TargetFormats: []metadata.TargetFormat{metadata.TargetFormatDefault}})

	if _, err := v.CreateRenderTarget(512, 16, metadata.TargetFormatDefault); !errors.Is(err, core.ErrAllocation) {
		t.Fatalf("oversized target: expected ErrAllocation, got %v", err)
	}
	if _, err := v.CreateRenderTarget(0, 16, metadata.TargetFormatDefault); !errors.Is(err, core.ErrAllocation) {
		t.Fatalf("empty target: expected ErrAllocation, got %v", err)
	}
	if _, err := v.CreateRenderTarget(16, 16, metadata.TargetFormatRGB); !errors.Is(err, core.ErrAllocation) {
		t.Fatalf("unsupported format: expected ErrAllocation, got %v", err)
	}
	s, err := v.CreateRenderTarget(256, 256, metadata.TargetFormatDefault)
	if err != nil {
		t.Fatalf("CreateRenderTarget: %s", err)
	}
	if s.Type() != metadata.SpriteTypeTarget {
		t.Fatalf("expected a target sprite")
	}
}

func TestBackupAndRecover(t *testing.T) {
	v := newMockVideo(testFiles())
	s := loadHero(t, v)
	target, _ := v.CreateRenderTarget(32, 32, metadata.TargetFormatDefault)

	v.BackupResources()
	for _, sp := range []Sprite{s, target} {
		if sp.Texture().State() != metadata.TextureStateLost {
			t.Fatalf("sprite %s should be lost, got %s", core.ShortID(sp.ID()), sp.Texture().State())
		}
	}
	v.RecoverResources()
	for _, sp := range []Sprite{s, target} {
		if sp.Texture().State() != metadata.TextureStateRecovered {
			t.Fatalf("sprite %s should be recovered, got %s", core.ShortID(sp.ID()), sp.Texture().State())
		}
	}
}

func TestReleaseUnregisters(t *testing.T) {
	v := newMockVideo(testFiles())
	a := loadHero(t, v)
	b := loadHero(t, v)
	a.Release()

	sprites := v.Sprites()
	if len(sprites) != 1 || sprites[0].ID() != b.ID() {
		t.Fatalf("expected only the second sprite to remain")
	}
	if !a.Texture().(*mockTexture).released {
		t.Fatalf("Release should free the texture")
	}
}
