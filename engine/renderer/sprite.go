package renderer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Sprite binds a texture to the parameters used to draw it.
type Sprite interface {
	ID() uuid.UUID
	Type() metadata.SpriteType
	Profile() metadata.TextureProfile
	Texture() Texture

	BitmapSize() math.Vec2i
	BitmapSizeF() math.Vec2
	// FrameSize is the size of the current rect, or the bitmap when the
	// rect is unset.
	FrameSize() math.Vec2

	SetupSpriteRects(columns, rows uint32) error
	SetRect(index uint32) error
	SetCustomRect(rect math.Rect2D)
	UnsetRect()
	Rect() math.Rect2D
	RectIndex() uint32
	NumRects() uint32

	Origin() math.Vec2
	SetOrigin(origin math.Vec2)
	FlipX() bool
	FlipY() bool
	SetFlipX(flip bool)
	SetFlipY(flip bool)
	Scroll() math.Vec2
	SetScroll(scroll math.Vec2)
	Multiply() math.Vec2
	SetMultiply(multiply math.Vec2)
	RectMode() metadata.RectMode
	SetRectMode(mode metadata.RectMode)
	SpriteDensityValue() float32
	SetSpriteDensityValue(value float32)

	Draw(pos math.Vec2, color metadata.Color, angle float32, scale math.Vec2) bool
	// DrawOptimal draws at size; (-1,-1) means the natural frame size.
	DrawOptimal(pos math.Vec2, color metadata.Color, angle float32, size math.Vec2) bool
	DrawShaped(pos, size math.Vec2, c0, c1, c2, c3 math.Vec4, angle float32) bool

	BeginFastRendering() bool
	DrawShapedFast(pos, size math.Vec2, color math.Vec4) bool
	EndFastRendering()

	SetAsTexture(pass uint32) bool
	SaveBitmap(path string, format metadata.BitmapFormat, rect *math.Rect2D) error

	GenerateBackup() error
	RecoverFromBackup() error
	OnLostDevice()
	Release()
}

// spriteBase is the state and behavior shared by both pipeline variants.
type spriteBase struct {
	id      uuid.UUID
	video   VideoHandle
	texture Texture
	kind    metadata.SpriteType

	bitmapSize math.Vec2
	density    float32

	rects     []math.Rect2D
	columns   uint32
	rows      uint32
	rectIndex uint32
	rect      math.Rect2D

	origin   math.Vec2
	flipX    bool
	flipY    bool
	scroll   math.Vec2
	multiply math.Vec2
	rectMode metadata.RectMode
}

func newSpriteBase(h VideoHandle, tex Texture, kind metadata.SpriteType) *spriteBase {
	s := &spriteBase{
		id:         core.NewIdentifier(),
		video:      h,
		texture:    tex,
		kind:       kind,
		bitmapSize: tex.Profile().Size(),
		density:    1,
		multiply:   math.NewVec2One(),
		rectMode:   metadata.RectModeTwoTriangles,
	}
	// one column, one row can't fail
	_ = s.SetupSpriteRects(1, 1)
	return s
}

func (s *spriteBase) ID() uuid.UUID                    { return s.id }
func (s *spriteBase) Type() metadata.SpriteType        { return s.kind }
func (s *spriteBase) Profile() metadata.TextureProfile { return s.texture.Profile() }
func (s *spriteBase) Texture() Texture                 { return s.texture }

func (s *spriteBase) BitmapSize() math.Vec2i {
	return s.bitmapSize.ToVec2i()
}

func (s *spriteBase) BitmapSizeF() math.Vec2 {
	return s.bitmapSize
}

func (s *spriteBase) FrameSize() math.Vec2 {
	if s.rect.IsSizeZero() {
		return s.bitmapSize
	}
	return s.rect.Size
}

// SetupSpriteRects slices the bitmap into a row-major grid of frames and
// selects the first one.
func (s *spriteBase) SetupSpriteRects(columns, rows uint32) error {
	if columns == 0 || rows == 0 {
		return fmt.Errorf("sprite rect grid %dx%d: %w", columns, rows, core.ErrBounds)
	}

	frame := math.NewVec2(s.bitmapSize.X/float32(columns), s.bitmapSize.Y/float32(rows))
	rects := make([]math.Rect2D, columns*rows)
	for i := range rects {
		col := uint32(i) % columns
		row := uint32(i) / columns
		rects[i] = math.Rect2D{
			Pos:  math.NewVec2(float32(col)*frame.X, float32(row)*frame.Y),
			Size: frame,
		}
	}
	s.rects = rects
	s.columns, s.rows = columns, rows
	return s.SetRect(0)
}

func (s *spriteBase) gridSize() (uint32, uint32) {
	if s.columns == 0 || s.rows == 0 {
		return 1, 1
	}
	return s.columns, s.rows
}

func (s *spriteBase) SetRect(index uint32) error {
	if index >= uint32(len(s.rects)) {
		return fmt.Errorf("sprite rect %d of %d: %w", index, len(s.rects), core.ErrBounds)
	}
	s.rectIndex = index
	s.rect = s.rects[index]
	return nil
}

// SetCustomRect selects an arbitrary region without touching the grid.
func (s *spriteBase) SetCustomRect(rect math.Rect2D) {
	s.rect = rect
}

// UnsetRect restores the zero rect, which draws the full bitmap.
func (s *spriteBase) UnsetRect() {
	s.rect = math.Rect2D{}
}

func (s *spriteBase) Rect() math.Rect2D { return s.rect }
func (s *spriteBase) RectIndex() uint32 { return s.rectIndex }
func (s *spriteBase) NumRects() uint32  { return uint32(len(s.rects)) }

func (s *spriteBase) Origin() math.Vec2               { return s.origin }
func (s *spriteBase) SetOrigin(origin math.Vec2)      { s.origin = origin }
func (s *spriteBase) FlipX() bool                     { return s.flipX }
func (s *spriteBase) FlipY() bool                     { return s.flipY }
func (s *spriteBase) SetFlipX(flip bool)              { s.flipX = flip }
func (s *spriteBase) SetFlipY(flip bool)              { s.flipY = flip }
func (s *spriteBase) Scroll() math.Vec2               { return s.scroll }
func (s *spriteBase) SetScroll(scroll math.Vec2)      { s.scroll = scroll }
func (s *spriteBase) Multiply() math.Vec2             { return s.multiply }
func (s *spriteBase) SetMultiply(multiply math.Vec2)  { s.multiply = multiply }
func (s *spriteBase) RectMode() metadata.RectMode     { return s.rectMode }
func (s *spriteBase) SetRectMode(m metadata.RectMode) { s.rectMode = m }
func (s *spriteBase) SpriteDensityValue() float32     { return s.density }

// SetSpriteDensityValue rescales the logical bitmap size. Render targets
// always keep their allocated size.
func (s *spriteBase) SetSpriteDensityValue(value float32) {
	if s.kind == metadata.SpriteTypeTarget {
		return
	}
	if value <= 0 {
		core.LogWarn("ignoring sprite density value %f for sprite %s", value, core.ShortID(s.id))
		return
	}
	s.bitmapSize = s.texture.Profile().Size().DivScalar(value)
	s.density = value
	_ = s.SetupSpriteRects(1, 1)
}

func (s *spriteBase) SaveBitmap(path string, format metadata.BitmapFormat, rect *math.Rect2D) error {
	return s.texture.SaveBitmap(path, format, rect)
}

func (s *spriteBase) GenerateBackup() error {
	return s.texture.SaveTargetSurfaceBackup()
}

func (s *spriteBase) RecoverFromBackup() error {
	return s.texture.Recover()
}

func (s *spriteBase) OnLostDevice() {
	s.texture.OnLostDevice()
}

func (s *spriteBase) drawInput(v Video, pos, size math.Vec2, colors [4]math.Vec4, angle float32) DrawInput {
	return DrawInput{
		Pos:        pos,
		Size:       size,
		Colors:     colors,
		Angle:      angle,
		Origin:     s.origin,
		FlipX:      s.flipX,
		FlipY:      s.flipY,
		Round:      v.IsRoundingUpPosition(),
		CameraPos:  v.CameraPos(),
		BitmapSize: s.bitmapSize,
		Rect:       s.rect,
		Scroll:     s.scroll,
		Multiply:   s.multiply,
		Depth:      v.SpriteDepth(),
	}
}

func (s *spriteBase) scaledSize(scale math.Vec2) math.Vec2 {
	return s.FrameSize().Mul(scale)
}

func (s *spriteBase) optimalSize(size math.Vec2) math.Vec2 {
	if size.X == -1 && size.Y == -1 {
		return s.FrameSize()
	}
	return size
}

func (s *spriteBase) release(self Sprite) {
	if v, ok := s.video.Resolve(); ok {
		v.UnregisterSprite(self)
	}
	if s.texture != nil {
		s.texture.Release()
	}
}

func logDeviceGone(op string, id uuid.UUID) {
	core.LogDebug("%s on sprite %s skipped: %s", op, core.ShortID(id), core.ErrDeviceLost)
}

// emitted turns the device's answer to a draw into the sprite's result. A
// refused draw is what a lost device does, so it is only logged.
func emitted(op string, id uuid.UUID, ok bool) bool {
	if !ok {
		core.LogDebug("%s on sprite %s not drawn: %s", op, core.ShortID(id), core.ErrDeviceLost)
	}
	return true
}

func uniform(c metadata.Color) [4]math.Vec4 {
	v := c.Vec4()
	return [4]math.Vec4{v, v, v, v}
}

// NewSprite wraps tex in the sprite variant matching the device pipeline.
func NewSprite(v Video, tex Texture, kind metadata.SpriteType) Sprite {
	base := newSpriteBase(v.Handle(), tex, kind)
	var s Sprite
	if v.Pipeline() == metadata.PipelineFixedFunction {
		s = &FixedSprite{spriteBase: base}
	} else {
		s = &ProgrammableSprite{spriteBase: base}
	}
	v.RegisterSprite(s)
	return s
}

// LoadSprite reads path through the device file manager and decodes it.
func LoadSprite(v Video, path string, mask metadata.Color, width, height uint32) (Sprite, error) {
	buf, ok := v.FileManager().GetFileBuffer(path)
	if !ok {
		return nil, fmt.Errorf("sprite %s: file not found: %w", path, core.ErrLoad)
	}
	s, err := LoadSpriteFromMemory(v, buf, mask, width, height)
	if err != nil {
		return nil, fmt.Errorf("sprite %s: %w", path, err)
	}
	return s, nil
}

func LoadSpriteFromMemory(v Video, buf []byte, mask metadata.Color, width, height uint32) (Sprite, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("empty buffer: %w", core.ErrLoad)
	}
	tex, err := v.CreateTextureFromMemory(buf, mask, width, height)
	if err != nil {
		if errors.Is(err, core.ErrLoad) {
			return nil, err
		}
		return nil, fmt.Errorf("%v: %w", err, core.ErrLoad)
	}
	return NewSprite(v, tex, metadata.SpriteTypeBitmap), nil
}

// CreateRenderTarget allocates a sprite that can be drawn into.
func CreateRenderTarget(v Video, width, height uint32, format metadata.TargetFormat) (Sprite, error) {
	limits := v.Limits()
	if !limits.AllowsSize(width, height) {
		return nil, fmt.Errorf("render target %dx%d exceeds device limits (%d): %w", width, height, limits.MaxTextureSize, core.ErrAllocation)
	}
	if !limits.SupportsTarget(format) {
		return nil, fmt.Errorf("render target format %d unsupported: %w", format, core.ErrAllocation)
	}
	tex, err := v.CreateRenderTargetTexture(width, height, format)
	if err != nil {
		if errors.Is(err, core.ErrAllocation) {
			return nil, err
		}
		return nil, fmt.Errorf("%v: %w", err, core.ErrAllocation)
	}
	return NewSprite(v, tex, metadata.SpriteTypeTarget), nil
}

// replaceTexture swaps in a freshly loaded texture, keeping the rect grid.
func (s *spriteBase) replaceTexture(tex Texture) {
	columns, rows := s.gridSize()
	index := s.rectIndex
	old := s.texture
	s.texture = tex
	s.bitmapSize = tex.Profile().Size().DivScalar(s.density)
	if err := s.SetupSpriteRects(columns, rows); err != nil {
		_ = s.SetupSpriteRects(1, 1)
	}
	_ = s.SetRect(index)
	if old != nil {
		old.Release()
	}
}
