package renderer

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// VideoBase holds the device state that does not depend on the graphics
// API. Backends embed it and call Bind with themselves once constructed.
type VideoBase struct {
	name     string
	pipeline metadata.Pipeline
	slot     *VideoSlot
	self     Video

	screenSize math.Vec2
	cameraPos  math.Vec2
	rounding   bool
	alphaMode  metadata.AlphaMode
	blendModes []metadata.BlendMode
	depth      float32
	target     Sprite

	fileManager platform.FileManager
	limits      DeviceLimits

	sprites map[uuid.UUID]Sprite
	order   []uuid.UUID
}

func NewVideoBase(name string, pipeline metadata.Pipeline, screenSize math.Vec2, fm platform.FileManager) *VideoBase {
	return &VideoBase{
		name:        name,
		pipeline:    pipeline,
		screenSize:  screenSize,
		alphaMode:   metadata.AlphaModePixel,
		blendModes:  []metadata.BlendMode{metadata.BlendModeModulate, metadata.BlendModeModulate},
		fileManager: fm,
		limits:      DefaultLimits(),
		sprites:     make(map[uuid.UUID]Sprite),
	}
}

// Bind records the outer device so that handles resolve to it.
func (b *VideoBase) Bind(self Video) {
	b.self = self
	b.slot = NewVideoSlot(self)
}

func (b *VideoBase) Name() string                  { return b.name }
func (b *VideoBase) Pipeline() metadata.Pipeline   { return b.pipeline }
func (b *VideoBase) ScreenSizeF() math.Vec2        { return b.screenSize }
func (b *VideoBase) SetScreenSize(size math.Vec2)  { b.screenSize = size }
func (b *VideoBase) CameraPos() math.Vec2          { return b.cameraPos }
func (b *VideoBase) SetCameraPos(pos math.Vec2)    { b.cameraPos = pos }
func (b *VideoBase) IsRoundingUpPosition() bool    { return b.rounding }
func (b *VideoBase) SetRoundingUpPosition(r bool)  { b.rounding = r }
func (b *VideoBase) AlphaMode() metadata.AlphaMode { return b.alphaMode }
func (b *VideoBase) SpriteDepth() float32          { return b.depth }
func (b *VideoBase) SetSpriteDepth(depth float32)  { b.depth = depth }
func (b *VideoBase) CurrentTarget() Sprite         { return b.target }
func (b *VideoBase) SetCurrentTarget(t Sprite)     { b.target = t }

func (b *VideoBase) FileManager() platform.FileManager { return b.fileManager }
func (b *VideoBase) Limits() DeviceLimits              { return b.limits }
func (b *VideoBase) SetLimits(l DeviceLimits)          { b.limits = l }

func (b *VideoBase) Handle() VideoHandle {
	if b.slot == nil {
		return VideoHandle{}
	}
	return b.slot.Handle()
}

func (b *VideoBase) SetAlphaMode(mode metadata.AlphaMode) {
	b.alphaMode = mode
}

func (b *VideoBase) BlendMode(pass uint32) metadata.BlendMode {
	if int(pass) >= len(b.blendModes) {
		return metadata.BlendModeModulate
	}
	return b.blendModes[pass]
}

func (b *VideoBase) SetBlendMode(pass uint32, mode metadata.BlendMode) {
	for int(pass) >= len(b.blendModes) {
		b.blendModes = append(b.blendModes, metadata.BlendModeModulate)
	}
	b.blendModes[pass] = mode
}

func (b *VideoBase) CreateSprite(path string) (Sprite, error) {
	return LoadSprite(b.self, path, 0, 0, 0)
}

func (b *VideoBase) LoadSprite(path string, mask metadata.Color, width, height uint32) (Sprite, error) {
	return LoadSprite(b.self, path, mask, width, height)
}

func (b *VideoBase) CreateRenderTarget(width, height uint32, format metadata.TargetFormat) (Sprite, error) {
	return CreateRenderTarget(b.self, width, height, format)
}

func (b *VideoBase) RegisterSprite(s Sprite) {
	if _, ok := b.sprites[s.ID()]; ok {
		return
	}
	b.sprites[s.ID()] = s
	b.order = append(b.order, s.ID())
}

func (b *VideoBase) UnregisterSprite(s Sprite) {
	if _, ok := b.sprites[s.ID()]; !ok {
		return
	}
	delete(b.sprites, s.ID())
	for i, id := range b.order {
		if id == s.ID() {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Sprites returns the registered sprites in creation order.
func (b *VideoBase) Sprites() []Sprite {
	out := make([]Sprite, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.sprites[id])
	}
	return out
}

func (b *VideoBase) BackupResources() {
	for _, s := range b.Sprites() {
		if err := s.GenerateBackup(); err != nil {
			core.LogWarn("backup of sprite %s failed: %s", core.ShortID(s.ID()), err)
		}
		s.OnLostDevice()
	}
	core.LogDebug("%s: backed up %d sprites", b.name, len(b.order))
}

func (b *VideoBase) RecoverResources() {
	for _, s := range b.Sprites() {
		if err := s.RecoverFromBackup(); err != nil {
			core.LogError("recovery of sprite %s failed: %s", core.ShortID(s.ID()), err)
		}
	}
	core.LogDebug("%s: recovered %d sprites", b.name, len(b.order))
}

// Destroy releases every sprite and invalidates all handles.
func (b *VideoBase) Destroy() {
	for _, s := range b.Sprites() {
		if tex := s.Texture(); tex != nil {
			tex.Release()
		}
	}
	b.sprites = make(map[uuid.UUID]Sprite)
	b.order = nil
	b.target = nil
	if b.slot != nil {
		b.slot.Invalidate()
	}
}
