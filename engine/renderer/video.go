package renderer

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Texture is a backend-owned bitmap or render target.
type Texture interface {
	ID() uuid.UUID
	Profile() metadata.TextureProfile
	State() metadata.TextureState
	IsRenderTarget() bool
	// SaveBitmap encodes the current pixels, or the rect part of them, to path.
	SaveBitmap(path string, format metadata.BitmapFormat, rect *math.Rect2D) error
	// SaveTargetSurfaceBackup copies the texture contents to a side buffer.
	SaveTargetSurfaceBackup() error
	// Recover recreates the backend handle after a loss and restores the
	// backed up contents, if any.
	Recover() error
	// OnLostDevice invalidates the backend handle.
	OnLostDevice()
	Release()
}

// Shader is a programmable stage with named constants.
type Shader interface {
	Kind() metadata.ShaderKind
	SetConstant(name string, values ...float32) bool
	SetMatrixConstant(name string, m math.Mat4) bool
	SetTexture(name string, tex Texture) bool
	// SetShader commits the pending constants and binds the stage.
	SetShader() bool
	ConstantExist(name string) bool
}

// RectRenderer emits the unit quad with the currently bound state.
type RectRenderer interface {
	Draw(mode metadata.RectMode) bool
}

// Video is the graphics context shared by every sprite.
type Video interface {
	Name() string
	Pipeline() metadata.Pipeline
	Handle() VideoHandle

	ScreenSizeF() math.Vec2
	CameraPos() math.Vec2
	SetCameraPos(pos math.Vec2)
	IsRoundingUpPosition() bool
	SetRoundingUpPosition(round bool)
	AlphaMode() metadata.AlphaMode
	SetAlphaMode(mode metadata.AlphaMode)
	BlendMode(pass uint32) metadata.BlendMode
	SetBlendMode(pass uint32, mode metadata.BlendMode)
	SpriteDepth() float32
	SetSpriteDepth(depth float32)

	// SetRenderTarget redirects drawing into the target sprite. nil restores
	// the back buffer.
	SetRenderTarget(target Sprite) error
	BeginSpriteScene(background metadata.Color) bool
	EndSpriteScene() bool
	BeginTargetScene(background metadata.Color, clear bool) bool
	EndTargetScene() bool

	RectRenderer() RectRenderer
	FileManager() platform.FileManager
	Limits() DeviceLimits

	CreateTextureFromMemory(buf []byte, mask metadata.Color, width, height uint32) (Texture, error)
	CreateRenderTargetTexture(width, height uint32, format metadata.TargetFormat) (Texture, error)

	CreateSprite(path string) (Sprite, error)
	LoadSprite(path string, mask metadata.Color, width, height uint32) (Sprite, error)
	CreateRenderTarget(width, height uint32, format metadata.TargetFormat) (Sprite, error)
	RegisterSprite(s Sprite)
	UnregisterSprite(s Sprite)

	// BackupResources prepares every registered sprite for a device loss.
	BackupResources()
	// RecoverResources restores every registered sprite after the device
	// was recreated.
	RecoverResources()
	// Screenshot reads back the last presented frame.
	SaveScreenshot(path string, format metadata.BitmapFormat) error
	Destroy()
}

// ProgrammableVideo binds sprites through vertex and pixel shaders.
type ProgrammableVideo interface {
	Video
	// VertexShader returns the bound vertex shader, or the default one.
	VertexShader() Shader
	SetVertexShader(s Shader)
	// PixelShader returns the bound pixel shader, or the default one.
	PixelShader() Shader
	SetPixelShader(s Shader)
	FontShader() Shader
	DefaultVS() Shader
	DefaultPS() Shader
	DefaultModulatePS() Shader
	DefaultAddPS() Shader
}

// FixedFunctionVideo binds sprites through texture stages.
type FixedFunctionVideo interface {
	Video
	SetStageTexture(stage uint32, tex Texture) bool
	SetStageState(stage uint32, state StageState) bool
	CommitStages() bool
	ResetStages()
}

// DeviceLimits describes what the device accepts for texture allocation.
type DeviceLimits struct {
	MaxTextureSize uint32
	TargetFormats  []metadata.TargetFormat
	// Source names what reported the limits ("default", "vulkan", ...).
	Source string
}

func DefaultLimits() DeviceLimits {
	return DeviceLimits{
		MaxTextureSize: 8192,
		TargetFormats: []metadata.TargetFormat{
			metadata.TargetFormatDefault,
			metadata.TargetFormatARGB,
			metadata.TargetFormatRGB,
		},
		Source: "default",
	}
}

func (l DeviceLimits) SupportsTarget(format metadata.TargetFormat) bool {
	for _, f := range l.TargetFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (l DeviceLimits) AllowsSize(width, height uint32) bool {
	if width == 0 || height == 0 {
		return false
	}
	if l.MaxTextureSize == 0 {
		return true
	}
	return width <= l.MaxTextureSize && height <= l.MaxTextureSize
}
