package renderer

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/platform"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

type mockTexture struct {
	metadata.TextureLifecycle
	id       uuid.UUID
	profile  metadata.TextureProfile
	target   bool
	released bool
	backups  int
}

func newMockTexture(w, h uint32, target bool) *mockTexture {
	return &mockTexture{
		id:      core.NewIdentifier(),
		profile: metadata.TextureProfile{Width: w, Height: h},
		target:  target,
	}
}

func (t *mockTexture) ID() uuid.UUID                    { return t.id }
func (t *mockTexture) Profile() metadata.TextureProfile { return t.profile }
func (t *mockTexture) IsRenderTarget() bool             { return t.target }
func (t *mockTexture) SaveBitmap(string, metadata.BitmapFormat, *math.Rect2D) error {
	return nil
}
func (t *mockTexture) SaveTargetSurfaceBackup() error {
	t.backups++
	t.OnBackup()
	return nil
}
func (t *mockTexture) Recover() error {
	t.OnRecover(t.backups > 0)
	return nil
}
func (t *mockTexture) OnLostDevice() { t.OnLost() }
func (t *mockTexture) Release()      { t.released = true }

// recordingShader keeps every value it was given.
type recordingShader struct {
	*ConstantTable
	kind    metadata.ShaderKind
	commits int
}

func newRecordingShader(kind metadata.ShaderKind, names ...string) *recordingShader {
	return &recordingShader{ConstantTable: NewConstantTable(names...), kind: kind}
}

func (s *recordingShader) Kind() metadata.ShaderKind { return s.kind }
func (s *recordingShader) SetShader() bool {
	s.commits++
	return true
}

type mockRectRenderer struct {
	draws  []metadata.RectMode
	onDraw func()
}

func (r *mockRectRenderer) Draw(mode metadata.RectMode) bool {
	r.draws = append(r.draws, mode)
	if r.onDraw != nil {
		r.onDraw()
	}
	return true
}

type mockVideo struct {
	*VideoBase
	rect *mockRectRenderer

	vs, ps                       Shader
	defaultVS, fontVS            *recordingShader
	defaultPS, modulatePS, addPS *recordingShader
	textureW, textureH           uint32
	failLoad                     bool
}

func allVertexConstants() []string {
	return append([]string(nil), ShaderConstants(metadata.ShaderKindDefaultVS)...)
}

func newMockVideo(fm platform.FileManager, vertexConstants ...string) *mockVideo {
	if vertexConstants == nil {
		vertexConstants = allVertexConstants()
	}
	v := &mockVideo{
		VideoBase:  NewVideoBase("mock", metadata.PipelineProgrammable, math.NewVec2(640, 480), fm),
		rect:       &mockRectRenderer{},
		defaultVS:  newRecordingShader(metadata.ShaderKindDefaultVS, vertexConstants...),
		fontVS:     newRecordingShader(metadata.ShaderKindFontVS, allVertexConstants()...),
		defaultPS:  newRecordingShader(metadata.ShaderKindDefaultPS, metadata.ConstantTextureDiffuse),
		modulatePS: newRecordingShader(metadata.ShaderKindModulatePS, metadata.ConstantTextureDiffuse, metadata.ConstantTexturePass1),
		addPS:      newRecordingShader(metadata.ShaderKindAddPS, metadata.ConstantTextureDiffuse, metadata.ConstantTexturePass1),
		textureW:   64,
		textureH:   64,
	}
	v.Bind(v)
	return v
}

func (v *mockVideo) SetRenderTarget(Sprite) error                       { return nil }
func (v *mockVideo) BeginSpriteScene(metadata.Color) bool               { return true }
func (v *mockVideo) EndSpriteScene() bool                               { return true }
func (v *mockVideo) BeginTargetScene(metadata.Color, bool) bool         { return true }
func (v *mockVideo) EndTargetScene() bool                               { return true }
func (v *mockVideo) RectRenderer() RectRenderer                         { return v.rect }
func (v *mockVideo) SaveScreenshot(string, metadata.BitmapFormat) error { return nil }

func (v *mockVideo) CreateTextureFromMemory(buf []byte, mask metadata.Color, w, h uint32) (Texture, error) {
	if v.failLoad {
		return nil, fmt.Errorf("corrupt image")
	}
	if w == 0 {
		w = v.textureW
	}
	if h == 0 {
		h = v.textureH
	}
	return newMockTexture(w, h, false), nil
}

func (v *mockVideo) CreateRenderTargetTexture(w, h uint32, format metadata.TargetFormat) (Texture, error) {
	return newMockTexture(w, h, true), nil
}

func (v *mockVideo) VertexShader() Shader {
	if v.vs == nil {
		return v.defaultVS
	}
	return v.vs
}
func (v *mockVideo) SetVertexShader(s Shader) { v.vs = s }
func (v *mockVideo) PixelShader() Shader {
	if v.ps == nil {
		return v.defaultPS
	}
	return v.ps
}
func (v *mockVideo) SetPixelShader(s Shader)   { v.ps = s }
func (v *mockVideo) FontShader() Shader        { return v.fontVS }
func (v *mockVideo) DefaultVS() Shader         { return v.defaultVS }
func (v *mockVideo) DefaultPS() Shader         { return v.defaultPS }
func (v *mockVideo) DefaultModulatePS() Shader { return v.modulatePS }
func (v *mockVideo) DefaultAddPS() Shader      { return v.addPS }

// mockFixedVideo records stage state instead of shader constants.
type mockFixedVideo struct {
	*VideoBase
	rect    *mockRectRenderer
	stages  map[uint32]StageState
	texture map[uint32]Texture
	commits int
	resets  int
}

func newMockFixedVideo(fm platform.FileManager) *mockFixedVideo {
	v := &mockFixedVideo{
		VideoBase: NewVideoBase("mock-fixed", metadata.PipelineFixedFunction, math.NewVec2(640, 480), fm),
		rect:      &mockRectRenderer{},
		stages:    make(map[uint32]StageState),
		texture:   make(map[uint32]Texture),
	}
	v.Bind(v)
	return v
}

func (v *mockFixedVideo) SetRenderTarget(Sprite) error                       { return nil }
func (v *mockFixedVideo) BeginSpriteScene(metadata.Color) bool               { return true }
func (v *mockFixedVideo) EndSpriteScene() bool                               { return true }
func (v *mockFixedVideo) BeginTargetScene(metadata.Color, bool) bool         { return true }
func (v *mockFixedVideo) EndTargetScene() bool                               { return true }
func (v *mockFixedVideo) RectRenderer() RectRenderer                         { return v.rect }
func (v *mockFixedVideo) SaveScreenshot(string, metadata.BitmapFormat) error { return nil }
func (v *mockFixedVideo) CreateTextureFromMemory(buf []byte, mask metadata.Color, w, h uint32) (Texture, error) {
	return newMockTexture(64, 64, false), nil
}
func (v *mockFixedVideo) CreateRenderTargetTexture(w, h uint32, format metadata.TargetFormat) (Texture, error) {
	return newMockTexture(w, h, true), nil
}
func (v *mockFixedVideo) SetStageTexture(stage uint32, tex Texture) bool {
	v.texture[stage] = tex
	return true
}
func (v *mockFixedVideo) SetStageState(stage uint32, state StageState) bool {
	v.stages[stage] = state
	return true
}
func (v *mockFixedVideo) CommitStages() bool {
	v.commits++
	return true
}
func (v *mockFixedVideo) ResetStages() {
	v.resets++
	v.stages = make(map[uint32]StageState)
	v.texture = make(map[uint32]Texture)
}
