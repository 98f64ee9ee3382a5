package software

import (
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// ProgrammableVideo runs the sprite shaders on the CPU.
type ProgrammableVideo struct {
	*device

	vs renderer.Shader
	ps renderer.Shader

	defaultVS  *Shader
	fontVS     *Shader
	defaultPS  *Shader
	modulatePS *Shader
	addPS      *Shader

	activeVS *Shader
	activePS *Shader
}

func NewProgrammableVideo(opts renderer.Options) *ProgrammableVideo {
	v := &ProgrammableVideo{device: newDevice(opts, metadata.PipelineProgrammable)}
	v.defaultVS = newShader(v, metadata.ShaderKindDefaultVS)
	v.fontVS = newShader(v, metadata.ShaderKindFontVS)
	v.defaultPS = newShader(v, metadata.ShaderKindDefaultPS)
	v.modulatePS = newShader(v, metadata.ShaderKindModulatePS)
	v.addPS = newShader(v, metadata.ShaderKindAddPS)
	v.rect = &rectRenderer{draw: v.drawRect}
	v.Bind(v)
	return v
}

func (v *ProgrammableVideo) VertexShader() renderer.Shader {
	if v.vs == nil {
		return v.defaultVS
	}
	return v.vs
}

func (v *ProgrammableVideo) SetVertexShader(s renderer.Shader) {
	v.vs = s
}

func (v *ProgrammableVideo) PixelShader() renderer.Shader {
	if v.ps == nil {
		return v.defaultPS
	}
	return v.ps
}

func (v *ProgrammableVideo) SetPixelShader(s renderer.Shader) {
	v.ps = s
}

func (v *ProgrammableVideo) FontShader() renderer.Shader        { return v.fontVS }
func (v *ProgrammableVideo) DefaultVS() renderer.Shader         { return v.defaultVS }
func (v *ProgrammableVideo) DefaultPS() renderer.Shader         { return v.defaultPS }
func (v *ProgrammableVideo) DefaultModulatePS() renderer.Shader { return v.modulatePS }
func (v *ProgrammableVideo) DefaultAddPS() renderer.Shader      { return v.addPS }

func (v *ProgrammableVideo) drawRect(mode metadata.RectMode) bool {
	if v.activeVS == nil || v.activePS == nil {
		return false
	}
	return v.drawQuad(v.activeVS.quad(), mode, v.activePS.pixelFunc())
}

func (v *ProgrammableVideo) Destroy() {
	v.activeVS, v.activePS = nil, nil
	v.vs, v.ps = nil, nil
	v.device.Destroy()
}
