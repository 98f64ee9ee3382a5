//go:build !headless

package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Shader is one compiled GLSL stage. Constants are kept on the CPU and
// uploaded when the stage is linked into a program for a draw.
type Shader struct {
	*renderer.ConstantTable
	kind   metadata.ShaderKind
	object uint32
	video  *Video
}

func newShader(v *Video, kind metadata.ShaderKind) (*Shader, error) {
	var (
		source string
		stage  uint32 = gl.FRAGMENT_SHADER
	)
	switch kind {
	case metadata.ShaderKindDefaultVS:
		source, stage = defaultVertexSource, gl.VERTEX_SHADER
	case metadata.ShaderKindFontVS:
		source, stage = fontVertexSource, gl.VERTEX_SHADER
	case metadata.ShaderKindDefaultPS:
		source = defaultFragmentSource
	case metadata.ShaderKindModulatePS:
		source = modulateFragmentSource
	case metadata.ShaderKindAddPS:
		source = addFragmentSource
	default:
		return nil, fmt.Errorf("unknown shader kind %d", kind)
	}

	object, err := compileStage(source, stage)
	if err != nil {
		return nil, fmt.Errorf("shader %d: %w", kind, err)
	}
	return &Shader{
		ConstantTable: renderer.NewConstantTable(renderer.ShaderConstants(kind)...),
		kind:          kind,
		object:        object,
		video:         v,
	}, nil
}

func (s *Shader) Kind() metadata.ShaderKind {
	return s.kind
}

func (s *Shader) SetShader() bool {
	if s.kind.IsVertex() {
		s.video.activeVS = s
	} else {
		s.video.activePS = s
	}
	return true
}

func (s *Shader) destroy() {
	if s.object != 0 {
		gl.DeleteShader(s.object)
		s.object = 0
	}
}

type programKey struct {
	vs, ps metadata.ShaderKind
}

// program is a linked vertex and fragment stage pair.
type program struct {
	id        uint32
	locations map[string]int32
}

func linkProgram(vs, ps *Shader) (*program, error) {
	id := gl.CreateProgram()
	gl.AttachShader(id, vs.object)
	gl.AttachShader(id, ps.object)
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetProgramInfoLog(id, logLength, nil, &log[0])
		gl.DeleteProgram(id)
		return nil, fmt.Errorf("link: %s", string(log))
	}
	gl.DetachShader(id, vs.object)
	gl.DetachShader(id, ps.object)
	return &program{id: id, locations: make(map[string]int32)}, nil
}

func (p *program) location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.id, gl.Str(name+"\x00"))
	p.locations[name] = loc
	return loc
}

// upload pushes every constant set on s. Names the linker optimized away
// resolve to -1, which GL ignores.
func (p *program) upload(s *Shader) {
	for name, values := range s.Values() {
		loc := p.location(name)
		switch len(values) {
		case 1:
			gl.Uniform1f(loc, values[0])
		case 2:
			gl.Uniform2f(loc, values[0], values[1])
		case 3:
			gl.Uniform3f(loc, values[0], values[1], values[2])
		case 4:
			gl.Uniform4f(loc, values[0], values[1], values[2], values[3])
		}
	}
	for name, m := range s.Matrices() {
		gl.UniformMatrix4fv(p.location(name), 1, false, &m.Data[0])
	}
}

// bindTextures binds diffuse to unit 0 and pass1 to unit 1.
func (p *program) bindTextures(s *Shader) error {
	units := map[string]uint32{
		metadata.ConstantTextureDiffuse: 0,
		metadata.ConstantTexturePass1:   1,
	}
	for name, tex := range s.Textures() {
		unit, ok := units[name]
		if !ok {
			continue
		}
		t, ok := tex.(*Texture)
		if !ok || t.handle == 0 {
			return fmt.Errorf("texture %q is not a live opengl texture", name)
		}
		gl.ActiveTexture(gl.TEXTURE0 + unit)
		gl.BindTexture(gl.TEXTURE_2D, t.handle)
		gl.Uniform1i(p.location(name), int32(unit))
	}
	gl.ActiveTexture(gl.TEXTURE0)
	return nil
}

func compileStage(source string, stage uint32) (uint32, error) {
	object := gl.CreateShader(stage)
	csource, free := gl.Strs(source)
	gl.ShaderSource(object, 1, csource, nil)
	free()
	gl.CompileShader(object)

	var status int32
	gl.GetShaderiv(object, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(object, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(object, logLength, nil, &log[0])
		gl.DeleteShader(object)
		return 0, fmt.Errorf("compile: %s", string(log))
	}
	return object, nil
}
