package software

import (
	"image"

	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Shader evaluates one of the built-in sprite programs on the CPU.
type Shader struct {
	*renderer.ConstantTable
	kind  metadata.ShaderKind
	video *ProgrammableVideo
}

func newShader(v *ProgrammableVideo, kind metadata.ShaderKind) *Shader {
	return &Shader{ConstantTable: renderer.NewConstantTable(renderer.ShaderConstants(kind)...), kind: kind, video: v}
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

// quad runs the vertex program.
func (s *Shader) quad() [4]renderer.QuadVertex {
	return renderer.ParamsFromConstants(s.ConstantTable, s.kind).Quad()
}

// pixelFunc binds the pixel program to its textures. It returns nil when
// the diffuse texture is unusable.
func (s *Shader) pixelFunc() pixelFunc {
	diffuse := pixelsOf(s.Texture(metadata.ConstantTextureDiffuse))
	if diffuse == nil {
		return nil
	}
	switch s.kind {
	case metadata.ShaderKindModulatePS:
		if pass1 := pixelsOf(s.Texture(metadata.ConstantTexturePass1)); pass1 != nil {
			return func(uv math.Vec2, c math.Vec4) math.Vec4 {
				return sample(diffuse, uv).Mul(c).Mul(sample(pass1, uv))
			}
		}
	case metadata.ShaderKindAddPS:
		if pass1 := pixelsOf(s.Texture(metadata.ConstantTexturePass1)); pass1 != nil {
			return func(uv math.Vec2, c math.Vec4) math.Vec4 {
				return addRGB(sample(diffuse, uv).Mul(c), sample(pass1, uv))
			}
		}
	}
	return func(uv math.Vec2, c math.Vec4) math.Vec4 {
		return sample(diffuse, uv).Mul(c)
	}
}

func addRGB(a, b math.Vec4) math.Vec4 {
	return math.NewVec4(a.X+b.X, a.Y+b.Y, a.Z+b.Z, a.W)
}

func pixelsOf(tex renderer.Texture) *image.NRGBA {
	t, ok := tex.(*Texture)
	if !ok || t == nil {
		return nil
	}
	return t.Pixels()
}
