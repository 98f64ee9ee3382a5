//go:build ebitengine

package ebitengine

import (
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// Shader records constants for one of the built-in programs.
type Shader struct {
	*renderer.ConstantTable
	kind  metadata.ShaderKind
	video *Video
}

func newShader(v *Video, kind metadata.ShaderKind) *Shader {
	return &Shader{
		ConstantTable: renderer.NewConstantTable(renderer.ShaderConstants(kind)...),
		kind:          kind,
		video:         v,
	}
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
