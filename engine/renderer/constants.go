package renderer

import (
	"github.com/spaghettifunk/anima2d/engine/math"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

var spriteVertexConstants = []string{
	metadata.ConstantSize,
	metadata.ConstantEntityPos,
	metadata.ConstantCenter,
	metadata.ConstantFlipMul,
	metadata.ConstantFlipAdd,
	metadata.ConstantBitmapSize,
	metadata.ConstantScroll,
	metadata.ConstantMultiply,
	metadata.ConstantCameraPos,
	metadata.ConstantRectSize,
	metadata.ConstantRectPos,
	metadata.ConstantColor0,
	metadata.ConstantColor1,
	metadata.ConstantColor2,
	metadata.ConstantColor3,
	metadata.ConstantDepth,
	metadata.ConstantRotation,
}

var fontVertexConstants = []string{
	metadata.ConstantSize,
	metadata.ConstantEntityPos,
	metadata.ConstantBitmapSize,
	metadata.ConstantCameraPos,
	metadata.ConstantRectSize,
	metadata.ConstantRectPos,
	metadata.ConstantColor0,
}

// ShaderConstants lists the constants the built-in program of kind
// declares.
func ShaderConstants(kind metadata.ShaderKind) []string {
	switch kind {
	case metadata.ShaderKindDefaultVS:
		return spriteVertexConstants
	case metadata.ShaderKindFontVS:
		return fontVertexConstants
	case metadata.ShaderKindDefaultPS:
		return []string{metadata.ConstantTextureDiffuse}
	}
	return []string{metadata.ConstantTextureDiffuse, metadata.ConstantTexturePass1}
}

// ConstantTable stores the values a CPU-side shader has been given. Backends
// that evaluate sprite shaders on the CPU embed it.
type ConstantTable struct {
	declared map[string]bool
	values   map[string][]float32
	matrices map[string]math.Mat4
	textures map[string]Texture
}

// NewConstantTable declares the names the shader understands. Setting an
// undeclared name fails.
func NewConstantTable(names ...string) *ConstantTable {
	t := &ConstantTable{
		declared: make(map[string]bool, len(names)),
		values:   make(map[string][]float32, len(names)),
		matrices: make(map[string]math.Mat4),
		textures: make(map[string]Texture),
	}
	for _, n := range names {
		t.declared[n] = true
	}
	return t
}

func (t *ConstantTable) ConstantExist(name string) bool {
	return t.declared[name]
}

func (t *ConstantTable) SetConstant(name string, values ...float32) bool {
	if !t.declared[name] {
		return false
	}
	t.values[name] = append(t.values[name][:0], values...)
	return true
}

func (t *ConstantTable) SetMatrixConstant(name string, m math.Mat4) bool {
	if !t.declared[name] {
		return false
	}
	t.matrices[name] = m
	return true
}

func (t *ConstantTable) SetTexture(name string, tex Texture) bool {
	if !t.declared[name] {
		return false
	}
	t.textures[name] = tex
	return true
}

func (t *ConstantTable) Texture(name string) Texture {
	return t.textures[name]
}

func (t *ConstantTable) Has(name string) bool {
	_, ok := t.values[name]
	return ok
}

func (t *ConstantTable) Vec2(name string, def math.Vec2) math.Vec2 {
	v, ok := t.values[name]
	if !ok || len(v) < 2 {
		return def
	}
	return math.NewVec2(v[0], v[1])
}

func (t *ConstantTable) Vec4(name string, def math.Vec4) math.Vec4 {
	v, ok := t.values[name]
	if !ok || len(v) < 4 {
		return def
	}
	return math.NewVec4(v[0], v[1], v[2], v[3])
}

func (t *ConstantTable) Float(name string, def float32) float32 {
	v, ok := t.values[name]
	if !ok || len(v) < 1 {
		return def
	}
	return v[0]
}

func (t *ConstantTable) Matrix(name string) math.Mat4 {
	m, ok := t.matrices[name]
	if !ok {
		return math.NewMat4Identity()
	}
	return m
}

// Snapshot copies the table so a draw can keep its inputs after the next
// draw rebinds them.
func (t *ConstantTable) Snapshot() *ConstantTable {
	out := NewConstantTable()
	for k := range t.declared {
		out.declared[k] = true
	}
	for k, v := range t.values {
		out.values[k] = append([]float32(nil), v...)
	}
	for k, m := range t.matrices {
		out.matrices[k] = m
	}
	for k, tex := range t.textures {
		out.textures[k] = tex
	}
	return out
}

// Merge overlays the values set on other.
func (t *ConstantTable) Merge(other *ConstantTable) {
	for k := range other.declared {
		t.declared[k] = true
	}
	for k, v := range other.values {
		t.values[k] = append([]float32(nil), v...)
	}
	for k, m := range other.matrices {
		t.matrices[k] = m
	}
	for k, tex := range other.textures {
		t.textures[k] = tex
	}
}

// Values returns the scalar and vector constants set so far. Backends that
// upload to a GPU program iterate it; the map must not be modified.
func (t *ConstantTable) Values() map[string][]float32 {
	return t.values
}

func (t *ConstantTable) Matrices() map[string]math.Mat4 {
	return t.matrices
}

func (t *ConstantTable) Textures() map[string]Texture {
	return t.textures
}
