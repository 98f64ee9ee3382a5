package metadata

// Names of the constants shared by every sprite vertex shader.
const (
	ConstantSize           = "size"
	ConstantEntityPos      = "entityPos"
	ConstantCenter         = "center"
	ConstantFlipMul        = "flipMul"
	ConstantFlipAdd        = "flipAdd"
	ConstantBitmapSize     = "bitmapSize"
	ConstantScroll         = "scroll"
	ConstantMultiply       = "multiply"
	ConstantCameraPos      = "cameraPos"
	ConstantRectSize       = "rectSize"
	ConstantRectPos        = "rectPos"
	ConstantColor0         = "color0"
	ConstantColor1         = "color1"
	ConstantColor2         = "color2"
	ConstantColor3         = "color3"
	ConstantDepth          = "depth"
	ConstantRotation       = "rotationMatrix"
	ConstantScreenSize     = "screenSize"
	ConstantTextureDiffuse = "diffuse"
	ConstantTexturePass1   = "pass1"
)

/** @brief Identifies the built-in shaders every programmable device provides. */
type ShaderKind int

const (
	/** @brief The sprite vertex shader. */
	ShaderKindDefaultVS ShaderKind = iota
	/** @brief Rotation-free vertex shader used by the fast path. */
	ShaderKindFontVS
	/** @brief Texture times interpolated color. */
	ShaderKindDefaultPS
	/** @brief Default PS, modulated by a second texture. */
	ShaderKindModulatePS
	/** @brief Default PS, plus a second texture. */
	ShaderKindAddPS
)

func (k ShaderKind) IsVertex() bool {
	return k == ShaderKindDefaultVS || k == ShaderKindFontVS
}
