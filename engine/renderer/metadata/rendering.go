package metadata

import (
	"fmt"
	"strings"
)

/** @brief Determines how sprite pixels are combined with the target. */
type AlphaMode int

const (
	/** @brief Source replaces destination. */
	AlphaModeNone AlphaMode = iota
	/** @brief Classic src*a + dst*(1-a). */
	AlphaModePixel
	/** @brief src*a + dst. */
	AlphaModeAdd
	/** @brief Source replaces destination where alpha passes the reference. */
	AlphaModeAlphaTest
	/** @brief src * dst. */
	AlphaModeModulate
)

func (m AlphaMode) String() string {
	switch m {
	case AlphaModeNone:
		return "none"
	case AlphaModePixel:
		return "pixel"
	case AlphaModeAdd:
		return "add"
	case AlphaModeAlphaTest:
		return "alpha-test"
	case AlphaModeModulate:
		return "modulate"
	}
	return fmt.Sprintf("AlphaMode(%d)", int(m))
}

// AlphaTestReference is the alpha value at or above which AlphaModeAlphaTest
// keeps a pixel.
const AlphaTestReference uint8 = 0x01

/** @brief How a secondary texture pass combines with the diffuse one. */
type BlendMode int

const (
	BlendModeModulate BlendMode = iota
	BlendModeAdd
)

/** @brief The triangulation used by the rect renderer. */
type RectMode int

const (
	/** @brief A quad split along one diagonal. */
	RectModeTwoTriangles RectMode = iota
	/** @brief A quad fanned around its interpolated center. */
	RectModeFourTriangles
)

/** @brief The resource-binding model a video device exposes. */
type Pipeline int

const (
	/** @brief Vertex and pixel shaders with named constants. */
	PipelineProgrammable Pipeline = iota
	/** @brief Texture stages and transform matrices. */
	PipelineFixedFunction
)

func (p Pipeline) String() string {
	if p == PipelineFixedFunction {
		return "fixed"
	}
	return "programmable"
}

func ParsePipeline(s string) (Pipeline, error) {
	switch strings.ToLower(s) {
	case "", "programmable":
		return PipelineProgrammable, nil
	case "fixed", "fixed-function":
		return PipelineFixedFunction, nil
	}
	return PipelineProgrammable, fmt.Errorf("unknown pipeline %q", s)
}
