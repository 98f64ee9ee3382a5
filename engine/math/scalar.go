package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

const (
	degToRad = gomath.Pi / 180
	radToDeg = 180 / gomath.Pi
)

func DegToRad(deg float32) float32 { return deg * degToRad }
func RadToDeg(rad float32) float32 { return rad * radToDeg }

// Clamp limits f to [low, high].
func Clamp[T constraints.Ordered](f, low, high T) T {
	return min(max(f, low), high)
}
