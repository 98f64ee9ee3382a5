//go:build headless

package vulkan

import (
	"fmt"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
)

// Probe is unavailable without a windowing system.
func Probe(appName string) (renderer.DeviceLimits, error) {
	return renderer.DeviceLimits{}, fmt.Errorf("vulkan probe in headless build: %w", core.ErrUnavailable)
}
