package vulkan

import (
	"sort"

	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// DeviceKind orders physical devices by preference, best first.
type DeviceKind int

const (
	DeviceKindDiscrete DeviceKind = iota
	DeviceKindIntegrated
	DeviceKindVirtual
	DeviceKindCPU
	DeviceKindOther
)

func (k DeviceKind) String() string {
	switch k {
	case DeviceKindDiscrete:
		return "discrete"
	case DeviceKindIntegrated:
		return "integrated"
	case DeviceKindVirtual:
		return "virtual"
	case DeviceKindCPU:
		return "cpu"
	}
	return "other"
}

// PhysicalDeviceInfo is what the probe keeps from a physical device.
type PhysicalDeviceInfo struct {
	Name                string
	Kind                DeviceKind
	MaxImageDimension2D uint32
	// Target formats usable as optimal-tiling color attachments.
	Attachable map[metadata.TargetFormat]bool
}

// SelectDevice picks the preferred device: discrete over integrated over
// the rest, then the largest image dimension.
func SelectDevice(devices []PhysicalDeviceInfo) (PhysicalDeviceInfo, bool) {
	if len(devices) == 0 {
		return PhysicalDeviceInfo{}, false
	}
	sorted := append([]PhysicalDeviceInfo(nil), devices...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind < sorted[j].Kind
		}
		return sorted[i].MaxImageDimension2D > sorted[j].MaxImageDimension2D
	})
	return sorted[0], true
}

// Limits converts the device info to renderer limits. The default target
// format follows ARGB.
func (d PhysicalDeviceInfo) Limits() renderer.DeviceLimits {
	limits := renderer.DeviceLimits{
		MaxTextureSize: d.MaxImageDimension2D,
		Source:         "vulkan",
	}
	if d.Attachable[metadata.TargetFormatARGB] {
		limits.TargetFormats = append(limits.TargetFormats, metadata.TargetFormatDefault, metadata.TargetFormatARGB)
	}
	if d.Attachable[metadata.TargetFormatRGB] {
		limits.TargetFormats = append(limits.TargetFormats, metadata.TargetFormatRGB)
	}
	return limits
}

func cString(arr []byte) string {
	for i, b := range arr {
		if b == 0 {
			return string(arr[:i])
		}
	}
	return string(arr)
}
