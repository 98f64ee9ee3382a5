//go:build !headless

package vulkan

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/renderer/metadata"
)

// vk formats backing each target format.
var targetFormats = map[metadata.TargetFormat]vk.Format{
	metadata.TargetFormatARGB: vk.FormatB8g8r8a8Unorm,
	metadata.TargetFormatRGB:  vk.FormatR8g8b8a8Unorm,
}

// Probe creates a throwaway Vulkan instance, reads the limits of the
// preferred physical device and tears everything down again. glfw is
// initialized when needed and stays so.
func Probe(appName string) (renderer.DeviceLimits, error) {
	if err := glfw.Init(); err != nil {
		return renderer.DeviceLimits{}, fmt.Errorf("glfw: %v: %w", err, core.ErrUnavailable)
	}
	if !glfw.VulkanSupported() {
		return renderer.DeviceLimits{}, fmt.Errorf("no vulkan loader: %w", core.ErrUnavailable)
	}
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return renderer.DeviceLimits{}, fmt.Errorf("vulkan loader: %w", core.ErrUnavailable)
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return renderer.DeviceLimits{}, fmt.Errorf("vulkan init: %v: %w", err, core.ErrUnavailable)
	}

	createInfo := vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
			ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
			PApplicationName:   safeString(appName),
			PEngineName:        safeString("anima2d"),
		},
	}
	if runtime.GOOS == "darwin" {
		extensions := safeStrings([]string{"VK_KHR_portability_enumeration"})
		createInfo.EnabledExtensionCount = uint32(len(extensions))
		createInfo.PpEnabledExtensionNames = extensions
		createInfo.Flags = vk.InstanceCreateFlags(0x00000001) // enumerate portability
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return renderer.DeviceLimits{}, fmt.Errorf("vulkan instance: %s: %w", resultString(res), core.ErrUnavailable)
	}
	defer vk.DestroyInstance(instance, nil)
	if err := vk.InitInstance(instance); err != nil {
		return renderer.DeviceLimits{}, fmt.Errorf("vulkan instance: %v: %w", err, core.ErrUnavailable)
	}

	devices, err := physicalDevices(instance)
	if err != nil {
		return renderer.DeviceLimits{}, err
	}
	selected, ok := SelectDevice(devices)
	if !ok {
		return renderer.DeviceLimits{}, fmt.Errorf("no vulkan device found: %w", core.ErrUnavailable)
	}
	core.LogInfo("vulkan probe: '%s' (%s), max image %d", selected.Name, selected.Kind, selected.MaxImageDimension2D)
	return selected.Limits(), nil
}

func physicalDevices(instance vk.Instance) ([]PhysicalDeviceInfo, error) {
	var count uint32
	if res := vk.EnumeratePhysicalDevices(instance, &count, nil); res != vk.Success {
		return nil, fmt.Errorf("enumerate devices: %s: %w", resultString(res), core.ErrUnavailable)
	}
	if count == 0 {
		return nil, nil
	}
	handles := make([]vk.PhysicalDevice, count)
	if res := vk.EnumeratePhysicalDevices(instance, &count, handles); res != vk.Success {
		return nil, fmt.Errorf("enumerate devices: %s: %w", resultString(res), core.ErrUnavailable)
	}

	out := make([]PhysicalDeviceInfo, 0, count)
	for _, pd := range handles[:count] {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pd, &props)
		props.Deref()
		props.Limits.Deref()

		info := PhysicalDeviceInfo{
			Name:                cString(props.DeviceName[:]),
			Kind:                deviceKind(props.DeviceType),
			MaxImageDimension2D: props.Limits.MaxImageDimension2D,
			Attachable:          make(map[metadata.TargetFormat]bool),
		}
		for target, format := range targetFormats {
			var fp vk.FormatProperties
			vk.GetPhysicalDeviceFormatProperties(pd, format, &fp)
			fp.Deref()
			info.Attachable[target] = fp.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureColorAttachmentBit) != 0
		}
		core.LogDebug("vulkan device '%s' (%s)", info.Name, info.Kind)
		out = append(out, info)
	}
	return out, nil
}

func deviceKind(t vk.PhysicalDeviceType) DeviceKind {
	switch t {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return DeviceKindDiscrete
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return DeviceKindIntegrated
	case vk.PhysicalDeviceTypeVirtualGpu:
		return DeviceKindVirtual
	case vk.PhysicalDeviceTypeCpu:
		return DeviceKindCPU
	}
	return DeviceKindOther
}

func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	for i := range list {
		list[i] = safeString(list[i])
	}
	return list
}

var resultNames = map[vk.Result]string{
	vk.Success:                   "VK_SUCCESS",
	vk.Incomplete:                "VK_INCOMPLETE",
	vk.ErrorOutOfHostMemory:      "VK_ERROR_OUT_OF_HOST_MEMORY",
	vk.ErrorOutOfDeviceMemory:    "VK_ERROR_OUT_OF_DEVICE_MEMORY",
	vk.ErrorInitializationFailed: "VK_ERROR_INITIALIZATION_FAILED",
	vk.ErrorDeviceLost:           "VK_ERROR_DEVICE_LOST",
	vk.ErrorLayerNotPresent:      "VK_ERROR_LAYER_NOT_PRESENT",
	vk.ErrorExtensionNotPresent:  "VK_ERROR_EXTENSION_NOT_PRESENT",
	vk.ErrorIncompatibleDriver:   "VK_ERROR_INCOMPATIBLE_DRIVER",
}

func resultString(res vk.Result) string {
	if name, ok := resultNames[res]; ok {
		return name
	}
	return fmt.Sprintf("VkResult(%d)", int32(res))
}
