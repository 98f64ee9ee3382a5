//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the unit tests without a window, GPU or audio device.
func (Test) Unit() error {
	args := withTags([]string{"test", "-race"}, "headless")
	return goRun(append(args, "./...")...)
}

// Runs the vulkan limits probe tests against the real driver.
func (Test) Vulkan() error {
	return goRun("test", "./engine/renderer/vulkan/...")
}
