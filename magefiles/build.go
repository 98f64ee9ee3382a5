//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Builds the testbed with the desktop backends.
func (Build) Engine() error {
	return goBuild("bin/anima2d")
}

// Builds the testbed with the software backend only, no window or audio.
func (Build) Headless() error {
	return goBuild("bin/anima2d-headless", "headless")
}

// Builds the testbed with the ebitengine backend.
func (Build) Ebitengine() error {
	return goBuild("bin/anima2d-ebitengine", "ebitengine", "headless")
}

// Tidies the module and runs go generate.
func (Build) Tidy() error {
	return goTidy()
}
