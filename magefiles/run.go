//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed with its engine.toml.
func (Run) Testbed() error {
	fmt.Println("Run testbed...")
	return goRun("run", ".", "-config", "testbed/engine.toml")
}

// Runs the testbed on the software backend for a fixed number of frames.
func (Run) Headless() error {
	fmt.Println("Run headless testbed...")
	args := withTags([]string{"run"}, "headless")
	return goRun(append(args, ".", "-config", "testbed/engine.toml", "-backend", "software", "-frames", "120")...)
}
