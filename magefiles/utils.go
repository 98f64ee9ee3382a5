//go:build mage

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/sh"
)

// goRun always streams output, unlike sh.Run which stays quiet without -v.
func goRun(args ...string) error {
	if err := sh.RunV("go", args...); err != nil {
		return fmt.Errorf("go %s: %w", args[0], err)
	}
	return nil
}

func withTags(args []string, tags ...string) []string {
	if len(tags) == 0 {
		return args
	}
	return append(args, "-tags", strings.Join(tags, ","))
}

func goBuild(output string, tags ...string) error {
	args := withTags([]string{"build", "-o", output}, tags...)
	return goRun(append(args, ".")...)
}

func goTidy() error {
	if err := sh.Run("go", "mod", "tidy"); err != nil {
		return fmt.Errorf("go mod tidy: %w", err)
	}
	return goRun("generate", "./...")
}
