//go:build !headless

package main

import (
	_ "github.com/spaghettifunk/anima2d/engine/renderer/opengl"
)
