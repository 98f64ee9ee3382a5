//go:build windows && !headless

package main

import (
	_ "github.com/spaghettifunk/anima2d/engine/renderer/direct3d9"
)
