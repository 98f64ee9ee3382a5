package main

import (
	_ "github.com/spaghettifunk/anima2d/engine/renderer/software"
)
