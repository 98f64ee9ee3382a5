/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima2d/engine"
	"github.com/spaghettifunk/anima2d/engine/config"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/testbed"
)

func main() {
	configPath := flag.String("config", "testbed/engine.toml", "path to the engine configuration")
	backend := flag.String("backend", "", "override the video backend from the configuration")
	frames := flag.Uint64("frames", 0, "stop after this many frames")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		core.LogFatal("%s", err)
	}
	if *backend != "" {
		cfg.Video.Backend = *backend
	}
	if *frames > 0 {
		cfg.Application.MaxFrames = *frames
	}

	tb := testbed.NewTestGame()

	engine, err := engine.New(tb.Game, cfg)
	if err != nil {
		core.LogFatal("%s", err)
	}

	if err := engine.Initialize(); err != nil {
		core.LogFatal("%s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		// capture sigterm and other system call here
		<-sigCh
		engine.RequestQuit()
	}()

	if err := engine.Run(); err != nil {
		core.LogError("%s", err)
	}
	if err := engine.Shutdown(); err != nil {
		core.LogFatal("%s", err)
	}
}
