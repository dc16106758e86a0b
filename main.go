/*
Citadel renders the castle scene through a ring of frame resources,
either on a simulated GPU queue or on a headless Vulkan device.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/citadel/engine"
	"github.com/spaghettifunk/citadel/engine/core"
	"github.com/spaghettifunk/citadel/testbed"
)

func main() {
	configPath := flag.String("config", "engine.toml", "path to the engine configuration")
	flag.Parse()

	config := engine.DefaultApplicationConfig()
	if _, err := os.Stat(*configPath); err == nil {
		if config, err = engine.LoadApplicationConfig(*configPath); err != nil {
			core.LogFatal("%+v", err)
		}
	} else {
		core.LogWarn("No config at %s, using defaults.", *configPath)
	}

	tb := testbed.NewTestGame(config)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal("%+v", err)
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("%+v", err)
	}

	// signal channel to capture system calls
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	// run engine
	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil {
		core.LogError("Shutdown: %s", err.Error())
	}
	if runErr != nil {
		core.LogFatal("%+v", runErr)
	}
}
