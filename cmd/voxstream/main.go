package main

import (
	"os"
	"runtime"

	"voxstream/internal/config"
	"voxstream/internal/game"
	"voxstream/internal/graphics"
	"voxstream/internal/logging"
	"voxstream/internal/metrics"
	"voxstream/internal/streaming"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		logging.Error("config: %v", err)
		os.Exit(1)
	}
	if lvl, err := logging.ParseLevel(cfg.Log.Level); err == nil {
		logging.SetLevel(lvl)
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		panic(err)
	}

	backend, err := graphics.NewBackend()
	if err != nil {
		panic(err)
	}
	defer backend.Dispose()

	sched := streaming.NewScheduler(cfg, cfg.World.Synthesizer(), backend)
	orch := game.NewOrchestrator(sched, backend, cfg.Streaming.SlowTick)
	defer orch.Close()

	if cfg.Metrics.Addr != "" {
		exp := metrics.NewExporter(orch, cfg.Metrics.Interval)
		if _, err := exp.StartHTTP(cfg.Metrics.Addr); err != nil {
			logging.Warn("metrics disabled: %v", err)
		} else {
			defer exp.Stop()
		}
	}

	loop := newViewLoop(window, orch, cfg)
	loop.bindInput()
	loop.run()
}
