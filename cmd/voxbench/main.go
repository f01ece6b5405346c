package main

import (
	"flag"
	"math"
	"math/rand"
	"time"

	"voxstream/internal/config"
	"voxstream/internal/game"
	"voxstream/internal/geom"
	"voxstream/internal/gpu"
	"voxstream/internal/logging"
	"voxstream/internal/metrics"
	"voxstream/internal/profiling"
	"voxstream/internal/streaming"
	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/xlab/closer"
)

func main() {
	var (
		configPath = flag.String("config", "", "yaml config path (falls back to $"+config.EnvPath+")")
		duration   = flag.Duration("duration", 30*time.Second, "how long to fly")
		speed      = flag.Float64("speed", 32, "viewer speed in cells per second")
		tickRate   = flag.Int("tick", 60, "ticks per second, 0 for unpaced")
		edits      = flag.Int("edits", 4, "cell edits per second near the viewer")
		seed       = flag.Int64("seed", 1, "flight path seed")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		closer.Fatalln("config:", err)
	}
	if lvl, err := logging.ParseLevel(cfg.Log.Level); err == nil {
		logging.SetLevel(lvl)
	}

	backend := gpu.NewMemoryBackend()
	sched := streaming.NewScheduler(cfg, cfg.World.Synthesizer(), backend)
	orch := game.NewOrchestrator(sched, backend, cfg.Streaming.SlowTick)
	closer.Bind(orch.Close)

	if cfg.Metrics.Addr != "" {
		exp := metrics.NewExporter(orch, cfg.Metrics.Interval)
		if _, err := exp.StartHTTP(cfg.Metrics.Addr); err != nil {
			logging.Warn("metrics disabled: %v", err)
		} else {
			closer.Bind(exp.Stop)
		}
	}

	go func() {
		fly(orch, backend, cfg, flight{
			duration: *duration,
			speed:    *speed,
			tickRate: *tickRate,
			edits:    *edits,
			rng:      rand.New(rand.NewSource(*seed)),
		})
		closer.Close()
	}()
	closer.Hold()
}

type flight struct {
	duration time.Duration
	speed    float64
	tickRate int
	edits    int
	rng      *rand.Rand
}

// fly moves a camera along a wandering heading, ticking the orchestrator and
// drawing into the memory backend, and logs a summary every second.
func fly(orch *game.Orchestrator, backend *gpu.MemoryBackend, cfg *config.Config, f flight) {
	cam := geom.NewCamera(1280, 720)
	cam.Position = mgl32.Vec3{0, float32(float64(cfg.World.BaseHeight) + cfg.World.Amplitude), 0}
	cam.FarPlane = float32((cfg.Streaming.FarRadius + 2) * cfg.Streaming.ChunkSize)

	limiter := game.NewFPSLimiter(f.tickRate)
	start := time.Now()
	lastReport := start
	lastTick := start
	var editBudget float64
	heading := 0.0

	for time.Since(start) < f.duration {
		now := time.Now()
		dt := now.Sub(lastTick).Seconds()
		lastTick = now

		heading += (f.rng.Float64() - 0.5) * dt * 2
		cam.Yaw = float32(heading * 180 / math.Pi)
		step := float32(f.speed * dt)
		cam.Position = cam.Position.Add(mgl32.Vec3{
			float32(math.Cos(heading)) * step,
			0,
			float32(math.Sin(heading)) * step,
		})

		frustum := cam.Frustum()
		orch.Tick(cam.Position, frustum)

		editBudget += float64(f.edits) * dt
		for ; editBudget >= 1; editBudget-- {
			editNear(orch, cam.Position, f.rng)
		}

		backend.ResetDraws()
		drawn := orch.DrawAll(gpu.DefaultEffect(cam.View(), cam.Projection(), cam.FarPlane), frustum)

		if time.Since(lastReport) >= time.Second {
			st := orch.Statistics()
			total, slow := orch.Frames()
			logging.Info("pos=(%.0f,%.0f) drawn=%d loaded=%d queued=%d building=%d near=%d far=%d failed=%d faults=%d discarded=%d live=%d ticks=%d slow=%d top=[%s]",
				cam.Position.X(), cam.Position.Z(), drawn, st.Loaded, st.Queued, st.Building,
				st.Near, st.Far, st.Failed, st.Faults, st.Discarded, backend.Live(), total, slow, profiling.TopN(3))
			lastReport = time.Now()
		}
		limiter.Wait()
	}
	st := orch.Statistics()
	logging.Info("done after %v: uploads=%d releases=%d faults=%d discarded=%d",
		time.Since(start).Round(time.Millisecond), st.Uploads, st.Releases, st.Faults, st.Discarded)
}

// editNear toggles a random cell a few blocks around pos.
func editNear(orch *game.Orchestrator, pos mgl32.Vec3, rng *rand.Rand) {
	x := int(math.Floor(float64(pos.X()))) + rng.Intn(17) - 8
	y := int(math.Floor(float64(pos.Y()))) + rng.Intn(9) - 8
	z := int(math.Floor(float64(pos.Z()))) + rng.Intn(17) - 8
	cur, ok := orch.Cell(x, y, z)
	if !ok {
		return
	}
	next := world.CellStone
	if cur != world.CellAir {
		next = world.CellAir
	}
	if err := orch.SetCell(x, y, z, next); err != nil {
		logging.Debug("edit (%d,%d,%d): %v", x, y, z, err)
	}
}
