package game

import (
	"time"

	"voxstream/internal/geom"
	"voxstream/internal/gpu"
	"voxstream/internal/logging"
	"voxstream/internal/profiling"
	"voxstream/internal/streaming"
	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Orchestrator drives streaming once per frame and submits visible chunks
// to the backend.
type Orchestrator struct {
	sched    *streaming.Scheduler
	backend  gpu.Backend
	size     int
	slowTick time.Duration

	frames   int
	slow     int
	lastTick time.Duration
}

// NewOrchestrator wraps a scheduler. backend must be the scheduler's backend.
func NewOrchestrator(sched *streaming.Scheduler, backend gpu.Backend, slowTick time.Duration) *Orchestrator {
	if slowTick <= 0 {
		slowTick = 16 * time.Millisecond
	}
	return &Orchestrator{
		sched:    sched,
		backend:  backend,
		size:     sched.ChunkSize(),
		slowTick: slowTick,
	}
}

// Tick advances streaming for the current viewer. Slow ticks are logged
// with the most expensive profiled tasks.
func (o *Orchestrator) Tick(viewer mgl32.Vec3, frustum geom.Frustum) {
	profiling.ResetFrame()
	start := time.Now()

	o.sched.Tick(viewer, frustum)

	o.frames++
	o.lastTick = time.Since(start)
	if o.lastTick > o.slowTick {
		o.slow++
		logging.Warn("Slow tick: %v. Top tasks: %s", o.lastTick, profiling.TopN(5))
	}
}

// DrawAll sets the effect once and draws every loaded chunk whose bounds
// intersect frustum. It returns the number of draw calls issued.
func (o *Orchestrator) DrawAll(effect gpu.EffectParams, frustum geom.Frustum) int {
	defer profiling.Track("game.DrawAll")()
	o.backend.SetEffect(effect)
	drawn := 0
	o.sched.VisitRenderables(func(it streaming.RenderItem) {
		if !frustum.IntersectsAABB(geom.ChunkAABB(it.Coord, o.size)) {
			return
		}
		o.backend.Draw(it.Handle, mgl32.Translate3D(it.Coord.Origin(o.size).Elem()))
		drawn++
	})
	return drawn
}

// Statistics returns the scheduler's counters.
func (o *Orchestrator) Statistics() streaming.Statistics {
	return o.sched.Stats()
}

// SetCell edits the world; see streaming.Scheduler.SetCell.
func (o *Orchestrator) SetCell(x, y, z int, t world.CellType) error {
	return o.sched.SetCell(x, y, z, t)
}

// Cell reads a loaded near-tier cell.
func (o *Orchestrator) Cell(x, y, z int) (world.CellType, bool) {
	return o.sched.Cell(x, y, z)
}

// Frames returns how many ticks ran and how many of them were slow.
func (o *Orchestrator) Frames() (total, slow int) {
	return o.frames, o.slow
}

// LastTick returns the duration of the most recent tick.
func (o *Orchestrator) LastTick() time.Duration {
	return o.lastTick
}

// Close stops streaming and releases all buffers.
func (o *Orchestrator) Close() {
	o.sched.Close()
}

// SetRadii changes the streaming radii in chunks.
func (o *Orchestrator) SetRadii(near, far int) {
	o.sched.SetRadii(near, far)
}

// Radii returns the effective radii after clamping.
func (o *Orchestrator) Radii() (near, far int) {
	return o.sched.Radii()
}
