package streaming

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"sync"
	"sync/atomic"
	"time"

	"voxstream/internal/config"
	"voxstream/internal/geom"
	"voxstream/internal/gpu"
	"voxstream/internal/logging"
	"voxstream/internal/meshing"
	"voxstream/internal/profiling"
	"voxstream/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrNotLoaded is returned by SetCell when the chunk holding the cell has no
// near-tier grid.
var ErrNotLoaded = errors.New("streaming: chunk not loaded")

// Statistics is a snapshot of the scheduler for observability.
type Statistics struct {
	Loaded       int // units with an uploaded mesh
	Queued       int
	Building     int
	TotalEntries int // near plus far records
	Near         int
	Far          int
	Failed       int
	Waiting      int // near records held for their coverage fallback
	Active       int // dispatched units not yet drained

	Discarded uint64
	Faults    uint64
	Uploads   uint64
	Releases  uint64
}

// RenderItem is one drawable mesh.
type RenderItem struct {
	Coord  world.ChunkCoord
	Level  int // -1 for the near tier
	Handle gpu.Handle
}

type faultNote struct {
	key    workKey
	ticket uint64
}

// Scheduler owns the near and far chunk tiers and drives every unit through
// Unrequested, Queued, Building, then Ready or Failed.
//
// Tick, DrainResults, SubmitWork and Close run on the mutation thread, the
// only one that talks to the backend. Lock order is cacheMu then queueMu.
type Scheduler struct {
	cfg     config.Config
	size    int
	limit   int32
	synth   world.Synthesizer
	backend gpu.Backend
	greedy  *meshing.GreedyMesher
	lod     *meshing.LODMesher

	cacheMu   sync.Mutex
	near      map[world.ChunkCoord]*ChunkRecord
	far       map[world.ChunkCoord]*TieredChunkRecord
	waiting   map[world.ChunkCoord]*ChunkRecord
	center    world.ChunkCoord
	hasCenter bool
	frustum   geom.Frustum
	ticket    uint64
	closed    bool

	queueMu sync.Mutex
	queue   *workQueue

	results resultQueue
	pool    *workerPool
	active  atomic.Int32

	faultMu sync.Mutex
	faulted []faultNote

	discarded atomic.Uint64
	faults    atomic.Uint64
	uploads   atomic.Uint64
	releases  atomic.Uint64

	faultLog *logging.Throttled
	now      func() time.Time
	// observe, when set, sees every committed unit.
	observe func(k workKey, st State)
}

// NewScheduler starts the worker pool. cfg is copied and normalized.
func NewScheduler(cfg *config.Config, synth world.Synthesizer, backend gpu.Backend) *Scheduler {
	c := *cfg
	c.Levels = append([]config.LevelConfig(nil), cfg.Levels...)
	c.Normalize()

	s := &Scheduler{
		cfg:      c,
		size:     c.Streaming.ChunkSize,
		limit:    int32(c.Streaming.Workers),
		synth:    synth,
		backend:  backend,
		greedy:   meshing.NewGreedyMesher(c.Meshing.AmbientOcclusion, c.Meshing.AOStrength),
		lod:      meshing.NewLODMesher(),
		near:     make(map[world.ChunkCoord]*ChunkRecord),
		far:      make(map[world.ChunkCoord]*TieredChunkRecord),
		waiting:  make(map[world.ChunkCoord]*ChunkRecord),
		queue:    newWorkQueue(),
		faultLog: logging.NewThrottled(logging.LevelWarn, time.Second, 5),
		now:      time.Now,
	}
	s.greedy.MaxVertices = c.Meshing.MaxVertices
	s.lod.MaxVertices = c.Meshing.MaxVertices
	s.pool = newWorkerPool(c.Streaming.Workers, c.Streaming.Workers, s.execute)
	logging.Info("streaming: %d workers, chunk size %d, near r=%d far r=%d, %d far levels",
		c.Streaming.Workers, s.size, c.Streaming.NearRadius, c.Streaming.FarRadius, len(c.Levels))
	return s
}

// ChunkSize returns the edge length of a chunk in cells.
func (s *Scheduler) ChunkSize() int { return s.size }

// Tick drains finished work, runs the build watchdog, reconciles both tiers
// with the desired sets around viewer, and dispatches new work.
func (s *Scheduler) Tick(viewer mgl32.Vec3, frustum geom.Frustum) {
	defer profiling.Track("streaming.Tick")()
	s.DrainResults()

	s.cacheMu.Lock()
	if s.closed {
		s.cacheMu.Unlock()
		return
	}
	center := world.ChunkCoordFromWorld(viewer, s.size)
	moved := !s.hasCenter || center != s.center
	s.center, s.hasCenter, s.frustum = center, true, frustum

	s.reapFaults()
	s.watchdog(s.now())
	if moved {
		near := desiredNear(center, s.cfg.Streaming)
		far := desiredFar(center, s.cfg.Streaming, near)
		s.syncNear(near)
		s.syncFar(far)
		s.reprioritize()
	}
	s.promoteWaiting()
	s.cacheMu.Unlock()

	s.SubmitWork()
}

// SetRadii changes the near and far radii (in chunks). The desired sets are
// rebuilt on the next Tick.
func (s *Scheduler) SetRadii(near, far int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cfg.Streaming.NearRadius = near
	s.cfg.Streaming.FarRadius = far
	s.cfg.Normalize()
	s.hasCenter = false
}

// Radii returns the current near and far radii.
func (s *Scheduler) Radii() (near, far int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cfg.Streaming.NearRadius, s.cfg.Streaming.FarRadius
}

func (s *Scheduler) syncNear(desired chunkSet) {
	added, removed := 0, 0
	for c, rec := range s.near {
		if !desired.has(c) {
			s.removeNear(c, rec)
			removed++
		}
	}
	for c := range desired {
		if _, ok := s.near[c]; ok {
			continue
		}
		s.createNear(c)
		added++
	}
	if added+removed > 0 {
		logging.Debug("streaming: near +%d -%d (%d total)", added, removed, len(s.near))
	}
}

// createNear adds a near record. Without a drawable far mesh at the same
// coordinate, the coarsest far level is built first as coverage and the
// record waits in Unrequested until that level settles.
func (s *Scheduler) createNear(c world.ChunkCoord) {
	rec := &ChunkRecord{Coord: c}
	s.near[c] = rec

	far := s.far[c]
	if far != nil {
		s.demoteToFallback(far)
		if far.active != nil {
			s.enqueueNear(rec)
			return
		}
	} else {
		far = newTieredChunkRecord(c, len(s.cfg.Levels))
		far.fallback = true
		s.far[c] = far
	}
	rec.awaitingFallback = true
	s.waiting[c] = rec
	s.enqueueFar(far, 0)
}

// demoteToFallback keeps far as coverage only. Queued refinements are
// withdrawn; builds already in flight are still accepted.
func (s *Scheduler) demoteToFallback(far *TieredChunkRecord) {
	far.fallback = true
	for i := 1; i < len(far.Levels); i++ {
		slot := &far.Levels[i]
		if slot.State == Queued {
			slot.State = Unrequested
			s.dequeue(workKey{Coord: far.Coord, Level: i})
		}
	}
}

func (s *Scheduler) removeNear(c world.ChunkCoord, rec *ChunkRecord) {
	s.release(&rec.Handle)
	rec.State = Unrequested
	delete(s.near, c)
	delete(s.waiting, c)
	s.dequeue(workKey{Coord: c, Level: nearLevel})
}

func (s *Scheduler) syncFar(desired chunkSet) {
	for c, rec := range s.far {
		if rec.fallback {
			if _, isNear := s.near[c]; isNear {
				continue
			}
			rec.fallback = false
		}
		if !desired.has(c) {
			s.removeFar(c, rec)
		}
	}
	for c := range desired {
		rec := s.far[c]
		if rec == nil {
			rec = newTieredChunkRecord(c, len(s.cfg.Levels))
			s.far[c] = rec
		}
		s.refreshFar(rec)
	}
}

// refreshFar updates the desired level, requests every level from the
// coarsest down to it, and reselects the active level.
func (s *Scheduler) refreshFar(rec *TieredChunkRecord) {
	dist := math.Sqrt(float64(rec.Coord.HorizontalDistanceSq(s.center)))
	rec.Desired = s.cfg.DesiredLevel(dist)
	for i := 0; i <= rec.Desired; i++ {
		s.enqueueFar(rec, i)
	}
	rec.selectActive()
}

func (s *Scheduler) removeFar(c world.ChunkCoord, rec *TieredChunkRecord) {
	for i := range rec.Levels {
		s.releaseSlot(&rec.Levels[i])
		rec.Levels[i].State = Unrequested
		s.dequeue(workKey{Coord: c, Level: i})
	}
	rec.active = nil
	delete(s.far, c)
}

// promoteWaiting queues near records whose coverage level has settled.
func (s *Scheduler) promoteWaiting() {
	for c, rec := range s.waiting {
		if far := s.far[c]; far != nil && far.active == nil && !far.Levels[0].State.Settled() {
			continue
		}
		rec.awaitingFallback = false
		delete(s.waiting, c)
		s.enqueueNear(rec)
	}
}

func (s *Scheduler) enqueueNear(rec *ChunkRecord) {
	if rec.awaitingFallback {
		return
	}
	rec.queue()
	s.push(workKey{Coord: rec.Coord, Level: nearLevel})
}

func (s *Scheduler) enqueueFar(rec *TieredChunkRecord, level int) {
	slot := &rec.Levels[level]
	if slot.State != Unrequested {
		return
	}
	slot.queue()
	s.push(workKey{Coord: rec.Coord, Level: level})
}

// unitOf returns the dispatch state behind k, or nil if its record is gone.
func (s *Scheduler) unitOf(k workKey) *unit {
	if k.near() {
		if rec := s.near[k.Coord]; rec != nil {
			return &rec.unit
		}
		return nil
	}
	rec := s.far[k.Coord]
	if rec == nil || k.Level < 0 || k.Level >= len(rec.Levels) {
		return nil
	}
	return &rec.Levels[k.Level].unit
}

func (s *Scheduler) priorityOf(k workKey) (priority, bool) {
	u := s.unitOf(k)
	if u == nil || u.State != Queued {
		return priority{}, false
	}
	p := priority{dist: k.Coord.DistanceSq(s.center), level: k.Level}
	if k.near() {
		p.near = true
		p.level = 0
		p.inFrustum = s.frustum.IntersectsAABB(geom.ChunkAABB(k.Coord, s.size))
	}
	return p, true
}

func (s *Scheduler) push(k workKey) {
	p, ok := s.priorityOf(k)
	if !ok {
		return
	}
	s.queueMu.Lock()
	s.queue.push(k, p)
	s.queueMu.Unlock()
}

func (s *Scheduler) dequeue(k workKey) {
	s.queueMu.Lock()
	s.queue.remove(k)
	s.queueMu.Unlock()
}

func (s *Scheduler) reprioritize() {
	defer profiling.Track("streaming.reprioritize")()
	s.queueMu.Lock()
	s.queue.reprioritize(s.priorityOf)
	s.queueMu.Unlock()
}

// SubmitWork dispatches queued units while fewer than the configured number
// of workers are busy. It returns the number dispatched.
func (s *Scheduler) SubmitWork() int {
	defer profiling.Track("streaming.SubmitWork")()
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.closed {
		return 0
	}

	n := 0
	for s.active.Load() < s.limit {
		// A fault frees a worker slot; settle its unit before reusing the slot.
		s.reapFaults()

		s.queueMu.Lock()
		k, ok := s.queue.pop()
		s.queueMu.Unlock()
		if !ok {
			break
		}
		j, ok := s.admit(k)
		if !ok {
			continue
		}
		s.active.Add(1)
		if !s.pool.submit(j) {
			s.active.Add(-1)
			if u := s.unitOf(k); u != nil {
				u.queue()
				s.push(k)
			}
			break
		}
		n++
	}
	return n
}

// admit marks a Queued unit Building under a fresh ticket and captures
// everything the worker needs. Stale queue entries are skipped.
func (s *Scheduler) admit(k workKey) (buildJob, bool) {
	u := s.unitOf(k)
	if u == nil || u.State != Queued {
		return buildJob{}, false
	}
	s.ticket++
	u.State = Building
	u.ticket = s.ticket
	u.dispatched = s.now()

	j := buildJob{key: k, ticket: u.ticket}
	if k.near() {
		j.grid = s.near[k.Coord].Grid
		for i, off := range meshing.NeighborOffsets {
			if n := s.near[k.Coord.Offset(off[0], off[1], off[2])]; n != nil {
				j.neighbors[i] = n.Grid
			}
		}
	} else {
		lc := s.cfg.Levels[k.Level]
		j.stride, j.withTrees = lc.Stride, lc.WithTrees
	}
	return j, true
}

// synthesisLevel maps a footprint stride to the generator's detail level:
// 0 for full detail, log2(stride) otherwise.
func synthesisLevel(stride int) int {
	if stride <= 1 {
		return 0
	}
	return bits.Len(uint(stride)) - 1
}

// execute runs on a worker. Faults are contained here.
func (s *Scheduler) execute(j buildJob) {
	defer func() {
		if r := recover(); r != nil {
			s.fault(j, fmt.Errorf("panic: %v", r))
		}
	}()
	res, err := s.build(j)
	if err != nil {
		s.fault(j, err)
		return
	}
	s.results.push(res)
}

func (s *Scheduler) build(j buildJob) (buildResult, error) {
	defer profiling.Track("streaming.build")()
	grid := j.grid
	if grid == nil {
		level := 0
		if !j.key.near() {
			level = synthesisLevel(j.stride)
		}
		g, err := s.synth.GenerateRegion(j.key.Coord, s.size, level)
		if err != nil {
			return buildResult{}, fmt.Errorf("generate %v: %w", j.key, err)
		}
		if g == nil || g.Size() != s.size {
			return buildResult{}, fmt.Errorf("generate %v: synthesizer returned no grid of size %d", j.key, s.size)
		}
		grid = g
	}

	res := buildResult{key: j.key, ticket: j.ticket}
	if j.key.near() {
		hood := meshing.NewNeighborhood(grid)
		for i, off := range meshing.NeighborOffsets {
			if g := j.neighbors[i]; g != nil {
				hood.SetNeighbor(off[0], off[1], off[2], g)
			}
		}
		res.grid = grid
		res.batch = s.greedy.Generate(grid, hood)
	} else {
		res.batch = s.lod.Generate(grid, j.stride, j.withTrees)
	}
	return res, nil
}

// fault records a unit that will post no result. The note is published
// before the worker slot is freed.
func (s *Scheduler) fault(j buildJob, err error) {
	s.faults.Add(1)
	s.faultMu.Lock()
	s.faulted = append(s.faulted, faultNote{key: j.key, ticket: j.ticket})
	s.faultMu.Unlock()
	s.active.Add(-1)
	s.faultLog.Printf("streaming: build %v failed: %v", j.key, err)
}

// reapFaults re-queues faulted units that are still current.
func (s *Scheduler) reapFaults() {
	s.faultMu.Lock()
	notes := s.faulted
	s.faulted = nil
	s.faultMu.Unlock()
	for _, n := range notes {
		if u := s.unitOf(n.key); u != nil && u.State == Building && u.ticket == n.ticket {
			s.retry(n.key, u)
		}
	}
}

// watchdog re-queues units that have been Building for too long.
func (s *Scheduler) watchdog(now time.Time) {
	timeout := s.cfg.Streaming.BuildTimeout
	for c, rec := range s.near {
		if rec.State == Building && now.Sub(rec.dispatched) > timeout {
			logging.Warn("streaming: %v building for %v, re-queueing", workKey{Coord: c, Level: nearLevel}, now.Sub(rec.dispatched))
			s.retry(workKey{Coord: c, Level: nearLevel}, &rec.unit)
		}
	}
	for c, rec := range s.far {
		for i := range rec.Levels {
			u := &rec.Levels[i].unit
			if u.State == Building && now.Sub(u.dispatched) > timeout {
				logging.Warn("streaming: %v building for %v, re-queueing", workKey{Coord: c, Level: i}, now.Sub(u.dispatched))
				s.retry(workKey{Coord: c, Level: i}, u)
			}
		}
	}
}

func (s *Scheduler) retry(k workKey, u *unit) {
	u.retries++
	if u.retries > s.cfg.Streaming.MaxRetries {
		u.State, u.Fail = Failed, FailRetries
		logging.Warn("streaming: %v failed after %d attempts", k, u.retries)
		s.settled(k)
		return
	}
	u.queue()
	s.push(k)
}

// DrainResults applies every finished unit. It never blocks on workers.
func (s *Scheduler) DrainResults() int {
	defer profiling.Track("streaming.DrainResults")()
	results := s.results.drain()
	if len(results) == 0 {
		return 0
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	applied := 0
	for _, r := range results {
		s.active.Add(-1)
		if s.commit(r) {
			applied++
		}
	}
	return applied
}

// commit applies r if its unit is still Building under the same ticket.
// Anything else is discarded before the backend is touched.
func (s *Scheduler) commit(r buildResult) bool {
	u := s.unitOf(r.key)
	if u == nil || s.closed || u.State != Building || u.ticket != r.ticket {
		s.discarded.Add(1)
		return false
	}

	if r.key.near() {
		rec := s.near[r.key.Coord]
		rec.Grid = r.grid
		if r.batch.Empty() {
			s.release(&rec.Handle)
			rec.Vertices, rec.Indices = 0, 0
			u.State, u.Fail = Failed, FailEmpty
		} else {
			h, err := s.backend.Upload(r.batch)
			if err != nil {
				s.uploadFault(r.key, u, err)
				return false
			}
			s.uploads.Add(1)
			s.release(&rec.Handle)
			rec.Handle = h
			rec.Vertices, rec.Indices = len(r.batch.Vertices), len(r.batch.Indices)
			u.State = Ready
		}
	} else {
		rec := s.far[r.key.Coord]
		slot := &rec.Levels[r.key.Level]
		if r.batch.Empty() {
			s.releaseSlot(slot)
			u.State, u.Fail = Failed, FailEmpty
		} else {
			h, err := s.backend.Upload(r.batch)
			if err != nil {
				s.uploadFault(r.key, u, err)
				return false
			}
			s.uploads.Add(1)
			s.releaseSlot(slot)
			slot.mesh = &Renderable{
				Level:    r.key.Level,
				Handle:   h,
				Vertices: len(r.batch.Vertices),
				Indices:  len(r.batch.Indices),
			}
			u.State = Ready
		}
		rec.selectActive()
	}
	u.retries = 0
	s.settled(r.key)
	if s.observe != nil {
		s.observe(r.key, u.State)
	}
	return true
}

func (s *Scheduler) uploadFault(k workKey, u *unit, err error) {
	s.faults.Add(1)
	s.faultLog.Printf("streaming: upload %v failed: %v", k, err)
	s.retry(k, u)
}

// settled runs once a unit reaches Ready or Failed. A settled near record
// no longer needs its far coverage.
func (s *Scheduler) settled(k workKey) {
	if !k.near() {
		if rec := s.far[k.Coord]; rec != nil {
			rec.selectActive()
		}
		return
	}
	if far := s.far[k.Coord]; far != nil && far.fallback {
		s.removeFar(k.Coord, far)
	}
}

func (s *Scheduler) release(h *gpu.Handle) {
	if *h == 0 {
		return
	}
	s.backend.Release(*h)
	s.releases.Add(1)
	*h = 0
}

func (s *Scheduler) releaseSlot(slot *LevelSlot) {
	if slot.mesh == nil {
		return
	}
	s.release(&slot.mesh.Handle)
	slot.mesh = nil
}

// SetCell writes one cell in world coordinates. The owning chunk and every
// near neighbor sharing the edited border are re-meshed.
func (s *Scheduler) SetCell(x, y, z int, t world.CellType) error {
	c, lx, ly, lz := world.ChunkCoordFromCell(x, y, z, s.size)
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rec := s.near[c]
	if rec == nil || rec.Grid == nil {
		return fmt.Errorf("set cell (%d,%d,%d): %w", x, y, z, ErrNotLoaded)
	}
	if rec.Grid.Get(lx, ly, lz) == t {
		return nil
	}
	g := rec.Grid.Clone()
	g.Set(lx, ly, lz, t)
	rec.Grid = g
	s.requeueEdited(rec)

	border := func(l int) []int {
		switch l {
		case 0:
			return []int{0, -1}
		case s.size - 1:
			return []int{0, 1}
		}
		return []int{0}
	}
	for _, dx := range border(lx) {
		for _, dy := range border(ly) {
			for _, dz := range border(lz) {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				if n := s.near[c.Offset(dx, dy, dz)]; n != nil {
					s.requeueEdited(n)
				}
			}
		}
	}
	return nil
}

func (s *Scheduler) requeueEdited(rec *ChunkRecord) {
	if rec.awaitingFallback {
		return
	}
	rec.retries = 0
	s.enqueueNear(rec)
}

// Cell reads one cell from the near tier. ok is false when the chunk has no
// grid loaded.
func (s *Scheduler) Cell(x, y, z int) (t world.CellType, ok bool) {
	c, lx, ly, lz := world.ChunkCoordFromCell(x, y, z, s.size)
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	rec := s.near[c]
	if rec == nil || rec.Grid == nil {
		return world.CellAir, false
	}
	return rec.Grid.Get(lx, ly, lz), true
}

// VisitRenderables calls fn for every drawable mesh: near records with a
// buffer, and the active far level of each far record. A fallback is only
// visited while its near record has nothing to draw.
func (s *Scheduler) VisitRenderables(fn func(RenderItem)) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	for c, rec := range s.near {
		if rec.HasMesh() {
			fn(RenderItem{Coord: c, Level: nearLevel, Handle: rec.Handle})
		}
	}
	for c, rec := range s.far {
		if rec.active == nil {
			continue
		}
		if rec.fallback {
			if n := s.near[c]; n != nil && n.HasMesh() {
				continue
			}
		}
		fn(RenderItem{Coord: c, Level: rec.active.Level, Handle: rec.active.Handle})
	}
}

// Stats returns current counts.
func (s *Scheduler) Stats() Statistics {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	st := Statistics{
		Near:      len(s.near),
		Far:       len(s.far),
		Waiting:   len(s.waiting),
		Active:    int(s.active.Load()),
		Discarded: s.discarded.Load(),
		Faults:    s.faults.Load(),
		Uploads:   s.uploads.Load(),
		Releases:  s.releases.Load(),
	}
	st.TotalEntries = st.Near + st.Far
	count := func(u *unit) {
		switch u.State {
		case Queued:
			st.Queued++
		case Building:
			st.Building++
		case Failed:
			st.Failed++
		}
	}
	for _, rec := range s.near {
		count(&rec.unit)
		if rec.HasMesh() {
			st.Loaded++
		}
	}
	for _, rec := range s.far {
		for i := range rec.Levels {
			count(&rec.Levels[i].unit)
			if rec.Levels[i].mesh != nil {
				st.Loaded++
			}
		}
	}
	return st
}

// Close stops the workers and releases every buffer.
func (s *Scheduler) Close() {
	s.cacheMu.Lock()
	if s.closed {
		s.cacheMu.Unlock()
		return
	}
	s.closed = true
	s.cacheMu.Unlock()

	s.pool.shutdown()
	dropped := len(s.results.drain())

	s.cacheMu.Lock()
	for c, rec := range s.near {
		s.removeNear(c, rec)
	}
	for c, rec := range s.far {
		s.removeFar(c, rec)
	}
	s.cacheMu.Unlock()
	logging.Info("streaming: closed (%d unapplied results dropped, %d uploads, %d releases)",
		dropped, s.uploads.Load(), s.releases.Load())
}
