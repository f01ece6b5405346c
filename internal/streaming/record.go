package streaming

import (
	"fmt"
	"time"

	"voxstream/internal/gpu"
	"voxstream/internal/world"
)

// State is the lifecycle of one unit of work: a near chunk, or one level of
// a far chunk.
type State uint8

const (
	Unrequested State = iota
	Queued
	Building
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Unrequested:
		return "unrequested"
	case Queued:
		return "queued"
	case Building:
		return "building"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Settled reports whether s is terminal.
func (s State) Settled() bool {
	return s == Ready || s == Failed
}

// FailReason qualifies the Failed state.
type FailReason uint8

const (
	FailNone FailReason = iota
	// FailEmpty marks a unit that produced no geometry. It is not re-queued.
	FailEmpty
	// FailRetries marks a unit that timed out or faulted too often.
	FailRetries
)

func (r FailReason) String() string {
	switch r {
	case FailEmpty:
		return "empty"
	case FailRetries:
		return "retries"
	}
	return "none"
}

// nearLevel is the level used in work keys for the near tier.
const nearLevel = -1

// workKey identifies one unit of work.
type workKey struct {
	Coord world.ChunkCoord
	Level int
}

func (k workKey) near() bool { return k.Level == nearLevel }

func (k workKey) String() string {
	if k.near() {
		return fmt.Sprintf("near(%d,%d,%d)", k.Coord.X, k.Coord.Y, k.Coord.Z)
	}
	return fmt.Sprintf("far(%d,%d,%d)@%d", k.Coord.X, k.Coord.Y, k.Coord.Z, k.Level)
}

// unit is the dispatch bookkeeping shared by near records and far level slots.
type unit struct {
	State      State
	Fail       FailReason
	ticket     uint64
	dispatched time.Time
	retries    int
}

func (u *unit) queue() {
	u.State = Queued
	u.Fail = FailNone
}

// ChunkRecord is a near-tier chunk: full detail, greedy meshed. The cell
// grid is retained so edits can be applied and re-meshed without
// regenerating.
type ChunkRecord struct {
	unit
	Coord    world.ChunkCoord
	Grid     *world.CellGrid
	Handle   gpu.Handle
	Vertices int
	Indices  int

	// awaitingFallback holds the record in Unrequested until the coarsest
	// far level of the same coordinate settles.
	awaitingFallback bool
}

// HasMesh reports whether the record has a drawable buffer.
func (r *ChunkRecord) HasMesh() bool { return r.Handle != 0 }

// Renderable is an uploaded far-tier mesh at one level.
type Renderable struct {
	Level    int
	Handle   gpu.Handle
	Vertices int
	Indices  int
}

// LevelSlot is one detail level of a far chunk. mesh is set only while the
// slot is Ready.
type LevelSlot struct {
	unit
	mesh *Renderable
}

// TieredChunkRecord is a far-tier chunk with one slot per detail level,
// index 0 being the coarsest. No cell grid is retained.
type TieredChunkRecord struct {
	Coord   world.ChunkCoord
	Levels  []LevelSlot
	Desired int

	// active points at the Ready slot being drawn, or is nil.
	active *Renderable

	// fallback marks a record kept only as coverage for a near record at the
	// same coordinate. It is not authoritative and is never refined.
	fallback bool
}

func newTieredChunkRecord(c world.ChunkCoord, levels int) *TieredChunkRecord {
	return &TieredChunkRecord{Coord: c, Levels: make([]LevelSlot, levels)}
}

// Active returns the renderable currently drawn for this chunk, or nil.
func (r *TieredChunkRecord) Active() *Renderable { return r.active }

// IsFallback reports whether the record only covers a building near chunk.
func (r *TieredChunkRecord) IsFallback() bool { return r.fallback }

// selectActive picks the Ready level nearest to Desired by index distance,
// trying the coarser side first at each distance.
func (r *TieredChunkRecord) selectActive() {
	n := len(r.Levels)
	for off := 0; off < n; off++ {
		if i := r.Desired - off; i >= 0 && i < n && r.Levels[i].mesh != nil {
			r.active = r.Levels[i].mesh
			return
		}
		if i := r.Desired + off; off > 0 && i >= 0 && i < n && r.Levels[i].mesh != nil {
			r.active = r.Levels[i].mesh
			return
		}
	}
	r.active = nil
}
