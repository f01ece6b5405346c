package streaming

import (
	"sync"

	"voxstream/internal/meshing"
	"voxstream/internal/world"
)

// buildResult is what a worker posts for one finished unit.
type buildResult struct {
	key    workKey
	ticket uint64
	grid   *world.CellGrid
	batch  *meshing.MeshBatch
}

// resultQueue is a FIFO filled by workers and drained by the mutation
// thread. Its lock is never held while taking another.
type resultQueue struct {
	mu      sync.Mutex
	pending []buildResult
}

func (q *resultQueue) push(r buildResult) {
	q.mu.Lock()
	q.pending = append(q.pending, r)
	q.mu.Unlock()
}

// drain takes every pending result without blocking on producers beyond the
// swap itself.
func (q *resultQueue) drain() []buildResult {
	q.mu.Lock()
	out := q.pending
	q.pending = nil
	q.mu.Unlock()
	return out
}

func (q *resultQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
