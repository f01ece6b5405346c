package streaming

import (
	"context"
	"sync"

	"voxstream/internal/world"
)

// buildJob is one dispatched unit. Grids are shared read-only.
type buildJob struct {
	key       workKey
	ticket    uint64
	stride    int
	withTrees bool
	grid      *world.CellGrid
	neighbors [26]*world.CellGrid // ordered as meshing.NeighborOffsets
}

// workerPool runs build jobs on a fixed set of goroutines.
type workerPool struct {
	jobQueue chan buildJob
	workers  int
	run      func(buildJob)
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// newWorkerPool starts workers goroutines; queueSize bounds jobs waiting
// for a free worker.
func newWorkerPool(workers, queueSize int, run func(buildJob)) *workerPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &workerPool{
		jobQueue: make(chan buildJob, queueSize),
		workers:  workers,
		run:      run,
		ctx:      ctx,
		cancel:   cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// submit hands a job to the pool without blocking. It returns false if the
// queue is full or the pool is shut down.
func (p *workerPool) submit(j buildJob) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobQueue <- j:
		return true
	default:
		return false
	}
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case j := <-p.jobQueue:
			p.run(j)
		case <-p.ctx.Done():
			return
		}
	}
}

// shutdown stops the workers after their current job. Jobs still queued
// are dropped.
func (p *workerPool) shutdown() {
	p.cancel()
	p.wg.Wait()
}
