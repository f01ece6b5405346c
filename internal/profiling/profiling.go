package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Frame accumulates named durations for one tick. It is safe for use from
// worker goroutines.
type Frame struct {
	mu     sync.Mutex
	totals map[string]time.Duration
	counts map[string]int
}

// NewFrame returns an empty frame.
func NewFrame() *Frame {
	return &Frame{totals: make(map[string]time.Duration), counts: make(map[string]int)}
}

var current = NewFrame()

// Track returns a stop function recording elapsed time under name in the
// current frame.
// Usage: defer profiling.Track("streaming.DrainResults")()
func Track(name string) func() {
	return current.Track(name)
}

// ResetFrame clears the current frame. Call at the start of each tick.
func ResetFrame() { current.Reset() }

// Snapshot copies the current frame's totals.
func Snapshot() map[string]time.Duration { return current.Snapshot() }

// TopN formats the n most expensive entries of the current frame.
func TopN(n int) string { return current.TopN(n) }

func (f *Frame) Track(name string) func() {
	start := time.Now()
	return func() {
		f.Add(name, time.Since(start))
	}
}

// Add records d under name.
func (f *Frame) Add(name string, d time.Duration) {
	f.mu.Lock()
	f.totals[name] += d
	f.counts[name]++
	f.mu.Unlock()
}

func (f *Frame) Reset() {
	f.mu.Lock()
	clear(f.totals)
	clear(f.counts)
	f.mu.Unlock()
}

func (f *Frame) Snapshot() map[string]time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]time.Duration, len(f.totals))
	for k, v := range f.totals {
		out[k] = v
	}
	return out
}

// Count returns how many samples name received this frame.
func (f *Frame) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[name]
}

// TopN formats the n largest totals, e.g.
// "streaming.DrainResults:4.2ms, streaming.SubmitWork:0.3ms".
func (f *Frame) TopN(n int) string {
	snap := f.Snapshot()
	names := make([]string, 0, len(snap))
	for k := range snap {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if snap[names[i]] != snap[names[j]] {
			return snap[names[i]] > snap[names[j]]
		}
		return names[i] < names[j]
	})
	if n > len(names) {
		n = len(names)
	}
	parts := make([]string, 0, n)
	for _, name := range names[:n] {
		parts = append(parts, name+":"+formatMs(snap[name]))
	}
	return strings.Join(parts, ", ")
}

// formatMs keeps one decimal and drops a trailing ".0".
func formatMs(d time.Duration) string {
	s := fmt.Sprintf("%.1f", float64(d.Microseconds())/1000.0)
	return strings.TrimSuffix(s, ".0") + "ms"
}
