package gpu

import (
	"fmt"
	"sync"

	"voxstream/internal/meshing"

	"github.com/go-gl/mathgl/mgl32"
)

// MemoryBackend keeps uploads in memory. It backs headless runs and tests,
// and reports leaks and misuse through its counters.
type MemoryBackend struct {
	mu       sync.Mutex
	next     Handle
	live     map[Handle]BufferInfo
	uploads  int
	releases int
	draws    int
	bad      int
	effect   EffectParams
	failNext []error
}

// BufferInfo describes one live upload.
type BufferInfo struct {
	Vertices int
	Indices  int
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{live: make(map[Handle]BufferInfo)}
}

// FailNext makes the next upload return err.
func (m *MemoryBackend) FailNext(err error) {
	m.mu.Lock()
	m.failNext = append(m.failNext, err)
	m.mu.Unlock()
}

func (m *MemoryBackend) Upload(b *meshing.MeshBatch) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.failNext) > 0 {
		err := m.failNext[0]
		m.failNext = m.failNext[1:]
		return 0, fmt.Errorf("upload: %w", err)
	}
	if b.Empty() {
		return 0, ErrEmptyBatch
	}
	m.next++
	m.live[m.next] = BufferInfo{Vertices: len(b.Vertices), Indices: len(b.Indices)}
	m.uploads++
	return m.next, nil
}

func (m *MemoryBackend) Release(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[h]; !ok {
		m.bad++
		return
	}
	delete(m.live, h)
	m.releases++
}

func (m *MemoryBackend) SetEffect(p EffectParams) {
	m.mu.Lock()
	m.effect = p
	m.mu.Unlock()
}

func (m *MemoryBackend) Draw(h Handle, _ mgl32.Mat4) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[h]; !ok {
		m.bad++
		return
	}
	m.draws++
}

// Live returns the number of uploaded, unreleased buffers.
func (m *MemoryBackend) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Info returns the buffer behind h.
func (m *MemoryBackend) Info(h Handle) (BufferInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bi, ok := m.live[h]
	return bi, ok
}

// Counters returns uploads, releases, draws and invalid calls (release or
// draw of an unknown handle) so far.
func (m *MemoryBackend) Counters() (uploads, releases, draws, bad int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads, m.releases, m.draws, m.bad
}

// ResetDraws zeroes the draw counter, e.g. between frames.
func (m *MemoryBackend) ResetDraws() {
	m.mu.Lock()
	m.draws = 0
	m.mu.Unlock()
}

// Effect returns the last effect parameters set.
func (m *MemoryBackend) Effect() EffectParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effect
}
