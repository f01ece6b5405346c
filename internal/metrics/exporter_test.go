package metrics

import (
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"voxstream/internal/streaming"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu sync.Mutex
	st streaming.Statistics
}

func (f *fakeSource) Statistics() streaming.Statistics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st
}

func (f *fakeSource) set(st streaming.Statistics) {
	f.mu.Lock()
	f.st = st
	f.mu.Unlock()
}

func TestCollectGaugesAndCounterDeltas(t *testing.T) {
	src := &fakeSource{}
	e := NewExporter(src, time.Second)

	src.set(streaming.Statistics{Loaded: 7, Queued: 3, Near: 5, Far: 24, Uploads: 10, Faults: 1})
	e.Collect()
	assert.Equal(t, 7.0, testutil.ToFloat64(e.gauges.WithLabelValues("loaded")))
	assert.Equal(t, 3.0, testutil.ToFloat64(e.gauges.WithLabelValues("queued")))
	assert.Equal(t, 24.0, testutil.ToFloat64(e.gauges.WithLabelValues("far")))
	assert.Equal(t, 10.0, testutil.ToFloat64(e.uploads))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.faults))

	src.set(streaming.Statistics{Loaded: 2, Uploads: 15, Faults: 1, Releases: 4})
	e.Collect()
	assert.Equal(t, 2.0, testutil.ToFloat64(e.gauges.WithLabelValues("loaded")))
	assert.Equal(t, 15.0, testutil.ToFloat64(e.uploads))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.faults))
	assert.Equal(t, 4.0, testutil.ToFloat64(e.releases))
}

func TestStartHTTPServesMetrics(t *testing.T) {
	src := &fakeSource{st: streaming.Statistics{Loaded: 42}}
	e := NewExporter(src, 10*time.Millisecond)
	addr, err := e.StartHTTP("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(e.Stop)

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, body, `voxstream_chunks{kind="loaded"} 42`)
}

func TestStopIsIdempotent(t *testing.T) {
	e := NewExporter(&fakeSource{}, 5*time.Millisecond)
	e.Start()
	e.Start()
	e.Stop()
	e.Stop()
}
