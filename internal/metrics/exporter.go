package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"voxstream/internal/logging"
	"voxstream/internal/streaming"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsSource is anything that can report streaming counters.
type StatsSource interface {
	Statistics() streaming.Statistics
}

// Exporter publishes streaming statistics as Prometheus metrics and
// refreshes them on a fixed interval.
type Exporter struct {
	src      StatsSource
	interval time.Duration
	registry *prometheus.Registry

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	quit     chan struct{}
	done     chan struct{}
	prev     streaming.Statistics

	gauges    *prometheus.GaugeVec
	discarded prometheus.Counter
	faults    prometheus.Counter
	uploads   prometheus.Counter
	releases  prometheus.Counter
}

// NewExporter creates an exporter on its own registry. Nothing runs until
// Start or StartHTTP.
func NewExporter(src StatsSource, interval time.Duration) *Exporter {
	if interval <= 0 {
		interval = time.Second
	}
	e := &Exporter{
		src:      src,
		interval: interval,
		registry: prometheus.NewRegistry(),
		gauges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voxstream",
			Name:      "chunks",
			Help:      "Chunk records by state or tier.",
		}, []string{"kind"}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxstream",
			Name:      "results_discarded_total",
			Help:      "Build results dropped because their ticket was stale.",
		}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxstream",
			Name:      "build_faults_total",
			Help:      "Build or upload failures.",
		}),
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxstream",
			Name:      "uploads_total",
			Help:      "Mesh batches uploaded to the render backend.",
		}),
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxstream",
			Name:      "releases_total",
			Help:      "Render buffers released.",
		}),
	}
	e.registry.MustRegister(e.gauges, e.discarded, e.faults, e.uploads, e.releases)
	return e
}

// Registry exposes the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Collect copies one snapshot of the source into the metrics.
func (e *Exporter) Collect() {
	st := e.src.Statistics()

	e.mu.Lock()
	prev := e.prev
	e.prev = st
	e.mu.Unlock()

	for kind, v := range map[string]int{
		"loaded":   st.Loaded,
		"queued":   st.Queued,
		"building": st.Building,
		"entries":  st.TotalEntries,
		"near":     st.Near,
		"far":      st.Far,
		"failed":   st.Failed,
		"waiting":  st.Waiting,
		"active":   st.Active,
	} {
		e.gauges.WithLabelValues(kind).Set(float64(v))
	}
	addDelta(e.discarded, st.Discarded, prev.Discarded)
	addDelta(e.faults, st.Faults, prev.Faults)
	addDelta(e.uploads, st.Uploads, prev.Uploads)
	addDelta(e.releases, st.Releases, prev.Releases)
}

func addDelta(c prometheus.Counter, cur, prev uint64) {
	if cur > prev {
		c.Add(float64(cur - prev))
	}
}

// Start begins periodic collection without serving HTTP.
func (e *Exporter) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.quit != nil {
		return
	}
	e.quit = make(chan struct{})
	e.done = make(chan struct{})
	go e.loop(e.quit, e.done)
}

// StartHTTP serves /metrics on addr and starts collection. It returns the
// bound address, which differs from addr when addr uses port 0.
func (e *Exporter) StartHTTP(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	e.mu.Lock()
	e.server, e.listener = srv, ln
	e.mu.Unlock()

	go func() {
		logging.Info("metrics: serving /metrics on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server: %v", err)
		}
	}()
	e.Start()
	return ln.Addr().String(), nil
}

// Stop halts collection and shuts the HTTP server down if one is running.
func (e *Exporter) Stop() {
	e.mu.Lock()
	quit, done, srv := e.quit, e.done, e.server
	e.quit, e.done, e.server, e.listener = nil, nil, nil, nil
	e.mu.Unlock()

	if quit != nil {
		close(quit)
		<-done
	}
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logging.Warn("metrics shutdown: %v", err)
		}
	}
}

func (e *Exporter) loop(quit, done chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	defer close(done)

	e.Collect()
	for {
		select {
		case <-ticker.C:
			e.Collect()
		case <-quit:
			return
		}
	}
}
