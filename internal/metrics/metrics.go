package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hedgematch"

// Pipeline stages.
const (
	StageLoadLOB      = "load_lob"
	StageLoadHedge    = "load_hedge"
	StagePrepareLOB   = "prepare_lob"
	StageEnrich       = "enrich"
	StagePrepareHedge = "prepare_hedge"
	StageMatch        = "match"
	StageWrite        = "write"
)

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	SnapshotsLoaded prometheus.Counter
	FillsAttempted  *prometheus.CounterVec
	Matches         *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	RICs            *prometheus.CounterVec
	LastRun         prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		SnapshotsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lob_snapshots_loaded_total",
			Help:      "LOB snapshots read from parquet.",
		}),

		FillsAttempted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fills_attempted_total",
			Help:      "Hedge fill events considered for matching.",
		}, []string{"ric"}),

		Matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "Hedge fills matched to a LOB level.",
		}, []string{"ric", "type"}),

		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),

		RICs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rics_processed_total",
			Help:      "RICs processed, by outcome.",
		}, []string{"status"}),

		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}

	m.registry.MustRegister(
		m.SnapshotsLoaded,
		m.FillsAttempted,
		m.Matches,
		m.StageDuration,
		m.RICs,
		m.LastRun,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// StageTimer measures one stage.
type StageTimer struct {
	m     *Metrics
	stage string
	start time.Time
}

// StartStage begins timing a stage. A nil Metrics returns a timer that
// records nothing.
func (m *Metrics) StartStage(stage string) *StageTimer {
	return &StageTimer{m: m, stage: stage, start: time.Now()}
}

// Stop records the elapsed time and returns it.
func (t *StageTimer) Stop() time.Duration {
	d := time.Since(t.start)
	if t.m != nil {
		t.m.StageDuration.WithLabelValues(t.stage).Observe(d.Seconds())
	}
	return d
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry to path for the node-exporter textfile
// collector. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	m.LastRun.SetToCurrentTime()
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Server exposes the registry over HTTP for the duration of a run.
type Server struct {
	srv    *http.Server
	ln     net.Listener
	logger *slog.Logger
}

// Serve starts an HTTP server on addr with the registry mounted at path.
func (m *Metrics) Serve(addr, path string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = "/metrics"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	s := &Server{
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:     ln,
		logger: logger,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	logger.Info("metrics server started", "addr", ln.Addr().String(), "path", path)
	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown metrics server: %w", err)
	}
	s.logger.Info("metrics server stopped")
	return nil
}
