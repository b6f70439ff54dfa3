package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/hedge-lob/internal/config"
	"github.com/rickgao/hedge-lob/internal/hedge"
	"github.com/rickgao/hedge-lob/internal/layout"
	"github.com/rickgao/hedge-lob/internal/lob"
	"github.com/rickgao/hedge-lob/internal/matching"
	"github.com/rickgao/hedge-lob/internal/metrics"
	"github.com/rickgao/hedge-lob/internal/model"
	"github.com/rickgao/hedge-lob/internal/report"
	"github.com/rickgao/hedge-lob/internal/telemetry"
	"github.com/rickgao/hedge-lob/internal/ticks"
	"github.com/rickgao/hedge-lob/internal/writer"
)

// ErrNoRICs is returned when the loaded LOB data names no RICs.
var ErrNoRICs = errors.New("no RICs found in lob data")

// MatchSink receives each RIC's matches after they are written to disk.
type MatchSink interface {
	Write(ctx context.Context, runID uuid.UUID, matches []model.Match) (int64, error)
}

// Runner executes matching runs.
type Runner struct {
	cfg     *config.PipelineConfig
	layout  layout.Layout
	ticks   ticks.Table
	files   *writer.FileWriter
	sink    MatchSink
	metrics *metrics.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
	newID   func() uuid.UUID
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracer sets the tracer used for stage spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = t
	}
}

// WithSink adds a database sink.
func WithSink(s MatchSink) Option {
	return func(r *Runner) {
		r.sink = s
	}
}

// WithRunID fixes the run id generator.
func WithRunID(fn func() uuid.UUID) Option {
	return func(r *Runner) {
		r.newID = fn
	}
}

// New creates a Runner. cfg must already have defaults applied.
func New(cfg *config.PipelineConfig, opts ...Option) *Runner {
	r := &Runner{
		cfg: cfg,
		layout: layout.Layout{
			BasePath:   cfg.Data.BasePath,
			Year:       cfg.Data.Year,
			FuturesDir: cfg.Data.FuturesDir,
			OutputDir:  cfg.Output.Dir,
		},
		ticks:   ticks.New(cfg.Ticks.Default, cfg.Ticks.Prefixes),
		metrics: metrics.New(),
		tracer:  noop.NewTracerProvider().Tracer(telemetry.InstrumentationName),
		logger:  slog.Default(),
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.files = writer.NewFileWriter(writer.FileConfig{
		Compression:        cfg.Output.Compression,
		DisableCSVFallback: cfg.Output.DisableCSVFallback,
	}, r.layout, r.logger)
	return r
}

// Layout returns the resolved data layout.
func (r *Runner) Layout() layout.Layout {
	return r.layout
}

// Run processes req. The returned summary is non-nil whenever the LOB data
// loaded, even if writing the workbook then fails.
func (r *Runner) Run(ctx context.Context, req Request) (*Summary, error) {
	runID := r.newID()
	logger := r.logger.With("run_id", runID.String(), "index", req.Index)

	ctx, span := r.tracer.Start(ctx, "run", trace.WithAttributes(telemetry.RunAttrs(runID.String(), req.Index)...))
	defer span.End()

	summary := &Summary{RunID: runID, Index: req.Index, Started: time.Now()}
	logger.Info("starting run", "ric", req.RIC, "family", req.Family)

	stageCtx, done := r.stage(ctx, metrics.StageLoadLOB, "")
	loader := lob.NewLoader(r.layout, r.cfg.Run.FileConcurrency, logger)
	data, err := loader.Load(stageCtx, req.Index, req.RIC)
	done(err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load lob")
		return nil, fmt.Errorf("load lob: %w", err)
	}
	r.metrics.SnapshotsLoaded.Add(float64(len(data.Snapshots)))
	summary.Snapshots = len(data.Snapshots)
	summary.Depth = data.Depth

	rics := []string{req.RIC}
	if req.RIC == "" {
		rics = lob.RICs(data.Snapshots)
		if len(rics) == 0 {
			span.SetStatus(codes.Error, "no rics")
			return nil, fmt.Errorf("%w for %s", ErrNoRICs, req.Index)
		}
		logger.Info("found rics to process", "rics", rics)
	}

	byRIC := make(map[string][]model.Snapshot, len(rics))
	for _, s := range data.Snapshots {
		byRIC[s.RIC] = append(byRIC[s.RIC], s)
	}

	results := make([]RICResult, len(rics))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.cfg.Run.Concurrency, 1))
	for i, ric := range rics {
		g.Go(func() error {
			results[i] = r.processRIC(gctx, runID, req, ric, byRIC[ric], data.Depth, logger.With("ric", ric))
			r.metrics.RICs.WithLabelValues(string(results[i].Status)).Inc()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "canceled")
		return nil, err
	}

	summary.Results = results
	summary.Duration = time.Since(summary.Started)

	logger.Info("run complete",
		"rics", len(results),
		"matched", summary.Count(StatusMatched),
		"failed", summary.Count(StatusFailed),
		"matches", summary.Matches(),
		"duration", summary.Duration,
	)

	if path := r.cfg.Output.XLSXReport; path != "" {
		if err := report.Write(path, summary.Report()); err != nil {
			return summary, fmt.Errorf("write xlsx report: %w", err)
		}
		logger.Info("xlsx report written", "path", path)
	}
	return summary, nil
}

// processRIC runs every per-RIC stage. Only context cancellation is
// reported through the error path; everything else lands in the result.
func (r *Runner) processRIC(ctx context.Context, runID uuid.UUID, req Request, ric string, snapshots []model.Snapshot, depth int, logger *slog.Logger) RICResult {
	start := time.Now()
	res := RICResult{RIC: ric}

	ctx, span := r.tracer.Start(ctx, "ric", trace.WithAttributes(telemetry.RICAttr(ric)))
	defer span.End()

	finish := func(status Status, reason string, err error) RICResult {
		res.Status, res.Reason, res.Err = status, reason, err
		res.Duration = time.Since(start)
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, reason)
			logger.Error("ric failed", "reason", reason, "error", err)
		case status != StatusMatched:
			logger.Warn("skipping ric", "status", status, "reason", reason)
		}
		return res
	}

	if len(snapshots) == 0 {
		return finish(StatusNoLOBData, "no lob snapshots for ric", nil)
	}

	// Hedge data
	family := req.Family
	if family == "" && len(ric) >= 2 {
		family = ric[:2]
	}
	path := r.layout.HedgeFile(family, ric)
	stageCtx, done := r.stage(ctx, metrics.StageLoadHedge, ric)
	set, err := hedge.Load(stageCtx, path, logger)
	done(err)
	if err != nil {
		if ctx.Err() != nil {
			return finish(StatusFailed, "canceled", ctx.Err())
		}
		if !errors.Is(err, hedge.ErrHedgeFileNotFound) {
			return finish(StatusFailed, "load hedge data", err)
		}
		logger.Warn("no hedge data for ric", "path", path)
		set = hedge.NewSet(nil, nil)
	}

	tick, known := r.ticks.Lookup(ric)
	if !known {
		logger.Warn("tick size not defined for ric prefix, using default", "tick_size", tick)
	}
	res.TickSize = tick

	// LOB
	_, done = r.stage(ctx, metrics.StagePrepareLOB, ric)
	book := lob.Prepare(snapshots, ric, depth)
	done(nil)
	res.Snapshots = book.Len()
	if book.Len() == 0 {
		return finish(StatusNoLOBData, "lob empty after filtering", nil)
	}

	_, done = r.stage(ctx, metrics.StageEnrich, ric)
	lob.Enrich(book)
	done(nil)
	logger.Debug("lob enriched", "snapshots", book.Len(), "depth", book.Depth)

	// Hedge prep
	_, done = r.stage(ctx, metrics.StagePrepareHedge, ric)
	prepared, stats := hedge.Prepare(set, ric, logger)
	done(nil)
	res.Hedge = stats
	if prepared.Len() == 0 {
		return finish(StatusNoHedgeData, "hedge data empty after filtering", nil)
	}

	// Match
	engine := matching.NewEngine(matching.Config{
		Threshold: r.cfg.Matching.Threshold,
		Lookback:  r.cfg.Matching.Lookback,
		TickSize:  tick,
		Epsilon:   r.cfg.Matching.PriceEpsilon,
		Depth:     r.cfg.Matching.Depth,
	}, logger)

	stageCtx, done = r.stage(ctx, metrics.StageMatch, ric)
	result, err := engine.Match(stageCtx, prepared, book)
	done(err)
	if err != nil {
		return finish(StatusFailed, "match", err)
	}
	res.Report = result.Report
	res.Levels = levelCounts(result.Matches)

	r.metrics.FillsAttempted.WithLabelValues(ric).Add(float64(result.Report.Attempted))
	r.metrics.Matches.WithLabelValues(ric, string(model.MatchExact)).Add(float64(result.Report.Exact))
	r.metrics.Matches.WithLabelValues(ric, string(model.MatchFuzzy)).Add(float64(result.Report.Fuzzy))

	if len(result.Matches) == 0 {
		return finish(StatusNoMatches, "no fills matched", nil)
	}

	// Outputs
	stageCtx, done = r.stage(ctx, metrics.StageWrite, ric)
	out, err := r.files.Write(ric, result.Matches, book.Depth, runID.String())
	if err == nil && r.sink != nil {
		res.DBRows, err = r.sink.Write(stageCtx, runID, result.Matches)
	}
	done(err)
	res.Output = out
	if err != nil {
		return finish(StatusFailed, "write matches", err)
	}

	logger.Info("ric complete",
		"snapshots", res.Snapshots,
		"hedge_rows", stats.Kept,
		"attempted", result.Report.Attempted,
		"matched", result.Report.Matched,
		"exact", result.Report.Exact,
		"fuzzy", result.Report.Fuzzy,
		"output", out,
	)
	return finish(StatusMatched, "", nil)
}

// stage starts a span and timer. The returned func ends both.
func (r *Runner) stage(ctx context.Context, name, ric string) (context.Context, func(error)) {
	opts := []trace.SpanStartOption{}
	if ric != "" {
		opts = append(opts, trace.WithAttributes(telemetry.RICAttr(ric)))
	}
	ctx, span := r.tracer.Start(ctx, name, opts...)
	timer := r.metrics.StartStage(name)

	return ctx, func(err error) {
		timer.Stop()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func levelCounts(matches []model.Match) map[int]int {
	counts := make(map[int]int)
	for _, m := range matches {
		counts[m.Level]++
	}
	return counts
}
