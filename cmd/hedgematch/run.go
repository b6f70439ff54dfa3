package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rickgao/hedge-lob/internal/database"
	"github.com/rickgao/hedge-lob/internal/metrics"
	"github.com/rickgao/hedge-lob/internal/pipeline"
	"github.com/rickgao/hedge-lob/internal/telemetry"
	"github.com/rickgao/hedge-lob/internal/version"
	"github.com/rickgao/hedge-lob/internal/writer"
)

type runFlags struct {
	index       string
	ric         string
	family      string
	basePath    string
	threshold   float64
	outputDir   string
	concurrency int
	xlsx        string
	database    bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the matching pipeline for an index",
		Example: `  hedgematch run --index-name FTSE --ric FFIH4 --index-family FF --verbose
  hedgematch run --index-name FTSE --index-family FF --threshold-sec 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, g, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.index, "index-name", "", "index name used to find the LOB directory (e.g. FTSE, NASDAQ)")
	fl.StringVar(&f.ric, "ric", "", "process only this RIC (default: every RIC in the LOB data)")
	fl.StringVar(&f.family, "index-family", "", "hedge data family directory (default: the RIC's two-letter prefix)")
	fl.StringVar(&f.basePath, "base-path", "", "data root directory (overrides config)")
	fl.Float64Var(&f.threshold, "threshold-sec", 0, "seconds after each fill to search (overrides config)")
	fl.StringVar(&f.outputDir, "output-dir", "", "directory for matched output (overrides config)")
	fl.IntVar(&f.concurrency, "concurrency", 0, "RICs processed in parallel (overrides config)")
	fl.StringVar(&f.xlsx, "xlsx", "", "write an Excel summary to this path (overrides config)")
	fl.BoolVar(&f.database, "db", false, "also copy matches into PostgreSQL (overrides config)")
	_ = cmd.MarkFlagRequired("index-name")

	return cmd
}

func runPipeline(cmd *cobra.Command, g *globalFlags, f *runFlags) error {
	ctx := cmd.Context()

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	fl := cmd.Flags()
	if fl.Changed("base-path") {
		cfg.Data.BasePath = f.basePath
	}
	if fl.Changed("threshold-sec") {
		cfg.Matching.Threshold = time.Duration(f.threshold * float64(time.Second))
	}
	if fl.Changed("output-dir") {
		cfg.Output.Dir = f.outputDir
	}
	if fl.Changed("concurrency") {
		cfg.Run.Concurrency = f.concurrency
	}
	if fl.Changed("xlsx") {
		cfg.Output.XLSXReport = f.xlsx
	}
	if fl.Changed("db") {
		cfg.Database.Enabled = f.database
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	logger, err := g.logger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger.Info("starting hedgematch",
		"version", version.Version,
		"commit", version.Commit,
		"config", g.configPath,
	)

	tracing, err := telemetry.Setup(ctx, telemetry.Config{
		Exporter:       cfg.Tracing.Exporter,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version.Version,
		Writer:         cmd.ErrOrStderr(),
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv, err := m.Serve(cfg.Metrics.Addr, cfg.Metrics.Path, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics shutdown failed", "error", err)
			}
		}()
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(m),
		pipeline.WithTracer(tracing.Tracer),
	}

	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)
		pool, err := database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		sink := writer.NewPostgresSink(pool, cfg.Database.Table, logger)
		if err := sink.EnsureTable(ctx); err != nil {
			return err
		}
		opts = append(opts, pipeline.WithSink(sink))
		logger.Info("database connected", "table", cfg.Database.Table)
	}

	runner := pipeline.New(cfg, opts...)
	summary, runErr := runner.Run(ctx, pipeline.Request{
		Index:  f.index,
		RIC:    f.ric,
		Family: f.family,
	})

	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary)
	}

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Error("failed to write metrics textfile", "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if n := summary.Count(pipeline.StatusFailed); n > 0 {
		return fmt.Errorf("%d RIC(s) failed", n)
	}
	return nil
}

func printSummary(w io.Writer, s *pipeline.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s  index %s  snapshots %d  depth %d  took %s\n",
		s.RunID, s.Index, s.Snapshots, s.Depth, s.Duration.Round(time.Millisecond))
	fmt.Fprintln(tw, "RIC\tSTATUS\tATTEMPTED\tMATCHED\tEXACT\tFUZZY\tRATE\tOUTPUT")
	for _, r := range s.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%.2f%%\t%s\n",
			r.RIC, r.Status, r.Report.Attempted, r.Report.Matched,
			r.Report.Exact, r.Report.Fuzzy, r.Report.Rate()*100, r.Output)
	}
	tw.Flush()
}
