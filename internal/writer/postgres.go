package writer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rickgao/hedge-lob/internal/model"
)

// DBTX is the subset of *pgxpool.Pool the sink uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// sinkColumns are copied in this order.
var sinkColumns = []string{
	"run_id",
	"ric",
	"lob_time",
	"lob_index",
	"clordid",
	"side",
	"exec_type",
	"exec_price",
	"lob_price",
	"fill_size",
	"level",
	"match_type",
	"hedge_time",
	"mid_price",
	"market_spread",
}

// SinkMetrics tracks database sink activity.
type SinkMetrics struct {
	Inserts int64
	Errors  int64
	Copies  int64
}

// PostgresSink appends matches to a table with COPY.
type PostgresSink struct {
	db     DBTX
	table  string
	logger *slog.Logger

	mu      sync.Mutex
	metrics SinkMetrics
}

// NewPostgresSink creates a sink writing to table. table must be a plain
// identifier.
func NewPostgresSink(db DBTX, table string, logger *slog.Logger) *PostgresSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSink{db: db, table: table, logger: logger}
}

// EnsureTable creates the table and its lookup index if missing.
func (s *PostgresSink) EnsureTable(ctx context.Context) error {
	ident := pgx.Identifier{s.table}.Sanitize()
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id        UUID             NOT NULL,
			ric           TEXT             NOT NULL,
			lob_time      TIMESTAMPTZ      NOT NULL,
			lob_index     BIGINT           NOT NULL,
			clordid       TEXT             NOT NULL,
			side          SMALLINT         NOT NULL,
			exec_type     DOUBLE PRECISION,
			exec_price    DOUBLE PRECISION NOT NULL,
			lob_price     DOUBLE PRECISION,
			fill_size     DOUBLE PRECISION NOT NULL,
			level         SMALLINT         NOT NULL,
			match_type    TEXT             NOT NULL,
			hedge_time    TIMESTAMPTZ      NOT NULL,
			mid_price     DOUBLE PRECISION,
			market_spread DOUBLE PRECISION
		)`, ident)
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}

	index := pgx.Identifier{s.table + "_ric_time_idx"}.Sanitize()
	if _, err := s.db.Exec(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (ric, hedge_time)", index, ident,
	)); err != nil {
		return fmt.Errorf("create index on %s: %w", s.table, err)
	}
	return nil
}

// Write copies matches for one RIC and returns the number of rows copied.
func (s *PostgresSink) Write(ctx context.Context, runID uuid.UUID, matches []model.Match) (int64, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	start := time.Now()
	id := pgtype.UUID{Bytes: runID, Valid: true}
	rows := make([][]any, len(matches))
	for i, m := range matches {
		rows[i] = sinkRow(id, m)
	}

	n, err := s.db.CopyFrom(ctx, pgx.Identifier{s.table}, sinkColumns, pgx.CopyFromRows(rows))
	if err != nil {
		s.mu.Lock()
		s.metrics.Errors++
		s.mu.Unlock()
		return 0, fmt.Errorf("copy into %s: %w", s.table, err)
	}

	s.mu.Lock()
	s.metrics.Inserts += n
	s.metrics.Copies++
	s.mu.Unlock()

	s.logger.Debug("copied matches",
		"table", s.table,
		"ric", matches[0].Snapshot.RIC,
		"rows", n,
		"duration", time.Since(start),
	)
	return n, nil
}

// Stats returns current metrics.
func (s *PostgresSink) Stats() SinkMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

func sinkRow(runID pgtype.UUID, m model.Match) []any {
	return []any{
		runID,
		m.Snapshot.RIC,
		m.Snapshot.Time,
		int64(m.Snapshot.Index),
		m.ClOrdID,
		int16(m.Side),
		nullFloat(m.ExecType),
		m.ExecPrice,
		nullFloat(m.LOBPrice),
		m.FillSize,
		int16(m.Level),
		string(m.Type),
		m.HedgeTime,
		nullFloat(m.Snapshot.Features.MidPrice),
		nullFloat(m.Snapshot.Features.MarketSpread),
	}
}

// nullFloat maps NaN to SQL NULL.
func nullFloat(x float64) *float64 {
	if math.IsNaN(x) {
		return nil
	}
	return &x
}
