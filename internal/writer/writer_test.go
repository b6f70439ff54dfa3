package writer

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/hedge-lob/internal/layout"
	"github.com/rickgao/hedge-lob/internal/model"
	"github.com/rickgao/hedge-lob/internal/parquetio"
	"github.com/rickgao/hedge-lob/internal/testutil"
)

const testRunID = "6f1c1e0a-3c1b-4f7e-9a0e-2b8c7d5e4f10"

func testMatch(level int, typ model.MatchType) model.Match {
	s := model.NewSnapshot("FFIH4", testutil.At(time.Second))
	s.Index = 7
	s.Asks[0] = model.Level{Price: 100, Size: 5}
	s.Bids[0] = model.Level{Price: 99.5, Size: 6}
	s.Features.MidPrice = 99.75
	s.Features.MarketSpread = 0.5

	m := model.Match{
		Snapshot:  s,
		ClOrdID:   "A1",
		ExecPrice: 100,
		LOBPrice:  math.NaN(),
		Side:      model.SideBuy,
		ExecType:  1,
		HedgeTime: testutil.At(1500 * time.Millisecond),
		FillSize:  2,
		Level:     level,
		Type:      typ,
	}
	if typ == model.MatchFuzzy {
		m.LOBPrice = 100.5
	}
	return m
}

func TestFields(t *testing.T) {
	fields := Fields(2)
	require.Len(t, fields, 2+2*4+3+2*3+2*4+11)

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{ColRIC, ColLOBTime, "L1-AskPrice", "L1-AskSize", "L1-BidPrice", "L1-BidSize"}, names[:6])
	assert.Contains(t, names, "L2-VolumeImbalance")
	assert.Contains(t, names, "L2-BidSize-diff")
	assert.Equal(t, ColRunID, names[len(names)-1])

	values := rowValues(testMatch(1, model.MatchExact), 2, testRunID)
	assert.Len(t, values, len(fields))
}

func TestFileWriter_Parquet(t *testing.T) {
	l := layout.Layout{OutputDir: filepath.Join(t.TempDir(), "out")}
	w := NewFileWriter(FileConfig{Compression: "zstd"}, l, nil)

	matches := []model.Match{testMatch(1, model.MatchExact), testMatch(-2, model.MatchFuzzy)}
	path, err := w.Write("FFIH4", matches, 2, testRunID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.OutputDir, "FFIH4_matched_lob_hedge.parquet"), path)

	r, err := parquetio.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var got []parquetio.Record
	require.NoError(t, r.Scan(context.Background(), func(rec parquetio.Record) error {
		got = append(got, rec)
		return nil
	}))
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "FFIH4", first.String(ColRIC))
	lobTime, ok := first.Time(ColLOBTime)
	require.True(t, ok)
	assert.True(t, lobTime.Equal(testutil.At(time.Second)))
	assert.Equal(t, 100.0, first.Float("L1-AskPrice"))
	assert.True(t, math.IsNaN(first.Float("L2-AskPrice")))
	assert.Equal(t, 99.75, first.Float(ColMidPrice))
	assert.Equal(t, 7.0, first.Float(ColLOBIndex))
	assert.Equal(t, "A1", first.String(ColClOrdID))
	assert.True(t, math.IsNaN(first.Float(ColLOBPrice)))
	assert.Equal(t, 1.0, first.Float(ColLevel))
	assert.Equal(t, "exact", first.String(ColMatchType))
	assert.Equal(t, testRunID, first.String(ColRunID))

	assert.Equal(t, -2.0, got[1].Float(ColLevel))
	assert.Equal(t, 100.5, got[1].Float(ColLOBPrice))
	assert.Equal(t, "fuzzy", got[1].String(ColMatchType))

	assert.Equal(t, FileMetrics{ParquetFiles: 1, Rows: 2}, w.Stats())

	leftovers, err := filepath.Glob(filepath.Join(l.OutputDir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(outputMode), info.Mode().Perm())
	}
}

func TestFileWriter_ParquetColumnOrder(t *testing.T) {
	const depth = 3
	l := layout.Layout{OutputDir: t.TempDir()}
	w := NewFileWriter(FileConfig{Compression: "snappy"}, l, nil)

	path, err := w.Write("FFIH4", []model.Match{testMatch(1, model.MatchExact)}, depth, testRunID)
	require.NoError(t, err)

	r, err := parquetio.Open(path)
	require.NoError(t, err)
	defer r.Close()

	var want, got []string
	for _, f := range Fields(depth) {
		want = append(want, f.Name)
	}
	for _, c := range r.Columns() {
		got = append(got, c.Name)
	}
	assert.Equal(t, want, got)
}

func TestFileWriter_CSVFallback(t *testing.T) {
	l := layout.Layout{OutputDir: t.TempDir()}
	w := NewFileWriter(FileConfig{Compression: "bogus"}, l, nil)

	path, err := w.Write("FFIH4", []model.Match{testMatch(1, model.MatchExact)}, 1, testRunID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.OutputDir, "FFIH4_matched_lob_hedge.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header, row := records[0], records[1]
	require.Len(t, row, len(header))
	col := func(name string) string {
		for i, h := range header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("column %q not in header", name)
		return ""
	}

	assert.Equal(t, "FFIH4", col(ColRIC))
	assert.Equal(t, "2024-03-01 08:00:01", col(ColLOBTime))
	assert.Equal(t, "2024-03-01 08:00:01.5", col(ColHedgeTime))
	assert.Equal(t, "100", col("L1-AskPrice"))
	assert.Equal(t, "", col(ColLOBPrice))
	assert.Equal(t, "7", col(ColLOBIndex))
	assert.Equal(t, testRunID, col(ColRunID))

	assert.Equal(t, FileMetrics{CSVFiles: 1, Rows: 1}, w.Stats())

	_, err = os.Stat(filepath.Join(l.OutputDir, "FFIH4_matched_lob_hedge.parquet"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileWriter_FallbackDisabled(t *testing.T) {
	l := layout.Layout{OutputDir: t.TempDir()}
	w := NewFileWriter(FileConfig{Compression: "bogus", DisableCSVFallback: true}, l, nil)

	_, err := w.Write("FFIH4", []model.Match{testMatch(1, model.MatchExact)}, 1, testRunID)
	require.Error(t, err)
	assert.Equal(t, int64(1), w.Stats().Errors)

	entries, err := os.ReadDir(l.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFormatCSV(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{math.NaN(), ""},
		{0.25, "0.25"},
		{-3, "-3"},
		{"x", "x"},
		{time.Time{}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCSV(tt.in))
	}
}

// fakeDB records statements and copied rows.
type fakeDB struct {
	execs   []string
	table   pgx.Identifier
	columns []string
	rows    [][]any
	copyErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) CopyFrom(_ context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.table, f.columns = table, columns
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.rows = append(f.rows, values)
	}
	return int64(len(f.rows)), src.Err()
}

func TestPostgresSink_EnsureTable(t *testing.T) {
	db := &fakeDB{}
	sink := NewPostgresSink(db, "hedge_lob_matches", nil)

	require.NoError(t, sink.EnsureTable(context.Background()))
	require.Len(t, db.execs, 2)
	assert.Contains(t, db.execs[0], `CREATE TABLE IF NOT EXISTS "hedge_lob_matches"`)
	assert.Contains(t, db.execs[1], `"hedge_lob_matches_ric_time_idx"`)
}

func TestPostgresSink_Write(t *testing.T) {
	db := &fakeDB{}
	sink := NewPostgresSink(db, "hedge_lob_matches", nil)
	runID := uuid.MustParse(testRunID)

	n, err := sink.Write(context.Background(), runID, []model.Match{
		testMatch(1, model.MatchExact),
		testMatch(-2, model.MatchFuzzy),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, pgx.Identifier{"hedge_lob_matches"}, db.table)
	assert.Equal(t, sinkColumns, db.columns)
	require.Len(t, db.rows, 2)

	row := db.rows[0]
	require.Len(t, row, len(sinkColumns))
	assert.Equal(t, pgtype.UUID{Bytes: runID, Valid: true}, row[0])
	assert.Equal(t, "FFIH4", row[1])
	assert.Equal(t, int64(7), row[3])
	assert.Equal(t, int16(1), row[5])
	assert.Nil(t, row[8], "exact match has no lob price")
	assert.Equal(t, int16(-2), db.rows[1][10])
	assert.Equal(t, 100.5, *db.rows[1][8].(*float64))

	assert.Equal(t, SinkMetrics{Inserts: 2, Copies: 1}, sink.Stats())
}

func TestPostgresSink_WriteEmpty(t *testing.T) {
	db := &fakeDB{}
	n, err := NewPostgresSink(db, "t", nil).Write(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Nil(t, db.table)
}

func TestPostgresSink_CopyError(t *testing.T) {
	db := &fakeDB{copyErr: errors.New("connection reset")}
	sink := NewPostgresSink(db, "hedge_lob_matches", nil)

	_, err := sink.Write(context.Background(), uuid.New(), []model.Match{testMatch(1, model.MatchExact)})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "copy into hedge_lob_matches"))
	assert.Equal(t, int64(1), sink.Stats().Errors)
}
