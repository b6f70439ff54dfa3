// Package testutil writes parquet fixtures shaped like the vendor LOB and
// hedge files.
package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rickgao/hedge-lob/internal/model"
	"github.com/rickgao/hedge-lob/internal/parquetio"
)

// T0 is a fixed session time used across fixtures.
var T0 = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// At returns T0 plus d.
func At(d time.Duration) time.Time { return T0.Add(d) }

// LOBRow is one snapshot row. Missing levels are written as nulls.
type LOBRow struct {
	RIC  string
	Time time.Time
	Asks []model.Level
	Bids []model.Level
}

// Book returns a row whose level i (0-based) is bestAsk+i*tick / bestBid-i*tick
// with the given size on every level.
func Book(ric string, t time.Time, bestBid, bestAsk, tick, size float64, depth int) LOBRow {
	row := LOBRow{RIC: ric, Time: t}
	for i := 0; i < depth; i++ {
		row.Asks = append(row.Asks, model.Level{Price: bestAsk + float64(i)*tick, Size: size})
		row.Bids = append(row.Bids, model.Level{Price: bestBid - float64(i)*tick, Size: size})
	}
	return row
}

// WriteLOB writes rows to path with L1..depth columns.
func WriteLOB(t testing.TB, path string, depth int, rows []LOBRow) {
	t.Helper()

	fields := []parquetio.Field{
		{Name: "Alias Underlying RIC", Type: parquetio.String},
		{Name: "Date-Time", Type: parquetio.Timestamp},
	}
	for level := 1; level <= depth; level++ {
		fields = append(fields,
			parquetio.Field{Name: fmt.Sprintf("L%d-AskPrice", level), Type: parquetio.Float},
			parquetio.Field{Name: fmt.Sprintf("L%d-AskSize", level), Type: parquetio.Float},
			parquetio.Field{Name: fmt.Sprintf("L%d-BidPrice", level), Type: parquetio.Float},
			parquetio.Field{Name: fmt.Sprintf("L%d-BidSize", level), Type: parquetio.Float},
		)
	}

	writeTable(t, path, fields, len(rows), func(i int) []any {
		r := rows[i]
		values := []any{r.RIC, r.Time}
		for level := 0; level < depth; level++ {
			ask, bid := levelAt(r.Asks, level), levelAt(r.Bids, level)
			values = append(values, ask.Price, ask.Size, bid.Price, bid.Size)
		}
		return values
	})
}

func levelAt(levels []model.Level, i int) model.Level {
	if i < len(levels) {
		return levels[i]
	}
	return model.EmptyLevel()
}

// HedgeRow is one execution report. NaN numbers are written as nulls.
type HedgeRow struct {
	ClOrdID   string
	Side      int
	OrderQty  float64
	Time      time.Time
	ExecType  float64
	CumQty    float64
	LeavesQty float64
	ExecPrice float64
	RIC       string
}

// Fill returns a fill row with the remaining columns filled in plausibly.
func Fill(clordid string, side int, t time.Time, cumQty, leavesQty, execPrice float64, ric string) HedgeRow {
	return HedgeRow{
		ClOrdID:   clordid,
		Side:      side,
		OrderQty:  cumQty + leavesQty,
		Time:      t,
		ExecType:  model.ExecTypePartialFill,
		CumQty:    cumQty,
		LeavesQty: leavesQty,
		ExecPrice: execPrice,
		RIC:       ric,
	}
}

// WriteHedge writes rows to path with every column the pipeline reads.
func WriteHedge(t testing.TB, path string, rows []HedgeRow) {
	t.Helper()

	fields := []parquetio.Field{
		{Name: "CLORDID", Type: parquetio.String},
		{Name: "SIDE", Type: parquetio.Int},
		{Name: "ORDERQTY", Type: parquetio.Float},
		{Name: "PRICE", Type: parquetio.Float},
		{Name: "CURRENCY", Type: parquetio.String},
		{Name: "TIMEINFORCE", Type: parquetio.Int},
		{Name: "MKT_PRICE", Type: parquetio.Float},
		{Name: "BID", Type: parquetio.Float},
		{Name: "OFFER", Type: parquetio.Float},
		{Name: "VWAP", Type: parquetio.Float},
		{Name: "STATUS", Type: parquetio.Int},
		{Name: "TRANSACTTIME", Type: parquetio.Timestamp},
		{Name: "EXECTYPE", Type: parquetio.Float},
		{Name: "CUMQTY", Type: parquetio.Float},
		{Name: "LEAVESQTY", Type: parquetio.Float},
		{Name: "EXEC_PRICE", Type: parquetio.Float},
		{Name: "RIC", Type: parquetio.String},
	}

	writeTable(t, path, fields, len(rows), func(i int) []any {
		r := rows[i]
		return []any{
			r.ClOrdID, r.Side, r.OrderQty, math.NaN(), "GBP", 0,
			math.NaN(), math.NaN(), math.NaN(), math.NaN(), 1,
			r.Time, r.ExecType, r.CumQty, r.LeavesQty, r.ExecPrice, r.RIC,
		}
	})
}

func writeTable(t testing.TB, path string, fields []parquetio.Field, n int, row func(i int) []any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := parquetio.NewWriter(f, "fixture", fields, "snappy")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, w.Write(row(i)...))
	}
	require.NoError(t, w.Close())
}
