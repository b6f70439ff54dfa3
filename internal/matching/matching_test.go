package matching

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/hedge-lob/internal/hedge"
	"github.com/rickgao/hedge-lob/internal/lob"
	"github.com/rickgao/hedge-lob/internal/model"
	"github.com/rickgao/hedge-lob/internal/testutil"
)

const ric = "FFIH4"

// snapshot builds a 3-level book: asks bestAsk, +0.5, +1.0 and bids bestBid,
// -0.5, -1.0, all with the given size.
func snapshot(at time.Duration, bestBid, bestAsk, size float64) model.Snapshot {
	s := model.NewSnapshot(ric, testutil.At(at))
	for i := 0; i < 3; i++ {
		s.Asks[i] = model.Level{Price: bestAsk + 0.5*float64(i), Size: size}
		s.Bids[i] = model.Level{Price: bestBid - 0.5*float64(i), Size: size}
	}
	return s
}

func book(snaps ...model.Snapshot) *lob.Book {
	b := lob.Prepare(snaps, ric, 3)
	lob.Enrich(b)
	return b
}

func fill(id string, side model.Side, at time.Duration, cum, price float64) model.HedgeOrder {
	return model.HedgeOrder{
		ClOrdID:   id,
		Side:      side,
		Time:      testutil.At(at),
		ExecType:  model.ExecTypePartialFill,
		CumQty:    cum,
		ExecPrice: price,
		RIC:       ric,
	}
}

func run(t *testing.T, cfg Config, orders *hedge.Set, b *lob.Book) *Result {
	t.Helper()
	res, err := NewEngine(cfg, nil).Match(context.Background(), orders, b)
	require.NoError(t, err)
	return res
}

func TestWindow(t *testing.T) {
	var times []time.Time
	for i := 0; i <= 10; i++ {
		times = append(times, testutil.At(time.Duration(i)*time.Second))
	}

	tests := []struct {
		name       string
		at         time.Duration
		start, end int
	}{
		{"inside", 3 * time.Second, 2, 9},
		{"bounds inclusive", 1 * time.Second, 0, 7},
		{"near end", 9500 * time.Millisecond, 9, 11},
		{"before all", -10 * time.Second, 0, 0},
		{"after all", 20 * time.Second, 11, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Window(times, testutil.At(tt.at), time.Second, 5*time.Second)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestWindow_Empty(t *testing.T) {
	start, end := Window(nil, testutil.T0, time.Second, 5*time.Second)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}

func TestMatch_ExactBuy(t *testing.T) {
	b := book(snapshot(0, 99.5, 100, 5), snapshot(2*time.Second, 100, 100.5, 5))
	orders := hedge.NewSet([]model.HedgeOrder{
		fill("A1", model.SideBuy, time.Second, 2, 100.5),
	}, nil)

	res := run(t, DefaultConfig(0.5), orders, b)
	require.Len(t, res.Matches, 1)

	m := res.Matches[0]
	assert.Equal(t, model.MatchExact, m.Type)
	// Snapshot 0 quotes 100.5 at L2, snapshot 1 at L1.
	assert.Equal(t, 1, m.Level)
	assert.Equal(t, 1, m.Snapshot.Index)
	assert.Equal(t, "A1", m.ClOrdID)
	assert.Equal(t, 2.0, m.FillSize)
	assert.True(t, math.IsNaN(m.LOBPrice))
	assert.Equal(t, Report{RIC: ric, Attempted: 1, Matched: 1, Exact: 1, TickSize: 0.5, Threshold: DefaultThreshold}, res.Report)
}

func TestMatch_SellUsesBids(t *testing.T) {
	b := book(snapshot(0, 99.5, 100, 5))
	orders := hedge.NewSet([]model.HedgeOrder{
		fill("S1", model.SideSell, 0, 1, 99),
	}, nil)

	res := run(t, DefaultConfig(0.5), orders, b)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, -2, res.Matches[0].Level)
	assert.Equal(t, model.SideSell, res.Matches[0].Side)
}

func TestMatch_Fuzzy(t *testing.T) {
	b := book(snapshot(0, 99.5, 100, 5))
	orders := hedge.NewSet([]model.HedgeOrder{
		fill("A1", model.SideBuy, 0, 1, 100.25),
	}, nil)

	res := run(t, DefaultConfig(0.5), orders, b)
	require.Len(t, res.Matches, 1)

	m := res.Matches[0]
	assert.Equal(t, model.MatchFuzzy, m.Type)
	assert.Equal(t, 1, m.Level)
	assert.Equal(t, 100.0, m.LOBPrice)
	assert.Equal(t, 100.25, m.ExecPrice)
	assert.Equal(t, 1, res.Report.Fuzzy)
}

func TestMatch_ExactBeatsShallowerFuzzy(t *testing.T) {
	b := book(snapshot(0, 99.5, 100, 5))
	orders := hedge.NewSet([]model.HedgeOrder{
		fill("A1", model.SideBuy, 0, 1, 101),
	}, nil)

	res := run(t, DefaultConfig(0.5), orders, b)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, model.MatchExact, res.Matches[0].Type)
	assert.Equal(t, 3, res.Matches[0].Level)
}

func TestMatch_ShallowestLevelWins(t *testing.T) {
	// 100.5 is L2 in the first snapshot and L1 in the later one.
	b := book(snapshot(0, 99.5, 100, 5), snapshot(3*time.Second, 100, 100.5, 5))
	orders := hedge.NewSet([]model.HedgeOrder{
		fill("A1", model.SideBuy, 0, 1, 100.5),
	}, nil)

	res := run(t, DefaultConfig(0.5), orders, b)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Matches[0].Level)
	assert.Equal(t, 1, res.Matches[0].Snapshot.Index)
}

func TestMatch_SizeMustFit(t *testing.T) {
	small := snapshot(0, 99.5, 100, 1)
	big := snapshot(time.Second, 99.5, 100, 10)
	b := book(small, big)
	orders := hedge.NewSet([]model.HedgeOrder{
		fill("A1", model.SideBuy, 0, 4, 100),
	}, nil)

	res := run(t, DefaultConfig(0.5), orders, b)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Matches[0].Snapshot.Index)
	assert.Equal(t, 10.0, res.Matches[0].Snapshot.Asks[0].Size)
}

func TestMatch_FillSizeFromCumQty(t *testing.T) {
	b := book(snapshot(0, 99.5, 100, 3))
	orders := hedge.NewSet([]model.HedgeOrder{
		fill("A1", model.SideBuy, 0, 2, 100),
		fill("A1", model.SideBuy, 0, 5, 100),
		// Cumulative quantity unchanged: nothing filled.
		fill("A1", model.SideBuy, 0, 5, 100),
	}, nil)

	res := run(t, DefaultConfig(0.5), orders, b)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, 2.0, res.Matches[0].FillSize)
	assert.Equal(t, 3.0, res.Matches[1].FillSize)
	assert.Equal(t, 3, res.Report.Attempted)
}

func TestMatch_SkipsNonFills(t *testing.T) {
	b := book(snapshot(0, 99.5, 100, 5))
	ack := fill("A1", model.SideBuy, 0, 1, 100)
	ack.ExecType = 0
	unknown := fill("B1", model.SideBuy, 0, 1, 100)
	unknown.ExecType = math.NaN()

	res := run(t, DefaultConfig(0.5), hedge.NewSet([]model.HedgeOrder{ack, unknown}, nil), b)
	assert.Empty(t, res.Matches)
	assert.Zero(t, res.Report.Attempted)

	// Without an EXECTYPE column every row is a candidate.
	noExec := hedge.NewSet([]model.HedgeOrder{ack, unknown},
		[]string{hedge.ColClOrdID, hedge.ColSide, hedge.ColTransact, hedge.ColCumQty, hedge.ColExecPrice})
	res = run(t, DefaultConfig(0.5), noExec, b)
	assert.Equal(t, 2, res.Report.Attempted)
	assert.Equal(t, 2, res.Report.Matched)
}

func TestMatch_Unmatched(t *testing.T) {
	b := book(snapshot(0, 99.5, 100, 5))

	late := fill("L1", model.SideBuy, 2*time.Second, 1, 100)
	bad := fill("X1", 3, 0, 1, 100)
	noPrice := fill("P1", model.SideBuy, 0, 1, math.NaN())
	far := fill("F1", model.SideBuy, 0, 1, 105)

	orders := hedge.NewSet([]model.HedgeOrder{late, bad, noPrice, far}, nil)
	res := run(t, DefaultConfig(0.5), orders, b)

	assert.Empty(t, res.Matches)
	assert.Equal(t, 4, res.Report.Attempted)
	assert.Zero(t, res.Report.Rate())
}

func TestMatch_ThresholdExtendsWindow(t *testing.T) {
	b := book(snapshot(4*time.Second, 99.5, 100, 5))
	orders := hedge.NewSet([]model.HedgeOrder{fill("A1", model.SideBuy, 0, 1, 100)}, nil)

	cfg := DefaultConfig(0.5)
	cfg.Threshold = 3 * time.Second
	res := run(t, cfg, orders, b)
	assert.Empty(t, res.Matches)

	cfg.Threshold = 4 * time.Second
	res = run(t, cfg, orders, b)
	assert.Len(t, res.Matches, 1)
}

func TestMatch_ZeroWindowEdges(t *testing.T) {
	b := book(
		snapshot(0, 99.5, 100, 5),
		snapshot(time.Second, 99.5, 100.5, 5),
		snapshot(2*time.Second, 99.5, 100, 5),
	)
	orders := hedge.NewSet([]model.HedgeOrder{fill("A1", model.SideBuy, time.Second, 1, 100)}, nil)

	cfg := DefaultConfig(0)
	cfg.Threshold = 0
	require.Equal(t, time.Duration(0), NewEngine(cfg, nil).Config().Threshold)

	// Lookback still reaches the snapshot at 0s.
	res := run(t, cfg, orders, b)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, testutil.At(0), res.Matches[0].Snapshot.Time)

	// With both edges at the fill time only the 1s snapshot is searched,
	// and its best ask is 100.5.
	cfg.Lookback = 0
	require.Equal(t, time.Duration(0), NewEngine(cfg, nil).Config().Lookback)
	res = run(t, cfg, orders, b)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 1, res.Report.Attempted)
}

func TestMatch_DepthLimit(t *testing.T) {
	b := book(snapshot(0, 99.5, 100, 5))
	orders := hedge.NewSet([]model.HedgeOrder{fill("A1", model.SideBuy, 0, 1, 101)}, nil)

	cfg := DefaultConfig(0.1)
	cfg.Depth = 2
	res := run(t, cfg, orders, b)
	assert.Empty(t, res.Matches)
}

func TestMatch_Empty(t *testing.T) {
	res := run(t, Config{}, hedge.NewSet(nil, nil), book())
	assert.Empty(t, res.Matches)
	assert.Zero(t, res.Report.Attempted)
}

func TestMatch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := book(snapshot(0, 99.5, 100, 5))
	orders := hedge.NewSet([]model.HedgeOrder{fill("A1", model.SideBuy, 0, 1, 100)}, nil)
	_, err := NewEngine(Config{}, nil).Match(ctx, orders, b)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReport(t *testing.T) {
	r := Report{RIC: ric, Attempted: 4, Matched: 3, Exact: 2, Fuzzy: 1, TickSize: 0.5}
	assert.InDelta(t, 0.75, r.Rate(), 1e-12)
	assert.Equal(t, "FFIH4: matched 3/4 fills (75.00%), exact=2 fuzzy=1 (tick 0.5000)", r.String())

	assert.Equal(t, "FFIH4: no fill events attempted", Report{RIC: ric}.String())
}
