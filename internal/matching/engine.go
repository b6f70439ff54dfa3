package matching

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rickgao/hedge-lob/internal/hedge"
	"github.com/rickgao/hedge-lob/internal/lob"
	"github.com/rickgao/hedge-lob/internal/model"
)

// Defaults used by DefaultConfig.
const (
	DefaultThreshold = 5 * time.Second
	DefaultLookback  = time.Second
	DefaultEpsilon   = 1e-9
)

// checkEvery is how many hedge rows are processed between context checks.
const checkEvery = 1024

// Config controls one matching run.
type Config struct {
	Threshold time.Duration // Window extends this far after the fill
	Lookback  time.Duration // Window extends this far before the fill
	TickSize  float64       // Fuzzy tolerance
	Epsilon   float64       // Float tolerance on price comparisons
	Depth     int           // Levels to search; capped at the book depth
}

// DefaultConfig returns the standard window and tolerances for tick.
func DefaultConfig(tick float64) Config {
	return Config{
		Threshold: DefaultThreshold,
		Lookback:  DefaultLookback,
		TickSize:  tick,
		Epsilon:   DefaultEpsilon,
		Depth:     model.MaxDepth,
	}
}

// withDefaults fills the tolerances only. A zero Threshold or Lookback is a
// real window edge at the fill time.
func (c Config) withDefaults() Config {
	if c.Epsilon == 0 {
		c.Epsilon = DefaultEpsilon
	}
	if c.Depth <= 0 || c.Depth > model.MaxDepth {
		c.Depth = model.MaxDepth
	}
	return c
}

// Report summarizes a matching run.
type Report struct {
	RIC       string
	Attempted int
	Matched   int
	Exact     int
	Fuzzy     int
	TickSize  float64
	Threshold time.Duration
}

// Rate returns the fraction of attempted fills that matched, or 0 when
// nothing was attempted.
func (r Report) Rate() float64 {
	if r.Attempted == 0 {
		return 0
	}
	return float64(r.Matched) / float64(r.Attempted)
}

// String formats the report on one line.
func (r Report) String() string {
	if r.Attempted == 0 {
		return fmt.Sprintf("%s: no fill events attempted", r.RIC)
	}
	return fmt.Sprintf("%s: matched %d/%d fills (%.2f%%), exact=%d fuzzy=%d (tick %.4f)",
		r.RIC, r.Matched, r.Attempted, r.Rate()*100, r.Exact, r.Fuzzy, r.TickSize)
}

// Result is the output of Engine.Match.
type Result struct {
	Matches []model.Match
	Report  Report
}

// Engine matches hedge fills against a prepared book.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates an engine.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg.withDefaults(), logger: logger}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Match runs both passes for every fill in orders. orders must be prepared
// (see hedge.Prepare) and book enriched (see lob.Enrich).
func (e *Engine) Match(ctx context.Context, orders *hedge.Set, book *lob.Book) (*Result, error) {
	res := &Result{Report: Report{
		RIC:       book.RIC,
		TickSize:  e.cfg.TickSize,
		Threshold: e.cfg.Threshold,
	}}

	if orders.Len() == 0 || book.Len() == 0 {
		e.logger.Info("nothing to match",
			"ric", book.RIC,
			"hedge_rows", orders.Len(),
			"snapshots", book.Len(),
		)
		return res, nil
	}

	depth := e.cfg.Depth
	if book.Depth < depth {
		depth = book.Depth
	}
	times := book.Times()
	fillsOnly := orders.Has(hedge.ColExecType)
	hasCumQty := orders.Has(hedge.ColCumQty)

	for i, o := range orders.Orders {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if fillsOnly && !o.IsFill() {
			continue
		}
		res.Report.Attempted++

		if o.Time.IsZero() {
			continue
		}
		start, end := Window(times, o.Time, e.cfg.Lookback, e.cfg.Threshold)
		if start >= end {
			continue
		}

		sign, ok := levelSign(o.Side)
		if !ok {
			continue
		}

		var prev *model.HedgeOrder
		if i > 0 {
			prev = &orders.Orders[i-1]
		}
		size := fillSize(o, prev, hasCumQty)
		if !(size > 0) || math.IsNaN(o.ExecPrice) {
			continue
		}

		m, found := e.search(book.Snapshots[start:end], o, size, depth, false)
		if !found {
			m, found = e.search(book.Snapshots[start:end], o, size, depth, true)
		}
		if !found {
			e.logger.Debug("fill unmatched",
				"ric", book.RIC,
				"clordid", o.ClOrdID,
				"exec_price", o.ExecPrice,
				"fill_size", size,
			)
			continue
		}
		m.Level *= sign

		res.Matches = append(res.Matches, m)
		res.Report.Matched++
		if m.Type == model.MatchExact {
			res.Report.Exact++
		} else {
			res.Report.Fuzzy++
		}
	}

	e.logger.Info("matching complete",
		"ric", book.RIC,
		"attempted", res.Report.Attempted,
		"matched", res.Report.Matched,
		"exact", res.Report.Exact,
		"fuzzy", res.Report.Fuzzy,
		"rate", res.Report.Rate(),
		"tick_size", e.cfg.TickSize,
		"threshold", e.cfg.Threshold,
	)
	return res, nil
}

// search scans levels 1..depth, and within each level the window's
// snapshots in time order. The fuzzy pass accepts prices within a tick.
func (e *Engine) search(window []model.Snapshot, o model.HedgeOrder, size float64, depth int, fuzzy bool) (model.Match, bool) {
	for level := 0; level < depth; level++ {
		for _, s := range window {
			lvl := s.Asks[level]
			if o.Side == model.SideSell {
				lvl = s.Bids[level]
			}
			if math.IsNaN(lvl.Price) || math.IsNaN(lvl.Size) {
				continue
			}

			diff := math.Abs(lvl.Price - o.ExecPrice)
			if !fuzzy && !(diff < e.cfg.Epsilon) {
				continue
			}
			if fuzzy && !(diff <= e.cfg.TickSize+e.cfg.Epsilon) {
				continue
			}
			if size > lvl.Size {
				continue
			}

			m := model.Match{
				Snapshot:  s,
				ClOrdID:   o.ClOrdID,
				ExecPrice: o.ExecPrice,
				LOBPrice:  math.NaN(),
				Side:      o.Side,
				ExecType:  o.ExecType,
				HedgeTime: o.Time,
				FillSize:  size,
				Level:     level + 1,
				Type:      model.MatchExact,
			}
			if fuzzy {
				m.LOBPrice = lvl.Price
				m.Type = model.MatchFuzzy
			}
			return m, true
		}
	}
	return model.Match{}, false
}

// levelSign maps a side to the book it trades against: buys lift asks (+1),
// sells hit bids (-1).
func levelSign(side model.Side) (int, bool) {
	switch side {
	case model.SideBuy:
		return 1, true
	case model.SideSell:
		return -1, true
	}
	return 0, false
}

// fillSize is the quantity executed by o. Consecutive rows of one order
// carry a running CUMQTY, so the fill is the increase over prev.
func fillSize(o model.HedgeOrder, prev *model.HedgeOrder, hasCumQty bool) float64 {
	if !hasCumQty {
		return 0
	}
	if prev != nil && prev.ClOrdID == o.ClOrdID {
		return o.CumQty - prev.CumQty
	}
	if o.CumQty > 0 {
		return o.CumQty
	}
	return 0
}
