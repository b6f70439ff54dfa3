package hedge

import (
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/hedge-lob/internal/model"
)

// Stats counts the rows removed by each Prepare step.
type Stats struct {
	Loaded     int
	OtherRIC   int
	Cancels    int
	EmptyFills int
	Duplicates int
	Kept       int
}

// Prepare narrows a Set to one RIC and cleans it for matching:
//
//   - rows for other RICs are dropped (skipped with a warning when the
//     file has no RIC column)
//   - cancel acknowledgements (ORDERQTY 1, EXECTYPE 4) are dropped
//   - rows with CUMQTY and LEAVESQTY both zero are dropped
//   - exact duplicates ignoring TRANSACTTIME are dropped, first kept
//   - the result is stably sorted by TRANSACTTIME, then CUMQTY
func Prepare(set *Set, ric string, logger *slog.Logger) (*Set, Stats) {
	if logger == nil {
		logger = slog.Default()
	}
	stats := Stats{Loaded: set.Len()}

	filterRIC := set.Has(ColRIC)
	if !filterRIC {
		logger.Warn("hedge data has no RIC column, keeping all rows", "ric", ric)
	}
	dropCancels := set.Has(ColOrderQty) && set.Has(ColExecType)
	dropEmpty := set.Has(ColCumQty) && set.Has(ColLeavesQty)

	seen := make(map[string]struct{}, set.Len())
	out := make([]model.HedgeOrder, 0, set.Len())
	for _, o := range set.Orders {
		switch {
		case filterRIC && o.RIC != ric:
			stats.OtherRIC++
			continue
		case dropCancels && o.OrderQty == 1 && o.ExecType == model.ExecTypeCanceled:
			stats.Cancels++
			continue
		case dropEmpty && o.CumQty == 0 && o.LeavesQty == 0:
			stats.EmptyFills++
			continue
		}

		key := dedupeKey(o)
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, o)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Time.Equal(b.Time) {
			return timeBeforeZeroLast(a.Time, b.Time)
		}
		return lessNaNLast(a.CumQty, b.CumQty)
	})

	stats.Kept = len(out)
	logger.Info("hedge data prepared",
		"ric", ric,
		"loaded", stats.Loaded,
		"other_ric", stats.OtherRIC,
		"cancels", stats.Cancels,
		"empty_fills", stats.EmptyFills,
		"duplicates", stats.Duplicates,
		"kept", stats.Kept,
	)
	return set.withOrders(out), stats
}

// dedupeKey identifies a row by every field except its transaction time.
// NaNs compare equal to each other.
func dedupeKey(o model.HedgeOrder) string {
	var b strings.Builder
	str := func(s string) {
		b.WriteString(strconv.Quote(s))
		b.WriteByte('|')
	}
	num := func(f float64) {
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		b.WriteByte('|')
	}
	str(o.ClOrdID)
	num(float64(o.Side))
	num(o.OrderQty)
	num(o.Price)
	str(o.Currency)
	str(o.TimeInForce)
	num(o.MktPrice)
	num(o.Bid)
	num(o.Offer)
	num(o.VWAP)
	str(o.Status)
	num(o.ExecType)
	num(o.CumQty)
	num(o.LeavesQty)
	num(o.ExecPrice)
	str(o.RIC)
	return b.String()
}

// timeBeforeZeroLast orders missing (zero) times after every real time.
func timeBeforeZeroLast(a, b time.Time) bool {
	switch {
	case a.IsZero():
		return false
	case b.IsZero():
		return true
	}
	return a.Before(b)
}

func lessNaNLast(a, b float64) bool {
	switch {
	case math.IsNaN(a):
		return false
	case math.IsNaN(b):
		return true
	}
	return a < b
}
