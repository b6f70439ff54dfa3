package writer

import (
	"fmt"

	"github.com/rickgao/hedge-lob/internal/model"
	"github.com/rickgao/hedge-lob/internal/parquetio"
)

// Output column names.
const (
	ColRIC          = "Alias Underlying RIC"
	ColLOBTime      = "lob_time"
	ColMarketSpread = "MarketSpread"
	ColMidPrice     = "MidPrice"
	ColBBOImbalance = "BBOImbalance"
	ColLOBIndex     = "original_lob_index"
	ColClOrdID      = "matched_hedge_clordid"
	ColExecPrice    = "matched_hedge_exec_price"
	ColLOBPrice     = "matched_lob_price_at_level"
	ColSide         = "matched_hedge_side"
	ColExecType     = "matched_hedge_exectype"
	ColHedgeTime    = "matched_hedge_time"
	ColFillSize     = "matched_hedge_this_fill_size"
	ColLevel        = "matched_lob_level_interacted"
	ColMatchType    = "match_type"
	ColRunID        = "run_id"
)

var levelSuffixes = []string{"AskPrice", "AskSize", "BidPrice", "BidSize"}

// Fields returns the file output columns for a book of the given depth, in
// write order.
func Fields(depth int) []parquetio.Field {
	fields := []parquetio.Field{
		{Name: ColRIC, Type: parquetio.String},
		{Name: ColLOBTime, Type: parquetio.Timestamp},
	}
	for i := 1; i <= depth; i++ {
		for _, s := range levelSuffixes {
			fields = append(fields, parquetio.Field{Name: fmt.Sprintf("L%d-%s", i, s), Type: parquetio.Float})
		}
	}

	fields = append(fields,
		parquetio.Field{Name: ColMarketSpread, Type: parquetio.Float},
		parquetio.Field{Name: ColMidPrice, Type: parquetio.Float},
		parquetio.Field{Name: ColBBOImbalance, Type: parquetio.Float},
	)
	for i := 1; i <= depth; i++ {
		fields = append(fields,
			parquetio.Field{Name: fmt.Sprintf("L%d-AskVolume", i), Type: parquetio.Float},
			parquetio.Field{Name: fmt.Sprintf("L%d-BidVolume", i), Type: parquetio.Float},
			parquetio.Field{Name: fmt.Sprintf("L%d-VolumeImbalance", i), Type: parquetio.Float},
		)
	}
	for i := 1; i <= depth; i++ {
		for _, s := range levelSuffixes {
			fields = append(fields, parquetio.Field{Name: fmt.Sprintf("L%d-%s-diff", i, s), Type: parquetio.Float})
		}
	}

	return append(fields,
		parquetio.Field{Name: ColLOBIndex, Type: parquetio.Int},
		parquetio.Field{Name: ColClOrdID, Type: parquetio.String},
		parquetio.Field{Name: ColExecPrice, Type: parquetio.Float},
		parquetio.Field{Name: ColLOBPrice, Type: parquetio.Float},
		parquetio.Field{Name: ColSide, Type: parquetio.Int},
		parquetio.Field{Name: ColExecType, Type: parquetio.Float},
		parquetio.Field{Name: ColHedgeTime, Type: parquetio.Timestamp},
		parquetio.Field{Name: ColFillSize, Type: parquetio.Float},
		parquetio.Field{Name: ColLevel, Type: parquetio.Int},
		parquetio.Field{Name: ColMatchType, Type: parquetio.String},
		parquetio.Field{Name: ColRunID, Type: parquetio.String},
	)
}

// rowValues flattens a match into values lining up with Fields(depth).
func rowValues(m model.Match, depth int, runID string) []any {
	s := m.Snapshot
	f := s.Features

	values := make([]any, 0, 2+depth*15+14)
	values = append(values, s.RIC, s.Time)
	for i := 0; i < depth; i++ {
		values = append(values, s.Asks[i].Price, s.Asks[i].Size, s.Bids[i].Price, s.Bids[i].Size)
	}

	values = append(values, f.MarketSpread, f.MidPrice, f.BBOImbalance)
	for i := 0; i < depth; i++ {
		values = append(values, f.AskVolume[i], f.BidVolume[i], f.VolumeImbalance[i])
	}
	for i := 0; i < depth; i++ {
		values = append(values, f.AskPriceDiff[i], f.AskSizeDiff[i], f.BidPriceDiff[i], f.BidSizeDiff[i])
	}

	return append(values,
		s.Index,
		m.ClOrdID,
		m.ExecPrice,
		m.LOBPrice,
		int(m.Side),
		m.ExecType,
		m.HedgeTime,
		m.FillSize,
		m.Level,
		string(m.Type),
		runID,
	)
}
