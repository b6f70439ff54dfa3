package hedge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/rickgao/hedge-lob/internal/model"
	"github.com/rickgao/hedge-lob/internal/parquetio"
)

// Source column names.
const (
	ColClOrdID     = "CLORDID"
	ColSide        = "SIDE"
	ColOrderQty    = "ORDERQTY"
	ColPrice       = "PRICE"
	ColCurrency    = "CURRENCY"
	ColTimeInForce = "TIMEINFORCE"
	ColMktPrice    = "MKT_PRICE"
	ColBid         = "BID"
	ColOffer       = "OFFER"
	ColVWAP        = "VWAP"
	ColStatus      = "STATUS"
	ColTransact    = "TRANSACTTIME"
	ColExecType    = "EXECTYPE"
	ColCumQty      = "CUMQTY"
	ColLeavesQty   = "LEAVESQTY"
	ColExecPrice   = "EXEC_PRICE"
	ColRIC         = "RIC"
)

// RelevantColumns are the columns kept from the source file.
var RelevantColumns = []string{
	ColClOrdID, ColSide, ColOrderQty, ColPrice, ColCurrency,
	ColTimeInForce, ColMktPrice, ColBid, ColOffer, ColVWAP,
	ColStatus, ColTransact, ColExecType, ColCumQty,
	ColLeavesQty, ColExecPrice, ColRIC,
}

var (
	// ErrHedgeFileNotFound is returned when a RIC has no hedge file.
	ErrHedgeFileNotFound = errors.New("hedge file not found")

	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
)

// Set is a batch of hedge rows plus the columns its source carried.
type Set struct {
	Orders  []model.HedgeOrder
	columns map[string]bool
}

// NewSet builds a Set. A nil columns slice means every relevant column.
func NewSet(orders []model.HedgeOrder, columns []string) *Set {
	if columns == nil {
		columns = RelevantColumns
	}
	s := &Set{Orders: orders, columns: make(map[string]bool, len(columns))}
	for _, c := range columns {
		s.columns[c] = true
	}
	return s
}

// Has reports whether the source carried a column.
func (s *Set) Has(col string) bool {
	return s.columns[col]
}

// Len returns the number of rows.
func (s *Set) Len() int {
	return len(s.Orders)
}

func (s *Set) withOrders(orders []model.HedgeOrder) *Set {
	return &Set{Orders: orders, columns: s.columns}
}

// Load reads a hedge file. Missing optional columns are logged.
func Load(ctx context.Context, path string, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrHedgeFileNotFound, path)
		}
		return nil, fmt.Errorf("stat hedge file: %w", err)
	}

	r, err := parquetio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if !r.Has(ColTransact) {
		return nil, fmt.Errorf("%w: %s in %s", ErrMissingColumn, ColTransact, path)
	}

	var present, missing []string
	for _, col := range RelevantColumns {
		if r.Has(col) {
			present = append(present, col)
		} else {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		logger.Warn("hedge data missing expected columns",
			"file", path,
			"columns", missing,
		)
	}

	orders := make([]model.HedgeOrder, 0, r.NumRows())
	err = r.Scan(ctx, func(rec parquetio.Record) error {
		orders = append(orders, decodeOrder(rec))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("hedge data loaded", "file", path, "records", len(orders))
	return NewSet(orders, present), nil
}

func decodeOrder(rec parquetio.Record) model.HedgeOrder {
	t, _ := rec.Time(ColTransact)
	side := rec.Float(ColSide)
	o := model.HedgeOrder{
		ClOrdID:     rec.String(ColClOrdID),
		OrderQty:    rec.Float(ColOrderQty),
		Price:       rec.Float(ColPrice),
		Currency:    rec.String(ColCurrency),
		TimeInForce: rec.String(ColTimeInForce),
		MktPrice:    rec.Float(ColMktPrice),
		Bid:         rec.Float(ColBid),
		Offer:       rec.Float(ColOffer),
		VWAP:        rec.Float(ColVWAP),
		Status:      rec.String(ColStatus),
		Time:        t,
		ExecType:    rec.Float(ColExecType),
		CumQty:      rec.Float(ColCumQty),
		LeavesQty:   rec.Float(ColLeavesQty),
		ExecPrice:   rec.Float(ColExecPrice),
		RIC:         rec.String(ColRIC),
	}
	if side == float64(model.SideBuy) || side == float64(model.SideSell) {
		o.Side = model.Side(side)
	}
	return o
}
