package lob

import (
	"fmt"

	"github.com/rickgao/hedge-lob/internal/model"
)

// Source column names.
const (
	ColRIC  = "Alias Underlying RIC"
	ColTime = "Date-Time"
)

// AskPriceCol returns the ask price column for a 1-based level.
func AskPriceCol(level int) string { return fmt.Sprintf("L%d-AskPrice", level) }

// AskSizeCol returns the ask size column for a 1-based level.
func AskSizeCol(level int) string { return fmt.Sprintf("L%d-AskSize", level) }

// BidPriceCol returns the bid price column for a 1-based level.
func BidPriceCol(level int) string { return fmt.Sprintf("L%d-BidPrice", level) }

// BidSizeCol returns the bid size column for a 1-based level.
func BidSizeCol(level int) string { return fmt.Sprintf("L%d-BidSize", level) }

// columnSet is satisfied by parquetio.Reader.
type columnSet interface {
	Has(name string) bool
}

// depthOf returns how many consecutive levels, starting at L1, have all
// four price and size columns.
func depthOf(cols columnSet) int {
	for level := 1; level <= model.MaxDepth; level++ {
		if !cols.Has(AskPriceCol(level)) || !cols.Has(AskSizeCol(level)) ||
			!cols.Has(BidPriceCol(level)) || !cols.Has(BidSizeCol(level)) {
			return level - 1
		}
	}
	return model.MaxDepth
}
