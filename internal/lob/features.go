package lob

import (
	"math"

	"github.com/rickgao/hedge-lob/internal/model"
)

// Enrich computes public features for every snapshot in the book.
//
// Spread, mid and BBO imbalance come from L1. Cumulative volumes and their
// imbalance run through the book depth with missing sizes counted as zero.
// Diff features are the change from the previous snapshot, zero for the
// first snapshot and wherever either side of the difference is missing.
func Enrich(b *Book) {
	for i := range b.Snapshots {
		var prev *model.Snapshot
		if i > 0 {
			prev = &b.Snapshots[i-1]
		}
		b.Snapshots[i].Features = computeFeatures(&b.Snapshots[i], prev, b.Depth)
	}
}

func computeFeatures(s, prev *model.Snapshot, depth int) model.Features {
	f := model.NewFeatures()
	if depth < 1 {
		return f
	}

	ask, bid := s.Asks[0], s.Bids[0]
	f.MarketSpread = ask.Price - bid.Price
	f.MidPrice = (ask.Price + bid.Price) / 2
	if f.MidPrice != 0 && !math.IsNaN(f.MidPrice) {
		f.BBOImbalance = (bid.Size - ask.Size) / (bid.Size + ask.Size)
	}

	var askVol, bidVol float64
	for i := 0; i < depth; i++ {
		askVol += zeroNaN(s.Asks[i].Size)
		bidVol += zeroNaN(s.Bids[i].Size)
		f.AskVolume[i] = askVol
		f.BidVolume[i] = bidVol
		if bidVol != 0 {
			f.VolumeImbalance[i] = askVol / bidVol
		}

		if prev == nil {
			f.AskPriceDiff[i], f.AskSizeDiff[i] = 0, 0
			f.BidPriceDiff[i], f.BidSizeDiff[i] = 0, 0
			continue
		}
		f.AskPriceDiff[i] = zeroNaN(s.Asks[i].Price - prev.Asks[i].Price)
		f.AskSizeDiff[i] = zeroNaN(s.Asks[i].Size - prev.Asks[i].Size)
		f.BidPriceDiff[i] = zeroNaN(s.Bids[i].Price - prev.Bids[i].Price)
		f.BidSizeDiff[i] = zeroNaN(s.Bids[i].Size - prev.Bids[i].Size)
	}
	return f
}

func zeroNaN(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}
