package model

import (
	"math"
	"time"
)

// MaxDepth is the number of book levels carried in each snapshot.
const MaxDepth = 10

// -----------------------------------------------------------------------------
// Order Book Types
// -----------------------------------------------------------------------------

// Level is one price level on one side of the book.
type Level struct {
	Price float64
	Size  float64
}

// EmptyLevel returns a level with no price or size.
func EmptyLevel() Level {
	return Level{Price: math.NaN(), Size: math.NaN()}
}

// Snapshot is one LOB row: the top MaxDepth levels of both sides at a time.
type Snapshot struct {
	RIC   string    // Alias Underlying RIC
	Time  time.Time // Date-Time
	Index int       // Position in the prepared, time-sorted book
	Asks  [MaxDepth]Level
	Bids  [MaxDepth]Level

	Features Features // Filled by lob.Enrich
}

// Features are public order-book features derived from a snapshot and its
// predecessor in the book.
type Features struct {
	MarketSpread float64 // L1 ask - L1 bid
	MidPrice     float64 // (L1 ask + L1 bid) / 2
	BBOImbalance float64 // (bid size - ask size) / (bid size + ask size) at L1

	AskVolume       [MaxDepth]float64 // Cumulative ask size through level i
	BidVolume       [MaxDepth]float64 // Cumulative bid size through level i
	VolumeImbalance [MaxDepth]float64 // AskVolume / BidVolume

	AskPriceDiff [MaxDepth]float64 // Change from the previous snapshot
	AskSizeDiff  [MaxDepth]float64
	BidPriceDiff [MaxDepth]float64
	BidSizeDiff  [MaxDepth]float64
}

// NewSnapshot returns a snapshot with every level and feature set to NaN.
func NewSnapshot(ric string, t time.Time) Snapshot {
	s := Snapshot{RIC: ric, Time: t}
	for i := range s.Asks {
		s.Asks[i] = EmptyLevel()
		s.Bids[i] = EmptyLevel()
	}
	s.Features = NewFeatures()
	return s
}

// NewFeatures returns features with every value set to NaN.
func NewFeatures() Features {
	nan := math.NaN()
	f := Features{MarketSpread: nan, MidPrice: nan, BBOImbalance: nan}
	for i := 0; i < MaxDepth; i++ {
		f.AskVolume[i] = nan
		f.BidVolume[i] = nan
		f.VolumeImbalance[i] = nan
		f.AskPriceDiff[i] = nan
		f.AskSizeDiff[i] = nan
		f.BidPriceDiff[i] = nan
		f.BidSizeDiff[i] = nan
	}
	return f
}

// -----------------------------------------------------------------------------
// Hedge Types
// -----------------------------------------------------------------------------

// Side is the FIX side of a hedge order.
type Side int

const (
	SideBuy  Side = 1
	SideSell Side = 2
)

// FIX ExecType values used by the pipeline.
const (
	ExecTypePartialFill = 1
	ExecTypeFill        = 2
	ExecTypeCanceled    = 4
)

// HedgeOrder is one execution report row for a hedge order.
type HedgeOrder struct {
	ClOrdID     string
	Side        Side
	OrderQty    float64
	Price       float64
	Currency    string
	TimeInForce string
	MktPrice    float64
	Bid         float64
	Offer       float64
	VWAP        float64
	Status      string
	Time        time.Time // TRANSACTTIME
	ExecType    float64   // NaN when unknown
	CumQty      float64
	LeavesQty   float64
	ExecPrice   float64
	RIC         string
}

// IsFill reports whether the row is a partial or final fill.
func (o HedgeOrder) IsFill() bool {
	return o.ExecType == ExecTypePartialFill || o.ExecType == ExecTypeFill
}

// -----------------------------------------------------------------------------
// Match Types
// -----------------------------------------------------------------------------

// MatchType records how the execution price was found in the book.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// Match pairs a hedge fill with the book snapshot and level it traded against.
type Match struct {
	Snapshot Snapshot

	ClOrdID   string
	ExecPrice float64
	LOBPrice  float64 // Price at the matched level; NaN for exact matches
	Side      Side
	ExecType  float64
	HedgeTime time.Time
	FillSize  float64
	Level     int // +i for ask level i (buys), -i for bid level i (sells)
	Type      MatchType
}
