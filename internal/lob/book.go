package lob

import (
	"sort"
	"time"

	"github.com/rickgao/hedge-lob/internal/model"
)

// Book is the prepared, time-sorted LOB for a single RIC.
type Book struct {
	RIC       string
	Depth     int
	Snapshots []model.Snapshot
}

// Len returns the number of snapshots.
func (b *Book) Len() int { return len(b.Snapshots) }

// Times returns the snapshot times in book order.
func (b *Book) Times() []time.Time {
	out := make([]time.Time, len(b.Snapshots))
	for i, s := range b.Snapshots {
		out[i] = s.Time
	}
	return out
}

// Prepare builds a Book for one RIC: other RICs and rows without a time are
// dropped, the rest are stably sorted by time and numbered in that order.
// Rows sharing a timestamp are kept in load order.
func Prepare(snapshots []model.Snapshot, ric string, depth int) *Book {
	b := &Book{RIC: ric, Depth: depth}
	for _, s := range snapshots {
		if s.RIC != ric || s.Time.IsZero() {
			continue
		}
		b.Snapshots = append(b.Snapshots, s)
	}

	sort.SliceStable(b.Snapshots, func(i, j int) bool {
		return b.Snapshots[i].Time.Before(b.Snapshots[j].Time)
	})

	for i := range b.Snapshots {
		b.Snapshots[i].Index = i
	}
	return b
}
