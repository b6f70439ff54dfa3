package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/hedge-lob/internal/hedge"
	"github.com/rickgao/hedge-lob/internal/matching"
	"github.com/rickgao/hedge-lob/internal/report"
)

// Request selects what a run processes.
type Request struct {
	Index  string // LOB directory prefix, e.g. FTSE
	RIC    string // Optional; all RICs in the LOB data when empty
	Family string // Hedge family directory; the RIC's two-letter prefix when empty
}

// Status is the outcome of one RIC.
type Status string

const (
	StatusMatched     Status = "matched"
	StatusNoMatches   Status = "no_matches"
	StatusNoLOBData   Status = "no_lob_data"
	StatusNoHedgeData Status = "no_hedge_data"
	StatusFailed      Status = "failed"
)

// RICResult records what happened to one RIC.
type RICResult struct {
	RIC       string
	Status    Status
	Reason    string
	Snapshots int // Prepared LOB snapshots
	Hedge     hedge.Stats
	TickSize  float64
	Report    matching.Report
	Levels    map[int]int // Signed level -> matches
	Output    string
	DBRows    int64
	Duration  time.Duration
	Err       error
}

// Summary is the outcome of a run.
type Summary struct {
	RunID     uuid.UUID
	Index     string
	Started   time.Time
	Duration  time.Duration
	Snapshots int // Loaded before per-RIC filtering
	Depth     int
	Results   []RICResult
}

// Count returns how many RICs ended with status.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Matches returns the total matched fills.
func (s *Summary) Matches() int {
	n := 0
	for _, r := range s.Results {
		n += r.Report.Matched
	}
	return n
}

// Report converts the summary into workbook content.
func (s *Summary) Report() report.Summary {
	out := report.Summary{
		RunID:    s.RunID.String(),
		Index:    s.Index,
		Started:  s.Started,
		Duration: s.Duration,
	}
	for _, r := range s.Results {
		row := report.Row{
			RIC:       r.RIC,
			Status:    string(r.Status),
			Snapshots: r.Snapshots,
			HedgeRows: r.Hedge.Kept,
			Attempted: r.Report.Attempted,
			Matched:   r.Report.Matched,
			Exact:     r.Report.Exact,
			Fuzzy:     r.Report.Fuzzy,
			Rate:      r.Report.Rate(),
			TickSize:  r.TickSize,
			Output:    r.Output,
			Levels:    r.Levels,
		}
		if r.Err != nil {
			row.Error = r.Err.Error()
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
