// Package report writes a run summary workbook.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheet names.
const (
	SummarySheet = "Summary"
	LevelsSheet  = "Levels"
)

// Summary is the workbook content for one run.
type Summary struct {
	RunID    string
	Index    string
	Started  time.Time
	Duration time.Duration
	Rows     []Row
}

// Row is one RIC's outcome.
type Row struct {
	RIC       string
	Status    string
	Snapshots int
	HedgeRows int
	Attempted int
	Matched   int
	Exact     int
	Fuzzy     int
	Rate      float64
	TickSize  float64
	Output    string
	Error     string
	Levels    map[int]int // Signed level -> matches
}

var summaryHeader = []any{
	"RIC", "Status", "Snapshots", "Hedge Rows", "Attempted", "Matched",
	"Exact", "Fuzzy", "Match Rate", "Tick Size", "Output", "Error",
}

var levelsHeader = []any{"RIC", "Level", "Side", "Matches"}

// rateCol is the 1-based column of Match Rate in the summary sheet.
const rateCol = 9

// Write saves the workbook to path.
func Write(path string, s Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LevelsSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", LevelsSheet, err)
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       fmt.Sprintf("Hedge matching %s", s.Index),
		Subject:     s.RunID,
		Description: fmt.Sprintf("started %s, took %s", s.Started.UTC().Format(time.RFC3339), s.Duration.Round(time.Millisecond)),
		Creator:     "hedgematch",
	}); err != nil {
		return fmt.Errorf("set doc props: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	if err := writeSummary(f, s.Rows, bold, percent); err != nil {
		return err
	}
	if err := writeLevels(f, s.Rows, bold); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeSummary(f *excelize.File, rows []Row, bold, percent int) error {
	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeader); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	if err := f.SetRowStyle(SummarySheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.RIC, r.Status, r.Snapshots, r.HedgeRows, r.Attempted, r.Matched,
			r.Exact, r.Fuzzy, r.Rate, r.TickSize, r.Output, r.Error,
		}
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			return fmt.Errorf("write summary row %s: %w", r.RIC, err)
		}
	}

	if len(rows) > 0 {
		top, _ := excelize.CoordinatesToCellName(rateCol, 2)
		bottom, _ := excelize.CoordinatesToCellName(rateCol, len(rows)+1)
		if err := f.SetCellStyle(SummarySheet, top, bottom, percent); err != nil {
			return fmt.Errorf("style match rate: %w", err)
		}
	}
	return f.SetColWidth(SummarySheet, "K", "K", 60)
}

func writeLevels(f *excelize.File, rows []Row, bold int) error {
	if err := f.SetSheetRow(LevelsSheet, "A1", &levelsHeader); err != nil {
		return fmt.Errorf("write levels header: %w", err)
	}
	if err := f.SetRowStyle(LevelsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style levels header: %w", err)
	}

	line := 2
	for _, r := range rows {
		levels := make([]int, 0, len(r.Levels))
		for lvl := range r.Levels {
			levels = append(levels, lvl)
		}
		sort.Ints(levels)

		for _, lvl := range levels {
			cell, err := excelize.CoordinatesToCellName(1, line)
			if err != nil {
				return err
			}
			values := []any{r.RIC, lvl, sideOf(lvl), r.Levels[lvl]}
			if err := f.SetSheetRow(LevelsSheet, cell, &values); err != nil {
				return fmt.Errorf("write levels row %s: %w", r.RIC, err)
			}
			line++
		}
	}
	return nil
}

func sideOf(level int) string {
	if level < 0 {
		return "bid"
	}
	return "ask"
}
