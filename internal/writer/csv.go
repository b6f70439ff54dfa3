package writer

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/rickgao/hedge-lob/internal/model"
	"github.com/rickgao/hedge-lob/internal/parquetio"
)

// csvTimeLayout matches the timestamp text the parquet reader accepts.
const csvTimeLayout = "2006-01-02 15:04:05.999999999"

func writeCSV(path string, fields []parquetio.Field, matches []model.Match, depth int, runID string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := make([]string, len(fields))
	for i, fd := range fields {
		header[i] = fd.Name
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(fields))
	for _, m := range matches {
		for i, v := range rowValues(m, depth, runID) {
			record[i] = formatCSV(v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return f.Close()
}

// formatCSV renders a value; NaN and the zero time become empty cells.
func formatCSV(v any) string {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.UTC().Format(csvTimeLayout)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
