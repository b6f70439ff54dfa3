package parquetio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/deprecated"
)

// readBatch is the number of rows pulled from a row group per call.
const readBatch = 256

// Column describes one leaf column of a file.
type Column struct {
	Name  string
	Index int
	Kind  parquet.Kind
	Unit  time.Duration // Timestamp unit; 0 when the column is not a timestamp
}

// IsTimestamp reports whether the column carries a timestamp logical type.
func (c Column) IsTimestamp() bool {
	return c.Unit != 0
}

// Reader reads rows from one parquet file.
type Reader struct {
	path    string
	f       *os.File
	file    *parquet.File
	columns []Column
	byName  map[string]int
}

// Open opens a parquet file and reads its schema.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read parquet footer %s: %w", path, err)
	}

	r := &Reader{
		path:   path,
		f:      f,
		file:   pf,
		byName: make(map[string]int),
	}

	schema := pf.Schema()
	for _, colPath := range schema.Columns() {
		leaf, ok := schema.Lookup(colPath...)
		if !ok {
			continue
		}
		col := Column{
			Name:  strings.Join(colPath, "."),
			Index: leaf.ColumnIndex,
			Kind:  leaf.Node.Type().Kind(),
			Unit:  timestampUnit(leaf.Node.Type()),
		}
		r.byName[col.Name] = len(r.columns)
		r.columns = append(r.columns, col)
	}

	return r, nil
}

// Path returns the file path.
func (r *Reader) Path() string { return r.path }

// Columns returns the leaf columns in schema order.
func (r *Reader) Columns() []Column {
	out := make([]Column, len(r.columns))
	copy(out, r.columns)
	return out
}

// Has reports whether the file has a column with the given name.
func (r *Reader) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// NumRows returns the total row count from the footer.
func (r *Reader) NumRows() int64 {
	return r.file.NumRows()
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Scan calls fn for every row in file order. The Record is only valid for
// the duration of the call. Scan stops at the first error from fn.
func (r *Reader) Scan(ctx context.Context, fn func(Record) error) error {
	rec := Record{
		r:      r,
		values: make([]parquet.Value, len(r.columns)),
		seen:   make([]bool, len(r.columns)),
	}
	buf := make([]parquet.Row, readBatch)

	for _, rg := range r.file.RowGroups() {
		if err := r.scanGroup(ctx, rg, buf, &rec, fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) scanGroup(ctx context.Context, rg parquet.RowGroup, buf []parquet.Row, rec *Record, fn func(Record) error) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := rows.ReadRows(buf)
		for _, row := range buf[:n] {
			rec.reset(row)
			if ferr := fn(*rec); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read rows %s: %w", r.path, err)
		}
		if n == 0 {
			return nil
		}
	}
}

// Record is a single row addressed by column name.
type Record struct {
	r      *Reader
	values []parquet.Value
	seen   []bool
}

func (rec *Record) reset(row parquet.Row) {
	for i := range rec.seen {
		rec.seen[i] = false
	}
	for _, v := range row {
		pos := v.Column()
		if pos < 0 || pos >= len(rec.values) {
			continue
		}
		rec.values[pos] = v
		rec.seen[pos] = true
	}
}

func (rec Record) lookup(name string) (parquet.Value, Column, bool) {
	pos, ok := rec.r.byName[name]
	if !ok || !rec.seen[pos] || rec.values[pos].IsNull() {
		return parquet.Value{}, Column{}, false
	}
	return rec.values[pos], rec.r.columns[pos], true
}

// Float returns the column as float64, or NaN when null, absent, or not
// numeric. Numeric strings are parsed.
func (rec Record) Float(name string) float64 {
	v, _, ok := rec.lookup(name)
	if !ok {
		return math.NaN()
	}
	switch v.Kind() {
	case parquet.Double:
		return v.Double()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Int32:
		return float64(v.Int32())
	case parquet.Int64:
		return float64(v.Int64())
	case parquet.Boolean:
		if v.Boolean() {
			return 1
		}
		return 0
	case parquet.ByteArray, parquet.FixedLenByteArray:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v.ByteArray())), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// String returns the column as a string, or "" when null or absent.
// Numbers are formatted without trailing zeros.
func (rec Record) String(name string) string {
	v, _, ok := rec.lookup(name)
	if !ok {
		return ""
	}
	switch v.Kind() {
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'f', -1, 32)
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	}
	return ""
}

// timeLayouts are accepted for timestamps stored as strings.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Time returns the column as a UTC time. INT64 columns without a timestamp
// logical type are read as nanoseconds since the epoch.
func (rec Record) Time(name string) (time.Time, bool) {
	v, col, ok := rec.lookup(name)
	if !ok {
		return time.Time{}, false
	}
	switch v.Kind() {
	case parquet.Int64:
		unit := col.Unit
		if unit == 0 {
			unit = time.Nanosecond
		}
		return time.Unix(0, 0).Add(time.Duration(v.Int64()) * unit).UTC(), true
	case parquet.ByteArray:
		s := strings.TrimSpace(string(v.ByteArray()))
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// timestampUnit returns the resolution of a TIMESTAMP column, or 0.
func timestampUnit(t parquet.Type) time.Duration {
	if lt := t.LogicalType(); lt != nil && lt.Timestamp != nil {
		switch {
		case lt.Timestamp.Unit.Nanos != nil:
			return time.Nanosecond
		case lt.Timestamp.Unit.Micros != nil:
			return time.Microsecond
		case lt.Timestamp.Unit.Millis != nil:
			return time.Millisecond
		}
	}
	if ct := t.ConvertedType(); ct != nil {
		switch *ct {
		case deprecated.TimestampMicros:
			return time.Microsecond
		case deprecated.TimestampMillis:
			return time.Millisecond
		}
	}
	return 0
}
