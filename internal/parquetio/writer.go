package parquetio

import (
	"fmt"
	"io"
	"math"
	"reflect"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
)

// writeBatch is the number of rows buffered before handing them to parquet.
const writeBatch = 1024

// FieldType is the logical type of an output field.
type FieldType int

const (
	Float FieldType = iota
	Int
	String
	Timestamp // Stored as INT64 TIMESTAMP(NANOS)
)

// Field is one output column.
type Field struct {
	Name string
	Type FieldType
}

// Writer writes rows of a fixed field list to a parquet stream.
type Writer struct {
	pw     *parquet.Writer
	fields []Field
	colIdx []int // Field position -> parquet column index
	rows   []parquet.Row
}

// orderedGroup is a group node whose fields keep insertion order.
// parquet.Group sorts its fields by name.
type orderedGroup struct {
	parquet.Group
	fields []parquet.Field
}

func (g *orderedGroup) Fields() []parquet.Field { return g.fields }

// namedNode gives a leaf node its column name.
type namedNode struct {
	parquet.Node
	name string
}

func (n namedNode) Name() string { return n.name }

func (n namedNode) Value(base reflect.Value) reflect.Value {
	if base.Kind() == reflect.Map {
		return base.MapIndex(reflect.ValueOf(n.name))
	}
	return reflect.Value{}
}

// NewWriter creates a writer for the given fields. File columns follow the
// order of fields.
func NewWriter(out io.Writer, name string, fields []Field, compression string) (*Writer, error) {
	codec, err := Codec(compression)
	if err != nil {
		return nil, err
	}

	group := &orderedGroup{
		Group:  make(parquet.Group, len(fields)),
		fields: make([]parquet.Field, 0, len(fields)),
	}
	for _, f := range fields {
		if _, dup := group.Group[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		node, err := leafNode(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		node = parquet.Optional(node)
		group.Group[f.Name] = node
		group.fields = append(group.fields, namedNode{Node: node, name: f.Name})
	}
	schema := parquet.NewSchema(name, group)

	colIdx := make([]int, len(fields))
	for i, f := range fields {
		leaf, ok := schema.Lookup(f.Name)
		if !ok {
			return nil, fmt.Errorf("field %q missing from schema", f.Name)
		}
		colIdx[i] = leaf.ColumnIndex
	}

	return &Writer{
		pw:     parquet.NewWriter(out, schema, parquet.Compression(codec)),
		fields: fields,
		colIdx: colIdx,
		rows:   make([]parquet.Row, 0, writeBatch),
	}, nil
}

// Codec maps a compression name to a parquet codec.
func Codec(name string) (compress.Codec, error) {
	switch name {
	case "snappy":
		return &parquet.Snappy, nil
	case "gzip":
		return &parquet.Gzip, nil
	case "zstd":
		return &parquet.Zstd, nil
	case "lz4":
		return &parquet.Lz4Raw, nil
	case "none", "":
		return &parquet.Uncompressed, nil
	}
	return nil, fmt.Errorf("unknown compression %q", name)
}

func leafNode(t FieldType) (parquet.Node, error) {
	switch t {
	case Float:
		return parquet.Leaf(parquet.DoubleType), nil
	case Int:
		return parquet.Int(64), nil
	case String:
		return parquet.String(), nil
	case Timestamp:
		return parquet.Timestamp(parquet.Nanosecond), nil
	}
	return nil, fmt.Errorf("unknown field type %d", t)
}

// Write appends one row. Values must line up with the writer's fields.
// nil, NaN and the zero time are written as nulls.
func (w *Writer) Write(values ...any) error {
	if len(values) != len(w.fields) {
		return fmt.Errorf("row has %d values, want %d", len(values), len(w.fields))
	}

	row := make(parquet.Row, len(values))
	for i, raw := range values {
		v, err := toValue(w.fields[i], raw)
		if err != nil {
			return err
		}
		col := w.colIdx[i]
		if v.IsNull() {
			row[col] = parquet.Value{}.Level(0, 0, col)
		} else {
			row[col] = v.Level(0, 1, col)
		}
	}

	w.rows = append(w.rows, row)
	if len(w.rows) >= writeBatch {
		return w.flush()
	}
	return nil
}

func (w *Writer) flush() error {
	if len(w.rows) == 0 {
		return nil
	}
	if _, err := w.pw.WriteRows(w.rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	w.rows = w.rows[:0]
	return nil
}

// Close flushes buffered rows and writes the footer.
func (w *Writer) Close() error {
	if err := w.flush(); err != nil {
		return err
	}
	if err := w.pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

func toValue(f Field, raw any) (parquet.Value, error) {
	if raw == nil {
		return parquet.Value{}, nil
	}
	switch f.Type {
	case Float:
		x, ok := raw.(float64)
		if !ok {
			return parquet.Value{}, fmt.Errorf("field %q: want float64, got %T", f.Name, raw)
		}
		if math.IsNaN(x) {
			return parquet.Value{}, nil
		}
		return parquet.DoubleValue(x), nil
	case Int:
		switch x := raw.(type) {
		case int:
			return parquet.Int64Value(int64(x)), nil
		case int64:
			return parquet.Int64Value(x), nil
		}
		return parquet.Value{}, fmt.Errorf("field %q: want int, got %T", f.Name, raw)
	case String:
		x, ok := raw.(string)
		if !ok {
			return parquet.Value{}, fmt.Errorf("field %q: want string, got %T", f.Name, raw)
		}
		return parquet.ByteArrayValue([]byte(x)), nil
	case Timestamp:
		x, ok := raw.(time.Time)
		if !ok {
			return parquet.Value{}, fmt.Errorf("field %q: want time.Time, got %T", f.Name, raw)
		}
		if x.IsZero() {
			return parquet.Value{}, nil
		}
		return parquet.Int64Value(x.UnixNano()), nil
	}
	return parquet.Value{}, fmt.Errorf("field %q: unknown type %d", f.Name, f.Type)
}
