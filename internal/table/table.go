package table

import (
	"errors"
	"sort"
)

// Sentinel errors returned by the reshapers.
var (
	// ErrFormat indicates a payload whose shape matches no recognized schema.
	ErrFormat = errors.New("unexpected payload shape")

	// ErrUnknownLayout indicates a bulk layout outside the supported set.
	ErrUnknownLayout = errors.New("unknown bulk layout")
)

// Table is a rectangular time-indexed result. The index is ascending and
// unique; a nil cell means no value was observed for that (time, column)
// combination.
type Table struct {
	Index   []int64
	Columns []string
	Values  [][]*float64 // row-major: Values[i][j] belongs to Index[i], Columns[j]
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Index)
}

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool {
	return len(t.Index) == 0
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the named column's cells aligned with the index, or nil if
// the column does not exist.
func (t *Table) Column(name string) []*float64 {
	j := t.ColumnIndex(name)
	if j < 0 {
		return nil
	}
	col := make([]*float64, len(t.Index))
	for i := range t.Index {
		col[i] = t.Values[i][j]
	}
	return col
}

// builder accumulates (time, column, value) cells and materializes a Table
// with a sorted unique index. Column order follows registration order;
// duplicate (time, column) writes keep the last value.
type builder struct {
	colIndex map[string]int
	columns  []string
	times    map[int64]struct{}
	cells    map[cellKey]*float64
}

type cellKey struct {
	t   int64
	col int
}

func newBuilder() *builder {
	return &builder{
		colIndex: make(map[string]int),
		times:    make(map[int64]struct{}),
		cells:    make(map[cellKey]*float64),
	}
}

// column registers a column if new and returns its position.
func (b *builder) column(name string) int {
	if i, ok := b.colIndex[name]; ok {
		return i
	}
	i := len(b.columns)
	b.colIndex[name] = i
	b.columns = append(b.columns, name)
	return i
}

// addColumns registers columns up front to fix their order.
func (b *builder) addColumns(names ...string) {
	for _, n := range names {
		b.column(n)
	}
}

// touch registers a timestamp without setting any cell.
func (b *builder) touch(t int64) {
	b.times[t] = struct{}{}
}

func (b *builder) set(t int64, col string, v *float64) {
	b.times[t] = struct{}{}
	b.cells[cellKey{t, b.column(col)}] = v
}

func (b *builder) build() *Table {
	index := make([]int64, 0, len(b.times))
	for t := range b.times {
		index = append(index, t)
	}
	sort.Slice(index, func(i, j int) bool { return index[i] < index[j] })

	values := make([][]*float64, len(index))
	for i, t := range index {
		row := make([]*float64, len(b.columns))
		for j := range b.columns {
			row[j] = b.cells[cellKey{t, j}]
		}
		values[i] = row
	}

	columns := b.columns
	if columns == nil {
		columns = []string{}
	}

	return &Table{Index: index, Columns: columns, Values: values}
}
