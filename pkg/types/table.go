// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Table errors. Both signal a wiring mistake rather than dirty data.
var (
	ErrMissingColumn   = errors.New("missing column")
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Source names one upstream feed or archived table. Location is a URL for
// HTTP feeds and a file path for archived snapshots.
type Source struct {
	Label    string `json:"label" yaml:"label"`
	Location string `json:"location" yaml:"location"`
}

// Record is one row of a Table: an ordered mapping from column name to value.
type Record struct {
	columns []string
	values  []Value
}

// Columns returns the record's column names in order.
func (r Record) Columns() []string { return r.columns }

// Values returns the record's values in column order.
func (r Record) Values() []Value { return r.values }

// Get returns the value for column name. The second result is false when
// the record has no such column.
func (r Record) Get(name string) (Value, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	return Null(), false
}

// Table is an ordered sequence of records sharing one column schema.
// The zero Table is empty and usable.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	t := &Table{}
	for _, c := range columns {
		if t.HasColumn(c) {
			continue
		}
		t.addColumn(c)
	}
	return t
}

func (t *Table) addColumn(name string) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for i, c := range t.columns {
		t.index[c] = i
	}
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// HasColumn reports whether the table has a column called name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of column name.
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return i, nil
}

// RequireColumns returns an error naming the first absent column.
func (t *Table) RequireColumns(names ...string) error {
	for _, n := range names {
		if _, err := t.ColumnIndex(n); err != nil {
			return err
		}
	}
	return nil
}

// AppendRow adds a row. vals must have one entry per column.
func (t *Table) AppendRow(vals ...Value) error {
	if len(vals) != len(t.columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(vals), len(t.columns))
	}
	row := make([]Value, len(vals))
	copy(row, vals)
	t.rows = append(t.rows, row)
	return nil
}

// AppendMap adds a row from a column→value map, adding unseen columns in
// the order given by keys and padding earlier rows with null.
func (t *Table) AppendMap(keys []string, vals map[string]Value) {
	for _, k := range keys {
		if !t.HasColumn(k) {
			t.addColumn(k)
			for i := range t.rows {
				t.rows[i] = append(t.rows[i], Null())
			}
		}
	}
	row := make([]Value, len(t.columns))
	for k, v := range vals {
		if i, ok := t.index[k]; ok {
			row[i] = v
		}
	}
	t.rows = append(t.rows, row)
}

// Row returns row i as a Record.
func (t *Table) Row(i int) Record {
	return Record{columns: t.columns, values: t.rows[i]}
}

// Value returns the cell at row i, column name.
func (t *Table) Value(i int, name string) (Value, error) {
	c, err := t.ColumnIndex(name)
	if err != nil {
		return Null(), err
	}
	return t.rows[i][c], nil
}

// Column returns a copy of the values of column name.
func (t *Table) Column(name string) ([]Value, error) {
	c, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[c]
	}
	return out, nil
}

// SetColumn replaces the values of an existing column.
func (t *Table) SetColumn(name string, vals []Value) error {
	c, err := t.ColumnIndex(name)
	if err != nil {
		return err
	}
	if len(vals) != len(t.rows) {
		return fmt.Errorf("column %q: got %d values for %d rows", name, len(vals), len(t.rows))
	}
	for i := range t.rows {
		t.rows[i][c] = vals[i]
	}
	return nil
}

// MapColumn rewrites column name in place with fn.
func (t *Table) MapColumn(name string, fn func(Value) Value) error {
	c, err := t.ColumnIndex(name)
	if err != nil {
		return err
	}
	for i := range t.rows {
		t.rows[i][c] = fn(t.rows[i][c])
	}
	return nil
}

// AppendColumn adds a new last column. A nil vals fills the column with null.
func (t *Table) AppendColumn(name string, vals []Value) error {
	return t.InsertColumn(len(t.columns), name, vals)
}

// InsertColumn adds a new column at position pos. A nil vals fills the
// column with null.
func (t *Table) InsertColumn(pos int, name string, vals []Value) error {
	if t.HasColumn(name) {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	if pos < 0 || pos > len(t.columns) {
		return fmt.Errorf("column position %d out of range [0,%d]", pos, len(t.columns))
	}
	if vals != nil && len(vals) != len(t.rows) {
		return fmt.Errorf("column %q: got %d values for %d rows", name, len(vals), len(t.rows))
	}
	t.columns = insertAt(t.columns, pos, name)
	for i := range t.rows {
		v := Null()
		if vals != nil {
			v = vals[i]
		}
		t.rows[i] = insertAt(t.rows[i], pos, v)
	}
	t.reindex()
	return nil
}

// FillColumn sets every cell of column name to v, adding the column at
// position pos when it does not exist yet. An existing column is moved to pos.
func (t *Table) FillColumn(pos int, name string, v Value) error {
	vals := make([]Value, len(t.rows))
	for i := range vals {
		vals[i] = v
	}
	if !t.HasColumn(name) {
		return t.InsertColumn(pos, name, vals)
	}
	if err := t.SetColumn(name, vals); err != nil {
		return err
	}
	return t.MoveColumn(name, pos)
}

// MoveColumn moves column name to position pos.
func (t *Table) MoveColumn(name string, pos int) error {
	from, err := t.ColumnIndex(name)
	if err != nil {
		return err
	}
	if pos < 0 || pos >= len(t.columns) {
		return fmt.Errorf("column position %d out of range [0,%d)", pos, len(t.columns))
	}
	if from == pos {
		return nil
	}
	t.columns = move(t.columns, from, pos)
	for i := range t.rows {
		t.rows[i] = move(t.rows[i], from, pos)
	}
	t.reindex()
	return nil
}

// Concat stacks tables vertically. The result's columns are the union of
// the inputs' columns in first-seen order; cells a table lacks are null.
// Nil tables are skipped.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.columns {
			if !out.HasColumn(c) {
				out.addColumn(c)
			}
		}
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		pos := make([]int, len(t.columns))
		for i, c := range t.columns {
			pos[i] = out.index[c]
		}
		for _, row := range t.rows {
			merged := make([]Value, len(out.columns))
			for i, v := range row {
				merged[pos[i]] = v
			}
			out.rows = append(out.rows, merged)
		}
	}
	return out
}

func insertAt[T any](s []T, pos int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[pos+1:], s[pos:])
	s[pos] = v
	return s
}

func move[T any](s []T, from, to int) []T {
	v := s[from]
	s = append(s[:from], s[from+1:]...)
	return insertAt(s, to, v)
}
