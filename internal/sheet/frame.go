// Package sheet holds the in-memory pharmacy table and its spreadsheet and CSV codecs.
package sheet

import "fmt"

// Frame is a column-named table of cell values. A nil cell is a missing value.
//
// Cells hold string, int, float64, bool or nil.
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]any
}

// NewFrame creates an empty table with the given columns.
func NewFrame(columns []string) *Frame {
	f := &Frame{
		columns: append([]string(nil), columns...),
	}
	f.reindex()

	return f
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.columns))
	for i, c := range f.columns {
		f.index[c] = i
	}
}

// Columns returns a copy of the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.rows)
}

// Has reports whether column name exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// AppendRow adds a row, padding with nil or truncating to the column count.
func (f *Frame) AppendRow(values []any) {
	row := make([]any, len(f.columns))
	copy(row, values)
	f.rows = append(f.rows, row)
}

// Value returns the cell at row i in column name. ok is false when the column is absent.
func (f *Frame) Value(i int, name string) (any, bool) {
	c, ok := f.index[name]
	if !ok {
		return nil, false
	}

	return f.rows[i][c], true
}

// Row returns a copy of row i.
func (f *Frame) Row(i int) []any {
	return append([]any(nil), f.rows[i]...)
}

// Apply replaces every cell of column name with fn(cell). It returns false when the column is absent.
func (f *Frame) Apply(name string, fn func(any) any) bool {
	c, ok := f.index[name]
	if !ok {
		return false
	}

	for _, row := range f.rows {
		row[c] = fn(row[c])
	}

	return true
}

// SetColumn fills column name with fn(row), appending the column when it does not exist yet.
func (f *Frame) SetColumn(name string, fn func(i int) any) {
	c, ok := f.index[name]
	if !ok {
		f.columns = append(f.columns, name)
		c = len(f.columns) - 1
		f.index[name] = c

		for i := range f.rows {
			f.rows[i] = append(f.rows[i], nil)
		}
	}

	for i, row := range f.rows {
		row[c] = fn(i)
	}
}

// Rename renames columns present in mapping. Absent sources are ignored.
func (f *Frame) Rename(mapping map[string]string) error {
	renamed := append([]string(nil), f.columns...)
	for i, c := range renamed {
		if to, ok := mapping[c]; ok {
			renamed[i] = to
		}
	}

	seen := make(map[string]bool, len(renamed))
	for _, c := range renamed {
		if seen[c] {
			return fmt.Errorf("rename produces duplicate column %q", c)
		}
		seen[c] = true
	}

	f.columns = renamed
	f.reindex()

	return nil
}

// Drop removes the named columns. Absent names are ignored.
func (f *Frame) Drop(names ...string) {
	drop := make(map[int]bool)
	for _, n := range names {
		if c, ok := f.index[n]; ok {
			drop[c] = true
		}
	}

	if len(drop) == 0 {
		return
	}

	columns := make([]string, 0, len(f.columns)-len(drop))
	for i, c := range f.columns {
		if !drop[i] {
			columns = append(columns, c)
		}
	}
	f.columns = columns

	for r, row := range f.rows {
		out := make([]any, 0, len(f.columns))
		for i, v := range row {
			if !drop[i] {
				out = append(out, v)
			}
		}
		f.rows[r] = out
	}

	f.reindex()
}
