// Package table holds the in-memory tabular structure being cleaned and its
// delimited-text ingestion/egress.
package table

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ncruces/go-strftime"
)

// Cell is a loosely-typed table value. A nil Cell is the missing-value
// sentinel. Cleaning stages may coerce cells to string, int64, float64, or
// time.Time.
type Cell = any

// Table is an ordered set of named columns over shared rows. Every row has
// exactly len(Columns) cells once ingested.
type Table struct {
	Columns []string
	Rows    [][]Cell

	// Layouts maps a column name to the strftime layout its values were
	// parsed with, so egress can render datetimes back in source format.
	Layouts map[string]string
}

// New returns an empty table with the given column names.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// NumRows returns the current row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the current column count.
func (t *Table) NumCols() int { return len(t.Columns) }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// DropColumn removes the named column and its cells from every row.
// It reports whether the column was present.
func (t *Table) DropColumn(name string) bool {
	ix := t.ColumnIndex(name)
	if ix < 0 {
		return false
	}
	t.Columns = append(t.Columns[:ix], t.Columns[ix+1:]...)
	for r, row := range t.Rows {
		t.Rows[r] = append(row[:ix], row[ix+1:]...)
	}
	if t.Layouts != nil {
		delete(t.Layouts, name)
	}
	return true
}

// Filter retains only rows for which keep returns true, preserving order.
// It returns the number of rows removed.
func (t *Table) Filter(keep func(i int, row []Cell) bool) int {
	kept := t.Rows[:0]
	for i, row := range t.Rows {
		if keep(i, row) {
			kept = append(kept, row)
		}
	}
	removed := len(t.Rows) - len(kept)
	t.Rows = kept
	return removed
}

// SetLayout records the strftime layout a column was parsed with.
func (t *Table) SetLayout(column, layout string) {
	if t.Layouts == nil {
		t.Layouts = map[string]string{}
	}
	t.Layouts[column] = layout
}

// IsMissing reports whether a cell holds the missing-value sentinel.
// Numeric NaN counts as missing so "all cells missing" is one predicate
// across string, numeric, and datetime columns.
func IsMissing(c Cell) bool {
	if c == nil {
		return true
	}
	if f, ok := c.(float64); ok {
		return math.IsNaN(f)
	}
	return false
}

// FormatCell renders a cell for delimited-text egress. Missing renders as an
// empty field; datetimes use layout when non-empty, RFC3339 otherwise.
func FormatCell(c Cell, layout string) string {
	switch v := c.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		if layout != "" {
			return strftime.Format(layout, v)
		}
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
