package cleaner

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"cleancsv/internal/metrics"
	"cleancsv/internal/table"
)

// dropRepeatHeaders removes any row in which some cell textually equals the
// header name of that cell's own column. Such rows appear when exports are
// concatenated and a header line ends up embedded in the data.
func (c *Cleaner) dropRepeatHeaders() {
	if !c.spec.DropRepeatHeaders {
		return
	}
	c.log.Infof("removing repeated header rows")
	c.mutated = true

	cols := c.tbl.Columns
	removed := c.tbl.Filter(func(_ int, row []table.Cell) bool {
		for i, cell := range row {
			if s, ok := cell.(string); ok && s == cols[i] {
				return false
			}
		}
		return true
	})
	metrics.IncStageDrops("drop_repeat_headers", removed)
}

// dropDuplicates removes rows that are exact duplicates of another row,
// keeping the occurrence that appeared last in input order.
func (c *Cleaner) dropDuplicates() {
	if !c.spec.DropDuplicates {
		return
	}
	c.log.Infof("removing duplicate rows")
	c.mutated = true

	rows := c.tbl.Rows
	keep := make([]bool, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		k := rowKey(rows[i])
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep[i] = true
	}

	removed := c.tbl.Filter(func(i int, _ []table.Cell) bool { return keep[i] })
	metrics.IncStageDrops("drop_duplicates", removed)
}

// rowKey builds a type-tagged canonical key for exact-duplicate detection,
// so the string "1" and the integer 1 never collide.
func rowKey(row []table.Cell) string {
	var b strings.Builder
	b.Grow(len(row) * 12)
	for i, cell := range row {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		appendCellKey(&b, cell)
	}
	return b.String()
}

func appendCellKey(b *strings.Builder, c table.Cell) {
	switch v := c.(type) {
	case nil:
		b.WriteByte('\x00')
	case string:
		b.WriteString("s:")
		b.WriteString(v)
	case int64:
		b.WriteString("i:")
		b.WriteString(strconv.FormatInt(v, 10))
	case float64:
		if math.IsNaN(v) {
			b.WriteByte('\x00')
			return
		}
		b.WriteString("f:")
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case time.Time:
		b.WriteString("t:")
		b.WriteString(v.UTC().Format(time.RFC3339Nano))
	default:
		fmt.Fprintf(b, "v:%v", v)
	}
}

// coerceNumericColumns reinterprets every cell of each numeric_col column as
// a number. Cells that cannot be parsed become missing; this stage never
// fails.
func (c *Cleaner) coerceNumericColumns() {
	if !c.spec.CleanTypes || len(c.spec.NumericCol) == 0 {
		return
	}
	c.mutated = true

	for _, col := range c.spec.NumericCol {
		ix := c.tbl.ColumnIndex(col)
		if ix < 0 {
			c.log.Warnf("column %q not in the table - skipping numeric coercion", col)
			continue
		}
		c.log.Infof("coercing column %q to numeric", col)
		for _, row := range c.tbl.Rows {
			row[ix] = toNumeric(row[ix])
		}
	}
}

func toNumeric(c table.Cell) table.Cell {
	switch v := c.(type) {
	case nil:
		return nil
	case int64:
		return v
	case float64:
		if math.IsNaN(v) {
			return nil
		}
		return v
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
			return f
		}
		return nil
	default:
		return nil
	}
}

// castColumns applies the explicit astype-style casts for the three type
// categories in fixed order. A cast that fails for any cell abandons that
// whole column (logged at error level, values left unchanged); other columns
// and categories still proceed.
func (c *Cleaner) castColumns() {
	if !c.spec.CleanTypes {
		return
	}

	categories := []struct {
		name string
		cols []string
		cast func(table.Cell) (table.Cell, error)
	}{
		{"int", c.spec.IntCol, castInt},
		{"float", c.spec.FloatCol, castFloat},
		{"str", c.spec.StrCol, castString},
	}

	for _, cat := range categories {
		if len(cat.cols) == 0 {
			continue
		}
		c.mutated = true
		for _, col := range cat.cols {
			ix := c.tbl.ColumnIndex(col)
			if ix < 0 {
				c.log.Warnf("column %q not in the table - skipping %s cast", col, cat.name)
				continue
			}
			c.log.Infof("casting column %q to %s", col, cat.name)
			if err := castColumn(c.tbl, ix, cat.cast); err != nil {
				c.log.Errorf("converting column %q to %s failed - %v", col, cat.name, err)
			}
		}
	}
}

// castColumn applies cast to every cell of a column, writing results back
// only if the whole column converts. Any failure leaves the column untouched.
func castColumn(t *table.Table, ix int, cast func(table.Cell) (table.Cell, error)) error {
	out := make([]table.Cell, len(t.Rows))
	for r, row := range t.Rows {
		v, err := cast(row[ix])
		if err != nil {
			return fmt.Errorf("row %d: %w", r+1, err)
		}
		out[r] = v
	}
	for r, row := range t.Rows {
		row[ix] = out[r]
	}
	return nil
}

func castInt(c table.Cell) (table.Cell, error) {
	switch v := c.(type) {
	case nil:
		return nil, fmt.Errorf("missing value cannot be cast to int")
	case int64:
		return v, nil
	case float64:
		if math.IsNaN(v) {
			return nil, fmt.Errorf("missing value cannot be cast to int")
		}
		return int64(v), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", v)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("cannot cast %T to int", c)
	}
}

func castFloat(c table.Cell) (table.Cell, error) {
	switch v := c.(type) {
	case nil:
		return nil, nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot cast %T to float", c)
	}
}

func castString(c table.Cell) (table.Cell, error) {
	if table.IsMissing(c) {
		return nil, nil
	}
	return table.FormatCell(c, ""), nil
}

// parseDatetimeColumns parses each datetime_col column with its
// position-paired datetime_format. Unparsable cells become missing. If the
// two lists differ in length the entire stage is skipped; no partial pairing
// is attempted.
func (c *Cleaner) parseDatetimeColumns() {
	cols := c.spec.DatetimeCol
	if !c.spec.CleanTypes || len(cols) == 0 {
		return
	}

	forms := c.spec.DatetimeFormat
	if len(cols) != len(forms) {
		c.log.Warnf("spec has %d datetime columns but %d formats - skipping datetime stage", len(cols), len(forms))
		return
	}
	c.mutated = true

	for i, col := range cols {
		form := forms[i]
		ix := c.tbl.ColumnIndex(col)
		if ix < 0 {
			c.log.Warnf("column %q not in the table - skipping datetime parse", col)
			continue
		}
		c.log.Infof("parsing column %q as datetime using %q", col, form)
		for _, row := range c.tbl.Rows {
			row[ix] = toDatetime(row[ix], form)
		}
		c.tbl.SetLayout(col, form)
	}
}

func toDatetime(c table.Cell, form string) table.Cell {
	switch v := c.(type) {
	case nil:
		return nil
	case time.Time:
		return v
	case string:
		t, err := strftime.Parse(form, strings.TrimSpace(v))
		if err != nil {
			return nil
		}
		return t
	default:
		return nil
	}
}

// dropAllMissingRows removes rows where every cell is missing. Rows with
// some-but-not-all missing cells are retained; widening this to "any missing"
// would change results and is deliberately not done.
func (c *Cleaner) dropAllMissingRows() {
	if !c.spec.DropNA {
		return
	}
	c.log.Infof("dropping rows where every cell is missing")
	c.mutated = true

	removed := c.tbl.Filter(func(_ int, row []table.Cell) bool {
		for _, cell := range row {
			if !table.IsMissing(cell) {
				return true
			}
		}
		return false
	})
	metrics.IncStageDrops("drop_na", removed)
}

// dropColumns removes each drop_col column if present. A name not present in
// the table logs a warning and is otherwise ignored.
func (c *Cleaner) dropColumns() {
	cols := c.spec.DropCol
	if len(cols) == 0 {
		return
	}
	c.log.Infof("dropping columns %v", cols)

	for _, col := range cols {
		if c.tbl.DropColumn(col) {
			c.mutated = true
		} else {
			c.log.Warnf("column %q not in the table - nothing to drop", col)
		}
	}
}

// dropQuantileOutliers filters each quantile_ouliers_col column in list
// order. Filtering is cumulative: each column's quartiles are computed over
// the rows that survived the previous columns, so swapping column order
// changes results.
//
// The spread is computed as Q1 - Q3. This is non-positive for ordinary data
// and inverts the usual bound direction, but downstream results depend on it;
// do not "correct" it to Q3 - Q1 without agreement.
func (c *Cleaner) dropQuantileOutliers() {
	cols := c.spec.QuantileOutliersCol
	if len(cols) == 0 {
		return
	}

	for _, col := range cols {
		ix := c.tbl.ColumnIndex(col)
		if ix < 0 {
			c.log.Warnf("column %q not in the table - skipping outlier filter", col)
			continue
		}

		vals := make([]float64, 0, len(c.tbl.Rows))
		for _, row := range c.tbl.Rows {
			if v, ok := numericValue(row[ix]); ok {
				vals = append(vals, v)
			}
		}

		q1 := percentile(vals, 0.25)
		q3 := percentile(vals, 0.75)
		iqr := q1 - q3
		lo := q1 - 1.5*iqr
		hi := q3 + 1.5*iqr

		// Rows whose value is missing or non-numeric fail the bound check
		// and are removed.
		removed := c.tbl.Filter(func(_ int, row []table.Cell) bool {
			v, ok := numericValue(row[ix])
			return ok && v >= lo && v <= hi
		})
		if removed > 0 {
			c.mutated = true
		}
		metrics.IncStageDrops("quantile_outliers", removed)
		c.log.Infof("outlier filter on %q kept values in [%g, %g] - %d rows removed", col, lo, hi, removed)
	}
}

func numericValue(c table.Cell) (float64, bool) {
	switch v := c.(type) {
	case int64:
		return float64(v), true
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return v, true
	default:
		return 0, false
	}
}

// percentile computes the p-th quantile with linear interpolation between
// order statistics. Returns NaN for an empty sample, which makes every
// subsequent bound comparison fail.
func percentile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)

	h := p * float64(len(cp)-1)
	lo := int(math.Floor(h))
	if lo >= len(cp)-1 {
		return cp[len(cp)-1]
	}
	frac := h - float64(lo)
	return cp[lo] + frac*(cp[lo+1]-cp[lo])
}
