package table

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrColumnNotFound is returned when a named column is not part of a table.
var ErrColumnNotFound = errors.New("column not found")

// Table is an in-memory relation. Cells hold nil, string, int64, float64,
// bool or time.Time. A NaN float is treated as null everywhere.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// New returns an empty table with the given column order.
func New(name string, columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// Append adds a row, padding or truncating it to the column count.
func (t *Table) Append(row ...any) {
	r := make([]any, len(t.Columns))
	copy(r, row)
	t.Rows = append(t.Rows, r)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of col, or -1.
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Require checks that every named column exists and returns their positions.
func (t *Table) Require(cols ...string) ([]int, error) {
	idx := make([]int, len(cols))
	var missing []string
	for i, c := range cols {
		idx[i] = t.Index(c)
		if idx[i] < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s (table %q has %s)", ErrColumnNotFound,
			strings.Join(missing, ", "), t.Name, strings.Join(t.Columns, ", "))
	}
	return idx, nil
}

// Column returns a copy of the values of col.
func (t *Table) Column(col string) ([]any, error) {
	idx, err := t.Require(col)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx[0]]
	}
	return out, nil
}

// Clone returns a deep copy of the row slices (cell values are immutable).
func (t *Table) Clone() *Table {
	c := New(t.Name, t.Columns)
	c.Rows = make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]any, len(r))
		copy(row, r)
		c.Rows[i] = row
	}
	return c
}

// Select returns a new table holding only cols, in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	idx, err := t.Require(cols...)
	if err != nil {
		return nil, err
	}
	out := New(t.Name, cols)
	out.Rows = make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]any, len(idx))
		for j, k := range idx {
			row[j] = r[k]
		}
		out.Rows[i] = row
	}
	return out, nil
}

// Filter returns a new table with the rows for which keep returns true.
// Row slices are shared with t.
func (t *Table) Filter(keep func(row []any) bool) *Table {
	out := New(t.Name, t.Columns)
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// SortBy stable-sorts rows in place by col. Nulls sort last in both directions.
func (t *Table) SortBy(col string, ascending bool) error {
	idx, err := t.Require(col)
	if err != nil {
		return err
	}
	k := idx[0]
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i][k], t.Rows[j][k]
		an, bn := IsNull(a), IsNull(b)
		if an || bn {
			return !an && bn
		}
		c := Compare(a, b)
		if ascending {
			return c < 0
		}
		return c > 0
	})
	return nil
}

// Key builds a composite key from the cells at idx. Nulls get a marker that
// cannot collide with a string value.
func Key(row []any, idx []int) string {
	var b strings.Builder
	for i, k := range idx {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		if IsNull(row[k]) {
			b.WriteString("\x00null")
			continue
		}
		b.WriteString(String(row[k]))
	}
	return b.String()
}

// IsNull reports whether v is nil or a NaN float.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// Float converts a numeric cell to float64.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case float32:
		return float64(x), !math.IsNaN(float64(x))
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	}
	return 0, false
}

// String renders a cell for display and keys. Null renders as "".
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// Compare orders two non-null cells: numerically when both are numbers,
// chronologically for times, otherwise by their string form.
func Compare(a, b any) int {
	if fa, ok := Float(a); ok {
		if fb, ok := Float(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(String(a), String(b))
}
