package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/winestat/internal/table"
)

// IndexColumn is skipped by null accounting.
const IndexColumn = "index"

// NullReport summarizes missing values of a table.
type NullReport struct {
	Table        string
	Rows         int
	Columns      []NullCount
	CompleteRows int
	// CompletePct is the share of rows without nulls, rounded to 2 decimals.
	CompletePct float64
}

// NullCount is the null tally of one column.
type NullCount struct {
	Column string
	Nulls  int
	// Pct is rounded to 2 decimals.
	Pct float64
}

// Nulls counts nulls per column and fully populated rows.
func Nulls(t *table.Table) NullReport {
	rep := NullReport{Table: t.Name, Rows: t.Len()}
	var idx []int
	for j, c := range t.Columns {
		if c == IndexColumn {
			continue
		}
		idx = append(idx, j)
	}
	counts := make([]int, len(idx))
	for _, r := range t.Rows {
		complete := true
		for i, j := range idx {
			if table.IsNull(r[j]) {
				counts[i]++
				complete = false
			}
		}
		if complete {
			rep.CompleteRows++
		}
	}
	for i, j := range idx {
		rep.Columns = append(rep.Columns, NullCount{Column: t.Columns[j], Nulls: counts[i], Pct: pct(counts[i], rep.Rows)})
	}
	rep.CompletePct = pct(rep.CompleteRows, rep.Rows)
	return rep
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(10000*float64(n)/float64(total)) / 100
}

// Markdown renders the report.
func (r NullReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[NULL SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Table: %s\n", r.Table))
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Rows without nulls: %d (%.2f%%)\n\n", r.CompleteRows, r.CompletePct))
	rows := make([][]string, len(r.Columns))
	for i, c := range r.Columns {
		rows[i] = []string{c.Column, fmt.Sprintf("%d", c.Nulls), fmt.Sprintf("%.2f%%", c.Pct)}
	}
	writeMarkdownTable(&b, []string{"column", "nulls", "pct"}, rows)
	return b.String()
}

// DropNulls returns the rows of t that have a value in every column of cols.
func DropNulls(t *table.Table, cols []string) (*table.Table, error) {
	if len(cols) == 0 {
		return nil, errors.New("drop nulls: no columns given")
	}
	idx, err := t.Require(cols...)
	if err != nil {
		return nil, err
	}
	return t.Filter(func(r []any) bool {
		for _, j := range idx {
			if table.IsNull(r[j]) {
				return false
			}
		}
		return true
	}), nil
}

// DropColumns returns t without the named columns. Unknown names are ignored.
func DropColumns(t *table.Table, cols ...string) *table.Table {
	drop := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		drop[c] = struct{}{}
	}
	var keep []string
	for _, c := range t.Columns {
		if _, ok := drop[c]; !ok {
			keep = append(keep, c)
		}
	}
	out, _ := t.Select(keep...)
	return out
}
