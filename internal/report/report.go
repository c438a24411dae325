// Package report renders tables for the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/KaramelBytes/winestat/internal/table"
	"github.com/KaramelBytes/winestat/internal/wordfreq"
)

// NullText is how a null cell is shown.
const NullText = "NULL"

// Table renders up to limit rows of t (0 renders all) and a row count footer
// when rows were cut.
func Table(w io.Writer, t *table.Table, limit int) {
	tw := newWriter(w)
	tw.SetHeader(t.Columns)
	n := t.Len()
	if limit > 0 && n > limit {
		n = limit
	}
	for _, r := range t.Rows[:n] {
		cells := make([]string, len(r))
		for j, v := range r {
			cells[j] = Cell(v)
		}
		tw.Append(cells)
	}
	tw.Render()
	if n < t.Len() {
		fmt.Fprintf(w, "(%d of %d rows)\n", n, t.Len())
	}
}

// Words renders the top words of each group, one row per group.
func Words(w io.Writer, groups []wordfreq.GroupWords, perGroup int) {
	tw := newWriter(w)
	tw.SetHeader([]string{"group", "rows", "words"})
	for _, g := range groups {
		var words string
		for i, wc := range g.Words.Top(perGroup) {
			if i > 0 {
				words += ", "
			}
			words += fmt.Sprintf("%s(%d)", wc.Word, wc.Count)
		}
		tw.Append([]string{g.Label(" / "), strconv.Itoa(g.Rows), words})
	}
	tw.Render()
}

// Cell formats one value: floats with at most four decimals, nulls as NULL.
func Cell(v any) string {
	if table.IsNull(v) {
		return NullText
	}
	if f, ok := v.(float64); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return strconv.FormatFloat(f, 'f', 1, 64)
		}
		return strconv.FormatFloat(math.Round(f*1e4)/1e4, 'f', -1, 64)
	}
	return table.String(v)
}

func newWriter(w io.Writer) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	return tw
}
