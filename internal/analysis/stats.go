package analysis

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/winestat/internal/table"
)

// GroupedStatsName is the default name of a grouped statistics table.
func GroupedStatsName(valueCol string, groupCols []string) string {
	return valueCol + "_basic_stats_grouped_by_" + strings.Join(groupCols, "_")
}

// GroupedStats computes count, mean, std, min and max of valueCol for every
// combination of groupCols. Groups with a null key are dropped and null values
// are skipped. std is the sample standard deviation (null for fewer than two
// values). The result is ordered by the group columns.
func GroupedStats(t *table.Table, valueCol string, groupCols []string) (*table.Table, error) {
	if len(groupCols) == 0 {
		return nil, errors.New("grouped stats: no group columns")
	}
	gidx, err := t.Require(groupCols...)
	if err != nil {
		return nil, err
	}
	vidx, err := t.Require(valueCol)
	if err != nil {
		return nil, err
	}
	type acc struct {
		keys     []any
		n        int64
		mean, m2 float64
		lo, hi   float64
	}
	byKey := make(map[string]*acc)
	var order []*acc
	for _, r := range t.Rows {
		nullKey := false
		for _, j := range gidx {
			if table.IsNull(r[j]) {
				nullKey = true
				break
			}
		}
		if nullKey {
			continue
		}
		key := table.Key(r, gidx)
		a, ok := byKey[key]
		if !ok {
			a = &acc{lo: math.Inf(1), hi: math.Inf(-1)}
			for _, j := range gidx {
				a.keys = append(a.keys, r[j])
			}
			byKey[key] = a
			order = append(order, a)
		}
		x, ok := table.Float(r[vidx[0]])
		if !ok {
			continue
		}
		a.n++
		d := x - a.mean
		a.mean += d / float64(a.n)
		a.m2 += d * (x - a.mean)
		a.lo = math.Min(a.lo, x)
		a.hi = math.Max(a.hi, x)
	}
	sort.SliceStable(order, func(i, j int) bool {
		for k := range gidx {
			if c := table.Compare(order[i].keys[k], order[j].keys[k]); c != 0 {
				return c < 0
			}
		}
		return false
	})

	cols := append(append([]string{}, groupCols...), "count", "mean", "std", "min", "max")
	out := table.New(GroupedStatsName(valueCol, groupCols), cols)
	for _, a := range order {
		row := append([]any{}, a.keys...)
		row = append(row, a.n)
		if a.n == 0 {
			row = append(row, nil, nil, nil, nil)
		} else {
			var std any
			if a.n > 1 {
				std = math.Sqrt(a.m2 / float64(a.n-1))
			}
			row = append(row, a.mean, std, a.lo, a.hi)
		}
		out.Append(row...)
	}
	return out, nil
}

// ConcatColumns adds newCol holding the string forms of cols joined by sep.
// Nulls render as empty strings.
func ConcatColumns(t *table.Table, cols []string, newCol, sep string) (*table.Table, error) {
	if len(cols) == 0 {
		return nil, errors.New("concat: no columns")
	}
	idx, err := t.Require(cols...)
	if err != nil {
		return nil, err
	}
	if newCol == "" {
		newCol = strings.Join(cols, "_")
	}
	out := table.New(t.Name, append(append([]string{}, t.Columns...), newCol))
	for _, r := range t.Rows {
		parts := make([]string, len(idx))
		for i, j := range idx {
			parts[i] = table.String(r[j])
		}
		row := append(append([]any{}, r...), strings.Join(parts, sep))
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
