package analysis

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/winestat/internal/table"
)

// OtherLabel is the label of the remainder row added by TopNWithOther.
const OtherLabel = "Other"

// FreqName returns the default name of the frequency table and its count
// column for col.
func FreqName(col string) string { return "freq_" + col }

// Frequency counts the non-null values of col per distinct value, like
// SELECT col, COUNT(col) ... GROUP BY col. The null group is kept with a count
// of 0. Rows are ordered by count descending, then by value.
func Frequency(t *table.Table, col, countCol string) (*table.Table, error) {
	idx, err := t.Require(col)
	if err != nil {
		return nil, err
	}
	if countCol == "" {
		countCol = FreqName(col)
	}
	k := idx[0]
	type bucket struct {
		value any
		count int64
	}
	byKey := make(map[string]*bucket)
	var order []*bucket
	for _, r := range t.Rows {
		key := table.Key(r, idx)
		b, ok := byKey[key]
		if !ok {
			b = &bucket{value: r[k]}
			if table.IsNull(b.value) {
				b.value = nil
			}
			byKey[key] = b
			order = append(order, b)
		}
		if b.value != nil {
			b.count++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		a, b := order[i].value, order[j].value
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return table.Compare(a, b) < 0
	})
	out := table.New(FreqName(col), []string{col, countCol})
	for _, b := range order {
		out.Append(b.value, b.count)
	}
	return out, nil
}

// TopNName is the default name of a top-n table.
func TopNName(input string, n int) string { return fmt.Sprintf("%s_top_%d", input, n) }

// TopNWithOther keeps the n rows with the highest count and appends one row
// labelled other holding the sum of the remaining counts.
func TopNWithOther(t *table.Table, labelCol, countCol string, n int, other string) (*table.Table, error) {
	if n <= 0 {
		return nil, errors.New("top n: n must be positive")
	}
	idx, err := t.Require(labelCol, countCol)
	if err != nil {
		return nil, err
	}
	if other == "" {
		other = OtherLabel
	}
	sorted := t.Clone()
	if err := sorted.SortBy(countCol, false); err != nil {
		return nil, err
	}
	out := table.New(TopNName(t.Name, n), []string{labelCol, countCol})
	var rest float64
	allInt := true
	for i, r := range sorted.Rows {
		if i < n {
			out.Append(r[idx[0]], r[idx[1]])
			continue
		}
		if f, ok := table.Float(r[idx[1]]); ok {
			rest += f
			if _, isInt := r[idx[1]].(int64); !isInt {
				allInt = false
			}
		}
	}
	if allInt {
		out.Append(other, int64(rest))
	} else {
		out.Append(other, rest)
	}
	return out, nil
}
