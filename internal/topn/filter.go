package topn

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/winestat/internal/table"
)

// Filter applies s to t and returns a new table in score order with t's
// columns. t is not modified. Ties at a cutoff keep the input order.
func Filter(t *table.Table, s Spec) (*table.Table, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cols := s.Columns()
	idx, err := t.Require(cols...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	sidx, err := t.Require(s.ScoreColumn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	score := sidx[0]

	out := t.Clone()
	if err := out.SortBy(s.ScoreColumn, s.Ascending); err != nil {
		return nil, err
	}
	rows := out.Rows

	first := s.Levels[0]
	if !first.KeepDuplicates {
		rows = dropDuplicates(rows, idx[:1])
	}
	rows = keepTopGroups(rows, idx[0], score, first.Limit, s.Ascending)

	for i := 1; i < len(s.Levels); i++ {
		lvl := s.Levels[i]
		if !lvl.KeepDuplicates {
			rows = dropDuplicates(rows, idx[:i+1])
		}
		rows = truncatePerParent(rows, idx[:i], lvl.Limit)
	}
	out.Rows = rows
	return out, nil
}

// dropDuplicates keeps the first row for every distinct key.
func dropDuplicates(rows [][]any, key []int) [][]any {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		k := table.Key(r, key)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

type groupScore struct {
	key   string
	best  any
	order int
}

// keepTopGroups ranks the distinct values of column col by their maximum
// score and keeps the rows of the first limit values.
func keepTopGroups(rows [][]any, col, score, limit int, ascending bool) [][]any {
	byKey := make(map[string]*groupScore)
	var groups []*groupScore
	for _, r := range rows {
		k := table.Key(r, []int{col})
		g, ok := byKey[k]
		if !ok {
			g = &groupScore{key: k, order: len(groups)}
			byKey[k] = g
			groups = append(groups, g)
		}
		v := r[score]
		if table.IsNull(v) {
			continue
		}
		if table.IsNull(g.best) || table.Compare(v, g.best) > 0 {
			g.best = v
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].best, groups[j].best
		an, bn := table.IsNull(a), table.IsNull(b)
		if an || bn {
			return !an && bn
		}
		c := table.Compare(a, b)
		if ascending {
			return c < 0
		}
		return c > 0
	})
	if limit < len(groups) {
		groups = groups[:limit]
	}
	keep := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		keep[g.key] = struct{}{}
	}
	out := rows[:0:0]
	for _, r := range rows {
		if _, ok := keep[table.Key(r, []int{col})]; ok {
			out = append(out, r)
		}
	}
	return out
}

// truncatePerParent keeps the first limit rows of every parent group.
func truncatePerParent(rows [][]any, parent []int, limit int) [][]any {
	counts := make(map[string]int)
	out := rows[:0:0]
	for _, r := range rows {
		k := table.Key(r, parent)
		if counts[k] >= limit {
			continue
		}
		counts[k]++
		out = append(out, r)
	}
	return out
}
