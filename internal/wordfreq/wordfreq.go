// Package wordfreq counts normalized words of a text column, per row and per
// group, for word-cloud style summaries.
package wordfreq

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/winestat/internal/phrases"
	"github.com/KaramelBytes/winestat/internal/table"
)

// WordFrequencyMap maps a normalized word to its number of occurrences.
type WordFrequencyMap map[string]int

// WordCount is one entry of a ranked frequency list.
type WordCount struct {
	Word  string
	Count int
}

// Add increments word by n.
func (m WordFrequencyMap) Add(word string, n int) {
	if word == "" || n == 0 {
		return
	}
	m[word] += n
}

// Merge adds every count of other into m.
func (m WordFrequencyMap) Merge(other WordFrequencyMap) {
	for w, n := range other {
		m[w] += n
	}
}

// TotalCount is the sum of all counts.
func (m WordFrequencyMap) TotalCount() int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}

// Top returns the n most frequent words, ties broken alphabetically.
// n <= 0 returns every word.
func (m WordFrequencyMap) Top(n int) []WordCount {
	out := make([]WordCount, 0, len(m))
	for w, c := range m {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Count tokenizes text with norm and tallies the resulting words.
func Count(text string, norm *phrases.Normalizer) WordFrequencyMap {
	m := WordFrequencyMap{}
	for _, tok := range norm.Tokens(text) {
		m.Add(tok, 1)
	}
	return m
}

// GroupWords is the summed word frequency of one group.
type GroupWords struct {
	Keys  []any
	Rows  int
	Words WordFrequencyMap
}

// Label joins the group key values with sep.
func (g GroupWords) Label(sep string) string {
	parts := make([]string, len(g.Keys))
	for i, k := range g.Keys {
		parts[i] = table.String(k)
	}
	return strings.Join(parts, sep)
}

// ByGroup sums the word frequencies of textCol for every combination of
// groupCols. Groups are returned in first-seen order. Rows with a null group
// key are dropped; null text contributes nothing.
func ByGroup(t *table.Table, groupCols []string, textCol string, norm *phrases.Normalizer) ([]GroupWords, error) {
	if len(groupCols) == 0 {
		return nil, errors.New("word frequencies: no group columns")
	}
	gidx, err := t.Require(groupCols...)
	if err != nil {
		return nil, err
	}
	tidx, err := t.Require(textCol)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]int)
	var out []GroupWords
	for _, r := range t.Rows {
		if hasNull(r, gidx) {
			continue
		}
		key := table.Key(r, gidx)
		pos, ok := byKey[key]
		if !ok {
			keys := make([]any, len(gidx))
			for i, j := range gidx {
				keys[i] = r[j]
			}
			pos = len(out)
			byKey[key] = pos
			out = append(out, GroupWords{Keys: keys, Words: WordFrequencyMap{}})
		}
		out[pos].Rows++
		if s, ok := r[tidx[0]].(string); ok {
			out[pos].Words.Merge(Count(s, norm))
		}
	}
	return out, nil
}

// FilterTop keeps the groups that appear among the first n rows of measure
// ordered by measureCol (descending unless ascending). measure must carry
// every column of groupCols. Group order is preserved.
func FilterTop(groups []GroupWords, measure *table.Table, groupCols []string, measureCol string, n int, ascending bool) ([]GroupWords, error) {
	if n <= 0 {
		return nil, fmt.Errorf("word frequencies: top n must be positive, got %d", n)
	}
	gidx, err := measure.Require(groupCols...)
	if err != nil {
		return nil, err
	}
	sorted := measure.Clone()
	if err := sorted.SortBy(measureCol, ascending); err != nil {
		return nil, err
	}
	keep := make(map[string]struct{}, n)
	for i, r := range sorted.Rows {
		if i == n {
			break
		}
		keep[table.Key(r, gidx)] = struct{}{}
	}
	identity := make([]int, len(groupCols))
	for i := range identity {
		identity[i] = i
	}
	var out []GroupWords
	for _, g := range groups {
		if len(g.Keys) != len(groupCols) {
			return nil, fmt.Errorf("word frequencies: group has %d keys, want %d", len(g.Keys), len(groupCols))
		}
		if _, ok := keep[table.Key(g.Keys, identity)]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// TableName is the default relation name for grouped word counts.
func TableName(groupCols []string) string {
	return "words_by_" + strings.Join(groupCols, "_")
}

// ToTable explodes groups into one row per (group, word), keeping at most
// limit words per group (0 keeps all).
func ToTable(groups []GroupWords, groupCols []string, limit int) *table.Table {
	cols := append(append([]string{}, groupCols...), "word", "count")
	out := table.New(TableName(groupCols), cols)
	for _, g := range groups {
		for _, wc := range g.Words.Top(limit) {
			row := append(append([]any{}, g.Keys...), wc.Word, int64(wc.Count))
			out.Append(row...)
		}
	}
	return out
}

func hasNull(r []any, idx []int) bool {
	for _, j := range idx {
		if table.IsNull(r[j]) {
			return true
		}
	}
	return false
}
