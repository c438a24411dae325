// Package phrases collapses near-duplicate text labels into canonical groups
// using pairwise fuzzy similarity on normalized forms.
//
// The pairwise pass is quadratic in the number of distinct labels. It is meant
// for label columns (hundreds to a few thousand distinct values), not free text.
package phrases

import (
	"errors"
	"sort"
	"unicode/utf8"

	"github.com/KaramelBytes/winestat/internal/validation"
)

// ErrInvalidInput is returned for bad options or non-text column values.
var ErrInvalidInput = errors.New("invalid input")

// Options configures a Grouper.
type Options struct {
	// Threshold is the minimum score for two labels to be linked.
	Threshold int `validate:"gte=0,lte=100"`
	// Generic switches to token-set scoring and per-seed groups with
	// best-group reassignment, giving broader categories.
	Generic bool
	// GenericThreshold optionally bounds closure growth in generic mode: a
	// label reached only through other labels joins the seed's group when its
	// token-set score against the seed is at least this value. The default 0
	// takes the full transitive closure, as outside generic mode. A bound can
	// put one label into several closures; reassignment then resolves it.
	GenericThreshold int `validate:"gte=0,lte=100"`
	// Stopwords removed before scoring; nil uses DefaultStopwords.
	Stopwords []string
	// NoStem disables stemming.
	NoStem bool
}

// DefaultOptions mirrors the usual settings for varietal names.
func DefaultOptions() Options {
	return Options{Threshold: 85}
}

// Grouper finds similar labels and groups them.
type Grouper struct {
	opts Options
	norm *Normalizer
	// normalized forms, filled lazily by score
	forms map[string]string
}

// NewGrouper validates opts and returns a Grouper.
func NewGrouper(opts Options) (*Grouper, error) {
	if err := validation.Check(opts, ErrInvalidInput); err != nil {
		return nil, err
	}
	return &Grouper{
		opts:  opts,
		norm:  NewNormalizer(opts.Stopwords, !opts.NoStem),
		forms: make(map[string]string),
	}, nil
}

// Options returns the grouper configuration.
func (g *Grouper) Options() Options { return g.opts }

func (g *Grouper) form(p string) string {
	f, ok := g.forms[p]
	if !ok {
		f = g.norm.Normalize(p)
		g.forms[p] = f
	}
	return f
}

// Score returns the linking score of two labels for the grouper's mode.
func (g *Grouper) Score(a, b string) int {
	if g.opts.Generic {
		return TokenSetRatio(g.form(a), g.form(b))
	}
	return TokenSortRatio(g.form(a), g.form(b))
}

func (g *Grouper) affinity(a, b string) int {
	return TokenSetRatio(g.form(a), g.form(b))
}

// Adjacency maps each label to the labels similar to it. Keys keep the order
// in which they were first linked.
type Adjacency struct {
	keys  []string
	edges map[string][]string
}

func newAdjacency() *Adjacency {
	return &Adjacency{edges: make(map[string][]string)}
}

func (a *Adjacency) add(from, to string) {
	if _, ok := a.edges[from]; !ok {
		a.keys = append(a.keys, from)
	}
	a.edges[from] = append(a.edges[from], to)
}

// Keys returns the linked labels in insertion order.
func (a *Adjacency) Keys() []string { return a.keys }

// Neighbors returns the labels linked to p.
func (a *Adjacency) Neighbors(p string) []string { return a.edges[p] }

// Len returns the number of linked labels.
func (a *Adjacency) Len() int { return len(a.keys) }

// FindSimilar scores every unordered pair of distinct labels once and links
// the pairs that reach the threshold. Repeated labels are ignored.
func (g *Grouper) FindSimilar(phrases []string) *Adjacency {
	uniq := dedupe(phrases)
	adj := newAdjacency()
	for i := 0; i < len(uniq); i++ {
		for j := i + 1; j < len(uniq); j++ {
			if g.Score(uniq[i], uniq[j]) >= g.opts.Threshold {
				adj.add(uniq[i], uniq[j])
				adj.add(uniq[j], uniq[i])
			}
		}
	}
	return adj
}

// Group is a final cluster. Members are sorted and include Canonical.
type Group struct {
	Canonical string
	Members   []string
}

// BuildGroups turns an adjacency into groups.
//
// Every key seeds the transitive closure of its links unless an earlier group
// already holds it. Outside generic mode a closure merges into the first
// group it intersects. In generic mode closures stay separate; afterwards a
// label held by several groups (possible only with GenericThreshold set)
// stays only in the one with the best average token-set score, and groups
// left with a single label are folded into the best remaining multi-label
// group.
func (g *Grouper) BuildGroups(adj *Adjacency) []Group {
	var sets []*orderedSet
	for _, key := range adj.Keys() {
		if containedIn(sets, key) >= 0 {
			continue
		}
		c := g.closure(adj, key)
		if g.opts.Generic {
			sets = append(sets, c)
			continue
		}
		merged := false
		for _, s := range sets {
			if s.intersects(c) {
				s.union(c)
				merged = true
				break
			}
		}
		if !merged {
			sets = append(sets, c)
		}
	}
	if g.opts.Generic {
		sets = g.reassign(adj, sets)
	}
	out := make([]Group, 0, len(sets))
	for _, s := range sets {
		if s.len() == 0 {
			continue
		}
		out = append(out, newGroup(s.items()))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Canonical < out[j].Canonical })
	return out
}

func (g *Grouper) closure(adj *Adjacency, seed string) *orderedSet {
	c := newOrderedSet(seed)
	for _, n := range adj.Neighbors(seed) {
		c.add(n)
	}
	bounded := g.opts.Generic && g.opts.GenericThreshold > 0
	for grew := true; grew; {
		grew = false
		for _, p := range c.items() {
			for _, n := range adj.Neighbors(p) {
				if c.has(n) {
					continue
				}
				if bounded && g.affinity(seed, n) < g.opts.GenericThreshold {
					continue
				}
				c.add(n)
				grew = true
			}
		}
	}
	return c
}

func (g *Grouper) reassign(adj *Adjacency, sets []*orderedSet) []*orderedSet {
	for _, key := range adj.Keys() {
		best, bestScore := -1, -1.0
		var holders []int
		for i, s := range sets {
			if !s.has(key) {
				continue
			}
			holders = append(holders, i)
			if avg := g.averageAffinity(key, s); avg > bestScore {
				best, bestScore = i, avg
			}
		}
		for _, i := range holders {
			if i != best {
				sets[i].remove(key)
			}
		}
	}

	var singles []string
	multi := sets[:0:0]
	for _, s := range sets {
		switch s.len() {
		case 0:
		case 1:
			singles = append(singles, s.items()[0])
		default:
			multi = append(multi, s)
		}
	}
	if len(multi) == 0 {
		for _, p := range singles {
			multi = append(multi, newOrderedSet(p))
		}
		return multi
	}
	for _, p := range singles {
		best, bestScore := 0, -1.0
		for i, s := range multi {
			if avg := g.averageAffinity(p, s); avg > bestScore {
				best, bestScore = i, avg
			}
		}
		multi[best].add(p)
	}
	return multi
}

func (g *Grouper) averageAffinity(p string, s *orderedSet) float64 {
	items := s.items()
	if len(items) == 0 {
		return 0
	}
	total := 0
	for _, q := range items {
		total += g.affinity(p, q)
	}
	return float64(total) / float64(len(items))
}

// newGroup picks the shortest member as canonical, breaking ties by the
// smallest string.
func newGroup(members []string) Group {
	m := make([]string, len(members))
	copy(m, members)
	sort.Strings(m)
	canon := m[0]
	for _, p := range m[1:] {
		if utf8.RuneCountInString(p) < utf8.RuneCountInString(canon) {
			canon = p
		}
	}
	return Group{Canonical: canon, Members: m}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func containedIn(sets []*orderedSet, p string) int {
	for i, s := range sets {
		if s.has(p) {
			return i
		}
	}
	return -1
}

// orderedSet is a string set that remembers insertion order.
type orderedSet struct {
	order []string
	idx   map[string]int
}

func newOrderedSet(items ...string) *orderedSet {
	s := &orderedSet{idx: make(map[string]int)}
	for _, p := range items {
		s.add(p)
	}
	return s
}

func (s *orderedSet) add(p string) {
	if _, ok := s.idx[p]; ok {
		return
	}
	s.idx[p] = len(s.order)
	s.order = append(s.order, p)
}

func (s *orderedSet) has(p string) bool {
	_, ok := s.idx[p]
	return ok
}

func (s *orderedSet) remove(p string) {
	i, ok := s.idx[p]
	if !ok {
		return
	}
	s.order = append(s.order[:i], s.order[i+1:]...)
	delete(s.idx, p)
	for j := i; j < len(s.order); j++ {
		s.idx[s.order[j]] = j
	}
}

func (s *orderedSet) len() int { return len(s.order) }

func (s *orderedSet) items() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *orderedSet) intersects(o *orderedSet) bool {
	for _, p := range o.order {
		if s.has(p) {
			return true
		}
	}
	return false
}

func (s *orderedSet) union(o *orderedSet) {
	for _, p := range o.order {
		s.add(p)
	}
}
