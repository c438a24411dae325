// Package pipeline runs the wine exploration stages against a relational
// store and records every produced relation in a registry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/KaramelBytes/winestat/internal/analysis"
	"github.com/KaramelBytes/winestat/internal/logging"
	"github.com/KaramelBytes/winestat/internal/phrases"
	"github.com/KaramelBytes/winestat/internal/registry"
	"github.com/KaramelBytes/winestat/internal/table"
	"github.com/KaramelBytes/winestat/internal/topn"
	"github.com/KaramelBytes/winestat/internal/validation"
	"github.com/KaramelBytes/winestat/internal/wordfreq"
)

// ErrInvalidOptions is returned when pipeline options fail validation.
var ErrInvalidOptions = errors.New("invalid pipeline options")

// Relations is the relational collaborator the stages read from and write to.
type Relations interface {
	ReadTable(ctx context.Context, name string) (*table.Table, error)
	WriteTable(ctx context.Context, t *table.Table) error
}

// RecursiveRun is one hierarchical top-n pass over the grouped statistics.
type RecursiveRun struct {
	Limits []int  `validate:"required,dive,gt=0"`
	Keep   []bool `validate:"required"`
}

// Options configures the stages.
type Options struct {
	SourceTable     string `validate:"required"`
	DropColumns     []string
	DropNullColumns []string
	FreqColumns     []string
	TopN            []int `validate:"dive,gt=0"`
	StatsValue      string
	StatsGroups     [][]string
	RecursiveScore  string
	RecursiveGroups []string
	RecursiveRuns   []RecursiveRun `validate:"dive"`
	LabelSeparator  string
	// Sheet selects the worksheet when ingesting an .xlsx file.
	Sheet string
}

var (
	defaultFreqColumns = []string{"country", "designation", "points", "province", "region_1", "region_2",
		"taster_name", "taster_twitter_handle", "variety", "winery"}
	defaultRecursiveRuns = []RecursiveRun{
		{Limits: []int{3, 2, 3}, Keep: []bool{true, true, true}},
		{Limits: []int{3, 2, 2}, Keep: []bool{true, false, false}},
	}
)

// DefaultOptions mirrors the default exploration of the wine-review dataset.
func DefaultOptions() Options {
	return Options{
		SourceTable:     "wine_init",
		DropColumns:     []string{"", "Unnamed: 0"},
		DropNullColumns: []string{"country", "price", "province", "variety"},
		FreqColumns:     defaultFreqColumns,
		TopN:            []int{5, 10, 20},
		StatsValue:      "price",
		StatsGroups:     [][]string{{"country"}, {"province"}, {"region_1"}, {"country", "province", "region_1"}},
		RecursiveScore:  "mean",
		RecursiveGroups: []string{"country", "province", "region_1"},
		RecursiveRuns:   defaultRecursiveRuns,
		LabelSeparator:  " / ",
	}
}

// Pipeline runs stages against Relations and records results in a Registry.
type Pipeline struct {
	rel  Relations
	reg  *registry.Registry
	opts Options
	log  zerolog.Logger
}

// New validates opts and returns a Pipeline.
func New(rel Relations, reg *registry.Registry, opts Options) (*Pipeline, error) {
	if err := validation.Check(opts, ErrInvalidOptions); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = registry.New("")
	}
	return &Pipeline{rel: rel, reg: reg, opts: opts, log: logging.With("pipeline")}, nil
}

// Registry returns the registry the pipeline records into.
func (p *Pipeline) Registry() *registry.Registry { return p.reg }

// IngestResult reports the null situation before and after cleaning.
type IngestResult struct {
	Handle  *registry.Handle
	Before  analysis.NullReport
	After   analysis.NullReport
	Dropped int
}

// DroppedPct is the share of input rows removed by null cleaning, 2 decimals.
func (r IngestResult) DroppedPct() float64 {
	if r.Before.Rows == 0 {
		return 0
	}
	return math.Round(10000*float64(r.Dropped)/float64(r.Before.Rows)) / 100
}

// ReadSource loads a CSV, TSV or XLSX file named by path.
func (p *Pipeline) ReadSource(path string) (*table.Table, error) {
	csvOpt := table.CSVOptions{DropColumns: p.opts.DropColumns}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return table.ReadXLSX(path, table.XLSXOptions{CSVOptions: csvOpt, Sheet: p.opts.Sheet})
	default:
		return table.ReadCSV(path, csvOpt)
	}
}

// Ingest reads path, drops rows with nulls in DropNullColumns and stores the
// result as the source relation.
func (p *Pipeline) Ingest(ctx context.Context, path string) (*IngestResult, error) {
	raw, err := p.ReadSource(path)
	if err != nil {
		return nil, err
	}
	raw.Name = p.opts.SourceTable
	res := &IngestResult{Before: analysis.Nulls(raw)}
	clean := raw
	if len(p.opts.DropNullColumns) > 0 {
		clean, err = analysis.DropNulls(raw, p.opts.DropNullColumns)
		if err != nil {
			return nil, fmt.Errorf("drop nulls: %w", err)
		}
	}
	res.After = analysis.Nulls(clean)
	res.Dropped = raw.Len() - clean.Len()
	if err := p.rel.WriteTable(ctx, clean); err != nil {
		return nil, fmt.Errorf("write %s: %w", clean.Name, err)
	}
	res.Handle = p.reg.Register(clean, registry.KindSource, path, map[string]any{
		"dropped_rows":      res.Dropped,
		"drop_null_columns": p.opts.DropNullColumns,
	})
	p.log.Info().Str("table", clean.Name).Int("rows", clean.Len()).Int("dropped", res.Dropped).Msg("source ingested")
	return res, nil
}

// FrequencyTables builds freq_<col> for every configured column present in
// the source relation. Missing columns are skipped with a warning.
func (p *Pipeline) FrequencyTables(ctx context.Context) ([]*registry.Handle, error) {
	src, err := p.rel.ReadTable(ctx, p.opts.SourceTable)
	if err != nil {
		return nil, err
	}
	var out []*registry.Handle
	for _, col := range p.opts.FreqColumns {
		if src.Index(col) < 0 {
			p.log.Warn().Str("table", src.Name).Str("column", col).Msg("frequency column missing, skipped")
			continue
		}
		h, err := p.Frequency(ctx, src, col)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// Frequency builds and stores the frequency table of col.
func (p *Pipeline) Frequency(ctx context.Context, src *table.Table, col string) (*registry.Handle, error) {
	freq, err := analysis.Frequency(src, col, "")
	if err != nil {
		return nil, err
	}
	if err := p.rel.WriteTable(ctx, freq); err != nil {
		return nil, fmt.Errorf("write %s: %w", freq.Name, err)
	}
	p.log.Debug().Str("table", freq.Name).Int("rows", freq.Len()).Msg("frequency table written")
	return p.reg.Register(freq, registry.KindFrequency, src.Name, map[string]any{
		"label_column": freq.Columns[0],
		"count_column": freq.Columns[1],
	}), nil
}

// TopNTables builds <freq>_top_<n> for every frequency handle and n, using the
// label and count columns recorded on the handle.
func (p *Pipeline) TopNTables(ctx context.Context, freqs []*registry.Handle, ns []int) ([]*registry.Handle, error) {
	var out []*registry.Handle
	for _, h := range freqs {
		label, count := h.Param("label_column"), h.Param("count_column")
		if label == "" || count == "" {
			return nil, fmt.Errorf("handle %s carries no label/count columns", h.Name)
		}
		freq, err := p.rel.ReadTable(ctx, h.Name)
		if err != nil {
			return nil, err
		}
		for _, n := range ns {
			top, err := analysis.TopNWithOther(freq, label, count, n, analysis.OtherLabel)
			if err != nil {
				return nil, fmt.Errorf("top %d of %s: %w", n, h.Name, err)
			}
			if err := p.rel.WriteTable(ctx, top); err != nil {
				return nil, fmt.Errorf("write %s: %w", top.Name, err)
			}
			out = append(out, p.reg.Register(top, registry.KindTopN, h.Name, map[string]any{
				"n":            n,
				"label_column": label,
				"count_column": count,
			}))
		}
	}
	return out, nil
}

// GroupedStats stores the basic statistics of valueCol grouped by groupCols.
func (p *Pipeline) GroupedStats(ctx context.Context, valueCol string, groupCols []string) (*registry.Handle, error) {
	src, err := p.rel.ReadTable(ctx, p.opts.SourceTable)
	if err != nil {
		return nil, err
	}
	st, err := analysis.GroupedStats(src, valueCol, groupCols)
	if err != nil {
		return nil, err
	}
	if err := p.rel.WriteTable(ctx, st); err != nil {
		return nil, fmt.Errorf("write %s: %w", st.Name, err)
	}
	p.log.Info().Str("table", st.Name).Int("rows", st.Len()).Msg("grouped statistics written")
	return p.reg.Register(st, registry.KindStats, src.Name, map[string]any{
		"value_column":  valueCol,
		"group_columns": groupCols,
	}), nil
}

// RecursiveTopN applies spec to the relation in and stores the result under
// topn.OutputName.
func (p *Pipeline) RecursiveTopN(ctx context.Context, in *registry.Handle, spec topn.Spec) (*registry.Handle, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	t, err := p.rel.ReadTable(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	res, err := topn.Filter(t, spec)
	if err != nil {
		return nil, err
	}
	res.Name = topn.OutputName(in.Name, spec)
	if err := p.rel.WriteTable(ctx, res); err != nil {
		return nil, fmt.Errorf("write %s: %w", res.Name, err)
	}
	p.log.Info().Str("table", res.Name).Int("rows", res.Len()).Msg("hierarchical top-n written")
	return p.reg.Register(res, registry.KindRecursiveTopN, in.Name, map[string]any{
		"score_column": spec.ScoreColumn,
		"columns":      spec.Columns(),
		"ascending":    spec.Ascending,
	}), nil
}

// LabelName is the relation name of a labelled copy of input.
func LabelName(input string) string { return input + "_labelled" }

// Label stores a copy of in with a "label" column joining cols.
func (p *Pipeline) Label(ctx context.Context, in *registry.Handle, cols []string) (*registry.Handle, error) {
	t, err := p.rel.ReadTable(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	out, err := analysis.ConcatColumns(t, cols, "label", p.opts.LabelSeparator)
	if err != nil {
		return nil, err
	}
	out.Name = LabelName(in.Name)
	if err := p.rel.WriteTable(ctx, out); err != nil {
		return nil, fmt.Errorf("write %s: %w", out.Name, err)
	}
	return p.reg.Register(out, registry.KindLabelled, in.Name, map[string]any{"label_columns": cols}), nil
}

// MappedName is the relation name of input with col canonicalized.
func MappedName(input, col string) string { return input + "_mapped_" + col }

// MapColumn replaces the labels of col in the relation in by their canonical
// phrase and stores the result as <in>_mapped_<col>.
func (p *Pipeline) MapColumn(ctx context.Context, in *registry.Handle, col string, m *phrases.Mapper) (*registry.Handle, phrases.Mapping, error) {
	t, err := p.rel.ReadTable(ctx, in.Name)
	if err != nil {
		return nil, nil, err
	}
	idx, err := t.Require(col)
	if err != nil {
		return nil, nil, err
	}
	values, _ := t.Column(col)
	mapped, mapping, err := m.MapColumn(col, values)
	if err != nil {
		return nil, nil, err
	}
	out := t.Clone()
	out.Name = MappedName(in.Name, col)
	for i, r := range out.Rows {
		r[idx[0]] = mapped[i]
	}
	if err := p.rel.WriteTable(ctx, out); err != nil {
		return nil, nil, fmt.Errorf("write %s: %w", out.Name, err)
	}
	p.log.Info().Str("table", out.Name).Str("column", col).Int("groups", mapping.Groups()).Msg("column mapped")
	return p.reg.Register(out, registry.KindMapped, in.Name, map[string]any{"column": col}), mapping, nil
}

// WordQuery selects which groups get word frequencies.
type WordQuery struct {
	GroupCols []string `validate:"required,min=1"`
	TextCol   string   `validate:"required"`
	// Measure, when set, keeps only the top N groups of that relation by
	// MeasureCol.
	Measure    string
	MeasureCol string
	N          int `validate:"gte=0"`
	Ascending  bool
	// WordsPerGroup caps the stored words per group (0 keeps all).
	WordsPerGroup int `validate:"gte=0"`
}

// WordFrequencies computes per-group word counts of the source relation and
// stores them as words_by_<cols>.
func (p *Pipeline) WordFrequencies(ctx context.Context, q WordQuery, norm *phrases.Normalizer) ([]wordfreq.GroupWords, *registry.Handle, error) {
	if err := validation.Check(q, ErrInvalidOptions); err != nil {
		return nil, nil, err
	}
	src, err := p.rel.ReadTable(ctx, p.opts.SourceTable)
	if err != nil {
		return nil, nil, err
	}
	groups, err := wordfreq.ByGroup(src, q.GroupCols, q.TextCol, norm)
	if err != nil {
		return nil, nil, err
	}
	if q.Measure != "" && q.N > 0 {
		measure, err := p.rel.ReadTable(ctx, q.Measure)
		if err != nil {
			return nil, nil, err
		}
		groups, err = wordfreq.FilterTop(groups, measure, q.GroupCols, q.MeasureCol, q.N, q.Ascending)
		if err != nil {
			return nil, nil, err
		}
	}
	out := wordfreq.ToTable(groups, q.GroupCols, q.WordsPerGroup)
	if err := p.rel.WriteTable(ctx, out); err != nil {
		return nil, nil, fmt.Errorf("write %s: %w", out.Name, err)
	}
	h := p.reg.Register(out, registry.KindWords, src.Name, map[string]any{
		"text_column": q.TextCol,
		"measure":     q.Measure,
	})
	return groups, h, nil
}

// Summary lists what Run produced.
type Summary struct {
	Ingest    *IngestResult
	Frequency []*registry.Handle
	TopN      []*registry.Handle
	Stats     []*registry.Handle
	Recursive []*registry.Handle
	// Label is the labelled copy of the last hierarchical top-n table.
	Label *registry.Handle
}

// Run executes the default sequence: ingest, frequency tables, top-n tables,
// grouped statistics, hierarchical top-n and labelling of its results.
func (p *Pipeline) Run(ctx context.Context, path string) (*Summary, error) {
	sum := &Summary{}
	var err error
	if sum.Ingest, err = p.Ingest(ctx, path); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	if sum.Frequency, err = p.FrequencyTables(ctx); err != nil {
		return nil, fmt.Errorf("frequency tables: %w", err)
	}
	if sum.TopN, err = p.TopNTables(ctx, sum.Frequency, p.opts.TopN); err != nil {
		return nil, fmt.Errorf("top-n tables: %w", err)
	}
	if p.opts.StatsValue == "" {
		return sum, nil
	}
	var input *registry.Handle
	for _, cols := range p.opts.StatsGroups {
		h, err := p.GroupedStats(ctx, p.opts.StatsValue, cols)
		if err != nil {
			return nil, fmt.Errorf("grouped stats: %w", err)
		}
		sum.Stats = append(sum.Stats, h)
		if slices.Equal(cols, p.opts.RecursiveGroups) {
			input = h
		}
	}
	if len(p.opts.RecursiveGroups) == 0 || len(p.opts.RecursiveRuns) == 0 {
		return sum, nil
	}
	if input == nil {
		if input, err = p.GroupedStats(ctx, p.opts.StatsValue, p.opts.RecursiveGroups); err != nil {
			return nil, fmt.Errorf("grouped stats: %w", err)
		}
	}
	for _, run := range p.opts.RecursiveRuns {
		spec, err := topn.NewSpec(p.opts.RecursiveScore, p.opts.RecursiveGroups, run.Limits, run.Keep, false)
		if err != nil {
			return nil, err
		}
		h, err := p.RecursiveTopN(ctx, input, spec)
		if err != nil {
			return nil, fmt.Errorf("hierarchical top-n: %w", err)
		}
		sum.Recursive = append(sum.Recursive, h)
	}
	last := sum.Recursive[len(sum.Recursive)-1]
	if sum.Label, err = p.Label(ctx, last, p.opts.RecursiveGroups); err != nil {
		return nil, fmt.Errorf("label: %w", err)
	}
	return sum, nil
}
