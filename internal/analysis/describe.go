package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/winestat/internal/table"
)

// Options controls Describe.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// TopValues caps the categorical top list per column.
	TopValues int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{SampleRows: 5, TopValues: 8}
}

// Report is a markdown-friendly description of a table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     *CorrMatrix
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|datetime|categorical|text|unknown
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

type colAcc struct {
	nonNil int
	miss   int
	// numeric stats via Welford
	n      int
	mean   float64
	m2     float64
	min    float64
	max    float64
	dtCnt  int
	txtCnt int
	cats   map[string]int
	exText []string
	nums   []float64
}

func (c *colAcc) addNumber(x float64) {
	c.n++
	if x < c.min {
		c.min = x
	}
	if x > c.max {
		c.max = x
	}
	delta := x - c.mean
	c.mean += delta / float64(c.n)
	c.m2 += delta * (x - c.mean)
	c.nums = append(c.nums, x)
}

type pairAcc struct {
	n, sumX, sumY, sumXX, sumYY, sumXY float64
}

func (p *pairAcc) add(x, y float64) {
	p.n++
	p.sumX += x
	p.sumY += y
	p.sumXX += x * x
	p.sumYY += y * y
	p.sumXY += x * y
}

func (p *pairAcc) r() (float64, bool) {
	if p == nil || p.n < 2 {
		return 0, false
	}
	denom := math.Sqrt((p.n*p.sumXX - p.sumX*p.sumX) * (p.n*p.sumYY - p.sumY*p.sumY))
	if denom == 0 {
		return 0, false
	}
	r := (p.n*p.sumXY - p.sumX*p.sumY) / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, r)), true
}

type groupAcc struct {
	size int
	sum  map[int]float64
	cnt  map[int]int
	min  map[int]float64
	max  map[int]float64
}

// Describe summarizes every column of t.
func Describe(t *table.Table, opt Options) (*Report, error) {
	rep := &Report{Name: t.Name, Rows: t.Len()}
	ncol := len(t.Columns)
	if ncol == 0 {
		return rep, nil
	}
	gidx, err := t.Require(opt.GroupBy...)
	if err != nil {
		return nil, err
	}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}

	cols := make([]*colAcc, ncol)
	for i := range cols {
		cols[i] = &colAcc{min: math.Inf(1), max: math.Inf(-1), cats: make(map[string]int)}
	}
	pair := make(map[[2]int]*pairAcc)
	groups := map[string]*groupAcc{}

	for _, row := range t.Rows {
		if len(rep.Samples) < sampleRows {
			s := make([]string, ncol)
			for j, v := range row {
				s[j] = table.String(v)
			}
			rep.Samples = append(rep.Samples, s)
		}
		var ga *groupAcc
		if len(gidx) > 0 {
			parts := make([]string, len(gidx))
			for i, k := range gidx {
				parts[i] = fmt.Sprintf("%s=%s", t.Columns[k], safeVal(table.String(row[k])))
			}
			key := strings.Join(parts, " | ")
			ga = groups[key]
			if ga == nil {
				ga = &groupAcc{sum: map[int]float64{}, cnt: map[int]int{}, min: map[int]float64{}, max: map[int]float64{}}
				groups[key] = ga
			}
			ga.size++
		}

		rowNums := make(map[int]float64)
		for j, v := range row {
			c := cols[j]
			if table.IsNull(v) {
				c.miss++
				continue
			}
			c.nonNil++
			if x, ok := table.Float(v); ok {
				c.addNumber(x)
				rowNums[j] = x
				if ga != nil {
					ga.sum[j] += x
					ga.cnt[j]++
					if m, ok := ga.min[j]; !ok || x < m {
						ga.min[j] = x
					}
					if m, ok := ga.max[j]; !ok || x > m {
						ga.max[j] = x
					}
				}
				continue
			}
			if _, ok := v.(time.Time); ok {
				c.dtCnt++
				continue
			}
			s := strings.TrimSpace(table.String(v))
			c.txtCnt++
			if len(c.cats) <= 10000 && len(s) <= 64 { // guard memory
				c.cats[s]++
			}
			if len(c.exText) < 3 {
				c.exText = append(c.exText, s)
			}
		}
		if opt.Correlations && len(rowNums) >= 2 {
			idxs := make([]int, 0, len(rowNums))
			for j := range rowNums {
				idxs = append(idxs, j)
			}
			sort.Ints(idxs)
			for a := 1; a < len(idxs); a++ {
				for b := 0; b < a; b++ {
					key := [2]int{idxs[b], idxs[a]}
					pa := pair[key]
					if pa == nil {
						pa = &pairAcc{}
						pair[key] = pa
					}
					pa.add(rowNums[idxs[b]], rowNums[idxs[a]])
				}
			}
		}
	}

	var numCols []int
	for j, c := range cols {
		s := summarize(t.Columns[j], c, opt)
		if s.Kind == "numeric" {
			numCols = append(numCols, j)
		}
		rep.Cols = append(rep.Cols, s)
	}

	if len(groups) > 0 {
		out := make([]GroupResult, 0, len(groups))
		for k, ga := range groups {
			gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
			for _, j := range numCols {
				if ga.cnt[j] == 0 {
					continue
				}
				gr.Metrics[t.Columns[j]] = NumSummary{Count: ga.cnt[j], Min: ga.min[j], Max: ga.max[j], Mean: ga.sum[j] / float64(ga.cnt[j])}
			}
			out = append(out, gr)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Size == out[j].Size {
				return out[i].Key < out[j].Key
			}
			return out[i].Size > out[j].Size
		})
		if len(out) > 20 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("showing 20 of %d groups", len(out)))
			out = out[:20]
		}
		rep.Groups = out
	}

	if opt.Correlations && len(numCols) >= 2 {
		names := make([]string, len(numCols))
		for i, j := range numCols {
			names[i] = t.Columns[j]
		}
		n := len(numCols)
		mat := make([][]float64, n)
		for a := range mat {
			mat[a] = make([]float64, n)
			for b := range mat[a] {
				if a == b {
					mat[a][b] = 1
					continue
				}
				lo, hi := min(numCols[a], numCols[b]), max(numCols[a], numCols[b])
				if r, ok := pair[[2]int{lo, hi}].r(); ok {
					mat[a][b] = r
				}
			}
		}
		rep.Corr = &CorrMatrix{Columns: names, Values: mat}
	}
	return rep, nil
}

func summarize(name string, c *colAcc, opt Options) ColumnSummary {
	s := ColumnSummary{Name: name, NonNull: c.nonNil, Missing: c.miss, Kind: "unknown"}
	switch {
	case c.n > 0 && c.n >= c.dtCnt && c.n >= c.txtCnt:
		s.Kind = "numeric"
		s.Min, s.Max, s.Mean = c.min, c.max, c.mean
		if c.n > 1 {
			s.Std = math.Sqrt(c.m2 / float64(c.n-1))
		}
		if opt.Outliers && len(c.nums) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(c.nums, thr)
			s.OutlierThreshold = thr
		}
	case c.dtCnt > 0 && c.dtCnt >= c.txtCnt:
		s.Kind = "datetime"
	case len(c.cats) > 0:
		s.Kind = "categorical"
		tops := make([]CategoryCount, 0, len(c.cats))
		for k, v := range c.cats {
			tops = append(tops, CategoryCount{Value: k, Count: v})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		limit := opt.TopValues
		if limit <= 0 {
			limit = 8
		}
		if len(tops) > limit {
			tops = tops[:limit]
		}
		s.TopValues = tops
		s.Unique = len(c.cats)
	case c.txtCnt > 0:
		s.Kind = "text"
		s.ExampleTexts = c.exText
		s.Unique = len(c.cats)
	}
	return s
}

// robustOutliers counts values whose robust Z-score exceeds thr.
func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		maxAbsZ = math.Max(maxAbsZ, az)
	}
	return count, maxAbsZ
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	return median, quantile(dev, 0.5)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
