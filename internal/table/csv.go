package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CSVOptions controls how a CSV file becomes a Table.
type CSVOptions struct {
	// Delimiter for CSV. If 0, picks tab for .tsv files and comma otherwise.
	Delimiter rune
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// DropColumns removes header names after trimming (e.g. the pandas index column).
	DropColumns []string
}

// DefaultCSVOptions drops the unnamed leading index column the wine dump carries.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{DropColumns: []string{"", "Unnamed: 0"}}
}

// ReadCSV reads a delimited file into a Table named after the file.
// Column types are inferred after the full read: a column whose non-empty
// values all parse as integers becomes int64, all-numeric becomes float64,
// anything else stays string. Empty cells are null.
func ReadCSV(path string, opt CSVOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return readCSV(f, name, delim, opt)
}

func readCSV(src io.Reader, name string, delim rune, opt CSVOptions) (*Table, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = delim

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(name, nil), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	return build(name, header, r.Read, opt)
}

// build turns a header and a record source into a typed Table. next returns
// io.EOF once the source is exhausted.
func build(name string, header []string, next func() ([]string, error), opt CSVOptions) (*Table, error) {
	drop := make(map[string]struct{}, len(opt.DropColumns))
	for _, c := range opt.DropColumns {
		drop[strings.TrimSpace(c)] = struct{}{}
	}
	var keep []int
	var cols []string
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, ok := drop[h]; ok {
			continue
		}
		keep = append(keep, i)
		cols = append(cols, h)
	}

	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	var raw [][]string
	for len(raw) < maxRows {
		rec, err := next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(raw)+1, err)
		}
		row := make([]string, len(keep))
		for j, k := range keep {
			if k < len(rec) {
				row[j] = rec[k]
			}
		}
		raw = append(raw, row)
	}

	t := New(name, cols)
	t.Rows = make([][]any, len(raw))
	for i := range raw {
		t.Rows[i] = make([]any, len(cols))
	}
	for j := range cols {
		kind := inferKind(raw, j)
		for i, rec := range raw {
			t.Rows[i][j] = convert(rec[j], kind)
		}
	}
	return t, nil
}

type cellKind int

const (
	kindInt cellKind = iota
	kindFloat
	kindString
)

func inferKind(raw [][]string, j int) cellKind {
	kind := kindInt
	seen := false
	for _, rec := range raw {
		v := strings.TrimSpace(rec[j])
		if v == "" {
			continue
		}
		seen = true
		if kind == kindInt {
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			kind = kindFloat
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return kindString
		}
	}
	if !seen {
		return kindString
	}
	return kind
}

func convert(v string, kind cellKind) any {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil
	}
	switch kind {
	case kindInt:
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	case kindFloat:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	return v
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
