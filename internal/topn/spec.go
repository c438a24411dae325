// Package topn narrows a pre-aggregated table level by level along an ordered
// list of grouping columns, keeping the best groups at the root level and the
// best rows per parent group below it.
package topn

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/winestat/internal/validation"
)

// ErrInvalidSpec is returned for malformed filter specifications.
var ErrInvalidSpec = errors.New("invalid top-n spec")

// Level configures one grouping column.
type Level struct {
	Column         string `validate:"required"`
	Limit          int    `validate:"gt=0"`
	KeepDuplicates bool
}

// Spec is the full filter configuration. Levels run root to leaf.
type Spec struct {
	ScoreColumn string  `validate:"required"`
	Levels      []Level `validate:"required,min=1,dive"`
	Ascending   bool
}

// NewSpec builds a Spec from parallel lists and validates it.
func NewSpec(score string, columns []string, limits []int, keep []bool, ascending bool) (Spec, error) {
	if len(limits) != len(columns) || len(keep) != len(columns) {
		return Spec{}, validation.Invalid(ErrInvalidSpec, "Levels",
			fmt.Sprintf("need equal lengths (columns=%d limits=%d keep=%d)", len(columns), len(limits), len(keep)))
	}
	s := Spec{ScoreColumn: score, Ascending: ascending}
	for i, c := range columns {
		s.Levels = append(s.Levels, Level{Column: c, Limit: limits[i], KeepDuplicates: keep[i]})
	}
	return s, s.Validate()
}

// Validate checks the spec without looking at any table.
func (s Spec) Validate() error {
	if err := validation.Check(s, ErrInvalidSpec); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(s.Levels))
	for _, l := range s.Levels {
		if l.Column == s.ScoreColumn {
			return validation.Invalid(ErrInvalidSpec, "Levels", fmt.Sprintf("column %q is also the score column", l.Column))
		}
		if _, dup := seen[l.Column]; dup {
			return validation.Invalid(ErrInvalidSpec, "Levels", fmt.Sprintf("column %q listed twice", l.Column))
		}
		seen[l.Column] = struct{}{}
	}
	return nil
}

// Columns returns the grouping columns in level order.
func (s Spec) Columns() []string {
	out := make([]string, len(s.Levels))
	for i, l := range s.Levels {
		out[i] = l.Column
	}
	return out
}

// OutputName derives the result relation name from the input name and spec.
func OutputName(input string, s Spec) string {
	limits := make([]string, len(s.Levels))
	var flags strings.Builder
	for i, l := range s.Levels {
		limits[i] = strconv.Itoa(l.Limit)
		if l.KeepDuplicates {
			flags.WriteByte('t')
		} else {
			flags.WriteByte('f')
		}
	}
	name := fmt.Sprintf("%s_recurs_limit_%s_%s_%s", input,
		strings.Join(s.Columns(), "_"), strings.Join(limits, "_"), flags.String())
	if s.Ascending {
		name += "_asc"
	}
	return name
}
