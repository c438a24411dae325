package topn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/winestat/internal/table"
)

func workedTable() *table.Table {
	t := table.New("scores", []string{"A", "B", "C", "X"})
	for _, r := range [][]any{
		{"a", "x", "d", int64(20)},
		{"a", "x", "e", int64(30)},
		{"a", "y", "e", int64(40)},
		{"b", "z", "d", int64(50)},
		{"b", "a", "e", int64(10)},
		{"b", "z", "e", int64(20)},
		{"c", "w", "d", int64(80)},
		{"c", "x", "d", int64(50)},
		{"c", "x", "e", int64(5)},
		{"c", "z", "e", int64(45)},
	} {
		t.Append(r...)
	}
	return t
}

func mustSpec(t *testing.T, limits []int, keep []bool, asc bool) Spec {
	t.Helper()
	s, err := NewSpec("X", []string{"A", "B", "C"}, limits, keep, asc)
	require.NoError(t, err)
	return s
}

func TestFilterWorkedExample(t *testing.T) {
	in := workedTable()
	out, err := Filter(in, mustSpec(t, []int{2, 2, 1}, []bool{true, true, true}, false))
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{"c", "w", "d", int64(80)},
		{"b", "z", "d", int64(50)},
		{"c", "x", "d", int64(50)},
	}, out.Rows)
	assert.Equal(t, []string{"A", "B", "C", "X"}, out.Columns)
	// input untouched
	assert.Equal(t, "a", in.Rows[0][0])
	assert.Equal(t, int64(20), in.Rows[0][3])
}

func TestFilterDuplicatePolicy(t *testing.T) {
	out, err := Filter(workedTable(), mustSpec(t, []int{2, 2, 1}, []bool{true, false, true}, false))
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{"c", "w", "d", int64(80)},
		{"b", "z", "d", int64(50)},
		{"c", "x", "d", int64(50)},
		{"b", "a", "e", int64(10)},
	}, out.Rows)
}

func TestFilterRowCapAtRoot(t *testing.T) {
	for k := 1; k <= 4; k++ {
		out, err := Filter(workedTable(), mustSpec(t, []int{k, 10, 10}, []bool{false, true, true}, false))
		require.NoError(t, err)
		distinct := map[any]bool{}
		for _, r := range out.Rows {
			distinct[r[0]] = true
		}
		assert.LessOrEqual(t, len(distinct), k)
		assert.LessOrEqual(t, out.Len(), k)
	}
}

func TestFilterNoOpWhenLimitsExceedData(t *testing.T) {
	in := workedTable()
	out, err := Filter(in, mustSpec(t, []int{100, 100, 100}, []bool{true, true, true}, false))
	require.NoError(t, err)
	sorted := in.Clone()
	require.NoError(t, sorted.SortBy("X", false))
	assert.Equal(t, sorted.Rows, out.Rows)
}

func TestFilterAscendingRanksByLowestMax(t *testing.T) {
	out, err := Filter(workedTable(), mustSpec(t, []int{1, 1, 1}, []bool{true, true, true}, true))
	require.NoError(t, err)
	// max per A: a=40, b=50, c=80; ascending keeps a, then its cheapest row.
	assert.Equal(t, [][]any{{"a", "x", "d", int64(20)}}, out.Rows)
}

func TestFilterNullScoresRankLast(t *testing.T) {
	in := table.New("t", []string{"g", "s"})
	in.Append("n", nil)
	in.Append("p", 1.0)
	s, err := NewSpec("s", []string{"g"}, []int{1}, []bool{true}, false)
	require.NoError(t, err)
	out, err := Filter(in, s)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"p", 1.0}}, out.Rows)
}

func TestSpecValidation(t *testing.T) {
	_, err := NewSpec("X", []string{"A", "B"}, []int{1}, []bool{true, true}, false)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = NewSpec("X", []string{"A"}, []int{0}, []bool{true}, false)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = NewSpec("X", nil, nil, nil, false)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = NewSpec("X", []string{"X"}, []int{1}, []bool{true}, false)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	s := mustSpec(t, []int{1, 1, 1}, []bool{true, true, true}, false)
	s.Levels[1].Column = "missing"
	_, err = Filter(workedTable(), s)
	assert.ErrorIs(t, err, ErrInvalidSpec)
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}

func TestOutputName(t *testing.T) {
	s := mustSpec(t, []int{3, 2, 2}, []bool{true, false, false}, false)
	assert.Equal(t, "stats_recurs_limit_A_B_C_3_2_2_tff", OutputName("stats", s))
	s.Ascending = true
	assert.Equal(t, "stats_recurs_limit_A_B_C_3_2_2_tff_asc", OutputName("stats", s))
}
