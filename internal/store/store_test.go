package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/winestat/internal/table"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sample() *table.Table {
	t := table.New("wine", []string{"country", "points", "price", "organic", "tasted"})
	ts := time.Date(2017, 6, 1, 0, 0, 0, 0, time.UTC)
	t.Append("Italy", int64(87), nil, true, ts)
	t.Append("US", int64(90), 15.5, false, nil)
	t.Append(nil, int64(88), int64(20), nil, ts)
	t.Append("France", nil, math.NaN(), true, ts)
	return t
}

func TestWriteAndReadTable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.WriteTable(ctx, sample()))

	got, err := s.ReadTable(ctx, "wine")
	require.NoError(t, err)
	assert.Equal(t, []string{"country", "points", "price", "organic", "tasted"}, got.Columns)
	require.Equal(t, 4, got.Len())
	assert.Equal(t, "Italy", got.Rows[0][0])
	assert.Equal(t, int64(87), got.Rows[0][1])
	assert.Nil(t, got.Rows[0][2])
	assert.Equal(t, true, got.Rows[0][3])
	assert.Equal(t, 15.5, got.Rows[1][2])
	assert.Equal(t, 20.0, got.Rows[2][2])
	assert.Nil(t, got.Rows[2][0])
	assert.Nil(t, got.Rows[3][2])
	tasted, ok := got.Rows[0][4].(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2017, tasted.Year())

	n, err := s.Count(ctx, "wine")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestWriteTableReplacesAndBatches(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	big := table.New("nums", []string{"n", "label"})
	for i := 0; i < insertBatch*2+7; i++ {
		big.Append(int64(i), "x")
	}
	require.NoError(t, s.WriteTable(ctx, big))
	n, err := s.Count(ctx, "nums")
	require.NoError(t, err)
	assert.Equal(t, int64(insertBatch*2+7), n)

	small := table.New("nums", []string{"other"})
	small.Append("only")
	require.NoError(t, s.WriteTable(ctx, small))
	got, err := s.ReadTable(ctx, "nums")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, got.Columns)
	assert.Equal(t, 1, got.Len())
}

func TestMissingTable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.ReadTable(ctx, "nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
	_, err = s.Count(ctx, "nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.NoError(t, s.DropTable(ctx, "nope"))
}

func TestTablesQuoteAndQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	odd := table.New(`freq "odd" name`, []string{"region 1", "n"})
	odd.Append("Napa", int64(2))
	odd.Append("Sonoma", int64(5))
	require.NoError(t, s.WriteTable(ctx, odd))
	require.NoError(t, s.WriteTable(ctx, sample()))

	names, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{`freq "odd" name`, "wine"}, names)

	res, err := s.Query(ctx, "agg", "SELECT sum(n) AS total, avg(n) AS mean FROM "+Quote(`freq "odd" name`))
	require.NoError(t, err)
	assert.Equal(t, []string{"total", "mean"}, res.Columns)
	total, ok := table.Float(res.Rows[0][0])
	require.True(t, ok)
	assert.Equal(t, 7.0, total)
	assert.Equal(t, 3.5, res.Rows[0][1])

	require.NoError(t, s.DropTable(ctx, "wine"))
	ok, err = s.Exists(ctx, "wine")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileDatabasePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "wine.duckdb")
	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.WriteTable(ctx, sample()))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(ctx, "wine")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestInferTypes(t *testing.T) {
	tb := table.New("t", []string{"a", "b", "c", "d"})
	tb.Append(int64(1), 1.5, "x", nil)
	tb.Append(2.5, int64(2), int64(3), nil)
	assert.Equal(t, []sqlType{typeDouble, typeDouble, typeVarchar, typeVarchar}, inferTypes(tb))
	assert.Equal(t, "3", coerce(int64(3), typeVarchar))
	assert.Equal(t, `"a""b"`, Quote(`a"b`))
}
