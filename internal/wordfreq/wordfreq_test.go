package wordfreq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/winestat/internal/phrases"
	"github.com/KaramelBytes/winestat/internal/table"
)

func reviews() *table.Table {
	t := table.New("wine", []string{"country", "province", "description"})
	t.Append("US", "Oregon", "Tart and snappy, the flavors of lime flesh and rind dominate.")
	t.Append("US", "Oregon", "Pineapple rind, lemon pith and orange blossom start off the aromas.")
	t.Append("Italy", "Sicily & Sardinia", "Aromas include tropical fruit, broom, brimstone and dried herb.")
	t.Append("US", nil, "Rind rind")
	t.Append("Portugal", "Douro", nil)
	return t
}

func TestMapOperations(t *testing.T) {
	m := WordFrequencyMap{}
	m.Add("rind", 2)
	m.Add("lime", 1)
	m.Add("", 5)
	m.Merge(WordFrequencyMap{"lime": 2, "pith": 1})
	assert.Equal(t, 6, m.TotalCount())
	assert.Equal(t, []WordCount{{"lime", 3}, {"rind", 2}}, m.Top(2))
	assert.Len(t, m.Top(0), 3)
}

func TestCountStemsAndDropsStopwords(t *testing.T) {
	got := Count("Fruits and fruit, of the", phrases.NewNormalizer(nil, true))
	assert.Equal(t, WordFrequencyMap{"fruit": 2}, got)
}

func TestByGroup(t *testing.T) {
	groups, err := ByGroup(reviews(), []string{"country", "province"}, "description", phrases.NewNormalizer(nil, false))
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, []any{"US", "Oregon"}, groups[0].Keys)
	assert.Equal(t, 2, groups[0].Rows)
	assert.Equal(t, 2, groups[0].Words["rind"])
	assert.Equal(t, 1, groups[0].Words["aromas"])
	assert.NotContains(t, groups[0].Words, "off")
	assert.Equal(t, "US / Oregon", groups[0].Label(" / "))

	assert.Equal(t, "Italy", groups[1].Keys[0])
	assert.Equal(t, 0, groups[2].Words.TotalCount())

	_, err = ByGroup(reviews(), []string{"region_1"}, "description", phrases.NewNormalizer(nil, false))
	require.ErrorIs(t, err, table.ErrColumnNotFound)
	_, err = ByGroup(reviews(), nil, "description", phrases.NewNormalizer(nil, false))
	require.Error(t, err)
}

func TestFilterTopAndToTable(t *testing.T) {
	groups, err := ByGroup(reviews(), []string{"country", "province"}, "description", phrases.NewNormalizer(nil, false))
	require.NoError(t, err)

	measure := table.New("price_stats", []string{"country", "province", "mean"})
	measure.Append("US", "Oregon", 30.0)
	measure.Append("Italy", "Sicily & Sardinia", 50.0)
	measure.Append("Portugal", "Douro", 10.0)

	top, err := FilterTop(groups, measure, []string{"country", "province"}, "mean", 2, false)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "US", top[0].Keys[0])
	assert.Equal(t, "Italy", top[1].Keys[0])

	bottom, err := FilterTop(groups, measure, []string{"country", "province"}, "mean", 1, true)
	require.NoError(t, err)
	require.Len(t, bottom, 1)
	assert.Equal(t, "Portugal", bottom[0].Keys[0])

	_, err = FilterTop(groups, measure, []string{"country", "province"}, "mean", 0, false)
	require.Error(t, err)

	tb := ToTable(top, []string{"country", "province"}, 1)
	assert.Equal(t, "words_by_country_province", tb.Name)
	assert.Equal(t, []string{"country", "province", "word", "count"}, tb.Columns)
	require.Equal(t, 2, tb.Len())
	assert.Equal(t, []any{"US", "Oregon", "rind", int64(2)}, tb.Rows[0])
	assert.Equal(t, []any{"Italy", "Sicily & Sardinia", "aromas", int64(1)}, tb.Rows[1])
}
