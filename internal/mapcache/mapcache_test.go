package mapcache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/winestat/internal/phrases"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	_, ok, err := s.Get("mapping_variety_85")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put("mapping_variety_85", []byte(`{"a":["a","b"]}`)))
	require.NoError(t, s.Put("mapping_variety_85", []byte(`{"z":["z"]}`)))

	got, ok, err := s.Get("mapping_variety_85")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":["a","b"]}`, string(got))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := Open("json", dir)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
	assert.FileExists(t, filepath.Join(dir, "mapping_variety_85.json"))
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put("mapping_a/b_80", []byte("{}")))
	assert.FileExists(t, filepath.Join(dir, "mapping_a_b_80.json"))
}

func TestBoltStore(t *testing.T) {
	dir := t.TempDir()
	s, err := Open("bolt", dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	keys, err := s.(*BoltStore).Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"mapping_variety_85"}, keys)
	require.NoError(t, s.Close())

	// reopen: data is durable
	s2, err := OpenBolt(filepath.Join(dir, "mappings.db"))
	require.NoError(t, err)
	defer s2.Close()
	_, ok, err := s2.Get("mapping_variety_85")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("redis", t.TempDir())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestMapperUsesStore(t *testing.T) {
	s, err := Open("bolt", t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	g, err := phrases.NewGrouper(phrases.Options{Threshold: 80, NoStem: true})
	require.NoError(t, err)
	m := phrases.NewMapper(g, s, phrases.MapperOptions{Persist: true})
	out, _, err := m.MapColumn("variety", []any{"Pinot Grigio", "Pinot Gris"})
	require.NoError(t, err)
	assert.Equal(t, []any{"Pinot Gris", "Pinot Gris"}, out)

	data, ok, err := s.Get("mapping_variety_80")
	require.NoError(t, err)
	require.True(t, ok)
	mp, err := phrases.UnmarshalMapping(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pinot Grigio", "Pinot Gris"}, mp["Pinot Gris"])
}
