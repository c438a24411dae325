package phrases

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/KaramelBytes/winestat/internal/logging"
	"github.com/KaramelBytes/winestat/internal/table"
)

// Cache is a durable key-value side store for mappings. Put must not
// overwrite an existing key.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, data []byte) error
}

// MapperOptions controls caching.
type MapperOptions struct {
	// Persist writes newly computed mappings to the cache.
	Persist bool
	// Verify adds a fingerprint of the distinct input labels to the cache key,
	// so a changed column does not reuse an old mapping.
	Verify bool
}

// Mapper applies a Grouper to column values with an optional cache.
//
// A cached mapping is reused as-is for its key. Without Verify the key only
// covers column, threshold and mode, so edits to the column are not noticed.
// Concurrent mappers sharing a cache key may both compute and race on Put.
type Mapper struct {
	grouper *Grouper
	cache   Cache
	opts    MapperOptions
	log     zerolog.Logger
}

// NewMapper returns a Mapper. cache may be nil.
func NewMapper(g *Grouper, cache Cache, opts MapperOptions) *Mapper {
	return &Mapper{grouper: g, cache: cache, opts: opts, log: logging.With("phrases")}
}

// CacheKey returns the cache key for column and its distinct labels.
func (m *Mapper) CacheKey(column string, distinct []string) string {
	o := m.grouper.Options()
	var b strings.Builder
	b.WriteString("mapping_")
	b.WriteString(column)
	b.WriteByte('_')
	b.WriteString(strconv.Itoa(o.Threshold))
	if o.Generic {
		b.WriteString("_generic")
	}
	if m.opts.Verify {
		b.WriteByte('_')
		b.WriteString(fingerprint(distinct))
	}
	return b.String()
}

func fingerprint(distinct []string) string {
	s := make([]string, len(distinct))
	copy(s, distinct)
	sort.Strings(s)
	h := sha256.New()
	for _, p := range s {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// MapColumn replaces each label in values with its canonical label. Nulls
// and NaN pass through, labels outside every group stay unchanged. Any other
// non-string value fails with ErrInvalidInput before work starts.
func (m *Mapper) MapColumn(column string, values []any) ([]any, Mapping, error) {
	var distinct []string
	seen := make(map[string]struct{})
	for i, v := range values {
		if table.IsNull(v) {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, nil, fmt.Errorf("%w: column %q row %d holds %T, want text", ErrInvalidInput, column, i, v)
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		distinct = append(distinct, s)
	}

	mapping, err := m.mapping(column, distinct)
	if err != nil {
		return nil, nil, err
	}
	lookup := mapping.Lookup()
	out := make([]any, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok {
			if c, found := lookup[s]; found {
				out[i] = c
				continue
			}
		}
		out[i] = v
	}
	return out, mapping, nil
}

func (m *Mapper) mapping(column string, distinct []string) (Mapping, error) {
	key := m.CacheKey(column, distinct)
	if m.cache != nil {
		data, ok, err := m.cache.Get(key)
		if err != nil {
			return nil, fmt.Errorf("read mapping cache %s: %w", key, err)
		}
		if ok {
			mp, err := UnmarshalMapping(data)
			if err != nil {
				return nil, fmt.Errorf("cache entry %s: %w", key, err)
			}
			m.log.Debug().Str("key", key).Int("groups", len(mp)).Msg("loaded cached mapping")
			return mp, nil
		}
	}

	m.log.Debug().Str("column", column).Int("labels", len(distinct)).Msg("grouping labels")
	mp := m.grouper.Mapping(distinct)
	if m.cache != nil && m.opts.Persist {
		data, err := mp.Marshal()
		if err != nil {
			return nil, fmt.Errorf("encode mapping: %w", err)
		}
		if err := m.cache.Put(key, data); err != nil {
			return nil, fmt.Errorf("write mapping cache %s: %w", key, err)
		}
		m.log.Debug().Str("key", key).Int("groups", len(mp)).Msg("stored mapping")
	}
	return mp, nil
}
