// Package mapcache stores phrase mappings on disk, either as one JSON file per
// key or inside a single bbolt database. Both stores are write-once per key.
package mapcache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/winestat/internal/phrases"
	"github.com/KaramelBytes/winestat/internal/utils"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Store is a phrases.Cache that may hold resources.
type Store interface {
	phrases.Cache
	io.Closer
}

// Open returns the store for backend ("json" or "bolt") rooted at dir.
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", "json", "file":
		return NewFileStore(dir)
	case "bolt", "bbolt":
		return OpenBolt(filepath.Join(dir, "mappings.db"))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// FileStore keeps each mapping in <Dir>/<key>.json.
type FileStore struct {
	Dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.Dir, sanitize(key)+".json")
}

// Get reads a mapping document if it exists.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	b, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Put writes data unless the key is already stored.
func (s *FileStore) Put(key string, data []byte) error {
	p := s.path(key)
	if utils.FileExists(p) {
		return nil
	}
	return utils.SafeWriteFile(p, data)
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// sanitize keeps keys usable as file names.
func sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, key)
}
