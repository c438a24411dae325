package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/KaramelBytes/winestat/internal/table"
	"github.com/KaramelBytes/winestat/internal/utils"
)

// ManifestFileName is the default manifest name inside a workspace directory.
const ManifestFileName = "manifest.json"

// ErrUnknownTable is returned when a name has no registered handle.
var ErrUnknownTable = errors.New("table not registered")

// Registry records every relation the pipeline produced, in creation order.
type Registry struct {
	Handles   []*Handle `json:"handles"`
	UpdatedAt time.Time `json:"updated_at"`

	// Not serialized: on-disk location of the manifest.
	path   string
	byName map[string]int
}

// New returns an empty registry persisted at path (may be empty for an
// in-memory registry).
func New(path string) *Registry {
	return &Registry{path: path, byName: make(map[string]int)}
}

// Load reads a manifest. A missing file yields an empty registry bound to path.
func Load(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(path), nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	r := New(path)
	if err := json.Unmarshal(b, r); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	for i, h := range r.Handles {
		r.byName[h.Name] = i
	}
	return r, nil
}

// Path returns the manifest location.
func (r *Registry) Path() string { return r.path }

// Register records t under its name. Re-registering a name replaces the
// previous handle in place, matching create-or-replace in the store.
func (r *Registry) Register(t *table.Table, kind Kind, source string, params map[string]any) *Handle {
	h := &Handle{
		ID:        uuid.NewString(),
		Name:      t.Name,
		Kind:      kind,
		Source:    source,
		Columns:   append([]string(nil), t.Columns...),
		Rows:      t.Len(),
		Params:    params,
		CreatedAt: time.Now().UTC(),
	}
	if i, ok := r.byName[h.Name]; ok {
		r.Handles[i] = h
	} else {
		r.byName[h.Name] = len(r.Handles)
		r.Handles = append(r.Handles, h)
	}
	r.UpdatedAt = h.CreatedAt
	return h
}

// Lookup returns the handle registered under name.
func (r *Registry) Lookup(name string) (*Handle, error) {
	i, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return r.Handles[i], nil
}

// Remove forgets the handle registered under name. It reports whether one
// existed.
func (r *Registry) Remove(name string) bool {
	i, ok := r.byName[name]
	if !ok {
		return false
	}
	r.Handles = append(r.Handles[:i], r.Handles[i+1:]...)
	delete(r.byName, name)
	for j := i; j < len(r.Handles); j++ {
		r.byName[r.Handles[j].Name] = j
	}
	r.UpdatedAt = time.Now().UTC()
	return true
}

// ByKind returns the handles of kind in creation order.
func (r *Registry) ByKind(kind Kind) []*Handle {
	var out []*Handle
	for _, h := range r.Handles {
		if h.Kind == kind {
			out = append(out, h)
		}
	}
	return out
}

// Save writes the manifest using an atomic write.
func (r *Registry) Save() error {
	if r.path == "" {
		return errors.New("manifest path not set")
	}
	if err := utils.EnsureDir(filepath.Dir(r.path)); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(r.path, data)
}
