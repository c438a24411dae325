package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	cfgpkg "github.com/KaramelBytes/winestat/internal/config"
	"github.com/KaramelBytes/winestat/internal/mapcache"
	"github.com/KaramelBytes/winestat/internal/phrases"
	"github.com/KaramelBytes/winestat/internal/pipeline"
	"github.com/KaramelBytes/winestat/internal/registry"
	"github.com/KaramelBytes/winestat/internal/store"
	"github.com/KaramelBytes/winestat/internal/utils"
)

// workspace bundles the database, the manifest and a pipeline over both.
type workspace struct {
	cfg   *cfgpkg.Global
	store *store.Store
	reg   *registry.Registry
	pipe  *pipeline.Pipeline
}

// openWorkspace opens the configured database and manifest. sheet selects the
// worksheet for .xlsx ingests.
func openWorkspace(ctx context.Context, sheet string) (*workspace, error) {
	c, err := currentConfig()
	if err != nil {
		return nil, err
	}
	if err := utils.EnsureDir(filepath.Dir(c.DBPath)); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	st, err := store.Open(ctx, c.DBPath)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Load(c.ManifestPath)
	if err != nil {
		st.Close()
		return nil, err
	}
	p, err := pipeline.New(st, reg, pipelineOptions(c, sheet))
	if err != nil {
		st.Close()
		return nil, err
	}
	return &workspace{cfg: c, store: st, reg: reg, pipe: p}, nil
}

// save persists the manifest.
func (w *workspace) save() error {
	if err := w.reg.Save(); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

func (w *workspace) Close() error { return w.store.Close() }

// table resolves an optional table argument, defaulting to the source table.
func (w *workspace) table(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return w.cfg.SourceTable
}

func pipelineOptions(c *cfgpkg.Global, sheet string) pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.SourceTable = c.SourceTable
	opts.DropColumns = c.DropColumns
	opts.DropNullColumns = c.DropNullColumns
	opts.FreqColumns = c.FreqColumns
	opts.TopN = c.TopN
	opts.Sheet = sheet
	return opts
}

// stopwords maps an empty configured list to nil so the built-in list applies.
func stopwords(c *cfgpkg.Global) []string {
	if len(c.Stopwords) == 0 {
		return nil
	}
	return c.Stopwords
}

// newMapper builds a phrase mapper from config with the cache it opened.
// The returned store is nil when caching is disabled.
func newMapper(c *cfgpkg.Global, opts phrases.Options, useCache bool) (*phrases.Mapper, mapcache.Store, error) {
	g, err := phrases.NewGrouper(opts)
	if err != nil {
		return nil, nil, err
	}
	if !useCache {
		return phrases.NewMapper(g, nil, phrases.MapperOptions{}), nil, nil
	}
	cache, err := mapcache.Open(c.CacheBackend, c.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	m := phrases.NewMapper(g, cache, phrases.MapperOptions{Persist: c.CachePersist, Verify: c.CacheVerify})
	return m, cache, nil
}
