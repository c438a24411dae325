package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsResolveUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.SourceTable != "wine_init" || c.PhraseThreshold != 85 || c.GenericThreshold != 0 {
		t.Fatalf("defaults = %+v", c)
	}
	if c.CacheBackend != "json" || !c.CachePersist || c.CacheVerify {
		t.Fatalf("cache defaults = %+v", c)
	}
	if len(c.TopN) != 3 || c.TopN[2] != 20 {
		t.Fatalf("top_n = %v", c.TopN)
	}
	if want := filepath.Join(home, ".winestat", "winestat.duckdb"); c.DBPath != want {
		t.Fatalf("db_path = %s, want %s", c.DBPath, want)
	}
	if want := filepath.Join(home, ".winestat", "manifest.json"); c.ManifestPath != want {
		t.Fatalf("manifest_path = %s, want %s", c.ManifestPath, want)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	body := "phrase_threshold: 70\ncache_backend: bolt\nsource_table: reviews\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WINESTAT_SOURCE_TABLE", "from_env")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.PhraseThreshold != 70 || c.CacheBackend != "bolt" {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.SourceTable != "from_env" {
		t.Fatalf("env should override file, got %q", c.SourceTable)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	c.PhraseGeneric = true
	c.GenericThreshold = 60
	if err := Save(c, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !again.PhraseGeneric || again.GenericThreshold != 60 {
		t.Fatalf("reloaded = %+v", again)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	base, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := map[string]func(c *Global){
		"threshold":   func(c *Global) { c.PhraseThreshold = 101 },
		"generic":     func(c *Global) { c.GenericThreshold = -1 },
		"backend":     func(c *Global) { c.CacheBackend = "redis" },
		"top_n":       func(c *Global) { c.TopN = []int{5, 0} },
		"log_format":  func(c *Global) { c.LogFormat = "xml" },
		"source name": func(c *Global) { c.SourceTable = "" },
	}
	for name, mutate := range cases {
		c := *base
		mutate(&c)
		if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}
