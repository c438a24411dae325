package registry_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/winestat/internal/registry"
	"github.com/KaramelBytes/winestat/internal/table"
)

func TestRegisterLookupAndReplace(t *testing.T) {
	reg := registry.New("")
	src := table.New("wine", []string{"country", "price"})
	src.Append("US", 14.0)
	h := reg.Register(src, registry.KindSource, "", nil)
	if h.ID == "" || h.Rows != 1 {
		t.Fatalf("handle = %#v", h)
	}

	freq := table.New("freq_country", []string{"country", "freq_country"})
	reg.Register(freq, registry.KindFrequency, "wine", map[string]any{"label_column": "country"})

	got, err := reg.Lookup("freq_country")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Source != "wine" || got.Param("label_column") != "country" {
		t.Fatalf("got = %#v", got)
	}

	src.Append("Italy", 16.0)
	again := reg.Register(src, registry.KindSource, "", nil)
	if len(reg.Handles) != 2 || reg.Handles[0] != again || again.Rows != 2 {
		t.Fatalf("replace failed: %#v", reg.Handles)
	}

	if _, err := reg.Lookup("nope"); !errors.Is(err, registry.ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
	if n := len(reg.ByKind(registry.KindFrequency)); n != 1 {
		t.Fatalf("frequency handles = %d, want 1", n)
	}
}

func TestSaveAndLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws", registry.ManifestFileName)
	reg := registry.New(path)
	reg.Register(table.New("freq_points", []string{"points", "freq_points"}), registry.KindFrequency, "wine",
		map[string]any{"label_column": "points", "count_column": "freq_points"})
	reg.Register(table.New("freq_points_top_5", []string{"points", "freq_points"}), registry.KindTopN, "freq_points",
		map[string]any{"n": 5})
	if err := reg.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := registry.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Handles) != 2 {
		t.Fatalf("handles = %d, want 2", len(loaded.Handles))
	}
	h, err := loaded.Lookup("freq_points_top_5")
	if err != nil {
		t.Fatalf("lookup after load: %v", err)
	}
	if h.Kind != registry.KindTopN || h.Params["n"] != float64(5) {
		t.Fatalf("loaded handle = %#v", h)
	}
	if loaded.Handles[0].Param("count_column") != "freq_points" {
		t.Fatalf("params lost: %#v", loaded.Handles[0].Params)
	}
}

func TestLoadMissingManifestIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	reg, err := registry.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(reg.Handles) != 0 || reg.Path() != path {
		t.Fatalf("reg = %#v", reg)
	}
	if err := registry.New("").Save(); err == nil {
		t.Fatalf("expected error saving without path")
	}
}

func TestRemoveReindexes(t *testing.T) {
	reg := registry.New("")
	for _, name := range []string{"a", "b", "c"} {
		reg.Register(table.New(name, []string{"x"}), registry.KindStats, "", nil)
	}
	if !reg.Remove("a") {
		t.Fatalf("remove a reported missing")
	}
	if reg.Remove("a") {
		t.Fatalf("second remove should report false")
	}
	h, err := reg.Lookup("c")
	if err != nil || h.Name != "c" {
		t.Fatalf("lookup c after remove: %v %#v", err, h)
	}
	if len(reg.Handles) != 2 || reg.Handles[0].Name != "b" {
		t.Fatalf("handles = %#v", reg.Handles)
	}
}
