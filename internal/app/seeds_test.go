package app

import (
	"os"
	"path/filepath"
	"testing"

	"ContentGenerator/internal/domain"
)

func TestParseSeedsDefaultsActive(t *testing.T) {
	t.Parallel()

	items, err := ParseSeeds([]byte(`{"locations":[
		{"slug":"cork","name":"Cork","priority":2,"metadata":{"county":"Cork"}},
		{"slug":"sligo","name":"Sligo","priority":5,"active":false}
	]}`))
	if err != nil {
		t.Fatalf("ParseSeeds returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !items[0].Active || items[0].Metadata["county"] != "Cork" || items[0].Dimension != domain.DimensionLocation {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Active {
		t.Fatal("explicit active: false must be kept")
	}
}

func TestParseSeedsRejectsInvalidEntries(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"priority out of range": "industries:\n  - slug: baker\n    priority: 9\n",
		"missing slug":          "locations:\n  - name: Nowhere\n    priority: 1\n",
		"duplicate":             "locations:\n  - slug: cork\n    priority: 1\n  - slug: cork\n    priority: 2\n",
		"not yaml":              "locations: [",
	}
	for name, data := range cases {
		if _, err := ParseSeeds([]byte(data)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadSeedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seeds.yaml")
	if err := os.WriteFile(path, []byte("locations:\n  - slug: cork\n    name: Cork\n    priority: 1\n"), 0o600); err != nil {
		t.Fatalf("write seeds: %v", err)
	}
	items, err := LoadSeedFile(path)
	if err != nil || len(items) != 1 {
		t.Fatalf("unexpected result %v (%v)", items, err)
	}

	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
