package scoring

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseAreaTable(t *testing.T) {
	data := []byte(`
base:
  night: 60
  transit: 60
  walk: 60
areas:
  "Capitol Hill":
    night: -5
    transit: 10
    walk: 15
`)
	table, err := ParseAreaTable(data)
	if err != nil {
		t.Fatalf("ParseAreaTable: %v", err)
	}
	adj, key, ok := table.Lookup("capitol  hill")
	if !ok {
		t.Fatal("expected capitol hill entry")
	}
	if key != "capitol hill" {
		t.Errorf("key = %q", key)
	}
	if adj != (Adjustment{Night: -5, Transit: 10, Walk: 15}) {
		t.Errorf("adjustment = %+v", adj)
	}

	if table.Base.Vehicle != DefaultBase.Vehicle || table.Base.Women != DefaultBase.Women {
		t.Errorf("supplemental base not defaulted: %+v", table.Base)
	}

	got := NewScorer(table).Score(listingIn("Capitol Hill"))
	// 55*0.4 + 70*0.3 + 75*0.3 = 65.5
	if got.Overall != 66 {
		t.Errorf("overall = %d, want 66", got.Overall)
	}
}

func TestParseAreaTableDefaultsBase(t *testing.T) {
	table, err := ParseAreaTable([]byte("areas: {}\n"))
	if err != nil {
		t.Fatalf("ParseAreaTable: %v", err)
	}
	if table.Base != DefaultBase {
		t.Errorf("base = %+v, want %+v", table.Base, DefaultBase)
	}
}

func TestParseAreaTableErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "base: [1, 2"},
		{"base out of range", "base: {night: 120, transit: 50, walk: 50}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAreaTable([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadAreaTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.yaml")
	if err := os.WriteFile(path, []byte("areas:\n  downtown: {night: -10, transit: 15, walk: 10}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadAreaTable(path)
	if err != nil {
		t.Fatalf("LoadAreaTable: %v", err)
	}
	if got := NewScorer(table).Score(listingIn("Downtown")).Overall; got != 73 {
		t.Errorf("overall = %d, want 73", got)
	}

	if _, err := LoadAreaTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNormalizeArea(t *testing.T) {
	tests := map[string]string{
		"Downtown":         "downtown",
		"  Silver   Lake ": "silver lake",
		"west_hollywood":   "west hollywood",
		"":                 "",
	}
	for in, want := range tests {
		if got := NormalizeArea(in); got != want {
			t.Errorf("NormalizeArea(%q) = %q, want %q", in, got, want)
		}
	}
}
