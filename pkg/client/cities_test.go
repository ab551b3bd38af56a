package client

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCities(t *testing.T) {
	cities := DefaultCities()
	if len(cities) != 10 {
		t.Fatalf("expected 10 cities, got %d", len(cities))
	}
	seen := make(map[string]bool)
	for _, c := range cities {
		if seen[c.Name] {
			t.Errorf("duplicate city %s", c.Name)
		}
		seen[c.Name] = true
	}
}

func TestFileNames(t *testing.T) {
	tests := []struct {
		name    string
		stem    string
		file    string
		display string
	}{
		{"New York", "new_york", "new_york_daily.csv", "New York"},
		{"Tallahassee", "tallahassee", "tallahassee_daily.csv", "Tallahassee"},
		{"San Francisco", "san_francisco", "san_francisco_daily.csv", "San Francisco"},
	}
	for _, tt := range tests {
		if got := FileStem(tt.name); got != tt.stem {
			t.Errorf("FileStem(%q) = %q, want %q", tt.name, got, tt.stem)
		}
		if got := FileName(tt.name); got != tt.file {
			t.Errorf("FileName(%q) = %q, want %q", tt.name, got, tt.file)
		}
		if got := DisplayName(tt.file); got != tt.display {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.file, got, tt.display)
		}
	}
}

func TestSelectCities(t *testing.T) {
	all := DefaultCities()

	got, err := SelectCities(all, nil)
	if err != nil || len(got) != len(all) {
		t.Fatalf("expected all cities, got %d (%v)", len(got), err)
	}

	got, err = SelectCities(all, SplitNames("miami, new york ,"))
	if err != nil {
		t.Fatalf("SelectCities failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Miami" || got[1].Name != "New York" {
		t.Errorf("unexpected selection: %+v", got)
	}

	if _, err := SelectCities(all, []string{"Atlantis"}); err == nil {
		t.Error("expected error for unknown city")
	}
}

func TestLoadCities(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "cities.yaml")
	content := "cities:\n  - name: Denver\n    latitude: 39.7392\n    longitude: -104.9903\n"
	if err := os.WriteFile(good, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cities, err := LoadCities(good)
	if err != nil {
		t.Fatalf("LoadCities failed: %v", err)
	}
	if len(cities) != 1 || cities[0].Name != "Denver" || cities[0].Latitude != 39.7392 {
		t.Errorf("unexpected cities: %+v", cities)
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("cities:\n  - name: Pole\n    latitude: 123\n    longitude: 0\n"), 0644)
	if _, err := LoadCities(bad); err == nil {
		t.Error("expected error for invalid latitude")
	}

	empty := filepath.Join(dir, "empty.yaml")
	_ = os.WriteFile(empty, []byte("cities: []\n"), 0644)
	if _, err := LoadCities(empty); err == nil {
		t.Error("expected error for empty city list")
	}

	defaults, err := LoadCities("")
	if err != nil || len(defaults) != 10 {
		t.Errorf("expected defaults for empty path, got %d (%v)", len(defaults), err)
	}
}
