package client

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DailyFileSuffix = "_daily.csv"

type City struct {
	Name      string  `yaml:"name"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type cityFile struct {
	Cities []City `yaml:"cities"`
}

func DefaultCities() []City {
	return []City{
		{Name: "Tallahassee", Latitude: 30.4382, Longitude: -84.2806},
		{Name: "New York", Latitude: 40.7128, Longitude: -74.0060},
		{Name: "Los Angeles", Latitude: 34.0522, Longitude: -118.2437},
		{Name: "Chicago", Latitude: 41.8781, Longitude: -87.6298},
		{Name: "Houston", Latitude: 29.7604, Longitude: -95.3698},
		{Name: "Phoenix", Latitude: 33.4484, Longitude: -112.0740},
		{Name: "San Francisco", Latitude: 37.7749, Longitude: -122.4194},
		{Name: "Boston", Latitude: 42.3601, Longitude: -71.0589},
		{Name: "Seattle", Latitude: 47.6062, Longitude: -122.3321},
		{Name: "Miami", Latitude: 25.7617, Longitude: -80.1918},
	}
}

// LoadCities reads a YAML city list. An empty path returns the defaults.
func LoadCities(path string) ([]City, error) {
	if path == "" {
		return DefaultCities(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read city file: %w", err)
	}

	var f cityFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse city file %s: %w", path, err)
	}
	if len(f.Cities) == 0 {
		return nil, fmt.Errorf("city file %s lists no cities", path)
	}
	for i, c := range f.Cities {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("city #%d in %s has no name", i+1, path)
		}
		if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
			return nil, fmt.Errorf("city %s has invalid coordinates (%v, %v)", c.Name, c.Latitude, c.Longitude)
		}
	}
	return f.Cities, nil
}

// FileStem maps "New York" to "new_york".
func FileStem(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func FileName(name string) string {
	return FileStem(name) + DailyFileSuffix
}

// DisplayName maps "new_york" or "new_york_daily.csv" to "New York".
func DisplayName(stem string) string {
	stem = strings.TrimSuffix(stem, DailyFileSuffix)
	words := strings.Fields(strings.ReplaceAll(stem, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// SelectCities picks cities by name, case-insensitively. No names selects all.
func SelectCities(all []City, names []string) ([]City, error) {
	if len(names) == 0 {
		return all, nil
	}
	byStem := make(map[string]City, len(all))
	for _, c := range all {
		byStem[FileStem(c.Name)] = c
	}
	var selected []City
	for _, n := range names {
		c, ok := byStem[FileStem(n)]
		if !ok {
			return nil, fmt.Errorf("unknown city: %s", n)
		}
		selected = append(selected, c)
	}
	return selected, nil
}

// SplitNames parses a comma separated city list, ignoring blanks.
func SplitNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			names = append(names, part)
		}
	}
	return names
}
