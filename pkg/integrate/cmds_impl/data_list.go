package impl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"climate-analyzer/pkg/client"
	"climate-analyzer/pkg/dataset"
)

type CityFile struct {
	City  string
	Path  string
	Size  int64
	Days  int
	First string
	Last  string
}

func DataList(dataDir string) ([]CityFile, error) {
	store := dataset.NewStore(dataDir)
	files, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dataDir, err)
	}
	if len(files) == 0 {
		fmt.Printf("No city datasets found in %s\n", dataDir)
		return nil, nil
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Data dir: %s\n\n", dataDir)
	var result []CityFile
	for _, name := range names {
		cf := CityFile{City: name, Path: files[name]}
		if info, err := os.Stat(cf.Path); err == nil {
			cf.Size = info.Size()
		}
		records, err := store.Load(name)
		if err != nil {
			fmt.Printf("  %-16s %s: ERROR - %v\n", name, filepath.Base(cf.Path), err)
			result = append(result, cf)
			continue
		}
		first, last, _ := dataset.Span(records)
		cf.Days = len(records)
		cf.First = first.Format(client.DateLayout)
		cf.Last = last.Format(client.DateLayout)
		fmt.Printf("  %-16s %6d days  %s ~ %s  %s\n", name, cf.Days, cf.First, cf.Last, formatSize(cf.Size))
		result = append(result, cf)
	}
	return result, nil
}

func DataDescribe(dataDir string, cities []string) ([]dataset.Summary, error) {
	data, err := dataset.NewStore(dataDir).LoadAll(cities)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no city datasets found in %s", dataDir)
	}

	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("  %-16s %6s %8s %8s %8s %8s %8s\n", "city", "days", "mean", "median", "p95", "max", "wet")
	summaries := make([]dataset.Summary, 0, len(names))
	for _, name := range names {
		s, err := dataset.Summarize(name, data[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		fmt.Printf("  %-16s %6d %8.3f %8.3f %8.3f %8.2f %8d\n",
			s.City, s.Days, s.Mean, s.Median, s.P95, s.Max, s.WetDays)
		summaries = append(summaries, s)
	}
	return summaries, nil
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1fMB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1fKB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}
