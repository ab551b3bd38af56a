package timerange

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const day = 24 * time.Hour

// TimeRange is a half-open interval [Start, End) of unix seconds. Fetched
// calendar days are stored as [midnight, next midnight).
type TimeRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// FromDates covers the inclusive date span first..last.
func FromDates(first, last time.Time) TimeRange {
	return TimeRange{Start: first.Unix(), End: last.Add(day).Unix()}
}

// Dates converts back to an inclusive date span.
func (r TimeRange) Dates() (first, last time.Time) {
	return time.Unix(r.Start, 0).UTC(), time.Unix(r.End, 0).UTC().Add(-day)
}

func (r TimeRange) Days() int {
	return int((r.End - r.Start) / int64(day/time.Second))
}

type TimeRangeList []TimeRange

func (l TimeRangeList) Len() int           { return len(l) }
func (l TimeRangeList) Less(i, j int) bool { return l[i].Start < l[j].Start }
func (l TimeRangeList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }

type CityCoverage struct {
	City   string        `json:"city"`
	Ranges TimeRangeList `json:"ranges"`
}

// Manager records which days of each city are already stored, so repeated
// fetches only request what is missing.
type Manager struct {
	mu       sync.RWMutex
	cacheDir string
	data     map[string]*CityCoverage
}

func NewManager(cacheDir string) *Manager {
	return &Manager{
		cacheDir: cacheDir,
		data:     make(map[string]*CityCoverage),
	}
}

func (m *Manager) Load(city string) (*CityCoverage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(city)
}

func (m *Manager) loadLocked(city string) (*CityCoverage, error) {
	if m.data[city] != nil {
		return m.data[city], nil
	}

	data, err := os.ReadFile(m.getFilePath(city))
	if err != nil {
		if os.IsNotExist(err) {
			cov := &CityCoverage{City: city}
			m.data[city] = cov
			return cov, nil
		}
		return nil, fmt.Errorf("failed to read coverage file: %w", err)
	}

	var cov CityCoverage
	if err := json.Unmarshal(data, &cov); err != nil {
		return nil, fmt.Errorf("failed to parse coverage file: %w", err)
	}

	m.data[city] = &cov
	return &cov, nil
}

func (m *Manager) saveLocked(city string) error {
	cov, ok := m.data[city]
	if !ok {
		return nil
	}

	filePath := m.getFilePath(city)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(cov, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal coverage: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write coverage file: %w", err)
	}
	return nil
}

// Missing returns the parts of [first, last] not yet covered for city.
func (m *Manager) Missing(city string, first, last time.Time) []TimeRange {
	requested := FromDates(first, last)
	cov, err := m.Load(city)
	if err != nil {
		return []TimeRange{requested}
	}
	m.mu.RLock()
	existing := append(TimeRangeList(nil), cov.Ranges...)
	m.mu.RUnlock()
	return subtractTimeRanges(requested, existing)
}

func (m *Manager) Add(city string, first, last time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cov, err := m.loadLocked(city)
	if err != nil {
		return err
	}
	cov.Ranges = mergeTimeRanges(append(cov.Ranges, FromDates(first, last)))
	return m.saveLocked(city)
}

func (m *Manager) Reset(city string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, city)
	if err := os.Remove(m.getFilePath(city)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (m *Manager) Ranges(city string) TimeRangeList {
	cov, err := m.Load(city)
	if err != nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(TimeRangeList(nil), cov.Ranges...)
}

func (m *Manager) CoveragePercentage(city string, first, last time.Time) float64 {
	r := FromDates(first, last)
	covered := calculateCoverage(m.Ranges(city), r.Start, r.End)
	total := r.End - r.Start
	if total <= 0 {
		return 0
	}
	return float64(covered) / float64(total) * 100
}

func (m *Manager) getFilePath(city string) string {
	return filepath.Join(m.cacheDir, "coverage", city+".json")
}

func subtractTimeRanges(requested TimeRange, existing TimeRangeList) []TimeRange {
	if len(existing) == 0 {
		return []TimeRange{requested}
	}

	sort.Sort(existing)

	result := []TimeRange{requested}
	for _, ex := range existing {
		var newResult []TimeRange
		for _, r := range result {
			newResult = append(newResult, subtractSingle(r, ex)...)
		}
		result = newResult
		if len(result) == 0 {
			break
		}
	}
	if result == nil {
		result = []TimeRange{}
	}
	return result
}

func subtractSingle(r, ex TimeRange) []TimeRange {
	if ex.End <= r.Start || ex.Start >= r.End {
		return []TimeRange{r}
	}

	var result []TimeRange
	if r.Start < ex.Start {
		result = append(result, TimeRange{Start: r.Start, End: ex.Start})
	}
	if r.End > ex.End {
		result = append(result, TimeRange{Start: ex.End, End: r.End})
	}
	return result
}

func mergeTimeRanges(ranges TimeRangeList) TimeRangeList {
	if len(ranges) == 0 {
		return ranges
	}

	sort.Sort(ranges)

	merged := TimeRangeList{ranges[0]}
	for i := 1; i < len(ranges); i++ {
		last := &merged[len(merged)-1]
		curr := ranges[i]

		if curr.Start <= last.End {
			if curr.End > last.End {
				last.End = curr.End
			}
		} else {
			merged = append(merged, curr)
		}
	}
	return merged
}

func calculateCoverage(ranges TimeRangeList, start, end int64) int64 {
	var covered int64
	for _, r := range ranges {
		overlapStart := max64(r.Start, start)
		overlapEnd := min64(r.End, end)
		if overlapEnd > overlapStart {
			covered += overlapEnd - overlapStart
		}
	}
	return covered
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
