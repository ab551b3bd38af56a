package cluster

import (
	"errors"
	"fmt"
	"sort"

	"climate-analyzer/pkg/dataset"
)

const (
	DefaultFromYear = 2001
	DefaultToYear   = 2024
)

var (
	ErrNoCities      = errors.New("no cities selected")
	ErrNoCommonYears = errors.New("selected cities share no year with data")
)

// Matrix holds one feature vector per city: the mean daily precipitation of
// each year in Years.
type Matrix struct {
	Cities []string
	Years  []int
	Values [][]float64
}

// YearlyAverages builds the clustering input from daily series. Only years in
// [fromYear, toYear] that every city has data for are kept, so all vectors
// share the same dimensions.
func YearlyAverages(data map[string][]dataset.DailyRecord, fromYear, toYear int) (*Matrix, error) {
	if len(data) == 0 {
		return nil, ErrNoCities
	}
	if fromYear > toYear {
		return nil, fmt.Errorf("invalid year range %d-%d", fromYear, toYear)
	}

	cities := make([]string, 0, len(data))
	for city := range data {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	means := make(map[string]map[int]float64, len(cities))
	var common map[int]bool
	for _, city := range cities {
		sums := make(map[int]float64)
		counts := make(map[int]int)
		for _, r := range data[city] {
			y := r.Date.Year()
			if y < fromYear || y > toYear {
				continue
			}
			sums[y] += r.Precipitation
			counts[y]++
		}

		yearly := make(map[int]float64, len(sums))
		for y, s := range sums {
			yearly[y] = s / float64(counts[y])
		}
		means[city] = yearly

		if common == nil {
			common = make(map[int]bool, len(yearly))
			for y := range yearly {
				common[y] = true
			}
			continue
		}
		for y := range common {
			if _, ok := yearly[y]; !ok {
				delete(common, y)
			}
		}
	}

	if len(common) == 0 {
		return nil, ErrNoCommonYears
	}

	years := make([]int, 0, len(common))
	for y := range common {
		years = append(years, y)
	}
	sort.Ints(years)

	m := &Matrix{Cities: cities, Years: years, Values: make([][]float64, len(cities))}
	for i, city := range cities {
		row := make([]float64, len(years))
		for j, y := range years {
			row[j] = means[city][y]
		}
		m.Values[i] = row
	}
	return m, nil
}
