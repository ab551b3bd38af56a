package dataset

import (
	"sort"
	"time"

	"climate-analyzer/pkg/client"
)

const (
	MinPrecipitation = 0.0
	MaxPrecipitation = 50.0
)

type DailyRecord struct {
	Date          time.Time
	Precipitation float64
	Normalized    float64
}

func FromPoints(points []client.DailyPoint) []DailyRecord {
	records := make([]DailyRecord, len(points))
	for i, p := range points {
		records[i] = DailyRecord{Date: p.Date, Precipitation: p.Precipitation}
	}
	return records
}

func Values(records []DailyRecord) []float64 {
	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.Precipitation
	}
	return values
}

func Dates(records []DailyRecord) []time.Time {
	dates := make([]time.Time, len(records))
	for i, r := range records {
		dates[i] = r.Date
	}
	return dates
}

func dayKey(t time.Time) string {
	return t.Format(client.DateLayout)
}

// Merge combines two series by date, records from fresh replacing those in
// existing. The result is sorted by date.
func Merge(existing, fresh []DailyRecord) []DailyRecord {
	byDay := make(map[string]DailyRecord, len(existing)+len(fresh))
	for _, r := range existing {
		byDay[dayKey(r.Date)] = r
	}
	for _, r := range fresh {
		byDay[dayKey(r.Date)] = r
	}
	merged := make([]DailyRecord, 0, len(byDay))
	for _, r := range byDay {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
	return merged
}

// Span returns the first and last date of a non-empty series.
func Span(records []DailyRecord) (first, last time.Time, ok bool) {
	if len(records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = records[0].Date, records[0].Date
	for _, r := range records[1:] {
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last, true
}
