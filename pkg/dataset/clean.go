package dataset

import (
	"math"
)

// Clean drops repeated dates (first wins), fills gaps and clips values to
// [MinPrecipitation, MaxPrecipitation]. Interior NaN runs are interpolated
// linearly by position, trailing NaN take the last valid value and leading
// NaN become zero. The input is not modified.
func Clean(records []DailyRecord) []DailyRecord {
	seen := make(map[string]bool, len(records))
	out := make([]DailyRecord, 0, len(records))
	for _, r := range records {
		k := dayKey(r.Date)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}

	values := Values(out)
	interpolate(values)
	for i := range out {
		v := values[i]
		if math.IsNaN(v) {
			v = 0
		}
		out[i].Precipitation = clip(v, MinPrecipitation, MaxPrecipitation)
	}
	return out
}

func interpolate(values []float64) {
	last := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if last >= 0 && i-last > 1 {
			step := (v - values[last]) / float64(i-last)
			for j := last + 1; j < i; j++ {
				values[j] = values[last] + step*float64(j-last)
			}
		}
		last = i
	}
	if last >= 0 {
		for j := last + 1; j < len(values); j++ {
			values[j] = values[last]
		}
	}
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Normalize sets Normalized to Precipitation divided by the series maximum,
// or to the raw value when the maximum is not positive.
func Normalize(records []DailyRecord) []DailyRecord {
	maxValue := math.Inf(-1)
	for _, r := range records {
		if r.Precipitation > maxValue {
			maxValue = r.Precipitation
		}
	}
	out := make([]DailyRecord, len(records))
	for i, r := range records {
		out[i] = r
		if maxValue > 0 {
			out[i].Normalized = r.Precipitation / maxValue
		} else {
			out[i].Normalized = r.Precipitation
		}
	}
	return out
}
