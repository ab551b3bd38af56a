package integrate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultStartDate is the first day of the original city datasets.
	DefaultStartDate = "2000-11-22"
	// The archive API publishes reanalysis data with a delay of a few days.
	DefaultEndLag = 7 * 24 * time.Hour
)

var archiveFirstDay = time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC)

// DateRange is an inclusive span of calendar days in UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (dr *DateRange) Days() int {
	return int(dr.End.Sub(dr.Start)/(24*time.Hour)) + 1
}

func (dr *DateRange) String() string {
	return fmt.Sprintf("%s ~ %s (%d days)", dr.Start.Format("2006-01-02"), dr.End.Format("2006-01-02"), dr.Days())
}

// ParseDateRange resolves the fetch window. The end comes from end or
// agoAsEnd (default: seven days before now), the start from start or from
// duration counted back from the end (default: DefaultStartDate). Giving
// both forms of a bound is allowed only when they agree.
func ParseDateRange(start, end, agoAsEnd, duration string, now time.Time) (*DateRange, error) {
	today := truncateDay(now)
	var startDay, endDay *time.Time

	if end != "" {
		t, err := parseTime(end)
		if err != nil {
			return nil, fmt.Errorf("invalid end date: %w", err)
		}
		t = truncateDay(t)
		endDay = &t
	}

	if agoAsEnd != "" {
		offset, err := parseDurationString(agoAsEnd)
		if err != nil {
			return nil, fmt.Errorf("invalid ago-as-end: %w", err)
		}
		agoDay := truncateDay(now.Add(-offset))
		if endDay != nil && !endDay.Equal(agoDay) {
			return nil, fmt.Errorf("conflicting end date: end=%s vs ago-as-end=%s",
				endDay.Format("2006-01-02"), agoDay.Format("2006-01-02"))
		}
		endDay = &agoDay
	}

	if endDay == nil {
		t := truncateDay(now.Add(-DefaultEndLag))
		endDay = &t
	}

	if start != "" {
		t, err := parseTime(start)
		if err != nil {
			return nil, fmt.Errorf("invalid start date: %w", err)
		}
		t = truncateDay(t)
		startDay = &t
	}

	if duration != "" {
		dur, err := parseDurationString(duration)
		if err != nil {
			return nil, fmt.Errorf("invalid duration: %w", err)
		}
		durDay := truncateDay(endDay.Add(-dur))
		if startDay != nil && !startDay.Equal(durDay) {
			return nil, fmt.Errorf("conflicting start date: start=%s vs duration=%s",
				startDay.Format("2006-01-02"), durDay.Format("2006-01-02"))
		}
		startDay = &durDay
	}

	if startDay == nil {
		t, _ := time.Parse("2006-01-02", DefaultStartDate)
		startDay = &t
	}

	if startDay.After(*endDay) {
		return nil, fmt.Errorf("start date must not be after end date")
	}
	if endDay.After(today) {
		return nil, fmt.Errorf("end date cannot be in the future")
	}
	if startDay.Before(archiveFirstDay) {
		return nil, fmt.Errorf("start date must be on or after %s", archiveFirstDay.Format("2006-01-02"))
	}

	return &DateRange{Start: *startDay, End: *endDay}, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time string")
	}

	// Unix timestamp (seconds)
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && len(s) > 8 {
		return time.Unix(ts, 0).UTC(), nil
	}

	layouts := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"20060102",
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time: %s", s)
}

var durationPattern = regexp.MustCompile(`(\d+)([ydhms])`)

func parseDurationString(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	// Combined format like 1y30d or 2d12h
	matches := durationPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	var total time.Duration
	for _, m := range matches {
		val, _ := strconv.ParseInt(m[1], 10, 64)
		switch m[2] {
		case "y":
			total += time.Duration(val) * 365 * 24 * time.Hour
		case "d":
			total += time.Duration(val) * 24 * time.Hour
		case "h":
			total += time.Duration(val) * time.Hour
		case "m":
			total += time.Duration(val) * time.Minute
		case "s":
			total += time.Duration(val) * time.Second
		}
	}

	reconstructed := ""
	for _, m := range matches {
		reconstructed += m[0]
	}
	if reconstructed != s {
		return 0, fmt.Errorf("invalid duration format: %s", s)
	}

	return total, nil
}
