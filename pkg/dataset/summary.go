package dataset

import (
	"github.com/montanaflynn/stats"
)

const WetDayThreshold = 0.01

type Summary struct {
	City    string
	Days    int
	Mean    float64
	Median  float64
	P95     float64
	Max     float64
	WetDays int
}

func Summarize(city string, records []DailyRecord) (Summary, error) {
	s := Summary{City: city, Days: len(records)}
	if len(records) == 0 {
		return s, ErrEmptyData
	}

	data := stats.Float64Data(Values(records))
	var err error
	if s.Mean, err = data.Mean(); err != nil {
		return s, err
	}
	if s.Median, err = data.Median(); err != nil {
		return s, err
	}
	if s.P95, err = data.Percentile(95); err != nil {
		return s, err
	}
	if s.Max, err = data.Max(); err != nil {
		return s, err
	}
	for _, v := range data {
		if v >= WetDayThreshold {
			s.WetDays++
		}
	}
	return s, nil
}
