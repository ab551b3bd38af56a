package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

type Method string

const (
	MethodHolt   Method = "holt"
	MethodLinear Method = "linear"
)

const (
	DefaultDays  = 30
	DefaultAlpha = 0.3
	DefaultBeta  = 0.05
)

var (
	ErrInsufficientData = errors.New("insufficient data for forecasting")
	ErrUnknownMethod    = errors.New("unknown forecast method")
	ErrInvalidDays      = errors.New("forecast days must be positive")
)

type Config struct {
	Method Method
	// Alpha and Beta smooth level and trend for the holt method, both in (0, 1).
	Alpha float64
	Beta  float64
	Days  int
}

func DefaultConfig() Config {
	return Config{
		Method: MethodHolt,
		Alpha:  DefaultAlpha,
		Beta:   DefaultBeta,
		Days:   DefaultDays,
	}
}

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodHolt, MethodLinear:
		return Method(s), nil
	case "":
		return MethodHolt, nil
	}
	return "", fmt.Errorf("%w: %q (expected holt or linear)", ErrUnknownMethod, s)
}

type Point struct {
	Date     time.Time `json:"date"`
	Value    float64   `json:"predicted_precipitation_sum"`
	Category string    `json:"category"`
}

type CityForecast struct {
	City   string  `json:"city"`
	Points []Point `json:"points"`
}

type Series struct {
	Dates  []time.Time
	Values []float64
}

type Forecaster struct {
	config Config
}

func NewForecaster(config Config) (*Forecaster, error) {
	if _, err := ParseMethod(string(config.Method)); err != nil {
		return nil, err
	}
	if config.Method == "" {
		config.Method = MethodHolt
	}
	if config.Days <= 0 {
		return nil, ErrInvalidDays
	}
	if config.Alpha <= 0 || config.Alpha >= 1 {
		config.Alpha = DefaultAlpha
	}
	if config.Beta <= 0 || config.Beta >= 1 {
		config.Beta = DefaultBeta
	}
	return &Forecaster{config: config}, nil
}

func (f *Forecaster) Config() Config {
	return f.config
}

// ForecastCity predicts Days values dated the days after the last
// observation. NaN observations are ignored and predictions never go below
// zero.
func (f *Forecaster) ForecastCity(dates []time.Time, values []float64) ([]Point, error) {
	if len(dates) != len(values) {
		return nil, fmt.Errorf("dates and values differ in length: %d vs %d", len(dates), len(values))
	}

	var last time.Time
	clean := make([]float64, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		clean = append(clean, v)
		if dates[i].After(last) {
			last = dates[i]
		}
	}
	if len(clean) < 2 {
		return nil, ErrInsufficientData
	}

	var predicted []float64
	switch f.config.Method {
	case MethodLinear:
		predicted = linearTrend(clean, f.config.Days)
	default:
		predicted = holt(clean, f.config.Alpha, f.config.Beta, f.config.Days)
	}

	points := make([]Point, len(predicted))
	for i, v := range predicted {
		v = math.Max(v, 0)
		points[i] = Point{
			Date:     last.AddDate(0, 0, i+1),
			Value:    v,
			Category: Category(v),
		}
	}
	return points, nil
}

// ForecastAll runs ForecastCity for every city, sorted by city name.
func (f *Forecaster) ForecastAll(data map[string]Series) ([]CityForecast, error) {
	cities := make([]string, 0, len(data))
	for city := range data {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	results := make([]CityForecast, 0, len(cities))
	for _, city := range cities {
		s := data[city]
		points, err := f.ForecastCity(s.Dates, s.Values)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", city, err)
		}
		results = append(results, CityForecast{City: city, Points: points})
	}
	return results, nil
}

func holt(values []float64, alpha, beta float64, periods int) []float64 {
	level := values[0]
	trend := values[1] - values[0]
	for i := 1; i < len(values); i++ {
		prevLevel := level
		level = alpha*values[i] + (1-alpha)*(prevLevel+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}

	out := make([]float64, periods)
	for i := range out {
		out[i] = level + float64(i+1)*trend
	}
	return out
}

func linearTrend(values []float64, periods int) []float64 {
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(xs, values, nil, false)

	out := make([]float64, periods)
	n := float64(len(values))
	for i := range out {
		out[i] = intercept + slope*(n+float64(i))
	}
	return out
}
