package forecast

import (
	"errors"
	"math"
	"testing"
	"time"
)

func days(start string, n int) []time.Time {
	first, err := time.Parse("2006-01-02", start)
	if err != nil {
		panic(err)
	}
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = first.AddDate(0, 0, i)
	}
	return dates
}

func mustForecaster(t *testing.T, method Method, n int) *Forecaster {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Method = method
	cfg.Days = n
	f, err := NewForecaster(cfg)
	if err != nil {
		t.Fatalf("NewForecaster() failed: %v", err)
	}
	return f
}

func TestForecastFollowsLinearTrend(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	for _, method := range []Method{MethodHolt, MethodLinear} {
		t.Run(string(method), func(t *testing.T) {
			f := mustForecaster(t, method, 3)
			points, err := f.ForecastCity(days("2024-01-01", 4), values)
			if err != nil {
				t.Fatal(err)
			}
			if len(points) != 3 {
				t.Fatalf("expected 3 points, got %d", len(points))
			}
			for i, want := range []float64{5, 6, 7} {
				if math.Abs(points[i].Value-want) > 1e-9 {
					t.Errorf("points[%d] = %v, want %v", i, points[i].Value, want)
				}
				wantDate := time.Date(2024, 1, 5+i, 0, 0, 0, 0, time.UTC)
				if !points[i].Date.Equal(wantDate) {
					t.Errorf("points[%d].Date = %v, want %v", i, points[i].Date, wantDate)
				}
				if points[i].Category != CategoryVeryHeavy {
					t.Errorf("points[%d].Category = %q", i, points[i].Category)
				}
			}
		})
	}
}

func TestForecastClampsAtZero(t *testing.T) {
	f := mustForecaster(t, MethodLinear, 5)
	points, err := f.ForecastCity(days("2024-01-01", 4), []float64{4, 3, 2, 1})
	if err != nil {
		t.Fatal(err)
	}
	if points[0].Value > 1e-9 {
		t.Errorf("expected first prediction 0, got %v", points[0].Value)
	}
	for i, p := range points {
		if p.Value < 0 {
			t.Errorf("points[%d] negative: %v", i, p.Value)
		}
		if p.Category != CategoryNone {
			t.Errorf("points[%d].Category = %q, want none", i, p.Category)
		}
	}
}

func TestForecastSkipsNaN(t *testing.T) {
	f := mustForecaster(t, MethodLinear, 1)
	points, err := f.ForecastCity(days("2024-01-01", 4), []float64{1, math.NaN(), 3, math.NaN()})
	if err != nil {
		t.Fatal(err)
	}
	if !points[0].Date.Equal(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("forecast should start after the last valid day, got %v", points[0].Date)
	}
	if math.Abs(points[0].Value-5) > 1e-9 {
		t.Errorf("expected 5, got %v", points[0].Value)
	}
}

func TestForecastErrors(t *testing.T) {
	f := mustForecaster(t, MethodHolt, 3)
	if _, err := f.ForecastCity(days("2024-01-01", 1), []float64{1}); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := f.ForecastCity(days("2024-01-01", 2), []float64{1, math.NaN()}); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for one valid value, got %v", err)
	}
	if _, err := f.ForecastCity(days("2024-01-01", 2), []float64{1}); err == nil {
		t.Error("expected length mismatch error")
	}

	cfg := DefaultConfig()
	cfg.Days = 0
	if _, err := NewForecaster(cfg); !errors.Is(err, ErrInvalidDays) {
		t.Errorf("expected ErrInvalidDays, got %v", err)
	}
	cfg = DefaultConfig()
	cfg.Method = "prophet"
	if _, err := NewForecaster(cfg); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestNewForecasterDefaults(t *testing.T) {
	f, err := NewForecaster(Config{Days: 7, Alpha: 2, Beta: -1})
	if err != nil {
		t.Fatal(err)
	}
	cfg := f.Config()
	if cfg.Method != MethodHolt || cfg.Alpha != DefaultAlpha || cfg.Beta != DefaultBeta {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestForecastAll(t *testing.T) {
	f := mustForecaster(t, MethodHolt, 7)
	data := map[string]Series{
		"New York":    {Dates: days("2024-01-01", 60), Values: make([]float64, 60)},
		"Los Angeles": {Dates: days("2024-01-01", 60), Values: make([]float64, 60)},
	}
	for i := range data["New York"].Values {
		data["New York"].Values[i] = float64(i%5) * 0.1
	}

	results, err := f.ForecastAll(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].City != "Los Angeles" || results[1].City != "New York" {
		t.Fatalf("unexpected cities: %+v", results)
	}
	for _, r := range results {
		if len(r.Points) != 7 {
			t.Errorf("%s: expected 7 points, got %d", r.City, len(r.Points))
		}
	}

	data["Boston"] = Series{Dates: days("2024-01-01", 1), Values: []float64{0.2}}
	if _, err := f.ForecastAll(data); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"holt", MethodHolt, false},
		{"linear", MethodLinear, false},
		{"", MethodHolt, false},
		{"prophet", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMethod(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, CategoryNone},
		{0.009, CategoryNone},
		{0.01, CategoryLight},
		{0.099, CategoryLight},
		{0.1, CategoryModerate},
		{0.49, CategoryModerate},
		{0.5, CategoryHeavy},
		{0.99, CategoryHeavy},
		{1.0, CategoryVeryHeavy},
		{4.2, CategoryVeryHeavy},
	}
	for _, tt := range tests {
		if got := Category(tt.in); got != tt.want {
			t.Errorf("Category(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
