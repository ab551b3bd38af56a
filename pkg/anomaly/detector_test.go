package anomaly

import (
	"errors"
	"math"
	"testing"
)

func mustDetector(t *testing.T, window int, threshold float64) *Detector {
	t.Helper()
	cfg := DefaultConfig()
	cfg.WindowSize = window
	cfg.Threshold = threshold
	d, err := NewDetector(cfg)
	if err != nil {
		t.Fatalf("NewDetector(%d, %v) failed: %v", window, threshold, err)
	}
	return d
}

func spikeSeries() []float64 {
	series := make([]float64, 31)
	for i := 0; i < 30; i++ {
		series[i] = 1
	}
	series[30] = 10
	return series
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.WindowSize != 30 {
		t.Errorf("expected window 30, got %d", cfg.WindowSize)
	}
	if cfg.Threshold != 3.0 {
		t.Errorf("expected threshold 3.0, got %v", cfg.Threshold)
	}
	if cfg.Epsilon != 1e-10 {
		t.Errorf("expected epsilon 1e-10, got %v", cfg.Epsilon)
	}
}

func TestNewDetectorValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"zero window", func(c *Config) { c.WindowSize = 0 }, ErrInvalidWindowSize},
		{"negative window", func(c *Config) { c.WindowSize = -3 }, ErrInvalidWindowSize},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }, ErrInvalidThreshold},
		{"nan threshold", func(c *Config) { c.Threshold = math.NaN() }, ErrInvalidThreshold},
		{"inf threshold", func(c *Config) { c.Threshold = math.Inf(1) }, ErrInvalidThreshold},
		{"zero epsilon", func(c *Config) { c.Epsilon = 0 }, ErrInvalidEpsilon},
		{"window of one", func(c *Config) { c.WindowSize = 1 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			d, err := NewDetector(cfg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewDetector() error = %v, want %v", err, tt.want)
			}
			if tt.want == nil && d == nil {
				t.Fatal("expected a detector")
			}
		})
	}
}

func TestDetectLengthAndWarmup(t *testing.T) {
	series := []float64{0.1, 3.2, 0, 0, 7.5, 0.4, 0, 12, 0.3, 0, 0, 9.9, 0.05}
	for _, window := range []int{1, 2, 5, len(series) - 1, len(series), len(series) + 4} {
		d := mustDetector(t, window, 1.0)
		mask := d.Detect(series)
		if len(mask) != len(series) {
			t.Fatalf("window %d: mask length %d, want %d", window, len(mask), len(series))
		}
		for i := 0; i < window && i < len(mask); i++ {
			if mask[i] {
				t.Errorf("window %d: index %d flagged inside warm-up region", window, i)
			}
		}
	}
}

func TestDetectShortSeriesAllFalse(t *testing.T) {
	d := mustDetector(t, 10, 2.0)
	mask := d.Detect([]float64{1, 100, -50, 3})
	for i, v := range mask {
		if v {
			t.Errorf("index %d flagged in series shorter than window", i)
		}
	}
}

func TestDetectEmpty(t *testing.T) {
	d := mustDetector(t, 10, 2.0)
	mask := d.Detect([]float64{})
	if mask == nil || len(mask) != 0 {
		t.Errorf("expected empty non-nil mask, got %v", mask)
	}
	if got := d.Detect(nil); len(got) != 0 {
		t.Errorf("expected empty mask for nil input, got %v", got)
	}
}

func TestDetectKnownSpike(t *testing.T) {
	d := mustDetector(t, 10, 2.0)
	series := spikeSeries()
	mask := d.Detect(series)

	if len(mask) != 31 {
		t.Fatalf("expected 31 entries, got %d", len(mask))
	}
	for i := 0; i < 30; i++ {
		if mask[i] {
			t.Errorf("index %d should not be flagged", i)
		}
	}
	if !mask[30] {
		t.Error("expected spike at index 30 to be flagged")
	}
	if got := Indices(mask); len(got) != 1 || got[0] != 30 {
		t.Errorf("Indices() = %v, want [30]", got)
	}
}

func TestDetectDeterministic(t *testing.T) {
	d := mustDetector(t, 4, 1.5)
	series := []float64{0.2, 0.1, 0.4, 0.0, 2.5, 0.3, 0.1, 0.0, 0.0, 1.7, 0.2}
	first := d.Detect(series)
	second := d.Detect(series)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("index %d differs between calls", i)
		}
	}
}

func TestDetectDoesNotMutateInput(t *testing.T) {
	d := mustDetector(t, 3, 1.0)
	series := []float64{1, 2, 3, 40, 5, 6}
	orig := append([]float64(nil), series...)
	d.Detect(series)
	d.Scores(series)
	for i := range series {
		if series[i] != orig[i] {
			t.Fatalf("input modified at %d: %v -> %v", i, orig[i], series[i])
		}
	}
}

func TestDetectConstantPlateau(t *testing.T) {
	series := make([]float64, 50)
	for i := range series {
		series[i] = 2.5
	}
	d := mustDetector(t, 7, 0.5)
	for i, v := range d.Detect(series) {
		if v {
			t.Errorf("constant series flagged at %d", i)
		}
	}
	for i, z := range d.Scores(series) {
		if z != 0 {
			t.Errorf("expected zero score at %d, got %v", i, z)
		}
	}
}

func TestDetectInexactConstantPlateau(t *testing.T) {
	// 0.1 and 0.3 are not exact in binary, the rounded mean differs from the
	// value by an ulp and the epsilon std turns that into a small score
	for _, v := range []float64{0.1, 0.3, 0.7} {
		series := make([]float64, 20)
		for i := range series {
			series[i] = v
		}
		for _, window := range []int{3, 7} {
			d := mustDetector(t, window, 3.0)
			for i, flagged := range d.Detect(series) {
				if flagged {
					t.Errorf("value %v window %d: constant series flagged at %d", v, window, i)
				}
			}
		}
	}
}

func TestDetectThresholdBoundary(t *testing.T) {
	// window [9, 10, 11]: mean 10, sample std 1
	tests := []struct {
		name      string
		point     float64
		threshold float64
		want      bool
	}{
		{"exactly at threshold", 12, 2.0, false},
		{"exactly at threshold below mean", 8, 2.0, false},
		{"above threshold", 12.5, 2.0, true},
		{"just under threshold setting", 12, 1.999, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDetector(t, 3, tt.threshold)
			mask := d.Detect([]float64{9, 10, 11, tt.point})
			if mask[3] != tt.want {
				t.Errorf("mask[3] = %v, want %v", mask[3], tt.want)
			}
		})
	}
}

func TestDetectWindowOfOne(t *testing.T) {
	d := mustDetector(t, 1, 3.0)
	mask := d.Detect([]float64{1, 1, 5, 5})
	want := []bool{false, false, true, false}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, mask[i], want[i])
		}
	}
}

func TestDetectUsesCustomEpsilon(t *testing.T) {
	cfg := Config{WindowSize: 3, Threshold: 3.0, Epsilon: 1.0}
	d, err := NewDetector(cfg)
	if err != nil {
		t.Fatal(err)
	}
	// constant window, deviation 2 against std 1 is below the threshold
	mask := d.Detect([]float64{4, 4, 4, 6})
	if mask[3] {
		t.Error("expected no anomaly with epsilon 1.0")
	}
	scores := d.Scores([]float64{4, 4, 4, 6})
	if scores[3] != 2 {
		t.Errorf("expected score 2, got %v", scores[3])
	}
}

func TestScoresMatchDetect(t *testing.T) {
	d := mustDetector(t, 5, 2.0)
	series := []float64{0.1, 0.2, 0.1, 0.3, 0.2, 0.1, 4.0, 0.2, 0.3, 0.1, 0.2, 0.0, 3.1}
	mask := d.Detect(series)
	scores := d.Scores(series)
	for i := range series {
		if (scores[i] > 2.0) != mask[i] {
			t.Errorf("index %d: score %v inconsistent with mask %v", i, scores[i], mask[i])
		}
	}
	if !mask[6] {
		t.Error("expected index 6 to be flagged")
	}
}
