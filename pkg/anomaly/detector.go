package anomaly

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	DefaultWindowSize = 30
	DefaultThreshold  = 3.0
	DefaultEpsilon    = 1e-10
)

var (
	ErrInvalidWindowSize = errors.New("window size must be positive")
	ErrInvalidThreshold  = errors.New("threshold must be a positive finite number")
	ErrInvalidEpsilon    = errors.New("epsilon must be a positive number")
)

type Config struct {
	WindowSize int
	Threshold  float64
	// Epsilon replaces a zero or undefined window std. It is tuned for daily
	// precipitation in inches and may need rescaling for other quantities.
	Epsilon float64
}

func DefaultConfig() Config {
	return Config{
		WindowSize: DefaultWindowSize,
		Threshold:  DefaultThreshold,
		Epsilon:    DefaultEpsilon,
	}
}

func (c Config) Validate() error {
	if c.WindowSize <= 0 {
		return ErrInvalidWindowSize
	}
	if math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0) || c.Threshold <= 0 {
		return ErrInvalidThreshold
	}
	if math.IsNaN(c.Epsilon) || c.Epsilon <= 0 {
		return ErrInvalidEpsilon
	}
	return nil
}

// Detector flags points that deviate from the mean of the trailing window by
// more than Threshold sample standard deviations. It keeps no state between
// calls and is safe for concurrent use.
type Detector struct {
	config Config
}

func NewDetector(config Config) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Detector{config: config}, nil
}

func (d *Detector) Config() Config {
	return d.config
}

// Detect returns a mask of len(series). The first WindowSize entries are
// always false.
func (d *Detector) Detect(series []float64) []bool {
	mask := make([]bool, len(series))
	w := d.config.WindowSize
	for i := w; i < len(series); i++ {
		mask[i] = d.zScore(series[i-w:i], series[i]) > d.config.Threshold
	}
	return mask
}

// Scores returns the z-score of every point against its trailing window,
// zero inside the warm-up region. For a constant window whose value is not
// exactly representable the mean rounds, so the score is tiny but not zero.
func (d *Detector) Scores(series []float64) []float64 {
	scores := make([]float64, len(series))
	w := d.config.WindowSize
	for i := w; i < len(series); i++ {
		scores[i] = d.zScore(series[i-w:i], series[i])
	}
	return scores
}

func (d *Detector) zScore(window []float64, value float64) float64 {
	// MeanStdDev uses the n-1 denominator, a single-element window yields NaN.
	mean, std := stat.MeanStdDev(window, nil)
	if std == 0 || math.IsNaN(std) {
		std = d.config.Epsilon
	}
	return math.Abs(value-mean) / std
}

func Indices(mask []bool) []int {
	var idx []int
	for i, flagged := range mask {
		if flagged {
			idx = append(idx, i)
		}
	}
	return idx
}
