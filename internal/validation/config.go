// Package validation checks normalized tradelines and consumer information
// for data-quality problems and scores the batch.
package validation

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tradeflow/internal/common"
)

// Default thresholds.
const (
	DefaultMinConfidenceScore = 0.7
	DefaultMaxAgeYears        = 120
)

// DefaultMaxReasonableBalance is the largest balance or limit accepted without a data_range issue.
var DefaultMaxReasonableBalance = decimal.NewFromInt(100000)

// Weights combine the quality metrics into the overall confidence.
// They must be non-negative and sum to 1.
type Weights struct {
	Completeness float64
	Accuracy     float64
	Consistency  float64
	Reliability  float64
}

// DefaultWeights favor completeness and accuracy over the cross-record metrics.
func DefaultWeights() Weights {
	return Weights{
		Completeness: 0.30,
		Accuracy:     0.30,
		Consistency:  0.20,
		Reliability:  0.20,
	}
}

func (w Weights) isZero() bool {
	return w == Weights{}
}

func (w Weights) sum() float64 {
	return w.Completeness + w.Accuracy + w.Consistency + w.Reliability
}

// Config controls a validation pass. Zero values for MaxReasonableBalance,
// Weights, MaxAgeYears, Workers and Now select the defaults.
type Config struct {
	Now                  func() time.Time
	MaxReasonableBalance decimal.Decimal
	Weights              Weights
	MinConfidenceScore   float64
	MaxAgeYears          int
	Workers              int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		MaxReasonableBalance: DefaultMaxReasonableBalance,
		MinConfidenceScore:   DefaultMinConfidenceScore,
		Weights:              DefaultWeights(),
		MaxAgeYears:          DefaultMaxAgeYears,
	}
}

// withDefaults fills unset fields and rejects invalid thresholds.
func (c Config) withDefaults() (Config, error) {
	if c.MaxReasonableBalance.IsZero() {
		c.MaxReasonableBalance = DefaultMaxReasonableBalance
	}
	if c.Weights.isZero() {
		c.Weights = DefaultWeights()
	}
	if c.MaxAgeYears == 0 {
		c.MaxAgeYears = DefaultMaxAgeYears
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	if math.IsNaN(c.MinConfidenceScore) || c.MinConfidenceScore < 0 || c.MinConfidenceScore > 1 {
		return c, fmt.Errorf("%w: min confidence score must be within [0,1], got %v", common.ErrInvalidConfig, c.MinConfidenceScore)
	}
	if c.MaxReasonableBalance.IsNegative() {
		return c, fmt.Errorf("%w: max reasonable balance must be positive, got %s", common.ErrInvalidConfig, c.MaxReasonableBalance)
	}
	if c.MaxAgeYears < 0 {
		return c, fmt.Errorf("%w: max age must be positive, got %d", common.ErrInvalidConfig, c.MaxAgeYears)
	}
	if c.Workers < 0 {
		return c, fmt.Errorf("%w: workers must be positive, got %d", common.ErrInvalidConfig, c.Workers)
	}
	for name, w := range map[string]float64{
		"completeness": c.Weights.Completeness,
		"accuracy":     c.Weights.Accuracy,
		"consistency":  c.Weights.Consistency,
		"reliability":  c.Weights.Reliability,
	} {
		if math.IsNaN(w) || w < 0 {
			return c, fmt.Errorf("%w: %s weight must be non-negative, got %v", common.ErrInvalidConfig, name, w)
		}
	}
	if math.Abs(c.Weights.sum()-1) > 1e-6 {
		return c, fmt.Errorf("%w: metric weights must sum to 1, got %v", common.ErrInvalidConfig, c.Weights.sum())
	}
	return c, nil
}
