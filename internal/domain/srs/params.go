package srs

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidParams is returned when scheduler parameters are out of range.
var ErrInvalidParams = errors.New("invalid scheduler parameters")

// WeightCount is the number of trainable weights of the memory model.
const WeightCount = 21

// DefaultWeights are the published FSRS-6 default weights.
var DefaultWeights = [WeightCount]float64{
	0.212, 1.2931, 2.3065, 8.2956, // initial stability per grade
	6.4133, 0.8334, 3.0194, 0.001, // difficulty
	1.8722, 0.1666, 0.796, 1.4835, // recall stability
	0.0614, 0.2629, 1.6483, 0.6014, // forget stability, hard penalty
	1.8729, 0.5425, 0.0912, 0.0658, // easy bonus, short-term
	0.1542, // decay
}

var (
	weightLowerBounds = [WeightCount]float64{
		0.001, 0.001, 0.001, 0.001,
		1.0, 0.001, 0.001, 0.001,
		0.0, 0.0, 0.001, 0.001,
		0.001, 0.001, 0.0, 0.0,
		1.0, 0.0, 0.0, 0.0,
		0.1,
	}
	weightUpperBounds = [WeightCount]float64{
		100.0, 100.0, 100.0, 100.0,
		10.0, 4.0, 4.0, 0.75,
		4.5, 0.8, 3.5, 5.0,
		0.25, 0.9, 4.0, 1.0,
		6.0, 2.0, 2.0, 0.8,
		0.8,
	}
)

// Default scheduling values
const (
	DefaultDesiredRetention = 0.9
	DefaultMaximumInterval  = 36500
)

// Params defines all configurable parameters for the SRS algorithm
type Params struct {
	Weights          [WeightCount]float64
	DesiredRetention float64
	MaximumInterval  int // days

	// Same-day steps walked before a card graduates to (or returns to) Review
	LearningSteps   []time.Duration
	RelearningSteps []time.Duration

	// EnableFuzz spreads Review intervals of 3+ days by a few percent.
	// The spread is seeded from the card and review time so updates stay reproducible.
	EnableFuzz bool
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	Weights          []float64
	DesiredRetention float64
	MaximumInterval  int
	LearningSteps    []time.Duration
	RelearningSteps  []time.Duration
	EnableFuzz       bool
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		Weights:          DefaultWeights,
		DesiredRetention: DefaultDesiredRetention,
		MaximumInterval:  DefaultMaximumInterval,
		LearningSteps:    []time.Duration{time.Minute, 10 * time.Minute},
		RelearningSteps:  []time.Duration{10 * time.Minute},
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if len(config.Weights) > 0 {
		if len(config.Weights) != WeightCount {
			return nil, fmt.Errorf("%w: expected %d weights, got %d",
				ErrInvalidParams, WeightCount, len(config.Weights))
		}
		copy(params.Weights[:], config.Weights)
	}
	if config.DesiredRetention != 0 {
		params.DesiredRetention = config.DesiredRetention
	}
	if config.MaximumInterval != 0 {
		params.MaximumInterval = config.MaximumInterval
	}
	if config.LearningSteps != nil {
		params.LearningSteps = append([]time.Duration(nil), config.LearningSteps...)
	}
	if config.RelearningSteps != nil {
		params.RelearningSteps = append([]time.Duration(nil), config.RelearningSteps...)
	}
	params.EnableFuzz = config.EnableFuzz

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks weights against their bounds and the scheduling limits.
// At least one relearning step is required so a lapse always enters Relearning.
func (p *Params) Validate() error {
	for i, w := range p.Weights {
		if w < weightLowerBounds[i] || w > weightUpperBounds[i] {
			return fmt.Errorf("%w: w[%d] = %g outside [%g, %g]",
				ErrInvalidParams, i, w, weightLowerBounds[i], weightUpperBounds[i])
		}
	}
	if p.DesiredRetention <= 0 || p.DesiredRetention >= 1 {
		return fmt.Errorf("%w: desired retention %g outside (0, 1)", ErrInvalidParams, p.DesiredRetention)
	}
	if p.MaximumInterval < 1 {
		return fmt.Errorf("%w: maximum interval %d must be at least 1 day", ErrInvalidParams, p.MaximumInterval)
	}
	if len(p.RelearningSteps) == 0 {
		return fmt.Errorf("%w: at least one relearning step is required", ErrInvalidParams)
	}
	for _, steps := range [][]time.Duration{p.LearningSteps, p.RelearningSteps} {
		for _, d := range steps {
			if d <= 0 || d >= 24*time.Hour {
				return fmt.Errorf("%w: step %s must be positive and shorter than a day", ErrInvalidParams, d)
			}
		}
	}
	return nil
}
