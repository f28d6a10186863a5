package srs

import (
	"errors"
	"math"
	"time"

	"github.com/phrazzld/kanjidrill/internal/domain"
)

// Common errors
var (
	ErrInvalidRating = errors.New("invalid review rating")
	ErrInvalidDays   = errors.New("postpone days must be at least 1")
)

// Service defines the interface for SRS algorithm operations
type Service interface {
	// CalculateNextReview computes the card's next memory state for a rating given at now.
	// The result depends only on its arguments.
	CalculateNextReview(card domain.Card, rating domain.Rating, now time.Time) (domain.Card, error)

	// PostponeReview pushes the due time forward by a number of days
	PostponeReview(card domain.Card, days int, now time.Time) (domain.Card, error)

	// Retrievability estimates the probability of recalling the card at now.
	// Unreviewed cards report 0.
	Retrievability(card domain.Card, now time.Time) float64
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
	model  model
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() (Service, error) {
	return NewServiceWithParams(NewDefaultParams())
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		params = NewDefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{
		params: params,
		model:  newModel(params.Weights),
	}, nil
}

// CalculateNextReview implements the Service interface for calculating the next memory state
func (s *defaultService) CalculateNextReview(
	card domain.Card,
	rating domain.Rating,
	now time.Time,
) (domain.Card, error) {
	if !rating.IsValid() {
		return domain.Card{}, ErrInvalidRating
	}

	return calculateNextCard(card, rating, now, s.params, &s.model), nil
}

// PostponeReview implements the Service interface for postponing reviews
func (s *defaultService) PostponeReview(
	card domain.Card,
	days int,
	now time.Time,
) (domain.Card, error) {
	if days < 1 {
		return domain.Card{}, ErrInvalidDays
	}

	next := card.Clone()
	next.Memory.Due = card.Memory.Due.AddDate(0, 0, days)
	if next.Memory.Due.Before(now) {
		next.Memory.Due = now.AddDate(0, 0, days)
	}
	next.Memory.ScheduledDays += days

	return next, nil
}

// Retrievability implements the Service interface
func (s *defaultService) Retrievability(card domain.Card, now time.Time) float64 {
	if card.Memory.LastReviewedAt == nil || card.Memory.Stability <= 0 {
		return 0
	}
	elapsed := math.Max(now.Sub(*card.Memory.LastReviewedAt).Hours()/24.0, 0)
	return s.model.retrievability(elapsed, card.Memory.Stability)
}
