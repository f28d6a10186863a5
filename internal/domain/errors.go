package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidInput is returned when an identifier or count is out of range.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRating is returned when a rating is outside Again..Easy.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidState is returned when a card state is not one of the four known states.
	ErrInvalidState = errors.New("invalid card state")

	// ErrInvalidConfidence is returned when a confidence level is not low, medium or high.
	ErrInvalidConfidence = errors.New("invalid confidence level")
)
