package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrMissingTimestamp is returned when a review log entry has no timestamp.
var ErrMissingTimestamp = errors.New("review log timestamp must be set")

// ReviewLogEntry is an immutable record of one review and the state it produced.
type ReviewLogEntry struct {
	ID            string    `json:"id"`
	ItemID        int       `json:"item_id"`
	SetID         int       `json:"set_id"`
	Rating        Rating    `json:"rating"`
	IsCorrect     bool      `json:"is_correct"`
	Timestamp     time.Time `json:"timestamp"`
	UserAnswer    string    `json:"user_answer,omitempty"`
	State         State     `json:"state"`
	Stability     float64   `json:"stability"`
	Difficulty    float64   `json:"difficulty"`
	ScheduledDays int       `json:"scheduled_days"`
	NextReviewAt  time.Time `json:"next_review_at"`
}

// NewReviewLogEntry snapshots the updated card into a log entry.
// The ID combines item, set and the review time in milliseconds.
func NewReviewLogEntry(
	updated Card,
	rating Rating,
	isCorrect bool,
	userAnswer string,
	now time.Time,
) ReviewLogEntry {
	return ReviewLogEntry{
		ID:            fmt.Sprintf("%d-%d-%d", updated.ItemID, updated.SetID, now.UnixMilli()),
		ItemID:        updated.ItemID,
		SetID:         updated.SetID,
		Rating:        rating,
		IsCorrect:     isCorrect,
		Timestamp:     now,
		UserAnswer:    userAnswer,
		State:         updated.Memory.State,
		Stability:     updated.Memory.Stability,
		Difficulty:    updated.Memory.Difficulty,
		ScheduledDays: updated.Memory.ScheduledDays,
		NextReviewAt:  updated.Memory.Due,
	}
}

// Validate checks that the entry carries a known rating, state and timestamp.
func (e ReviewLogEntry) Validate() error {
	if e.ItemID < 0 || e.SetID < 0 {
		return ErrNegativeID
	}
	if !e.Rating.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidRating, int(e.Rating))
	}
	if !e.State.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidState, int(e.State))
	}
	if e.Timestamp.IsZero() {
		return ErrMissingTimestamp
	}
	return nil
}
