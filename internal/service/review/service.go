// Package review records review outcomes and exposes per-card scheduling details.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/phrazzld/kanjidrill/internal/domain"
)

// Outcome is a single recorded answer for an item.
type Outcome struct {
	SetID      int           `json:"set_id"`
	ItemID     int           `json:"item_id"`
	Rating     domain.Rating `json:"rating"`
	IsCorrect  bool          `json:"is_correct"`
	UserAnswer string        `json:"user_answer,omitempty"`
}

// Result is the card produced by RecordOutcome and the log entry written for it.
type Result struct {
	Card    domain.Card           `json:"card"`
	Entry   domain.ReviewLogEntry `json:"entry"`
	NextDue time.Time             `json:"next_due"`
}

// CardInfo describes the scheduling position of one card at a point in time.
type CardInfo struct {
	Card           domain.Card `json:"card"`
	IsDue          bool        `json:"is_due"`
	IsNew          bool        `json:"is_new"`
	DaysUntilDue   int         `json:"days_until_due"` // rounded up; zero or negative when due
	Retrievability float64     `json:"retrievability"`
}

// Service records review outcomes using the spaced repetition algorithm.
type Service interface {
	// RecordOutcome loads or synthesizes the card, applies the memory model update
	// at the current time and persists the card together with a review log entry.
	//
	// Returns domain.ErrInvalidRating for a rating outside the enum and
	// domain.ErrInvalidInput for negative ids. Storage failures are wrapped in
	// a *ServiceError and keep store.ErrStorageUnavailable in the chain.
	RecordOutcome(ctx context.Context, outcome Outcome) (*Result, error)

	// CardInfo reports the stored or synthesized card with derived fields.
	CardInfo(ctx context.Context, setID, itemID int) (*CardInfo, error)

	// Postpone pushes the card's due time forward by days. No log entry is written.
	Postpone(ctx context.Context, setID, itemID, days int) (domain.Card, error)

	// ItemLogs returns the review history of one item in recording order.
	ItemLogs(ctx context.Context, setID, itemID int) ([]domain.ReviewLogEntry, error)
}

// ServiceError wraps errors from the review service with the failed operation.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "record_outcome", "postpone")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewRecordOutcomeError returns a new ServiceError for the record_outcome operation.
func NewRecordOutcomeError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "record_outcome", Message: message, Err: err}
}

// NewPostponeError returns a new ServiceError for the postpone operation.
func NewPostponeError(message string, err error) *ServiceError {
	return &ServiceError{Operation: "postpone", Message: message, Err: err}
}
