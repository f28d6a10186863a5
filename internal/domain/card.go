package domain

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors for Card
var (
	ErrNegativeID          = errors.New("item and set IDs must be non-negative")
	ErrMissingDue          = errors.New("card due time must be set")
	ErrInvalidStability    = errors.New("stability must be positive once reviewed and zero or positive while new")
	ErrInvalidDifficulty   = errors.New("difficulty must be within [1, 10], or 0 while new")
	ErrNegativeCounter     = errors.New("card counters must be non-negative")
	ErrInconsistentReviews = errors.New("new state must match a zero review count")
)

// MemoryState is the scheduling state the memory model reads and writes.
type MemoryState struct {
	Stability      float64    `json:"stability"`
	Difficulty     float64    `json:"difficulty"`
	State          State      `json:"state"`
	Step           *int       `json:"step,omitempty"` // nil in New and Review
	Due            time.Time  `json:"due"`
	ScheduledDays  int        `json:"scheduled_days"`
	ElapsedDays    int        `json:"elapsed_days"`
	Reps           int        `json:"reps"`
	Lapses         int        `json:"lapses"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// Card tracks the scheduling state of one item within one question set.
type Card struct {
	ItemID          int         `json:"item_id"`
	SetID           int         `json:"set_id"`
	Memory          MemoryState `json:"memory"`
	FirstReviewedAt *time.Time  `json:"first_reviewed_at,omitempty"`
	TotalReviews    int         `json:"total_reviews"`
}

// CardKey returns the storage key for an (item, set) pair.
func CardKey(setID, itemID int) string {
	return fmt.Sprintf("%d-%d", setID, itemID)
}

// NewCard creates an unreviewed card that is due immediately.
func NewCard(setID, itemID int, now time.Time) Card {
	return Card{
		ItemID: itemID,
		SetID:  setID,
		Memory: MemoryState{
			State: StateNew,
			Due:   now,
		},
	}
}

// Key returns the storage key of the card.
func (c Card) Key() string {
	return CardKey(c.SetID, c.ItemID)
}

// IsNew reports whether the card has never been reviewed.
func (c Card) IsNew() bool {
	return c.Memory.State == StateNew
}

// IsDue reports whether the card's due time is at or before now.
func (c Card) IsDue(now time.Time) bool {
	return !c.Memory.Due.After(now)
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	out := c
	if c.Memory.Step != nil {
		v := *c.Memory.Step
		out.Memory.Step = &v
	}
	if c.Memory.LastReviewedAt != nil {
		v := *c.Memory.LastReviewedAt
		out.Memory.LastReviewedAt = &v
	}
	if c.FirstReviewedAt != nil {
		v := *c.FirstReviewedAt
		out.FirstReviewedAt = &v
	}
	return out
}

// Validate checks that the card is internally consistent.
func (c Card) Validate() error {
	if c.ItemID < 0 || c.SetID < 0 {
		return ErrNegativeID
	}
	m := c.Memory
	if !m.State.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidState, int(m.State))
	}
	if m.Due.IsZero() {
		return ErrMissingDue
	}
	// A reviewed card always carries a memory estimate.
	if m.Stability < 0 || (m.State != StateNew && m.Stability == 0) {
		return ErrInvalidStability
	}
	if (m.State != StateNew || m.Difficulty != 0) && (m.Difficulty < 1 || m.Difficulty > 10) {
		return ErrInvalidDifficulty
	}
	if m.ScheduledDays < 0 || m.ElapsedDays < 0 || m.Reps < 0 || m.Lapses < 0 ||
		c.TotalReviews < 0 || (m.Step != nil && *m.Step < 0) {
		return ErrNegativeCounter
	}
	if (m.State == StateNew) != (c.TotalReviews == 0) {
		return ErrInconsistentReviews
	}
	return nil
}
