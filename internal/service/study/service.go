// Package study builds study sessions from due and unseen items.
package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/kanjidrill/internal/domain"
)

// ErrInvalidBudget is returned when a budget or limit is negative.
var ErrInvalidBudget = errors.New("invalid study budget")

// Budget bounds the composition of a study list.
type Budget struct {
	MaxReviews int `json:"max_reviews" validate:"gte=0"`
	MaxNew     int `json:"max_new"     validate:"gte=0"`
	TotalLimit int `json:"total_limit" validate:"gte=0"`
}

// DefaultBudget is used when no budget is configured.
var DefaultBudget = Budget{MaxReviews: 20, MaxNew: 10, TotalLimit: 20}

var validate = validator.New()

// Validate checks the field tags and wraps any failure in ErrInvalidBudget.
func (b Budget) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBudget, err)
	}
	return nil
}

// DueItem is a reviewed card whose due time has passed.
type DueItem struct {
	ItemID      int         `json:"item_id"`
	DaysOverdue int         `json:"days_overdue"`
	Card        domain.Card `json:"card"`
}

// Service selects which items to study.
type Service interface {
	// StudyList returns item ids to study: the most overdue due items first,
	// then unseen items in candidate order. Only candidate ids are considered
	// and excluded items never appear.
	StudyList(ctx context.Context, candidateIDs []int, setID int, budget Budget) ([]int, error)

	// DueItems lists every due, non-excluded card of the set, most overdue first.
	// A limit of zero means no limit.
	DueItems(ctx context.Context, setID, limit int) ([]DueItem, error)

	// NewItems lists candidate ids without a reviewed card, in candidate order.
	// A limit of zero means no limit.
	NewItems(ctx context.Context, candidateIDs []int, setID, limit int) ([]int, error)
}
