package api

import (
	"github.com/phrazzld/kanjidrill/internal/domain"
)

// OutcomeRequest is the payload of POST /api/sets/{setId}/items/{itemId}/outcome.
//
// Either Rating or IsCorrect must be present. Without a rating the answer's
// correctness and optional confidence determine it; without is_correct the
// answer counts as correct unless rated again.
type OutcomeRequest struct {
	Rating     string `json:"rating,omitempty"      validate:"omitempty,oneof=again hard good easy"`
	IsCorrect  *bool  `json:"is_correct,omitempty"  validate:"required_without=Rating"`
	Confidence string `json:"confidence,omitempty"  validate:"omitempty,oneof=low medium high"`
	UserAnswer string `json:"user_answer,omitempty" validate:"max=512"`
}

// PostponeRequest is the payload of POST /api/sets/{setId}/items/{itemId}/postpone.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,gte=1,lte=36500"`
}

// StudyListRequest is the payload of POST /api/sets/{setId}/study-list.
// Omitted budget fields fall back to the configured defaults.
type StudyListRequest struct {
	Candidates []int `json:"candidates" validate:"required,max=100000"`
	MaxReviews *int  `json:"max_reviews,omitempty"`
	MaxNew     *int  `json:"max_new,omitempty"`
	TotalLimit *int  `json:"total_limit,omitempty"`
}

// StudyListResponse lists the item ids to study, in order.
type StudyListResponse struct {
	SetID int   `json:"set_id"`
	Items []int `json:"items"`
}

// ExclusionsResponse lists the excluded items of a set.
type ExclusionsResponse struct {
	SetID   int   `json:"set_id"`
	ItemIDs []int `json:"item_ids"`
}

// ToggleExclusionResponse reports the exclusion mark after a toggle.
type ToggleExclusionResponse struct {
	SetID    int  `json:"set_id"`
	ItemID   int  `json:"item_id"`
	Excluded bool `json:"excluded"`
}

// ReviewsResponse is the review history of one item.
type ReviewsResponse struct {
	SetID   int                     `json:"set_id"`
	ItemID  int                     `json:"item_id"`
	Reviews []domain.ReviewLogEntry `json:"reviews"`
}
