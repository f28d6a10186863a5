package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/kanjidrill/internal/api/shared"
	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/phrazzld/kanjidrill/internal/platform/logger"
	"github.com/phrazzld/kanjidrill/internal/service/review"
)

// RecordOutcome handles POST /api/sets/{setId}/items/{itemId}/outcome.
func (h *Handler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	setID, itemID, ok := setAndItem(w, r)
	if !ok {
		return
	}

	var req OutcomeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := req.toOutcome(setID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.reviews.RecordOutcome(r.Context(), outcome)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record outcome")
		return
	}

	log.Debug("outcome recorded",
		slog.Int("set_id", setID),
		slog.Int("item_id", itemID),
		slog.String("rating", outcome.Rating.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// toOutcome resolves the rating and correctness of the request.
func (req OutcomeRequest) toOutcome(setID, itemID int) (review.Outcome, error) {
	out := review.Outcome{SetID: setID, ItemID: itemID, UserAnswer: req.UserAnswer}

	if req.Rating != "" {
		rating, err := domain.ParseRating(req.Rating)
		if err != nil {
			return review.Outcome{}, err
		}
		out.Rating = rating
		out.IsCorrect = rating != domain.RatingAgain
		if req.IsCorrect != nil {
			out.IsCorrect = *req.IsCorrect
		}
		return out, nil
	}

	rating, err := domain.RatingFromCorrectness(*req.IsCorrect, domain.Confidence(req.Confidence))
	if err != nil {
		return review.Outcome{}, err
	}
	out.Rating = rating
	out.IsCorrect = *req.IsCorrect
	return out, nil
}

// CardInfo handles GET /api/sets/{setId}/items/{itemId}.
func (h *Handler) CardInfo(w http.ResponseWriter, r *http.Request) {
	setID, itemID, ok := setAndItem(w, r)
	if !ok {
		return
	}

	info, err := h.reviews.CardInfo(r.Context(), setID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, info)
}

// ItemLogs handles GET /api/sets/{setId}/items/{itemId}/reviews.
func (h *Handler) ItemLogs(w http.ResponseWriter, r *http.Request) {
	setID, itemID, ok := setAndItem(w, r)
	if !ok {
		return
	}

	logs, err := h.reviews.ItemLogs(r.Context(), setID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get reviews")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ReviewsResponse{SetID: setID, ItemID: itemID, Reviews: logs})
}

// Postpone handles POST /api/sets/{setId}/items/{itemId}/postpone.
func (h *Handler) Postpone(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	setID, itemID, ok := setAndItem(w, r)
	if !ok {
		return
	}

	var req PostponeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.reviews.Postpone(r.Context(), setID, itemID, req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to postpone card")
		return
	}

	log.Debug("card postponed",
		slog.Int("set_id", setID),
		slog.Int("item_id", itemID),
		slog.Int("days", req.Days))
	shared.RespondWithJSON(w, r, http.StatusOK, card)
}
