package api

import (
	"net/http"

	"github.com/phrazzld/kanjidrill/internal/api/shared"
	"github.com/phrazzld/kanjidrill/internal/service/study"
)

// StudyList handles POST /api/sets/{setId}/study-list.
func (h *Handler) StudyList(w http.ResponseWriter, r *http.Request) {
	setID, err := getPathInt(r, "setId")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req StudyListRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	items, err := h.study.StudyList(r.Context(), req.Candidates, setID, req.budget(h.budget))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build study list")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StudyListResponse{SetID: setID, Items: items})
}

func (req StudyListRequest) budget(defaults study.Budget) study.Budget {
	b := defaults
	if req.MaxReviews != nil {
		b.MaxReviews = *req.MaxReviews
	}
	if req.MaxNew != nil {
		b.MaxNew = *req.MaxNew
	}
	if req.TotalLimit != nil {
		b.TotalLimit = *req.TotalLimit
	}
	return b
}

// DueItems handles GET /api/sets/{setId}/due?limit=.
func (h *Handler) DueItems(w http.ResponseWriter, r *http.Request) {
	setID, err := getPathInt(r, "setId")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	limit, _, err := getQueryInt(r, "limit")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	items, err := h.study.DueItems(r.Context(), setID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list due items")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, items)
}
