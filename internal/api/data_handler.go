package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/phrazzld/kanjidrill/internal/api/shared"
	"github.com/phrazzld/kanjidrill/internal/platform/logger"
)

// GetExclusions handles GET /api/sets/{setId}/exclusions.
func (h *Handler) GetExclusions(w http.ResponseWriter, r *http.Request) {
	setID, err := getPathInt(r, "setId")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ExclusionsResponse{
		SetID:   setID,
		ItemIDs: h.data.GetExclusions(r.Context(), setID),
	})
}

// ToggleExclusion handles POST /api/sets/{setId}/exclusions/{itemId}.
func (h *Handler) ToggleExclusion(w http.ResponseWriter, r *http.Request) {
	setID, itemID, ok := setAndItem(w, r)
	if !ok {
		return
	}

	excluded, err := h.data.ToggleExclusion(r.Context(), setID, itemID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to toggle exclusion")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ToggleExclusionResponse{
		SetID:    setID,
		ItemID:   itemID,
		Excluded: excluded,
	})
}

// Statistics handles GET /api/stats with an optional set query parameter.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	setID, present, err := getQueryInt(r, "set")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var filter *int
	if present {
		filter = &setID
	}
	shared.RespondWithJSON(w, r, http.StatusOK, h.stats.Statistics(r.Context(), filter))
}

// ExportSnapshot handles GET /api/snapshot.
func (h *Handler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	blob, err := h.data.ExportSnapshot(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to export snapshot")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="kanjidrill-snapshot.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(blob); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Error("failed to write snapshot",
			slog.String("error", err.Error()))
	}
}

// ImportSnapshot handles POST /api/snapshot. The body is the exported JSON.
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, shared.MaxBodyBytes))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.data.ImportSnapshot(r.Context(), blob); err != nil {
		HandleAPIError(w, r, err, "Failed to import snapshot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearAll handles DELETE /api/data.
func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.data.ClearAll(r.Context()); err != nil {
		HandleAPIError(w, r, err, "Failed to clear data")
		return
	}
	logger.FromContextOrDefault(r.Context(), h.logger).Info("all data cleared via API")
	w.WriteHeader(http.StatusNoContent)
}
