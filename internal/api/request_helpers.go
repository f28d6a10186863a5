package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/kanjidrill/internal/api/shared"
)

// getPathInt extracts a non-negative integer from the URL path parameters.
func getPathInt(r *http.Request, paramName string) (int, error) {
	return parseID(paramName, chi.URLParam(r, paramName))
}

// getQueryInt extracts an optional non-negative integer query parameter.
// The boolean reports whether the parameter was present.
func getQueryInt(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := parseID(name, raw)
	return v, err == nil, err
}

func parseID(name, raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", errInvalidPathParam, name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errInvalidPathParam, name)
	}
	return v, nil
}

// setAndItem extracts the setId and itemId path parameters, writing an error
// response when either is invalid.
func setAndItem(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	setID, err := getPathInt(r, "setId")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return 0, 0, false
	}
	itemID, err := getPathInt(r, "itemId")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return 0, 0, false
	}
	return setID, itemID, true
}

// decodeAndValidate decodes the JSON body into req and validates it, writing
// an error response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := shared.DecodeJSON(w, r, req); err != nil {
		message := "Invalid request format"
		if errors.Is(err, shared.ErrEmptyBody) {
			message = GetSafeErrorMessage(err)
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, message, err)
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}
