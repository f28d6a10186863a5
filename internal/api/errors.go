package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/kanjidrill/internal/api/shared"
	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/phrazzld/kanjidrill/internal/service/study"
	"github.com/phrazzld/kanjidrill/internal/store"
)

// errInvalidPathParam marks a path or query parameter that is not a non-negative integer.
var errInvalidPathParam = errors.New("invalid path parameter")

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidConfidence),
		errors.Is(err, study.ErrInvalidBudget),
		errors.Is(err, store.ErrInvalidImport),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrEmptyBody),
		errors.Is(err, errInvalidPathParam):
		return http.StatusBadRequest

	// The medium may come back; clients can retry.
	case errors.Is(err, store.ErrStorageUnavailable),
		errors.Is(err, store.ErrTransactionFailed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRating):
		return "Invalid rating"
	case errors.Is(err, domain.ErrInvalidConfidence):
		return "Invalid confidence"
	case errors.Is(err, study.ErrInvalidBudget):
		return "Invalid study budget"
	case errors.Is(err, store.ErrInvalidImport):
		return "Invalid snapshot"
	case errors.Is(err, errInvalidPathParam):
		return "Invalid path parameter"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid input"
	case errors.Is(err, store.ErrStorageUnavailable),
		errors.Is(err, store.ErrTransactionFailed):
		return "Storage unavailable"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a short message naming
// the first failing field.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required", "required_without":
		return "required field"
	case "gte", "min":
		return "too small"
	case "lte", "max":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the mapped status and safe message for err and logs
// the redacted details. A non-empty fallback replaces the generic message for
// unexpected errors.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
