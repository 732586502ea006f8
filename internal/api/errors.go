package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/scry-study/internal/domain"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/phrazzld/scry-study/internal/service/study"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidSubject):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, study.ErrSessionNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, study.ErrCardNotFound),
		errors.Is(err, study.ErrVerseNotFound),
		errors.Is(err, study.ErrChapterEmpty),
		errors.Is(err, study.ErrSessionNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, study.ErrInvalidRating),
		errors.Is(err, study.ErrInvalidLimit),
		errors.Is(err, study.ErrInvalidDuration),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

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
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidSubject):
		return "Invalid token"

	case errors.Is(err, study.ErrSessionNotOwned):
		return "You do not own this study session"

	case errors.Is(err, study.ErrCardNotFound):
		return "Verse is not in your study deck"
	case errors.Is(err, study.ErrVerseNotFound):
		return "Verse not found"
	case errors.Is(err, study.ErrChapterEmpty):
		return "Chapter not found or has no verses"
	case errors.Is(err, study.ErrSessionNotFound):
		return "Study session not found or expired"

	case errors.Is(err, study.ErrInvalidRating):
		return "Invalid rating: must be one of again, hard, good, easy"
	case errors.Is(err, study.ErrInvalidLimit):
		return "Invalid limit"
	case errors.Is(err, study.ErrInvalidDuration):
		return "Invalid duration: cannot be negative"

	default:
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) && validationErr.Field != "" {
			return fmt.Sprintf("Invalid %s", validationErr.Field)
		}
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns request validation errors into a
// user-friendly message naming the first invalid field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid ID format"
	default:
		return "validation failed"
	}
}
