// Package apperr defines the error taxonomy shared by the engine and the
// HTTP layer. Call sites wrap these sentinels with context via fmt.Errorf
// and %w; handlers map them to status codes with HTTPStatus.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks malformed input that slipped past upstream
	// validation (non-positive quantity, unknown status value).
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks a missing menu item, order, line item or promotion.
	ErrNotFound = errors.New("record not found")

	// ErrConflict marks a unique-constraint violation or a delete blocked
	// by live usage.
	ErrConflict = errors.New("conflicting record")

	// ErrNotEligible marks a promotion eligibility or redemption-cap
	// failure at redemption or submission time.
	ErrNotEligible = errors.New("not eligible")
)

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotEligible):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
