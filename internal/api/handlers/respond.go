package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ertantorizkyf/promotion-service/internal/apperr"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, code int, message string, data any) {
	writeJSON(w, code, Response{Success: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, err error) {
	code := apperr.HTTPStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		// do not leak driver/SQL detail to callers
		message = "internal server error"
	}
	writeJSON(w, code, Response{Success: false, Message: message})
}

// callerID reads the authenticated user id set by the upstream gateway.
func callerID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, fmt.Errorf("%w: missing X-User-ID header", apperr.ErrValidation)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed X-User-ID header", apperr.ErrValidation)
	}
	return id, nil
}

func pathID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed %s", apperr.ErrValidation, param)
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body", apperr.ErrValidation)
	}
	return nil
}
