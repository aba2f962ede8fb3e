package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Simplici0/printprice/internal/capital"
	"github.com/Simplici0/printprice/internal/catalog"
	"github.com/Simplici0/printprice/internal/jobs"
	"github.com/Simplici0/printprice/internal/sales"
	"github.com/Simplici0/printprice/internal/settings"
	"github.com/Simplici0/printprice/internal/slicer"
)

// Error is an error with the code and HTTP status it is reported with.
type Error struct {
	Code    string
	Message string
	Status  int
	Err     error
	Details any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func badRequest(message string, err error) *Error {
	return &Error{Code: "BAD_REQUEST", Message: message, Status: http.StatusBadRequest, Err: err}
}

func unprocessable(code, message string) *Error {
	return &Error{Code: code, Message: message, Status: http.StatusUnprocessableEntity}
}

// ErrorBody is the payload under the "error" key of failed responses.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as a JSON response with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes the canonical error payload.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{Code: code, Message: message, Details: details},
	})
}

func data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, map[string]any{"data": v})
}

// toError maps domain errors onto HTTP errors. Unknown errors become 500.
func toError(err error) *Error {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, jobs.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, sales.ErrNotFound),
		errors.Is(err, capital.ErrNotFound):
		return &Error{Code: "NOT_FOUND", Message: err.Error(), Status: http.StatusNotFound, Err: err}
	case errors.Is(err, sales.ErrInsufficientStock):
		return &Error{Code: "INSUFFICIENT_STOCK", Message: err.Error(), Status: http.StatusConflict, Err: err}
	case errors.Is(err, sales.ErrEmptyCart), errors.Is(err, sales.ErrInvalidQuantity):
		return &Error{Code: "INVALID_CART", Message: err.Error(), Status: http.StatusUnprocessableEntity, Err: err}
	case errors.Is(err, slicer.ErrNoMetadata):
		return &Error{Code: "NO_METADATA", Message: err.Error(), Status: http.StatusUnprocessableEntity, Err: err}
	case errors.Is(err, settings.ErrNoSyncedStore):
		return &Error{Code: "SYNC_UNAVAILABLE", Message: err.Error(), Status: http.StatusConflict, Err: err}
	default:
		return &Error{Code: "INTERNAL", Message: "internal error", Status: http.StatusInternalServerError, Err: err}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := toError(err)
	if e.Status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	JSONError(w, e.Status, e.Code, e.Message, e.Details)
}
