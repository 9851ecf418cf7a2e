// Package httpapi holds the JSON response helpers shared by the handlers.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Responder struct {
	logger *slog.Logger
}

func NewResponder(logger *slog.Logger) Responder {
	return Responder{logger: logger}
}

func (rs Responder) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Error("failed to encode response", "error", err)
	}
}

func (rs Responder) Error(w http.ResponseWriter, status int, message string) {
	rs.JSON(w, status, map[string]string{"error": message})
}

// Fail maps a core error to a status code. Unexpected errors are logged
// and hidden behind a generic message.
func (rs Responder) Fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		rs.logger.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
		rs.Error(w, status, "internal server error")
		return
	}

	rs.logger.InfoContext(r.Context(), msg, "error", err, "status", status)
	body := map[string]any{"error": err.Error()}
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		body["item_id"] = stockErr.ItemID
		body["requested"] = stockErr.Requested
	}
	rs.JSON(w, status, body)
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidOrder):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPaymentMethod),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidShipping),
		errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrCheckoutInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON request body, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
