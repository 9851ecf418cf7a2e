package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrInvalidOrder, http.StatusNotFound},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrInvalidPaymentMethod, http.StatusBadRequest},
		{fmt.Errorf("%w: %q", domain.ErrInvalidStatus, "LOST"), http.StatusBadRequest},
		{domain.ErrEmptyCart, http.StatusConflict},
		{&domain.InsufficientStockError{ItemID: "BOOK-001", Requested: 2}, http.StatusConflict},
		{fmt.Errorf("commit: %w", domain.ErrConflict), http.StatusConflict},
		{domain.ErrCheckoutInProgress, http.StatusConflict},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestFailIncludesStockDetails(t *testing.T) {
	rs := NewResponder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/checkout", nil)

	rs.Fail(rec, req, &domain.InsufficientStockError{ItemID: "BOOK-003", Requested: 4}, "checkout failed")

	require.Equal(t, http.StatusConflict, rec.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "BOOK-003", body["item_id"])
	assert.EqualValues(t, 4, body["requested"])
}

func TestFailHidesInternalErrors(t *testing.T) {
	rs := NewResponder(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders", nil)

	rs.Fail(rec, req, errors.New("dial tcp: connection refused"), "list failed")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
