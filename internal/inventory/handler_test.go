package inventory

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/store/memory"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	st := memory.NewStore(
		domain.Item{ID: "BOOK-001", Title: "The Great Gatsby", Price: decimal.RequireFromString("399.99"), Available: 10},
		domain.Item{ID: "BOOK-002", Title: "A Brief History of Time", Price: decimal.RequireFromString("499.00"), Available: 0},
	)
	h := NewHandler(st, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestHandleListStock(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stock", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var levels []domain.StockLevel
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&levels))
	assert.ElementsMatch(t, []domain.StockLevel{
		{ItemID: "BOOK-001", Available: 10},
		{ItemID: "BOOK-002", Available: 0},
	}, levels)
}

func TestHandleGetStock(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name       string
		itemID     string
		wantStatus int
		wantStock  int
	}{
		{name: "in stock", itemID: "BOOK-001", wantStatus: http.StatusOK, wantStock: 10},
		{name: "sold out", itemID: "BOOK-002", wantStatus: http.StatusOK, wantStock: 0},
		{name: "unknown", itemID: "BOOK-404", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stock/"+tt.itemID, nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var level domain.StockLevel
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&level))
			assert.Equal(t, tt.itemID, level.ItemID)
			assert.Equal(t, tt.wantStock, level.Available)
		})
	}
}
