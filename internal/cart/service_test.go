package cart

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/identity"
	"github.com/joao-fontenele/storefront/internal/store/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()

	st := memory.NewStore(
		domain.Item{ID: "BOOK-001", Title: "The Great Gatsby", Price: decimal.RequireFromString("399.99"), Available: 3},
		domain.Item{ID: "BOOK-002", Title: "Clean Code", Price: decimal.RequireFromString("599.00"), Available: 0},
		domain.Item{ID: "BOOK-003", Title: "SICP", Price: decimal.RequireFromString("45.50"), Available: 7},
	)
	return NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil))), st
}

func TestAdd(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	line, err := s.Add(ctx, "alice", "BOOK-001")
	require.NoError(t, err)
	require.NotNil(t, line)
	assert.Equal(t, 1, line.Quantity)

	for range 4 {
		_, err = s.Add(ctx, "alice", "BOOK-001")
		require.NoError(t, err)
	}

	summary, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, 5, summary.Lines[0].Quantity, "add does not clamp to stock")
}

func TestConcurrentAddsAllCount(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Add(ctx, "alice", "BOOK-003"); err != nil {
				t.Errorf("add: %v", err)
			}
		}()
	}
	wg.Wait()

	summary, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, 6, summary.Lines[0].Quantity)
}

func TestAddUnavailableIsNoOp(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	for _, itemID := range []string{"BOOK-002", "BOOK-404"} {
		line, err := s.Add(ctx, "alice", itemID)
		require.NoError(t, err)
		assert.Nil(t, line)
	}

	summary, err := s.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
}

func TestListMostRecentFirstWithSubtotal(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "alice", "BOOK-001")
	require.NoError(t, err)
	_, err = s.Add(ctx, "alice", "BOOK-003")
	require.NoError(t, err)
	_, err = s.Add(ctx, "alice", "BOOK-003")
	require.NoError(t, err)
	_, err = s.Add(ctx, "bob", "BOOK-001")
	require.NoError(t, err)

	summary, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summary.Lines, 2)
	assert.Equal(t, "BOOK-003", summary.Lines[0].ItemID)
	assert.Equal(t, "BOOK-001", summary.Lines[1].ItemID)
	assert.Equal(t, 3, summary.Units)
	assert.True(t, summary.Subtotal.Equal(decimal.RequireFromString("490.99")), "subtotal %s", summary.Subtotal)
}

func TestSetQuantityClamps(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{requested: 2, want: 2},
		{requested: 3, want: 3},
		{requested: 50, want: 3},
		{requested: 0, want: 1},
		{requested: -4, want: 1},
	}

	for _, tt := range tests {
		s, _ := newService(t)
		ctx := context.Background()
		line, err := s.Add(ctx, "alice", "BOOK-001")
		require.NoError(t, err)

		got, err := s.SetQuantity(ctx, "alice", line.ID, tt.requested)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Quantity, "requested %d", tt.requested)
	}
}

func TestClampWithoutStock(t *testing.T) {
	assert.Equal(t, 1, Clamp(5, 0))
}

func TestLineOwnership(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	line, err := s.Add(ctx, "alice", "BOOK-001")
	require.NoError(t, err)

	_, err = s.SetQuantity(ctx, "bob", line.ID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.Remove(ctx, "bob", line.ID), domain.ErrNotFound)
	assert.ErrorIs(t, s.Remove(ctx, "alice", "missing"), domain.ErrNotFound)

	require.NoError(t, s.Remove(ctx, "alice", line.ID))
	summary, err := s.List(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
}

func TestClear(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, err := s.Add(ctx, "alice", "BOOK-001")
	require.NoError(t, err)
	_, err = s.Add(ctx, "alice", "BOOK-003")
	require.NoError(t, err)
	_, err = s.Add(ctx, "bob", "BOOK-003")
	require.NoError(t, err)

	removed, err := s.Clear(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	summary, err := s.List(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, summary.Lines, 1)
}

func TestHandler(t *testing.T) {
	s, _ := newService(t)
	h := NewHandler(s, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Use(identity.Middleware)
	h.Routes(r)

	call := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(identity.HeaderCustomerID, "alice")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, call(http.MethodPost, "/cart/items", `{}`).Code)
	assert.Equal(t, http.StatusNoContent, call(http.MethodPost, "/cart/items", `{"item_id":"BOOK-002"}`).Code)
	require.Equal(t, http.StatusOK, call(http.MethodPost, "/cart/items", `{"item_id":"BOOK-001"}`).Code)

	summary, err := s.List(context.Background(), "alice")
	require.NoError(t, err)
	lineID := summary.Lines[0].ID

	rec := call(http.MethodPatch, "/cart/items/"+lineID, `{"quantity":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity":3`)

	assert.Equal(t, http.StatusNotFound, call(http.MethodPatch, "/cart/items/nope", `{"quantity":1}`).Code)
	assert.Equal(t, http.StatusNoContent, call(http.MethodDelete, "/cart/items/"+lineID, "").Code)
	assert.Equal(t, http.StatusNotFound, call(http.MethodDelete, "/cart/items/"+lineID, "").Code)

	rec = call(http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed":0}`, rec.Body.String())

	rec = call(http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"lines":[]`)
}
