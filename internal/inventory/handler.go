// Package inventory serves read access to stock levels. Reservations are
// made by checkout and the order lifecycle through store.Inventory.
package inventory

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpapi"
	"github.com/joao-fontenele/storefront/internal/store"
)

type Handler struct {
	store   store.Store
	respond httpapi.Responder
	logger  *slog.Logger
}

func NewHandler(st store.Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:   st,
		respond: httpapi.NewResponder(logger),
		logger:  logger,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/stock", h.HandleListStock)
	r.Get("/stock/{itemId}", h.HandleGetStock)
}

func (h *Handler) HandleListStock(w http.ResponseWriter, r *http.Request) {
	var levels []domain.StockLevel
	err := h.store.View(r.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		levels, err = tx.Inventory().ListAll(ctx)
		return err
	})
	if err != nil {
		h.respond.Fail(w, r, err, "failed to list stock")
		return
	}

	h.logger.Info("stock listed", "count", len(levels))
	h.respond.JSON(w, http.StatusOK, levels)
}

func (h *Handler) HandleGetStock(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")

	var level *domain.StockLevel
	err := h.store.View(r.Context(), func(ctx context.Context, tx store.Tx) error {
		var err error
		level, err = tx.Inventory().GetStock(ctx, itemID)
		return err
	})
	if err != nil {
		h.respond.Fail(w, r, err, "failed to get stock")
		return
	}

	if level == nil {
		h.respond.Error(w, http.StatusNotFound, "item not found")
		return
	}

	h.respond.JSON(w, http.StatusOK, level)
}
