package cart

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpapi"
	"github.com/joao-fontenele/storefront/internal/identity"
)

type Handler struct {
	service *Service
	respond httpapi.Responder
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		respond: httpapi.NewResponder(logger),
		logger:  logger,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/cart", h.HandleList)
	r.Delete("/cart", h.HandleClear)
	r.Post("/cart/items", h.HandleAdd)
	r.Patch("/cart/items/{lineId}", h.HandleSetQuantity)
	r.Delete("/cart/items/{lineId}", h.HandleRemove)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	summary, err := h.service.List(r.Context(), p.CustomerID)
	if err != nil {
		h.respond.Fail(w, r, err, "failed to list cart")
		return
	}

	h.respond.JSON(w, http.StatusOK, summary)
}

type addRequest struct {
	ItemID string `json:"item_id"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	var req addRequest
	if err := httpapi.Decode(r, &req); err != nil || req.ItemID == "" {
		h.respond.Error(w, http.StatusBadRequest, "item_id is required")
		return
	}

	line, err := h.service.Add(r.Context(), p.CustomerID, req.ItemID)
	if err != nil {
		h.respond.Fail(w, r, err, "failed to add to cart")
		return
	}
	if line == nil {
		// Unknown or sold-out items are ignored.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.logger.Info("cart line updated", "customer_id", p.CustomerID, "item_id", line.ItemID, "quantity", line.Quantity)
	h.respond.JSON(w, http.StatusOK, line)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	var req setQuantityRequest
	if err := httpapi.Decode(r, &req); err != nil {
		h.respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.service.SetQuantity(r.Context(), p.CustomerID, chi.URLParam(r, "lineId"), req.Quantity)
	if err != nil {
		h.respond.Fail(w, r, err, "failed to set cart quantity")
		return
	}

	h.respond.JSON(w, http.StatusOK, line)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	err := h.service.Remove(r.Context(), p.CustomerID, chi.URLParam(r, "lineId"))
	if errors.Is(err, domain.ErrNotFound) {
		h.respond.Error(w, http.StatusNotFound, "cart line not found")
		return
	}
	if err != nil {
		h.respond.Fail(w, r, err, "failed to remove cart line")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	removed, err := h.service.Clear(r.Context(), p.CustomerID)
	if err != nil {
		h.respond.Fail(w, r, err, "failed to clear cart")
		return
	}

	h.respond.JSON(w, http.StatusOK, map[string]int{"removed": removed})
}
