package orders

import (
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

// Routes mounts the order endpoints. The caller wraps them with
// identity.Middleware.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/orders", h.HandleList)
	r.Get("/orders/{id}", h.HandleGet)
	r.Post("/orders/{id}/cancel", h.HandleCancel)
	r.Post("/orders/{id}/return", h.HandleReturn)
	r.With(identity.RequireAdmin).Patch("/orders/{id}/status", h.HandleUpdateStatus)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	list, err := h.service.List(r.Context(), p)
	if err != nil {
		h.respond.Fail(w, r, err, "failed to list orders")
		return
	}

	h.logger.Info("orders listed", "customer_id", p.CustomerID, "count", len(list))
	h.respond.JSON(w, http.StatusOK, list)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	detail, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		h.respond.Fail(w, r, err, "failed to get order")
		return
	}

	h.logger.Info("order retrieved", "order_id", detail.ID)
	h.respond.JSON(w, http.StatusOK, detail)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	order, err := h.service.Cancel(r.Context(), p, id)
	if err != nil {
		h.respond.Fail(w, r, err, "failed to cancel order")
		return
	}

	h.respond.JSON(w, http.StatusOK, order)
}

func (h *Handler) HandleReturn(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	order, err := h.service.RequestReturn(r.Context(), p, id)
	if err != nil {
		h.respond.Fail(w, r, err, "failed to request return")
		return
	}

	h.respond.JSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := httpapi.Decode(r, &req); err != nil {
		h.respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.SetStatus(r.Context(), p, id, req.Status)
	if err != nil {
		h.respond.Fail(w, r, err, "failed to update order status")
		return
	}

	h.respond.JSON(w, http.StatusOK, order)
}
