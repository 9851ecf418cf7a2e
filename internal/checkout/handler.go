package checkout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpapi"
	"github.com/joao-fontenele/storefront/internal/identity"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type Handler struct {
	transactor *Transactor
	respond    httpapi.Responder
}

func NewHandler(transactor *Transactor, logger *slog.Logger) *Handler {
	return &Handler{
		transactor: transactor,
		respond:    httpapi.NewResponder(logger),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/checkout", h.HandleCheckout)
}

type checkoutRequest struct {
	Shipping domain.ShippingDetails `json:"shipping"`
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())

	var req checkoutRequest
	if err := httpapi.Decode(r, &req); err != nil {
		h.respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, created, err := h.transactor.PlaceOrderOnce(r.Context(), p.CustomerID, r.Header.Get(HeaderIdempotencyKey), req.Shipping)
	if err != nil {
		h.respond.Fail(w, r, err, "checkout failed")
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	h.respond.JSON(w, status, order)
}
