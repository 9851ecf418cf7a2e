package payment

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/httpapi"
	"github.com/joao-fontenele/storefront/internal/identity"
)

type Handler struct {
	processor *Processor
	respond   httpapi.Responder
}

func NewHandler(processor *Processor, logger *slog.Logger) *Handler {
	return &Handler{
		processor: processor,
		respond:   httpapi.NewResponder(logger),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/orders/{id}/payments", h.HandleCreate)
}

type paymentRequest struct {
	Amount    decimal.Decimal      `json:"amount"`
	Method    domain.PaymentMethod `json:"method"`
	Succeeded bool                 `json:"succeeded"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	p, _ := identity.FromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	var req paymentRequest
	if err := httpapi.Decode(r, &req); err != nil {
		h.respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.processor.ProcessPayment(r.Context(), p.CustomerID, orderID, Attempt{
		Amount:    req.Amount,
		Method:    req.Method,
		Succeeded: req.Succeeded,
	})
	if err != nil {
		h.respond.Fail(w, r, err, "failed to process payment")
		return
	}

	h.respond.JSON(w, http.StatusCreated, out)
}
