package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront/internal/cart"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/httpapi"
	"github.com/joao-fontenele/storefront/internal/identity"
	"github.com/joao-fontenele/storefront/internal/inventory"
	"github.com/joao-fontenele/storefront/internal/orders"
	"github.com/joao-fontenele/storefront/internal/payment"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

type handlers struct {
	stock    *inventory.Handler
	cart     *cart.Handler
	checkout *checkout.Handler
	orders   *orders.Handler
	payments *payment.Handler
}

// healthFunc reports component states for /healthz.
type healthFunc func() map[string]string

func newRouter(h handlers, metrics http.Handler, health healthFunc, timeout time.Duration, logger *slog.Logger) http.Handler {
	respond := httpapi.NewResponder(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(telemetry.RouteSpan)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]string{"status": "ok"}
		if health != nil {
			for k, v := range health() {
				body[k] = v
			}
		}
		respond.JSON(w, http.StatusOK, body)
	})
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	h.stock.Routes(r)

	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware)
		h.cart.Routes(r)
		h.checkout.Routes(r)
		h.orders.Routes(r)
		h.payments.Routes(r)
	})

	return otelhttp.NewHandler(r, "storefront",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
