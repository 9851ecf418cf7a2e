// Package identity carries the caller's identity through a request.
// Identity is asserted by an upstream gateway via headers; this service
// performs no authentication of its own.
package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	HeaderCustomerID = "X-Customer-ID"
	HeaderRole       = "X-Customer-Role"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

type Principal struct {
	CustomerID string
	Role       Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the principal attached by Middleware.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// Middleware rejects requests without a customer id. Any role other than
// ADMIN is treated as CUSTOMER.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customerID := strings.TrimSpace(r.Header.Get(HeaderCustomerID))
		if customerID == "" {
			reject(w, http.StatusUnauthorized, "missing "+HeaderCustomerID+" header")
			return
		}

		role := RoleCustomer
		if strings.EqualFold(strings.TrimSpace(r.Header.Get(HeaderRole)), string(RoleAdmin)) {
			role = RoleAdmin
		}

		ctx := WithPrincipal(r.Context(), Principal{CustomerID: customerID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			reject(w, http.StatusUnauthorized, "missing identity")
			return
		}
		if !p.IsAdmin() {
			reject(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
