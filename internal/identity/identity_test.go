package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		customerID string
		role       string
		wantStatus int
		wantRole   Role
	}{
		{name: "missing customer", wantStatus: http.StatusUnauthorized},
		{name: "customer default role", customerID: "cust-1", wantStatus: http.StatusOK, wantRole: RoleCustomer},
		{name: "admin", customerID: "ops", role: "ADMIN", wantStatus: http.StatusOK, wantRole: RoleAdmin},
		{name: "admin lowercase", customerID: "ops", role: "admin", wantStatus: http.StatusOK, wantRole: RoleAdmin},
		{name: "unknown role", customerID: "cust-1", role: "ROOT", wantStatus: http.StatusOK, wantRole: RoleCustomer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Principal
			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				p, ok := FromContext(r.Context())
				require.True(t, ok)
				got = p
			}))

			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.customerID != "" {
				req.Header.Set(HeaderCustomerID, tt.customerID)
			}
			if tt.role != "" {
				req.Header.Set(HeaderRole, tt.role)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.customerID, got.CustomerID)
				assert.Equal(t, tt.wantRole, got.Role)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := Middleware(RequireAdmin(ok))

	req := httptest.NewRequest(http.MethodPatch, "/orders/x/status", nil)
	req.Header.Set(HeaderCustomerID, "cust-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req.Header.Set(HeaderRole, "ADMIN")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
