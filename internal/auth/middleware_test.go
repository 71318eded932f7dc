package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/karobar-labs/karobar-backend/internal/auth/jwt"
	"github.com/karobar-labs/karobar-backend/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *jwt.Manager {
	return jwt.NewManager(&config.JWTConfig{
		Secret:       "test-secret",
		AccessExpiry: time.Hour,
		Issuer:       "karobar",
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_ValidToken(t *testing.T) {
	m := testManager()
	token, _, err := m.Generate(&jwt.UserInfo{ID: "owner-1", Role: jwt.RoleOwner})
	require.NoError(t, err)

	var gotClaims *jwt.Claims
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "owner-1", gotClaims.UserID)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	handler := Middleware(testManager())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_BadHeaderFormat(t *testing.T) {
	handler := Middleware(testManager())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_InvalidToken(t *testing.T) {
	handler := Middleware(testManager())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		allowed    []string
		wantStatus int
	}{
		{"owner allowed", jwt.RoleOwner, []string{jwt.RoleOwner}, http.StatusOK},
		{"employee rejected on owner route", jwt.RoleEmployee, []string{jwt.RoleOwner}, http.StatusForbidden},
		{"employee allowed on shared route", jwt.RoleEmployee, []string{jwt.RoleOwner, jwt.RoleEmployee}, http.StatusOK},
		{"customer rejected", jwt.RoleCustomer, []string{jwt.RoleOwner, jwt.RoleEmployee}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(tt.allowed...)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			ctx := WithClaims(req.Context(), &jwt.Claims{UserID: "u1", Role: tt.role})
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	handler := RequireRole(jwt.RoleOwner)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestClaimsFromContext(t *testing.T) {
	assert.Nil(t, ClaimsFromContext(context.Background()))

	claims := &jwt.Claims{UserID: "cust-1", Role: jwt.RoleCustomer, OwnerID: "owner-1", CustomerMobile: "9812345670"}
	got := ClaimsFromContext(WithClaims(context.Background(), claims))
	require.NotNil(t, got)
	assert.Equal(t, "owner-1", got.OwnerID)
	assert.Equal(t, "9812345670", got.CustomerMobile)
}

func TestOwnerID(t *testing.T) {
	ctx := WithClaims(context.Background(), &jwt.Claims{UserID: "owner-1", Role: jwt.RoleOwner})
	assert.Equal(t, "owner-1", OwnerID(ctx))

	ctx = WithClaims(context.Background(), &jwt.Claims{UserID: "emp-1", Role: jwt.RoleEmployee, OwnerID: "owner-2"})
	assert.Equal(t, "owner-2", OwnerID(ctx))

	assert.Equal(t, "", OwnerID(context.Background()))
}
