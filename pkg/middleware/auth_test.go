package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/eadens/cakeworld/pkg/middleware"
	"github.com/eadens/cakeworld/pkg/rbac"
)

func echoPrincipal(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromCtx(r)
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(p.Role))
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	middleware.AuthMiddleware(http.HandlerFunc(echoPrincipal)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication_required")
}

func TestAuthMiddlewareAcceptsBearer(t *testing.T) {
	tok, err := auth.GenerateToken(1, auth.RoleCustomer)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	middleware.AuthMiddleware(http.HandlerFunc(echoPrincipal)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.RoleCustomer, rec.Body.String())
}

func TestAuthMiddlewareAcceptsCookie(t *testing.T) {
	tok, err := auth.GenerateToken(2, auth.RoleAdmin)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tok})

	middleware.AuthMiddleware(http.HandlerFunc(echoPrincipal)).ServeHTTP(rec, req)

	assert.Equal(t, auth.RoleAdmin, rec.Body.String())
}

func TestAuthenticateIgnoresInvalidToken(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")

	middleware.Authenticate(http.HandlerFunc(echoPrincipal)).ServeHTTP(rec, req)

	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestHasRole(t *testing.T) {
	h := middleware.Authenticate(rbac.HasRole(auth.RoleAdmin)(http.HandlerFunc(echoPrincipal)))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	customer, _ := auth.GenerateToken(1, auth.RoleCustomer)
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+customer)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, _ := auth.GenerateToken(2, auth.RoleAdmin)
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryRendersEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRateLimit(t *testing.T) {
	h := middleware.RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "10.9.8.7")
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
