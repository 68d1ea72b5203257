package middleware

import (
	"net/http"
	"strings"

	"github.com/eadens/cakeworld/pkg/auth"
	"github.com/eadens/cakeworld/pkg/response"
)

// TokenFromRequest returns the session token from the Authorization bearer
// header, falling back to the "token" cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(auth.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authenticate attaches the caller's principal when a valid token is present
// and passes anonymous requests through untouched.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := TokenFromRequest(r); token != "" {
			if claims, err := auth.ValidateToken(token); err == nil {
				r = r.WithContext(auth.WithPrincipal(r.Context(), claims.Principal()))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// AuthMiddleware rejects requests without a valid token with 401.
func AuthMiddleware(next http.Handler) http.Handler {
	return Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFrom(r.Context()); !ok {
			response.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// PrincipalFromCtx returns the authenticated caller, if any.
func PrincipalFromCtx(r *http.Request) (auth.Principal, bool) {
	return auth.PrincipalFrom(r.Context())
}

func UserIDFromCtx(r *http.Request) (uint, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	return p.UserID, ok
}

func RoleFromCtx(r *http.Request) (string, bool) {
	p, ok := auth.PrincipalFrom(r.Context())
	return p.Role, ok
}
