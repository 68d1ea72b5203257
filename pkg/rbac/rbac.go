// Package rbac provides role-based access control middleware.
package rbac

import (
	"net/http"

	"github.com/eadens/cakeworld/pkg/middleware"
	"github.com/eadens/cakeworld/pkg/response"
)

// HasRole returns middleware that allows access only to users with the given role.
// Anonymous callers get 401; authenticated callers with another role get 403.
// Requires middleware.Authenticate or AuthMiddleware to have already run.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok {
				response.Unauthorized(w)
				return
			}
			if !allowed[role] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
