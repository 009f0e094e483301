// internal/middleware/require_role.go
package middleware

import (
	"net/http"

	"github.com/uncleisme/mobile-app/internal/auth"
	httpserver "github.com/uncleisme/mobile-app/internal/http"
	"github.com/uncleisme/mobile-app/internal/models"
)

// RequireRole admits profiles whose type is one of allowed. Mount after RequireAuth.
func RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	set := make(map[models.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p, ok := auth.ProfileFromContext(req.Context())
			if !ok {
				httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, ok := set[p.Type]; !ok {
				httpserver.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// RequireElevated admits admins and managers.
func RequireElevated(next http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin, models.RoleManager)(next)
}
