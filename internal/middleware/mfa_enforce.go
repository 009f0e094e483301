package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/auth"
	httpserver "github.com/uncleisme/mobile-app/internal/http"
)

// TOTPChecker reports whether a user has enrolled an authenticator.
type TOTPChecker interface {
	UserHasTOTP(ctx context.Context, uid uuid.UUID) bool
}

// mfaExempt stays reachable while a user is being forced through enrolment.
var mfaExempt = map[string]struct{}{
	"/auth/mfa/totp/setup":  {},
	"/auth/mfa/totp/verify": {},
	"/auth/logout":          {},
	"/auth/me":              {},
}

// MFAEnforce enforces TOTP for local accounts if localRequired is true.
// A session passes once a code was checked at login or during enrolment.
// Mount after RequireAuth.
func MFAEnforce(r TOTPChecker, localRequired bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !localRequired {
				next.ServeHTTP(w, req)
				return
			}
			s, ok := auth.SessionFromContext(req.Context())
			if !ok || s.Provider != "local" || s.MFA {
				next.ServeHTTP(w, req)
				return
			}
			if _, ok := mfaExempt[req.URL.Path]; ok {
				next.ServeHTTP(w, req)
				return
			}
			code := "mfa_setup_required"
			if r.UserHasTOTP(req.Context(), s.UserID) {
				code = "mfa_required"
			}
			httpserver.Error(w, http.StatusForbidden, code)
		})
	}
}
