package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/auth"
	httpserver "github.com/uncleisme/mobile-app/internal/http"
	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/session"
)

// ProfileGetter loads the profile behind a session.
type ProfileGetter interface {
	GetProfileByID(ctx context.Context, id uuid.UUID) (models.Profile, error)
}

// RequireAuth authenticates using the "session" cookie, then loads the
// profile by Session.UserID and injects both into the context. The role is
// taken from the profile on every request so a changed profile type applies
// without a new login.
func RequireAuth(store *session.Store, profiles ProfileGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sid := auth.SessionID(req)
			s := auth.ReadSession(req, store)
			if s == nil {
				httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			p, err := profiles.GetProfileByID(req.Context(), s.UserID)
			if err != nil {
				if !errors.Is(err, models.ErrProfileNotFound) {
					slog.ErrorContext(req.Context(), "load session profile", "err", err, "user_id", s.UserID.String())
					httpserver.JSON(w, http.StatusInternalServerError, map[string]any{"error": "could not load profile", "retry": true})
					return
				}
				store.Delete(sid)
				httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			s.Role = p.Type

			ctx := auth.WithSession(req.Context(), sid, s)
			ctx = auth.WithProfile(ctx, &p)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}
