// Package httpctx gives handlers typed access to what the auth middleware
// placed on the request context.
package httpctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/auth"
	"github.com/uncleisme/mobile-app/internal/models"
)

// Session returns the session from context if available.
func Session(ctx context.Context) (*models.Session, bool) {
	return auth.SessionFromContext(ctx)
}

// Profile returns the signed-in profile.
func Profile(ctx context.Context) (models.Profile, bool) {
	p, ok := auth.ProfileFromContext(ctx)
	if !ok {
		return models.Profile{}, false
	}
	return *p, true
}

// UserID returns a user id from context from either profile or session.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	if p, ok := auth.ProfileFromContext(ctx); ok {
		return p.ID, true
	}
	if s, ok := auth.SessionFromContext(ctx); ok {
		return s.UserID, true
	}
	return uuid.Nil, false
}

// Role returns the signed-in role, technician when unknown.
func Role(ctx context.Context) models.Role {
	if p, ok := auth.ProfileFromContext(ctx); ok {
		return p.Type
	}
	if s, ok := auth.SessionFromContext(ctx); ok && s.Role != "" {
		return s.Role
	}
	return models.RoleTechnician
}
