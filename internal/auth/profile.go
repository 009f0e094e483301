package auth

import (
	"net/http"
	"strings"

	httpserver "github.com/uncleisme/mobile-app/internal/http"
)

// Me returns the profile loaded by the auth middleware.
// GET /auth/me
func (h *Handlers) Me(w http.ResponseWriter, req *http.Request) {
	p, ok := ProfileFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	out := map[string]any{"profile": p}
	if sess, ok := SessionFromContext(req.Context()); ok {
		out["mfa"] = sess.MFA
		out["expires_at"] = sess.Expiry
	}
	httpserver.JSON(w, http.StatusOK, out)
}

// UpdateProfile lets a signed-in user change their own display fields.
// PUT /auth/profile
// Body: { "full_name": "...", "avatar_url": "..." }
func (h *Handlers) UpdateProfile(w http.ResponseWriter, req *http.Request) {
	sess, ok := SessionFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var b struct {
		FullName  *string `json:"full_name"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := httpserver.Decode(w, req, &b); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	norm := func(p *string) *string {
		if p == nil {
			return nil
		}
		s := strings.TrimSpace(*p)
		return &s
	}
	if err := h.repo.UpdateProfile(req.Context(), sess.UserID, norm(b.FullName), norm(b.AvatarURL)); err != nil {
		httpserver.Fail(w, req, err, "update failed")
		return
	}
	p, err := h.repo.GetProfileByID(req.Context(), sess.UserID)
	if err != nil {
		httpserver.Fail(w, req, err, "update failed")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true, "profile": p})
}
