// internal/auth/local.go
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	httpserver "github.com/uncleisme/mobile-app/internal/http"
	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/session"
)

// Repo is the slice of the repository the auth handlers need.
type Repo interface {
	GetProfileByID(ctx context.Context, id uuid.UUID) (models.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName *string, avatarURL *string) error
	GetCredentialByEmail(ctx context.Context, email string) (models.LocalCredential, models.Profile, error)
	UpsertCredential(ctx context.Context, uid uuid.UUID, email, phc string) error
	UserHasTOTP(ctx context.Context, uid uuid.UUID) bool
	SetTOTPSecret(ctx context.Context, uid uuid.UUID, secret, issuer, label string) error
	GetTOTPSecret(ctx context.Context, uid uuid.UUID) (string, bool)
	RecordLoginSuccess(ctx context.Context, email string, ip netip.Addr) error
	RecordLoginFailure(ctx context.Context, email string, ip netip.Addr) error
}

// Handlers serves the /auth routes.
type Handlers struct {
	repo     Repo
	sessions *session.Store
	ttl      time.Duration
	issuer   string
	argon    ArgonParams
	now      func() time.Time
}

func NewHandlers(r Repo, sessions *session.Store, ttl time.Duration, issuer string) *Handlers {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	if issuer == "" {
		issuer = "Technician CMMS"
	}
	return &Handlers{repo: r, sessions: sessions, ttl: ttl, issuer: issuer, argon: DefaultArgonParams(), now: time.Now}
}

// POST /auth/login
// Body: { "email": "...", "password": "...", "totp_code": "123456" }
func (h *Handlers) Login(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		TOTPCode string `json:"totp_code"`
	}
	if err := httpserver.Decode(w, req, &body); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	ctx := req.Context()
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || body.Password == "" {
		httpserver.Error(w, http.StatusUnauthorized, "invalid login")
		return
	}

	cred, profile, err := h.repo.GetCredentialByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			slog.ErrorContext(ctx, "login credential lookup failed", "err", err)
		}
		h.recordFailure(req, email)
		httpserver.Error(w, http.StatusUnauthorized, "invalid login")
		return
	}
	if !VerifyPassword(body.Password, cred.PasswordHash) {
		slog.WarnContext(ctx, "login bad password", "email", email)
		h.recordFailure(req, email)
		httpserver.Error(w, http.StatusUnauthorized, "invalid login")
		return
	}

	hasTOTP := h.repo.UserHasTOTP(ctx, profile.ID)
	if hasTOTP {
		if strings.TrimSpace(body.TOTPCode) == "" {
			httpserver.JSON(w, http.StatusUnauthorized, map[string]any{
				"error":   "mfa_required",
				"message": "Two-factor code required",
			})
			return
		}
		sec, ok := h.repo.GetTOTPSecret(ctx, profile.ID)
		if !ok || !validateTOTP(sec, body.TOTPCode, h.now()) {
			slog.WarnContext(ctx, "login invalid mfa code", "email", email)
			h.recordFailure(req, email)
			httpserver.JSON(w, http.StatusUnauthorized, map[string]any{
				"error":   "invalid_mfa",
				"message": "Invalid two-factor code",
			})
			return
		}
	}

	SetSessionCookie(w, h.sessions, models.Session{
		UserID:   profile.ID,
		Email:    cred.Email,
		Role:     profile.Type,
		Provider: "local",
		MFA:      hasTOTP,
		Expiry:   h.now().Add(h.ttl),
	})
	if ip, ok := clientIP(req); ok {
		if err := h.repo.RecordLoginSuccess(ctx, email, ip); err != nil {
			slog.WarnContext(ctx, "record login success failed", "err", err)
		}
	}
	slog.InfoContext(ctx, "login", "user_id", profile.ID.String(), "role", string(profile.Type))
	httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true, "profile": profile})
}

func (h *Handlers) recordFailure(req *http.Request, email string) {
	if ip, ok := clientIP(req); ok {
		if err := h.repo.RecordLoginFailure(req.Context(), email, ip); err != nil {
			slog.WarnContext(req.Context(), "record login failure failed", "err", err)
		}
	}
}

// POST /auth/logout
func (h *Handlers) Logout(w http.ResponseWriter, req *http.Request) {
	// Best-effort delete server-side session
	if sid := SessionID(req); sid != "" {
		h.sessions.Delete(sid)
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// GET /auth/mfa/totp/setup  -> returns { otpauth_url, secret }
func (h *Handlers) TOTPSetupBegin(w http.ResponseWriter, req *http.Request) {
	sess, ok := SessionFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	label := sess.Email
	if label == "" {
		label = sess.UserID.String()
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      h.issuer,
		AccountName: label,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1, // Google Authenticator-compatible
	})
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "totp error")
		return
	}
	if err := h.repo.SetTOTPSecret(req.Context(), sess.UserID, key.Secret(), h.issuer, label); err != nil {
		httpserver.Fail(w, req, err, "store totp error")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]string{
		"otpauth_url": key.URL(),
		"secret":      key.Secret(),
	})
}

// POST /auth/mfa/totp/verify  Body: { "code": "123456" }
func (h *Handlers) TOTPSetupVerify(w http.ResponseWriter, req *http.Request) {
	sess, ok := SessionFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := httpserver.Decode(w, req, &body); err != nil || strings.TrimSpace(body.Code) == "" {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	secret, ok := h.repo.GetTOTPSecret(req.Context(), sess.UserID)
	if !ok {
		httpserver.Error(w, http.StatusBadRequest, "no totp setup")
		return
	}
	if !validateTOTP(secret, body.Code, h.now()) {
		httpserver.Error(w, http.StatusBadRequest, "invalid code")
		return
	}
	if sid, ok := SessionIDFromContext(req.Context()); ok {
		h.sessions.Update(sid, func(s *models.Session) { s.MFA = true })
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true})
}
