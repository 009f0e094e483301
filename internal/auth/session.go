// internal/auth/session.go
package auth

import (
	"context"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/session"
)

// CookieName is the session cookie carrying the opaque store id.
const CookieName = "session"

type ctxKey string

var (
	ctxSess    ctxKey = "session"
	ctxSessID  ctxKey = "session_id"
	ctxProfile ctxKey = "profile"
)

// cookieSecure controls whether the session cookie is marked Secure.
// Default true; main() should override based on config for local dev.
var cookieSecure = true

// SetCookieSecurity allows main.go to configure whether cookies are Secure.
func SetCookieSecurity(secure bool) { cookieSecure = secure }

var sameSiteMode = http.SameSiteLaxMode

// SetCookieSameSite allows configuring SameSite mode: "lax", "none", "strict".
func SetCookieSameSite(mode string) {
	switch strings.ToLower(mode) {
	case "none":
		sameSiteMode = http.SameSiteNoneMode
	case "strict":
		sameSiteMode = http.SameSiteStrictMode
	default:
		sameSiteMode = http.SameSiteLaxMode
	}
}

// SetSessionCookie stores s server-side and sets an opaque session id cookie.
func SetSessionCookie(w http.ResponseWriter, store *session.Store, s models.Session) string {
	sid := store.Create(s)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   cookieSecure,
		SameSite: sameSiteMode,
		Expires:  s.Expiry,
	})
	return sid
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cookieSecure,
		SameSite: sameSiteMode,
	})
}

// SessionID returns the raw cookie value, if any.
func SessionID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// ReadSession resolves the request's cookie against store. It returns nil
// when the cookie is missing, unknown or expired.
func ReadSession(r *http.Request, store *session.Store) *models.Session {
	sid := SessionID(r)
	if sid == "" {
		return nil
	}
	sess, ok := store.Get(sid)
	if !ok {
		return nil
	}
	// Return a copy to avoid mutation of store by callers
	s := sess
	return &s
}

func WithSession(ctx context.Context, sid string, s *models.Session) context.Context {
	ctx = context.WithValue(ctx, ctxSessID, sid)
	return context.WithValue(ctx, ctxSess, s)
}

func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(ctxSess).(*models.Session)
	return s, ok && s != nil
}

func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxSessID).(string)
	return id, ok && id != ""
}

func WithProfile(ctx context.Context, p *models.Profile) context.Context {
	return context.WithValue(ctx, ctxProfile, p)
}

func ProfileFromContext(ctx context.Context) (*models.Profile, bool) {
	p, ok := ctx.Value(ctxProfile).(*models.Profile)
	return p, ok && p != nil
}

// clientIP extracts a best-effort client IP from headers or RemoteAddr.
func clientIP(r *http.Request) (netip.Addr, bool) {
	// Try common proxy header first
	if ff := r.Header.Get("X-Forwarded-For"); ff != "" {
		// XFF may be a list: client, proxy1, proxy2
		first, _, _ := strings.Cut(ff, ",")
		if ip, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return ip, true
		}
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		if ip, err := netip.ParseAddr(strings.TrimSpace(rip)); err == nil {
			return ip, true
		}
	}
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr(), true
	}
	if ip, err := netip.ParseAddr(r.RemoteAddr); err == nil {
		return ip, true
	}
	return netip.Addr{}, false
}
