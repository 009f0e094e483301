package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/argon2"

	httpserver "github.com/uncleisme/mobile-app/internal/http"
)

// MinPasswordLen is the shortest password accepted on change.
const MinPasswordLen = 8

// Params
type ArgonParams struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

func DefaultArgonParams() ArgonParams {
	return ArgonParams{
		Memory:  64 * 1024, // 64 MiB
		Time:    1,
		Threads: 4,
		SaltLen: 16,
		KeyLen:  32,
	}
}

// HashPassword returns a PHC string: $argon2id$v=19$m=...,t=...,p=...$salt$hash
func HashPassword(pw string, p ArgonParams) (string, error) {
	if strings.TrimSpace(pw) == "" {
		return "", errors.New("empty password")
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(pw), salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	return phcEncode(p, salt, key), nil
}

// VerifyPassword checks a plaintext password against a PHC-encoded argon2id hash.
func VerifyPassword(pw, phc string) bool {
	mem, timeCost, threads, salt, want, ok := phcParse(phc)
	if !ok {
		return false
	}
	got := argon2.IDKey([]byte(pw), salt, timeCost, mem, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func phcEncode(p ArgonParams, salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// phcParse extracts parameters, salt, and key from a PHC string.
// Returns (memoryKiB, time, threads, salt, key, ok).
func phcParse(phc string) (uint32, uint32, uint8, []byte, []byte, bool) {
	parts := strings.Split(phc, "$")
	// ["", "argon2id", "v=19", "m=...,t=...,p=...", "<saltB64>", "<keyB64>"]
	if len(parts) != 6 || parts[1] != "argon2id" || !strings.HasPrefix(parts[2], "v=") {
		return 0, 0, 0, nil, nil, false
	}
	var m, t, p int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return 0, 0, 0, nil, nil, false
	}
	if m <= 0 || t <= 0 || p <= 0 || p > 255 {
		return 0, 0, 0, nil, nil, false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return 0, 0, 0, nil, nil, false
	}
	return uint32(m), uint32(t), uint8(p), salt, key, true
}

// validateTOTP accepts the current code or one period either side.
func validateTOTP(secret, code string, now time.Time) bool {
	ok, _ := totp.ValidateCustom(strings.TrimSpace(code), secret, now, totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return ok
}

// ChangePassword replaces the local password of the signed-in user.
// POST /auth/password { "current_password": "...", "new_password": "..." }
func (h *Handlers) ChangePassword(w http.ResponseWriter, req *http.Request) {
	sess, ok := SessionFromContext(req.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if err := httpserver.Decode(w, req, &body); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if len(body.New) < MinPasswordLen {
		httpserver.Error(w, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
		return
	}
	cred, _, err := h.repo.GetCredentialByEmail(req.Context(), sess.Email)
	if err != nil || cred.UserID != sess.UserID || !VerifyPassword(body.Current, cred.PasswordHash) {
		httpserver.Error(w, http.StatusUnauthorized, "invalid password")
		return
	}
	phc, err := HashPassword(body.New, h.argon)
	if err != nil {
		httpserver.Error(w, http.StatusInternalServerError, "hash error")
		return
	}
	if err := h.repo.UpsertCredential(req.Context(), sess.UserID, cred.Email, phc); err != nil {
		httpserver.Fail(w, req, err, "cannot update credential")
		return
	}
	slog.InfoContext(req.Context(), "password changed")
	httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true})
}
