package repo

import (
	"context"
	"log/slog"
	"net/netip"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/uncleisme/mobile-app/internal/models"
)

// ---------------- Local credentials & TOTP ----------------

const getCredentialByEmailSQL = `
SELECT c.user_id, c.email, c.password_hash,
       p.id, p.full_name, p.email, p.type, p.avatar_url
FROM profile_credentials c
JOIN profiles p ON p.id = c.user_id
WHERE c.email = lower($1)`

func (p *pgRepo) GetCredentialByEmail(ctx context.Context, email string) (models.LocalCredential, models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	slog.DebugContext(ctx, "GetCredentialByEmail", "email", email)
	var (
		uid  pgtype.UUID
		lc   models.LocalCredential
		prow profileRow
	)
	err := p.q.QueryRow(ctx, getCredentialByEmailSQL, email).Scan(
		&uid, &lc.Email, &lc.PasswordHash,
		&prow.ID, &prow.FullName, &prow.Email, &prow.Type, &prow.AvatarURL,
	)
	if err != nil {
		err = notFound(err)
		if err != models.ErrNotFound {
			slog.ErrorContext(ctx, "GetCredentialByEmail failed", "err", err)
		}
		return models.LocalCredential{}, models.Profile{}, err
	}
	lc.UserID = toUUID(uid)
	prof, ok := parseProfile(ctx, prow)
	if !ok {
		return models.LocalCredential{}, models.Profile{}, models.ErrProfileNotFound
	}
	return lc, prof, nil
}

const upsertCredentialSQL = `
INSERT INTO profile_credentials (user_id, email, password_hash)
VALUES ($1, lower($2), $3)
ON CONFLICT (user_id) DO UPDATE
SET email = EXCLUDED.email, password_hash = EXCLUDED.password_hash, updated_at = now()`

func (p *pgRepo) UpsertCredential(ctx context.Context, uid uuid.UUID, email, phc string) error {
	slog.DebugContext(ctx, "UpsertCredential", "user_id", uid.String(), "email", strings.ToLower(email))
	_, err := p.q.Exec(ctx, upsertCredentialSQL, fromUUID(uid), strings.TrimSpace(email), phc)
	if err != nil {
		slog.ErrorContext(ctx, "UpsertCredential failed", "err", err)
	}
	return err
}

func (p *pgRepo) UserHasTOTP(ctx context.Context, uid uuid.UUID) bool {
	slog.DebugContext(ctx, "UserHasTOTP", "user_id", uid.String())
	var ok bool
	err := p.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM totp_secrets WHERE user_id = $1)`, fromUUID(uid)).Scan(&ok)
	if err != nil {
		slog.ErrorContext(ctx, "UserHasTOTP failed", "err", err)
		return false
	}
	return ok
}

const setTOTPSecretSQL = `
INSERT INTO totp_secrets (user_id, secret, issuer, label)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
SET secret = EXCLUDED.secret, issuer = EXCLUDED.issuer, label = EXCLUDED.label, created_at = now()`

func (p *pgRepo) SetTOTPSecret(ctx context.Context, uid uuid.UUID, secret, issuer, label string) error {
	slog.DebugContext(ctx, "SetTOTPSecret", "user_id", uid.String(), "issuer", issuer, "label", label)
	_, err := p.q.Exec(ctx, setTOTPSecretSQL, fromUUID(uid), secret, issuer, label)
	if err != nil {
		slog.ErrorContext(ctx, "SetTOTPSecret failed", "err", err)
	}
	return err
}

func (p *pgRepo) GetTOTPSecret(ctx context.Context, uid uuid.UUID) (string, bool) {
	slog.DebugContext(ctx, "GetTOTPSecret", "user_id", uid.String())
	var sec string
	if err := p.q.QueryRow(ctx, `SELECT secret FROM totp_secrets WHERE user_id = $1`, fromUUID(uid)).Scan(&sec); err != nil {
		if notFound(err) != models.ErrNotFound {
			slog.ErrorContext(ctx, "GetTOTPSecret failed", "err", err)
		}
		return "", false
	}
	return sec, true
}

// -------- Login attempt recording --------

const recordLoginAttemptSQL = `INSERT INTO login_attempts (email, ip, success) VALUES (lower($1), $2, $3)`

func (p *pgRepo) recordLoginAttempt(ctx context.Context, email string, ip netip.Addr, success bool) error {
	var addr any
	if ip.IsValid() {
		addr = ip
	}
	_, err := p.q.Exec(ctx, recordLoginAttemptSQL, strings.TrimSpace(email), addr, success)
	if err != nil {
		slog.ErrorContext(ctx, "RecordLoginAttempt failed", "err", err, "success", success)
	}
	return err
}

func (p *pgRepo) RecordLoginSuccess(ctx context.Context, email string, ip netip.Addr) error {
	slog.DebugContext(ctx, "RecordLoginSuccess", "email", strings.ToLower(email), "ip", ip.String())
	return p.recordLoginAttempt(ctx, email, ip, true)
}

func (p *pgRepo) RecordLoginFailure(ctx context.Context, email string, ip netip.Addr) error {
	slog.DebugContext(ctx, "RecordLoginFailure", "email", strings.ToLower(email), "ip", ip.String())
	return p.recordLoginAttempt(ctx, email, ip, false)
}
