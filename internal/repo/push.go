package repo

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/models"
)

// UpsertPushToken moves a token to the given user if another user held it.
func (p *pgRepo) UpsertPushToken(ctx context.Context, t models.PushToken) error {
	slog.DebugContext(ctx, "UpsertPushToken", "user_id", t.UserID.String(), "platform", t.Platform)
	platform := t.Platform
	if platform == "" {
		platform = "web"
	}
	_, err := p.q.Exec(ctx, `
INSERT INTO push_tokens (user_id, token, platform, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT ON CONSTRAINT push_tokens_token_key DO UPDATE
SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, updated_at = now()`,
		fromUUID(t.UserID), t.Token, platform)
	if err != nil {
		slog.ErrorContext(ctx, "UpsertPushToken failed", "err", err)
	}
	return err
}

func (p *pgRepo) ListPushTokens(ctx context.Context, uid uuid.UUID) ([]string, error) {
	slog.DebugContext(ctx, "ListPushTokens", "user_id", uid.String())
	rows, err := p.q.Query(ctx, `SELECT token FROM push_tokens WHERE user_id = $1 ORDER BY updated_at DESC`, fromUUID(uid))
	if err != nil {
		slog.ErrorContext(ctx, "ListPushTokens failed", "err", err)
		return nil, err
	}
	var out []string
	defer rows.Close()
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			slog.ErrorContext(ctx, "ListPushTokens scan failed", "err", err)
			return nil, err
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}

func (p *pgRepo) DeletePushToken(ctx context.Context, token string) error {
	slog.DebugContext(ctx, "DeletePushToken")
	_, err := p.q.Exec(ctx, `DELETE FROM push_tokens WHERE token = $1`, token)
	if err != nil {
		slog.ErrorContext(ctx, "DeletePushToken failed", "err", err)
	}
	return err
}
