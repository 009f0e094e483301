package repo

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/uncleisme/mobile-app/internal/models"
)

func (p *pgRepo) GetProfileByID(ctx context.Context, id uuid.UUID) (models.Profile, error) {
	slog.DebugContext(ctx, "GetProfileByID", "id", id.String())
	rows, err := p.q.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, fromUUID(id))
	if err != nil {
		slog.ErrorContext(ctx, "GetProfileByID failed", "err", err)
		return models.Profile{}, err
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[profileRow])
	if err != nil {
		if notFound(err) == models.ErrNotFound {
			return models.Profile{}, models.ErrProfileNotFound
		}
		slog.ErrorContext(ctx, "GetProfileByID scan failed", "err", err)
		return models.Profile{}, err
	}
	prof, ok := parseProfile(ctx, row)
	if !ok {
		return models.Profile{}, models.ErrProfileNotFound
	}
	return prof, nil
}

func (p *pgRepo) collectProfiles(ctx context.Context, op, sql string, args ...any) ([]models.Profile, error) {
	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		slog.ErrorContext(ctx, op+" failed", "err", err)
		return nil, err
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByName[profileRow])
	if err != nil {
		slog.ErrorContext(ctx, op+" scan failed", "err", err)
		return nil, err
	}
	out := make([]models.Profile, 0, len(raw))
	for _, r := range raw {
		if prof, ok := parseProfile(ctx, r); ok {
			out = append(out, prof)
		}
	}
	return out, nil
}

func (p *pgRepo) ListProfilesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error) {
	slog.DebugContext(ctx, "ListProfilesByIDs", "count", len(ids))
	if len(ids) == 0 {
		return nil, nil
	}
	return p.collectProfiles(ctx, "ListProfilesByIDs",
		`SELECT `+profileColumns+` FROM profiles WHERE id = ANY($1)`, fromUUIDs(ids))
}

func (p *pgRepo) ListProfilesByRole(ctx context.Context, roles ...models.Role) ([]models.Profile, error) {
	slog.DebugContext(ctx, "ListProfilesByRole", "roles", roles)
	if len(roles) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(roles))
	for _, r := range roles {
		keys = append(keys, string(r))
	}
	return p.collectProfiles(ctx, "ListProfilesByRole",
		`SELECT `+profileColumns+` FROM profiles WHERE lower(type) = ANY($1) ORDER BY full_name NULLS LAST, email`, keys)
}

// UpdateProfile leaves a column untouched when its pointer is nil.
func (p *pgRepo) UpdateProfile(ctx context.Context, id uuid.UUID, fullName *string, avatarURL *string) error {
	slog.DebugContext(ctx, "UpdateProfile", "id", id.String(), "has_name", fullName != nil, "has_avatar", avatarURL != nil)
	tag, err := p.q.Exec(ctx, `
UPDATE profiles
SET full_name  = COALESCE($2, full_name),
    avatar_url = COALESCE($3, avatar_url)
WHERE id = $1`, fromUUID(id), toNullText(fullName), toNullText(avatarURL))
	if err != nil {
		slog.ErrorContext(ctx, "UpdateProfile failed", "err", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProfileNotFound
	}
	return nil
}
