package repo

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/uncleisme/mobile-app/internal/models"
)

type namedRow struct {
	ID        pgtype.UUID        `db:"id"`
	Name      pgtype.Text        `db:"name"`
	CreatedAt pgtype.Timestamptz `db:"created_at"`
}

func (p *pgRepo) listNamed(ctx context.Context, table string, ids []uuid.UUID) ([]namedRow, error) {
	rows, err := p.q.Query(ctx, `SELECT id, name, created_at FROM `+table+` WHERE id = ANY($1)`, fromUUIDs(ids))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[namedRow])
}

func (p *pgRepo) ListLocationsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Location, error) {
	slog.DebugContext(ctx, "ListLocationsByIDs", "count", len(ids))
	if len(ids) == 0 {
		return nil, nil
	}
	raw, err := p.listNamed(ctx, "locations", ids)
	if err != nil {
		slog.ErrorContext(ctx, "ListLocationsByIDs failed", "err", err)
		return nil, err
	}
	out := make([]models.Location, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.Location{ID: toUUID(r.ID), Name: textOrEmpty(r.Name), CreatedAt: timeOrZero(r.CreatedAt)})
	}
	return out, nil
}

func (p *pgRepo) ListAssetsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Asset, error) {
	slog.DebugContext(ctx, "ListAssetsByIDs", "count", len(ids))
	if len(ids) == 0 {
		return nil, nil
	}
	raw, err := p.listNamed(ctx, "assets", ids)
	if err != nil {
		slog.ErrorContext(ctx, "ListAssetsByIDs failed", "err", err)
		return nil, err
	}
	out := make([]models.Asset, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.Asset{ID: toUUID(r.ID), Name: textOrEmpty(r.Name), CreatedAt: timeOrZero(r.CreatedAt)})
	}
	return out, nil
}
