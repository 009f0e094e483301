package repo

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/workorder"
)

// ListWorkOrders returns work orders newest first. Status matching is done on
// the normalized status since the column holds free text.
func (p *pgRepo) ListWorkOrders(ctx context.Context, f WorkOrderFilter) ([]models.WorkOrder, error) {
	slog.DebugContext(ctx, "ListWorkOrders", "assigned_to", f.AssignedTo, "status", f.Status)
	sql := `SELECT ` + workOrderColumns + ` FROM work_orders`
	var args []any
	if f.AssignedTo != nil {
		sql += ` WHERE assigned_to = $1`
		args = append(args, fromUUID(*f.AssignedTo))
	}
	sql += ` ORDER BY created_date DESC`

	list, err := p.collectWorkOrders(ctx, "ListWorkOrders", sql, args...)
	if err != nil || f.Status == "" {
		return list, err
	}
	want := workorder.NormalizeStatus(f.Status)
	out := list[:0]
	for _, wo := range list {
		if workorder.NormalizeStatus(wo.Status) == want {
			out = append(out, wo)
		}
	}
	return out, nil
}

func (p *pgRepo) GetWorkOrder(ctx context.Context, id uuid.UUID) (models.WorkOrder, error) {
	slog.DebugContext(ctx, "GetWorkOrder", "id", id.String())
	rows, err := p.q.Query(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE id = $1`, fromUUID(id))
	if err != nil {
		slog.ErrorContext(ctx, "GetWorkOrder failed", "err", err)
		return models.WorkOrder{}, err
	}
	return p.oneWorkOrder(ctx, "GetWorkOrder", rows)
}

func (p *pgRepo) GetWorkOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.WorkOrder, error) {
	slog.DebugContext(ctx, "GetWorkOrdersByIDs", "count", len(ids))
	if len(ids) == 0 {
		return nil, nil
	}
	return p.collectWorkOrders(ctx, "GetWorkOrdersByIDs",
		`SELECT `+workOrderColumns+` FROM work_orders WHERE id = ANY($1)`, fromUUIDs(ids))
}

// GetWorkOrdersByCodes matches on the display code (work_order_id).
func (p *pgRepo) GetWorkOrdersByCodes(ctx context.Context, codes []string) ([]models.WorkOrder, error) {
	slog.DebugContext(ctx, "GetWorkOrdersByCodes", "count", len(codes))
	if len(codes) == 0 {
		return nil, nil
	}
	return p.collectWorkOrders(ctx, "GetWorkOrdersByCodes",
		`SELECT `+workOrderColumns+` FROM work_orders WHERE work_order_id = ANY($1)`, codes)
}

func (p *pgRepo) UpdateWorkOrderStatus(ctx context.Context, id uuid.UUID, status string) (models.WorkOrder, error) {
	slog.DebugContext(ctx, "UpdateWorkOrderStatus", "id", id.String(), "status", status)
	rows, err := p.q.Query(ctx, `
UPDATE work_orders SET status = $2, updated_at = now()
WHERE id = $1
RETURNING `+workOrderColumns, fromUUID(id), status)
	if err != nil {
		slog.ErrorContext(ctx, "UpdateWorkOrderStatus failed", "err", err)
		return models.WorkOrder{}, err
	}
	return p.oneWorkOrder(ctx, "UpdateWorkOrderStatus", rows)
}

func (p *pgRepo) AddWorkOrderPhotos(ctx context.Context, id uuid.UUID, uploadedBy uuid.UUID, urls []string) error {
	slog.DebugContext(ctx, "AddWorkOrderPhotos", "id", id.String(), "count", len(urls))
	if len(urls) == 0 {
		return nil
	}
	_, err := p.q.Exec(ctx, `
INSERT INTO work_order_photos (work_order_id, url, uploaded_by)
SELECT $1, u, $3 FROM unnest($2::text[]) AS u`, fromUUID(id), urls, fromUUID(uploadedBy))
	if err != nil {
		slog.ErrorContext(ctx, "AddWorkOrderPhotos failed", "err", err)
	}
	return err
}

type photoRow struct {
	ID          pgtype.UUID        `db:"id"`
	WorkOrderID pgtype.UUID        `db:"work_order_id"`
	URL         string             `db:"url"`
	UploadedBy  pgtype.UUID        `db:"uploaded_by"`
	CreatedAt   pgtype.Timestamptz `db:"created_at"`
}

func (p *pgRepo) ListWorkOrderPhotos(ctx context.Context, id uuid.UUID) ([]models.WorkOrderPhoto, error) {
	slog.DebugContext(ctx, "ListWorkOrderPhotos", "id", id.String())
	rows, err := p.q.Query(ctx, `
SELECT id, work_order_id, url, uploaded_by, created_at
FROM work_order_photos WHERE work_order_id = $1 ORDER BY created_at`, fromUUID(id))
	if err != nil {
		slog.ErrorContext(ctx, "ListWorkOrderPhotos failed", "err", err)
		return nil, err
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByName[photoRow])
	if err != nil {
		slog.ErrorContext(ctx, "ListWorkOrderPhotos scan failed", "err", err)
		return nil, err
	}
	out := make([]models.WorkOrderPhoto, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.WorkOrderPhoto{
			ID:          toUUID(r.ID),
			WorkOrderID: toUUID(r.WorkOrderID),
			URL:         r.URL,
			UploadedBy:  toUUID(r.UploadedBy),
			CreatedAt:   timeOrZero(r.CreatedAt),
		})
	}
	return out, nil
}

func (p *pgRepo) collectWorkOrders(ctx context.Context, op, sql string, args ...any) ([]models.WorkOrder, error) {
	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		slog.ErrorContext(ctx, op+" failed", "err", err)
		return nil, err
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByName[workOrderRow])
	if err != nil {
		slog.ErrorContext(ctx, op+" scan failed", "err", err)
		return nil, err
	}
	return parseWorkOrders(ctx, raw), nil
}

func (p *pgRepo) oneWorkOrder(ctx context.Context, op string, rows pgx.Rows) (models.WorkOrder, error) {
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[workOrderRow])
	if err != nil {
		err = notFound(err)
		if err != models.ErrNotFound {
			slog.ErrorContext(ctx, op+" scan failed", "err", err)
		}
		return models.WorkOrder{}, err
	}
	wo, ok := parseWorkOrder(ctx, row)
	if !ok {
		return models.WorkOrder{}, models.ErrNotFound
	}
	return wo, nil
}
