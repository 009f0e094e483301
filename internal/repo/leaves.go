package repo

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/uncleisme/mobile-app/internal/models"
)

func (p *pgRepo) CreateLeave(ctx context.Context, l models.LeaveRequest) (models.LeaveRequest, error) {
	slog.DebugContext(ctx, "CreateLeave", "user_id", l.UserID.String(), "type_key", l.TypeKey)
	status := l.Status
	if status == "" {
		status = models.LeavePending
	}
	rows, err := p.q.Query(ctx, `
INSERT INTO leaves (user_id, type_key, start_date, end_date, reason, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+leaveColumns,
		fromUUID(l.UserID), l.TypeKey, toDate(l.StartDate), toDate(l.EndDate), l.Reason, string(status))
	if err != nil {
		slog.ErrorContext(ctx, "CreateLeave failed", "err", err)
		return models.LeaveRequest{}, err
	}
	return p.oneLeave(ctx, "CreateLeave", rows)
}

func (p *pgRepo) GetLeave(ctx context.Context, id uuid.UUID) (models.LeaveRequest, error) {
	slog.DebugContext(ctx, "GetLeave", "id", id.String())
	rows, err := p.q.Query(ctx, `SELECT `+leaveColumns+` FROM leaves WHERE id = $1`, fromUUID(id))
	if err != nil {
		slog.ErrorContext(ctx, "GetLeave failed", "err", err)
		return models.LeaveRequest{}, err
	}
	return p.oneLeave(ctx, "GetLeave", rows)
}

func (p *pgRepo) ListLeavesByUser(ctx context.Context, uid uuid.UUID) ([]models.LeaveRequest, error) {
	slog.DebugContext(ctx, "ListLeavesByUser", "user_id", uid.String())
	return p.collectLeaves(ctx, "ListLeavesByUser",
		`SELECT `+leaveColumns+` FROM leaves WHERE user_id = $1 ORDER BY start_date DESC`, fromUUID(uid))
}

func (p *pgRepo) ListLeavesByStatus(ctx context.Context, status models.LeaveStatus) ([]models.LeaveRequest, error) {
	slog.DebugContext(ctx, "ListLeavesByStatus", "status", status)
	return p.collectLeaves(ctx, "ListLeavesByStatus",
		`SELECT `+leaveColumns+` FROM leaves WHERE lower(status) = $1 ORDER BY start_date`, string(status))
}

// DecideLeave always overwrites approved_by and approved_at.
func (p *pgRepo) DecideLeave(ctx context.Context, id uuid.UUID, status models.LeaveStatus, approvedBy uuid.UUID, approvedAt time.Time) (models.LeaveRequest, error) {
	slog.DebugContext(ctx, "DecideLeave", "id", id.String(), "status", status, "approved_by", approvedBy.String())
	rows, err := p.q.Query(ctx, `
UPDATE leaves SET status = $2, approved_by = $3, approved_at = $4
WHERE id = $1
RETURNING `+leaveColumns,
		fromUUID(id), string(status), fromUUID(approvedBy), pgtype.Timestamptz{Time: approvedAt, Valid: true})
	if err != nil {
		slog.ErrorContext(ctx, "DecideLeave failed", "err", err)
		return models.LeaveRequest{}, err
	}
	return p.oneLeave(ctx, "DecideLeave", rows)
}

type leaveBalanceRow struct {
	UserID    pgtype.UUID `db:"user_id"`
	Year      int32       `db:"year"`
	TypeKey   string      `db:"type_key"`
	TotalDays float64     `db:"total_days"`
	UsedDays  float64     `db:"used_days"`
}

func (p *pgRepo) ListLeaveBalances(ctx context.Context, uid uuid.UUID, year int) ([]models.LeaveBalance, error) {
	slog.DebugContext(ctx, "ListLeaveBalances", "user_id", uid.String(), "year", year)
	rows, err := p.q.Query(ctx, `
SELECT user_id, year, type_key, total_days::float8 AS total_days, used_days::float8 AS used_days
FROM leave_balances WHERE user_id = $1 AND year = $2 ORDER BY type_key`, fromUUID(uid), year)
	if err != nil {
		slog.ErrorContext(ctx, "ListLeaveBalances failed", "err", err)
		return nil, err
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByName[leaveBalanceRow])
	if err != nil {
		slog.ErrorContext(ctx, "ListLeaveBalances scan failed", "err", err)
		return nil, err
	}
	out := make([]models.LeaveBalance, 0, len(raw))
	for _, r := range raw {
		out = append(out, models.LeaveBalance{
			UserID:    toUUID(r.UserID),
			Year:      int(r.Year),
			TypeKey:   r.TypeKey,
			TotalDays: r.TotalDays,
			UsedDays:  r.UsedDays,
		})
	}
	return out, nil
}

func (p *pgRepo) collectLeaves(ctx context.Context, op, sql string, args ...any) ([]models.LeaveRequest, error) {
	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		slog.ErrorContext(ctx, op+" failed", "err", err)
		return nil, err
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByName[leaveRow])
	if err != nil {
		slog.ErrorContext(ctx, op+" scan failed", "err", err)
		return nil, err
	}
	return parseLeaves(ctx, raw), nil
}

func (p *pgRepo) oneLeave(ctx context.Context, op string, rows pgx.Rows) (models.LeaveRequest, error) {
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[leaveRow])
	if err != nil {
		err = notFound(err)
		if err != models.ErrNotFound {
			slog.ErrorContext(ctx, op+" scan failed", "err", err)
		}
		return models.LeaveRequest{}, err
	}
	l, ok := parseLeave(ctx, row)
	if !ok {
		return models.LeaveRequest{}, models.ErrNotFound
	}
	return l, nil
}
