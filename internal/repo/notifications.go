package repo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/uncleisme/mobile-app/internal/models"
)

const insertNotificationSQL = `
INSERT INTO notifications (module, action, entity_id, message, user_id, recipients)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + notificationColumns

func (p *pgRepo) InsertNotification(ctx context.Context, n models.NewNotification) (models.Notification, error) {
	slog.DebugContext(ctx, "InsertNotification", "module", n.Module, "action", n.Action, "entity_id", n.EntityID)
	recipients := fromUUIDs(n.Recipients)
	rows, err := p.q.Query(ctx, insertNotificationSQL,
		n.Module, strings.ToLower(n.Action), n.EntityID, n.Message, fromUUIDPtr(n.UserID), recipients)
	if err != nil {
		slog.ErrorContext(ctx, "InsertNotification failed", "err", err)
		return models.Notification{}, err
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[notificationRow])
	if err != nil {
		slog.ErrorContext(ctx, "InsertNotification scan failed", "err", err)
		return models.Notification{}, err
	}
	out, _ := parseNotification(ctx, row)
	return out, nil
}

// ListNotifications returns newest first. Limit <= 0 means no limit.
func (p *pgRepo) ListNotifications(ctx context.Context, f NotificationFilter) ([]models.Notification, error) {
	slog.DebugContext(ctx, "ListNotifications", "module", f.ModulePattern, "user_id", f.UserID, "recipient", f.Recipient, "limit", f.Limit)
	sql, args := buildNotificationQuery(f)
	rows, err := p.q.Query(ctx, sql, args...)
	if err != nil {
		slog.ErrorContext(ctx, "ListNotifications failed", "err", err)
		return nil, err
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByName[notificationRow])
	if err != nil {
		slog.ErrorContext(ctx, "ListNotifications scan failed", "err", err)
		return nil, err
	}
	out := make([]models.Notification, 0, len(raw))
	for _, r := range raw {
		if n, ok := parseNotification(ctx, r); ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func buildNotificationQuery(f NotificationFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.ModulePattern != "" {
		args = append(args, f.ModulePattern)
		where = append(where, fmt.Sprintf("module ILIKE $%d", len(args)))
	}
	if f.UserID != nil {
		args = append(args, fromUUID(*f.UserID))
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Recipient != nil {
		args = append(args, fromUUID(*f.Recipient))
		where = append(where, fmt.Sprintf("$%d = ANY(recipients)", len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + notificationColumns + " FROM notifications")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	return b.String(), args
}
