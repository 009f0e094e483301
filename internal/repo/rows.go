package repo

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/workorder"
)

// Row shapes as they come off the wire. Every column is nullable here; the
// parse functions below are the single point where rows become domain types.

const workOrderColumns = `id, work_order_id, title, description, work_type, status, priority,
	created_date, due_date, updated_at, location_id, requested_by, assigned_to, asset_id`

type workOrderRow struct {
	ID          pgtype.UUID        `db:"id"`
	WorkOrderID pgtype.Text        `db:"work_order_id"`
	Title       pgtype.Text        `db:"title"`
	Description pgtype.Text        `db:"description"`
	WorkType    pgtype.Text        `db:"work_type"`
	Status      pgtype.Text        `db:"status"`
	Priority    pgtype.Text        `db:"priority"`
	CreatedDate pgtype.Timestamptz `db:"created_date"`
	DueDate     pgtype.Timestamptz `db:"due_date"`
	UpdatedAt   pgtype.Timestamptz `db:"updated_at"`
	LocationID  pgtype.UUID        `db:"location_id"`
	RequestedBy pgtype.UUID        `db:"requested_by"`
	AssignedTo  pgtype.UUID        `db:"assigned_to"`
	AssetID     pgtype.UUID        `db:"asset_id"`
}

// parseWorkOrder rejects rows without an id and logs priorities that would
// otherwise be silently coerced to medium.
func parseWorkOrder(ctx context.Context, r workOrderRow) (models.WorkOrder, bool) {
	if !r.ID.Valid {
		slog.WarnContext(ctx, "dropping work order row without id", "work_order_id", textOrEmpty(r.WorkOrderID))
		return models.WorkOrder{}, false
	}
	wo := models.WorkOrder{
		ID:          toUUID(r.ID),
		WorkOrderID: strings.TrimSpace(textOrEmpty(r.WorkOrderID)),
		Title:       textOrEmpty(r.Title),
		Description: textOrEmpty(r.Description),
		WorkType:    textOrEmpty(r.WorkType),
		Status:      textOrEmpty(r.Status),
		Priority:    textOrEmpty(r.Priority),
		CreatedDate: timeOrZero(r.CreatedDate),
		DueDate:     toTimePtr(r.DueDate),
		UpdatedAt:   timeOrZero(r.UpdatedAt),
		LocationID:  toUUIDPtr(r.LocationID),
		RequestedBy: toUUIDPtr(r.RequestedBy),
		AssignedTo:  toUUIDPtr(r.AssignedTo),
		AssetID:     toUUIDPtr(r.AssetID),
	}
	if _, known := workorder.ParsePriority(wo.Priority); !known {
		slog.WarnContext(ctx, "unrecognised work order priority", "id", wo.ID.String(), "priority", wo.Priority)
	}
	return wo, true
}

func parseWorkOrders(ctx context.Context, rows []workOrderRow) []models.WorkOrder {
	out := make([]models.WorkOrder, 0, len(rows))
	for _, r := range rows {
		if wo, ok := parseWorkOrder(ctx, r); ok {
			out = append(out, wo)
		}
	}
	return out
}

const profileColumns = `id, full_name, email, type, avatar_url`

type profileRow struct {
	ID        pgtype.UUID `db:"id"`
	FullName  pgtype.Text `db:"full_name"`
	Email     pgtype.Text `db:"email"`
	Type      pgtype.Text `db:"type"`
	AvatarURL pgtype.Text `db:"avatar_url"`
}

func parseRole(raw string) models.Role {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "manager":
		return models.RoleManager
	default:
		return models.RoleTechnician
	}
}

func parseProfile(ctx context.Context, r profileRow) (models.Profile, bool) {
	if !r.ID.Valid {
		slog.WarnContext(ctx, "dropping profile row without id")
		return models.Profile{}, false
	}
	return models.Profile{
		ID:        toUUID(r.ID),
		FullName:  strings.TrimSpace(textOrEmpty(r.FullName)),
		Email:     textOrEmpty(r.Email),
		Type:      parseRole(textOrEmpty(r.Type)),
		AvatarURL: textOrEmpty(r.AvatarURL),
	}, true
}

const notificationColumns = `id, module, action, entity_id, message, user_id, recipients, created_at`

type notificationRow struct {
	ID         pgtype.UUID        `db:"id"`
	Module     pgtype.Text        `db:"module"`
	Action     pgtype.Text        `db:"action"`
	EntityID   pgtype.Text        `db:"entity_id"`
	Message    pgtype.Text        `db:"message"`
	UserID     pgtype.UUID        `db:"user_id"`
	Recipients []pgtype.UUID      `db:"recipients"`
	CreatedAt  pgtype.Timestamptz `db:"created_at"`
}

func parseNotification(ctx context.Context, r notificationRow) (models.Notification, bool) {
	if !r.ID.Valid {
		slog.WarnContext(ctx, "dropping notification row without id")
		return models.Notification{}, false
	}
	return models.Notification{
		ID:         toUUID(r.ID),
		Module:     textOrEmpty(r.Module),
		Action:     strings.ToLower(textOrEmpty(r.Action)),
		EntityID:   textOrEmpty(r.EntityID),
		Message:    textOrEmpty(r.Message),
		UserID:     toUUIDPtr(r.UserID),
		Recipients: toUUIDs(r.Recipients),
		CreatedAt:  timeOrZero(r.CreatedAt),
	}, true
}

const leaveColumns = `id, user_id, type_key, start_date, end_date, reason, status, approved_by, approved_at, created_at`

type leaveRow struct {
	ID         pgtype.UUID        `db:"id"`
	UserID     pgtype.UUID        `db:"user_id"`
	TypeKey    pgtype.Text        `db:"type_key"`
	StartDate  pgtype.Date        `db:"start_date"`
	EndDate    pgtype.Date        `db:"end_date"`
	Reason     pgtype.Text        `db:"reason"`
	Status     pgtype.Text        `db:"status"`
	ApprovedBy pgtype.UUID        `db:"approved_by"`
	ApprovedAt pgtype.Timestamptz `db:"approved_at"`
	CreatedAt  pgtype.Timestamptz `db:"created_at"`
}

func parseLeaveStatus(raw string) models.LeaveStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved":
		return models.LeaveApproved
	case "rejected":
		return models.LeaveRejected
	default:
		return models.LeavePending
	}
}

func parseLeave(ctx context.Context, r leaveRow) (models.LeaveRequest, bool) {
	if !r.ID.Valid || !r.UserID.Valid {
		slog.WarnContext(ctx, "dropping malformed leave row")
		return models.LeaveRequest{}, false
	}
	return models.LeaveRequest{
		ID:         toUUID(r.ID),
		UserID:     toUUID(r.UserID),
		TypeKey:    strings.ToLower(textOrEmpty(r.TypeKey)),
		StartDate:  dateOrZero(r.StartDate),
		EndDate:    dateOrZero(r.EndDate),
		Reason:     textOrEmpty(r.Reason),
		Status:     parseLeaveStatus(textOrEmpty(r.Status)),
		ApprovedBy: toUUIDPtr(r.ApprovedBy),
		ApprovedAt: toTimePtr(r.ApprovedAt),
		CreatedAt:  timeOrZero(r.CreatedAt),
	}, true
}

func parseLeaves(ctx context.Context, rows []leaveRow) []models.LeaveRequest {
	out := make([]models.LeaveRequest, 0, len(rows))
	for _, r := range rows {
		if l, ok := parseLeave(ctx, r); ok {
			out = append(out, l)
		}
	}
	return out
}
