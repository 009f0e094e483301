// internal/repo/repo.go
package repo

import (
	"context"
	"net/netip"
	"time"

	"github.com/google/uuid"

	db "github.com/uncleisme/mobile-app/internal/db"
	"github.com/uncleisme/mobile-app/internal/models"
)

// WorkOrderFilter scopes a work-order listing. A nil AssignedTo lists the whole table.
type WorkOrderFilter struct {
	AssignedTo *uuid.UUID
	Status     string
}

// NotificationFilter scopes a notification query. Zero-valued fields apply no filter.
type NotificationFilter struct {
	ModulePattern string // ILIKE pattern matched against module
	UserID        *uuid.UUID
	Recipient     *uuid.UUID
	Limit         int
}

// Repo defines the methods the rest of the app uses.
type Repo interface {
	// Profiles
	GetProfileByID(ctx context.Context, id uuid.UUID) (models.Profile, error)
	ListProfilesByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Profile, error)
	ListProfilesByRole(ctx context.Context, roles ...models.Role) ([]models.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName *string, avatarURL *string) error

	// Local auth
	GetCredentialByEmail(ctx context.Context, email string) (models.LocalCredential, models.Profile, error)
	UpsertCredential(ctx context.Context, uid uuid.UUID, email, phc string) error
	UserHasTOTP(ctx context.Context, uid uuid.UUID) bool
	SetTOTPSecret(ctx context.Context, uid uuid.UUID, secret, issuer, label string) error
	GetTOTPSecret(ctx context.Context, uid uuid.UUID) (string, bool)
	RecordLoginSuccess(ctx context.Context, email string, ip netip.Addr) error
	RecordLoginFailure(ctx context.Context, email string, ip netip.Addr) error

	// Work orders
	ListWorkOrders(ctx context.Context, f WorkOrderFilter) ([]models.WorkOrder, error)
	GetWorkOrder(ctx context.Context, id uuid.UUID) (models.WorkOrder, error)
	GetWorkOrdersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.WorkOrder, error)
	GetWorkOrdersByCodes(ctx context.Context, codes []string) ([]models.WorkOrder, error)
	UpdateWorkOrderStatus(ctx context.Context, id uuid.UUID, status string) (models.WorkOrder, error)
	AddWorkOrderPhotos(ctx context.Context, id uuid.UUID, uploadedBy uuid.UUID, urls []string) error
	ListWorkOrderPhotos(ctx context.Context, id uuid.UUID) ([]models.WorkOrderPhoto, error)

	// Reference data
	ListLocationsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Location, error)
	ListAssetsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Asset, error)

	// Notifications
	InsertNotification(ctx context.Context, n models.NewNotification) (models.Notification, error)
	ListNotifications(ctx context.Context, f NotificationFilter) ([]models.Notification, error)

	// Leave
	CreateLeave(ctx context.Context, l models.LeaveRequest) (models.LeaveRequest, error)
	GetLeave(ctx context.Context, id uuid.UUID) (models.LeaveRequest, error)
	ListLeavesByUser(ctx context.Context, uid uuid.UUID) ([]models.LeaveRequest, error)
	ListLeavesByStatus(ctx context.Context, status models.LeaveStatus) ([]models.LeaveRequest, error)
	DecideLeave(ctx context.Context, id uuid.UUID, status models.LeaveStatus, approvedBy uuid.UUID, approvedAt time.Time) (models.LeaveRequest, error)
	ListLeaveBalances(ctx context.Context, uid uuid.UUID, year int) ([]models.LeaveBalance, error)

	// Push tokens
	UpsertPushToken(ctx context.Context, t models.PushToken) error
	ListPushTokens(ctx context.Context, uid uuid.UUID) ([]string, error)
	DeletePushToken(ctx context.Context, token string) error
}

// pgRepo wraps the pgx Queries.
type pgRepo struct{ q *db.Queries }

func New(q *db.Queries) Repo { return &pgRepo{q: q} }
