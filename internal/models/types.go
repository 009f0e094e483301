// internal/models/types.go
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// WorkOrder is the domain-level struct returned by repositories.
// Status and Priority hold the raw database text; callers normalize at read time.
type WorkOrder struct {
	ID          uuid.UUID  `json:"id"`
	WorkOrderID string     `json:"work_order_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	WorkType    string     `json:"work_type,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	CreatedDate time.Time  `json:"created_date"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LocationID  *uuid.UUID `json:"location_id,omitempty"`
	RequestedBy *uuid.UUID `json:"requested_by,omitempty"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	AssetID     *uuid.UUID `json:"asset_id,omitempty"`
}

// DisplayCode returns the human-readable code, falling back to the internal id.
func (w WorkOrder) DisplayCode() string {
	if w.WorkOrderID != "" {
		return w.WorkOrderID
	}
	return w.ID.String()
}

// WorkOrderPhoto is a completion photo attached on submit.
type WorkOrderPhoto struct {
	ID          uuid.UUID `json:"id"`
	WorkOrderID uuid.UUID `json:"work_order_id"`
	URL         string    `json:"url"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Role string

const (
	RoleTechnician Role = "technician"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
)

// Elevated reports whether the role sees the whole work-order table.
func (r Role) Elevated() bool { return r == RoleAdmin || r == RoleManager }

type Profile struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Type      Role      `json:"type"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}

// DisplayName prefers the full name, then email, then id.
func (p Profile) DisplayName() string {
	switch {
	case p.FullName != "":
		return p.FullName
	case p.Email != "":
		return p.Email
	default:
		return p.ID.String()
	}
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

type LeaveRequest struct {
	ID         uuid.UUID   `json:"id"`
	UserID     uuid.UUID   `json:"user_id"`
	TypeKey    string      `json:"type_key"`
	StartDate  time.Time   `json:"start_date"`
	EndDate    time.Time   `json:"end_date"`
	Reason     string      `json:"reason"`
	Status     LeaveStatus `json:"status"`
	ApprovedBy *uuid.UUID  `json:"approved_by,omitempty"`
	ApprovedAt *time.Time  `json:"approved_at,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// LeaveBalance is one row of leave_balances: a user's allowance for one type and year.
type LeaveBalance struct {
	UserID    uuid.UUID `json:"user_id"`
	Year      int       `json:"year"`
	TypeKey   string    `json:"type_key"`
	TotalDays float64   `json:"total_days"`
	UsedDays  float64   `json:"used_days"`
}

func (b LeaveBalance) Remaining() float64 { return b.TotalDays - b.UsedDays }

type Notification struct {
	ID         uuid.UUID   `json:"id"`
	Module     string      `json:"module"`
	Action     string      `json:"action"`
	EntityID   string      `json:"entity_id"`
	Message    string      `json:"message"`
	UserID     *uuid.UUID  `json:"user_id,omitempty"`
	Recipients []uuid.UUID `json:"recipients"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewNotification is the insert shape for notifications.
type NewNotification struct {
	Module     string
	Action     string
	EntityID   string
	Message    string
	UserID     *uuid.UUID
	Recipients []uuid.UUID
}

type Location struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Asset struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type PushToken struct {
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrNotFound        = errors.New("not found")
	ErrProfileNotFound = errors.New("profile not found")
)

type LocalCredential struct {
	UserID       uuid.UUID
	Email        string
	PasswordHash string
}

// Session is the server-side record behind the session cookie.
type Session struct {
	UserID   uuid.UUID
	Email    string
	Role     Role
	Provider string
	MFA      bool // a TOTP code was checked for this session
	Expiry   time.Time
}
