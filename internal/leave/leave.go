// Package leave handles technician time-off requests and balances.
package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/models"
)

// Known leave type keys.
const (
	TypeAnnual        = "annual"
	TypeSick          = "sick"
	TypeUnpaid        = "unpaid"
	TypeCompassionate = "compassionate"

	Module = "Leave"
)

var Types = []string{TypeAnnual, TypeSick, TypeUnpaid, TypeCompassionate}

var ErrForbidden = errors.New("only administrators can decide leave")

// ValidationError is returned for bad input. Nothing is written when it occurs.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Msg }

func KnownType(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, t := range Types {
		if t == key {
			return true
		}
	}
	return false
}

// Request is the submit payload.
type Request struct {
	TypeKey   string    `json:"type_key"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Reason    string    `json:"reason"`
}

// Validate checks the request. The end date may equal the start date.
func Validate(r Request) error {
	switch {
	case !KnownType(r.TypeKey):
		return &ValidationError{Field: "type_key", Msg: fmt.Sprintf("must be one of %s", strings.Join(Types, ", "))}
	case r.StartDate.IsZero():
		return &ValidationError{Field: "start_date", Msg: "is required"}
	case r.EndDate.IsZero():
		return &ValidationError{Field: "end_date", Msg: "is required"}
	case dateOnly(r.EndDate).Before(dateOnly(r.StartDate)):
		return &ValidationError{Field: "end_date", Msg: "must not be before start_date"}
	case strings.TrimSpace(r.Reason) == "":
		return &ValidationError{Field: "reason", Msg: "is required"}
	}
	return nil
}

// Days counts calendar days in [start, end], inclusive. Zero when end < start.
func Days(start, end time.Time) int {
	s, e := dateOnly(start), dateOnly(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Store interface {
	CreateLeave(ctx context.Context, l models.LeaveRequest) (models.LeaveRequest, error)
	GetLeave(ctx context.Context, id uuid.UUID) (models.LeaveRequest, error)
	ListLeavesByUser(ctx context.Context, uid uuid.UUID) ([]models.LeaveRequest, error)
	ListLeavesByStatus(ctx context.Context, status models.LeaveStatus) ([]models.LeaveRequest, error)
	DecideLeave(ctx context.Context, id uuid.UUID, status models.LeaveStatus, approvedBy uuid.UUID, approvedAt time.Time) (models.LeaveRequest, error)
	ListLeaveBalances(ctx context.Context, uid uuid.UUID, year int) ([]models.LeaveBalance, error)
	InsertNotification(ctx context.Context, n models.NewNotification) (models.Notification, error)
}

type Namer interface {
	ProfileNames(ctx context.Context, ids []string) map[string]string
}

type Service struct {
	store Store
	names Namer
	now   func() time.Time
}

func NewService(store Store, names Namer) *Service {
	return &Service{store: store, names: names, now: time.Now}
}

// Submit validates and stores a pending request for userID.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, r Request) (models.LeaveRequest, error) {
	if err := Validate(r); err != nil {
		return models.LeaveRequest{}, err
	}
	created, err := s.store.CreateLeave(ctx, models.LeaveRequest{
		UserID:    userID,
		TypeKey:   strings.ToLower(strings.TrimSpace(r.TypeKey)),
		StartDate: dateOnly(r.StartDate),
		EndDate:   dateOnly(r.EndDate),
		Reason:    strings.TrimSpace(r.Reason),
		Status:    models.LeavePending,
	})
	if err != nil {
		return models.LeaveRequest{}, fmt.Errorf("submit leave: %w", err)
	}
	slog.InfoContext(ctx, "leave submitted", "id", created.ID.String(), "type_key", created.TypeKey, "days", Days(created.StartDate, created.EndDate))
	return created, nil
}

// ListMine returns the user's requests, or an empty list when the read fails.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) []models.LeaveRequest {
	list, err := s.store.ListLeavesByUser(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "list leaves failed", "err", err)
		return []models.LeaveRequest{}
	}
	return list
}

// Pending returns every request awaiting a decision.
func (s *Service) Pending(ctx context.Context) ([]models.LeaveRequest, error) {
	return s.store.ListLeavesByStatus(ctx, models.LeavePending)
}

// Decide approves or rejects a request. Each call stamps a fresh
// approved_by/approved_at, including re-decisions.
func (s *Service) Decide(ctx context.Context, actor models.Profile, id uuid.UUID, approve bool) (models.LeaveRequest, error) {
	if !actor.Type.Elevated() {
		return models.LeaveRequest{}, ErrForbidden
	}
	status := models.LeaveRejected
	if approve {
		status = models.LeaveApproved
	}
	decided, err := s.store.DecideLeave(ctx, id, status, actor.ID, s.now().UTC())
	if err != nil {
		return models.LeaveRequest{}, fmt.Errorf("decide leave %s: %w", id, err)
	}
	slog.InfoContext(ctx, "leave decided", "id", id.String(), "status", status)

	requester := decided.UserID
	if _, err := s.store.InsertNotification(ctx, models.NewNotification{
		Module:     Module,
		Action:     string(status),
		EntityID:   id.String(),
		Message:    fmt.Sprintf("Your %s leave from %s to %s was %s", decided.TypeKey, decided.StartDate.Format("2006-01-02"), decided.EndDate.Format("2006-01-02"), status),
		UserID:     &requester,
		Recipients: []uuid.UUID{requester},
	}); err != nil {
		slog.ErrorContext(ctx, "leave notification failed", "id", id.String(), "err", err)
	}
	return decided, nil
}

// TypeBalance is one leave type's allowance.
type TypeBalance struct {
	TypeKey   string  `json:"type_key"`
	Total     float64 `json:"total"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"`
}

type Balance struct {
	UserID uuid.UUID     `json:"user_id"`
	Year   int           `json:"year"`
	Types  []TypeBalance `json:"types"`
}

// Balance returns nil when no balance rows exist or the read fails.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID, year int) *Balance {
	if year == 0 {
		year = s.now().Year()
	}
	rows, err := s.store.ListLeaveBalances(ctx, userID, year)
	if err != nil {
		slog.WarnContext(ctx, "leave balance failed", "err", err)
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	b := &Balance{UserID: userID, Year: year}
	for _, r := range rows {
		b.Types = append(b.Types, TypeBalance{
			TypeKey:   r.TypeKey,
			Total:     r.TotalDays,
			Used:      r.UsedDays,
			Remaining: r.Remaining(),
		})
	}
	return b
}

// Approved loads approved leave with requester names resolved.
func (s *Service) Approved(ctx context.Context) ([]models.LeaveRequest, map[string]string) {
	list, err := s.store.ListLeavesByStatus(ctx, models.LeaveApproved)
	if err != nil {
		slog.WarnContext(ctx, "approved leave failed", "err", err)
		return nil, map[string]string{}
	}
	ids := make([]string, 0, len(list))
	for _, l := range list {
		ids = append(ids, l.UserID.String())
	}
	names := map[string]string{}
	if s.names != nil {
		names = s.names.ProfileNames(ctx, ids)
	}
	return list, names
}
