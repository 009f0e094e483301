package leave

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncleisme/mobile-app/internal/models"
)

type fakeStore struct {
	leaves     map[uuid.UUID]models.LeaveRequest
	balances   []models.LeaveBalance
	balanceErr error
	created    int
	notes      []models.NewNotification
}

func newFakeStore() *fakeStore { return &fakeStore{leaves: map[uuid.UUID]models.LeaveRequest{}} }

func (f *fakeStore) CreateLeave(_ context.Context, l models.LeaveRequest) (models.LeaveRequest, error) {
	f.created++
	l.ID = uuid.New()
	f.leaves[l.ID] = l
	return l, nil
}

func (f *fakeStore) GetLeave(_ context.Context, id uuid.UUID) (models.LeaveRequest, error) {
	l, ok := f.leaves[id]
	if !ok {
		return models.LeaveRequest{}, models.ErrNotFound
	}
	return l, nil
}

func (f *fakeStore) ListLeavesByUser(_ context.Context, uid uuid.UUID) ([]models.LeaveRequest, error) {
	var out []models.LeaveRequest
	for _, l := range f.leaves {
		if l.UserID == uid {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) ListLeavesByStatus(_ context.Context, s models.LeaveStatus) ([]models.LeaveRequest, error) {
	var out []models.LeaveRequest
	for _, l := range f.leaves {
		if l.Status == s {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) DecideLeave(_ context.Context, id uuid.UUID, s models.LeaveStatus, by uuid.UUID, at time.Time) (models.LeaveRequest, error) {
	l, ok := f.leaves[id]
	if !ok {
		return models.LeaveRequest{}, models.ErrNotFound
	}
	l.Status, l.ApprovedBy, l.ApprovedAt = s, &by, &at
	f.leaves[id] = l
	return l, nil
}

func (f *fakeStore) ListLeaveBalances(_ context.Context, _ uuid.UUID, _ int) ([]models.LeaveBalance, error) {
	return f.balances, f.balanceErr
}

func (f *fakeStore) InsertNotification(_ context.Context, n models.NewNotification) (models.Notification, error) {
	f.notes = append(f.notes, n)
	return models.Notification{ID: uuid.New()}, nil
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestValidate(t *testing.T) {
	ok := Request{TypeKey: "Annual", StartDate: day("2025-04-01"), EndDate: day("2025-04-01"), Reason: "trip"}
	require.NoError(t, Validate(ok))

	cases := map[string]func(r *Request){
		"type_key":   func(r *Request) { r.TypeKey = "personal" },
		"start_date": func(r *Request) { r.StartDate = time.Time{} },
		"end_date":   func(r *Request) { r.EndDate = day("2025-03-31") },
		"reason":     func(r *Request) { r.Reason = "   " },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			r := ok
			mutate(&r)
			err := Validate(r)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, field, ve.Field)
		})
	}
}

func TestSubmitValidationWritesNothing(t *testing.T) {
	store := newFakeStore()
	_, err := NewService(store, nil).Submit(context.Background(), uuid.New(), Request{TypeKey: "sick"})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Zero(t, store.created)
}

func TestSubmitCreatesPending(t *testing.T) {
	store := newFakeStore()
	uid := uuid.New()
	got, err := NewService(store, nil).Submit(context.Background(), uid, Request{
		TypeKey: " SICK ", StartDate: day("2025-04-01"), EndDate: day("2025-04-02"), Reason: " flu ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeavePending, got.Status)
	assert.Equal(t, "sick", got.TypeKey)
	assert.Equal(t, "flu", got.Reason)
	assert.Equal(t, uid, got.UserID)
}

func TestDecideStampsFreshApprover(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	l, err := svc.Submit(context.Background(), uuid.New(), Request{TypeKey: "annual", StartDate: day("2025-04-01"), EndDate: day("2025-04-03"), Reason: "x"})
	require.NoError(t, err)

	first := models.Profile{ID: uuid.New(), Type: models.RoleAdmin}
	second := models.Profile{ID: uuid.New(), Type: models.RoleManager}

	svc.now = func() time.Time { return day("2025-03-20") }
	approved, err := svc.Decide(context.Background(), first, l.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveApproved, approved.Status)
	assert.Equal(t, first.ID, *approved.ApprovedBy)

	svc.now = func() time.Time { return day("2025-03-21") }
	rejected, err := svc.Decide(context.Background(), second, l.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.LeaveRejected, rejected.Status)
	assert.Equal(t, second.ID, *rejected.ApprovedBy)
	assert.True(t, rejected.ApprovedAt.After(*approved.ApprovedAt))

	require.Len(t, store.notes, 2)
	assert.Equal(t, "rejected", store.notes[1].Action)
	assert.Equal(t, []uuid.UUID{l.UserID}, store.notes[1].Recipients)
}

func TestDecideRequiresElevatedRole(t *testing.T) {
	_, err := NewService(newFakeStore(), nil).Decide(context.Background(), models.Profile{Type: models.RoleTechnician}, uuid.New(), true)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBalance(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil)
	uid := uuid.New()

	assert.Nil(t, svc.Balance(context.Background(), uid, 2025))

	store.balanceErr = errors.New("boom")
	assert.Nil(t, svc.Balance(context.Background(), uid, 2025))

	store.balanceErr = nil
	store.balances = []models.LeaveBalance{{UserID: uid, Year: 2025, TypeKey: "annual", TotalDays: 14, UsedDays: 3.5}}
	b := svc.Balance(context.Background(), uid, 2025)
	require.NotNil(t, b)
	require.Len(t, b.Types, 1)
	assert.Equal(t, 10.5, b.Types[0].Remaining)
}

func TestDays(t *testing.T) {
	assert.Equal(t, 1, Days(day("2025-04-01"), day("2025-04-01")))
	assert.Equal(t, 3, Days(day("2025-04-01"), day("2025-04-03")))
	assert.Equal(t, 31, Days(day("2025-03-01"), day("2025-03-31")))
	assert.Equal(t, 0, Days(day("2025-04-02"), day("2025-04-01")))
}

func TestCalendarExpandsApprovedOnly(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	leaves := []models.LeaveRequest{
		{ID: uuid.New(), UserID: a, TypeKey: "annual", StartDate: day("2025-04-30"), EndDate: day("2025-05-02"), Status: models.LeaveApproved},
		{ID: uuid.New(), UserID: b, TypeKey: "sick", StartDate: day("2025-05-01"), EndDate: day("2025-05-01"), Status: models.LeaveApproved},
		{ID: uuid.New(), UserID: b, TypeKey: "annual", StartDate: day("2025-06-01"), EndDate: day("2025-06-05"), Status: models.LeavePending},
	}
	days := Calendar(leaves, map[string]string{a.String(): "Ana"})

	require.Len(t, days, 3)
	assert.Equal(t, "2025-04-30", days[0].Date)
	assert.Equal(t, "2025-05-01", days[1].Date)
	assert.Len(t, days[1].Entries, 2)
	assert.Equal(t, "2025-05-02", days[2].Date)
	assert.Equal(t, "Ana", days[0].Entries[0].Name)
	for _, e := range days[1].Entries {
		if e.UserID == b.String() {
			assert.Equal(t, b.String(), e.Name)
		}
	}
}

func TestICS(t *testing.T) {
	uid := uuid.New()
	leaves := []models.LeaveRequest{
		{ID: uuid.New(), UserID: uid, TypeKey: "annual", StartDate: day("2025-04-01"), EndDate: day("2025-04-03"), Status: models.LeaveApproved, Reason: "holiday"},
		{ID: uuid.New(), UserID: uid, TypeKey: "sick", StartDate: day("2025-04-10"), EndDate: day("2025-04-10"), Status: models.LeaveRejected},
	}
	out := ICS(leaves, map[string]string{uid.String(): "Ana"}, day("2025-03-01"))

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "Ana (annual leave)", events[0].GetProperty(ics.ComponentPropertySummary).Value)
	assert.Contains(t, out, "20250401")
	assert.Contains(t, out, "20250404")
}
