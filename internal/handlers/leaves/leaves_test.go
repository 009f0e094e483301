package leaves

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncleisme/mobile-app/internal/auth"
	"github.com/uncleisme/mobile-app/internal/leave"
	"github.com/uncleisme/mobile-app/internal/models"
)

var now = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

type fakeService struct {
	submitted []leave.Request
	mine      []models.LeaveRequest
	approved  []models.LeaveRequest
	year      int
	decided   *bool
}

func (f *fakeService) Submit(_ context.Context, uid uuid.UUID, r leave.Request) (models.LeaveRequest, error) {
	if err := leave.Validate(r); err != nil {
		return models.LeaveRequest{}, err
	}
	f.submitted = append(f.submitted, r)
	return models.LeaveRequest{ID: uuid.New(), UserID: uid, TypeKey: r.TypeKey, StartDate: r.StartDate, EndDate: r.EndDate, Status: models.LeavePending}, nil
}

func (f *fakeService) ListMine(context.Context, uuid.UUID) []models.LeaveRequest { return f.mine }

func (f *fakeService) Pending(context.Context) ([]models.LeaveRequest, error) { return f.mine, nil }

func (f *fakeService) Decide(_ context.Context, actor models.Profile, id uuid.UUID, approve bool) (models.LeaveRequest, error) {
	if !actor.Type.Elevated() {
		return models.LeaveRequest{}, leave.ErrForbidden
	}
	f.decided = &approve
	status := models.LeaveRejected
	if approve {
		status = models.LeaveApproved
	}
	return models.LeaveRequest{ID: id, Status: status, StartDate: now, EndDate: now}, nil
}

func (f *fakeService) Balance(_ context.Context, uid uuid.UUID, year int) *leave.Balance {
	f.year = year
	return &leave.Balance{UserID: uid, Year: year}
}

func (f *fakeService) Approved(context.Context) ([]models.LeaveRequest, map[string]string) {
	return f.approved, map[string]string{}
}

func router(h *Handler, actor models.Profile) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p := actor
			next.ServeHTTP(w, req.WithContext(auth.WithProfile(req.Context(), &p)))
		})
	})
	r.Get("/leaves", h.Mine)
	r.Post("/leaves", h.Create)
	r.Get("/leaves/balance", h.Balance)
	r.Get("/leaves/calendar", h.Calendar)
	r.Get("/leaves/calendar.ics", h.CalendarICS)
	r.Post("/leaves/{id}/decision", h.Decide)
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newHandler(svc *fakeService) *Handler {
	h := New(svc)
	h.now = func() time.Time { return now }
	return h
}

func TestCreateParsesDates(t *testing.T) {
	svc := &fakeService{}
	tech := models.Profile{ID: uuid.New(), Type: models.RoleTechnician}

	rec := do(router(newHandler(svc), tech), http.MethodPost, "/leaves",
		`{"type_key":"annual","start_date":"2025-07-01","end_date":"2025-07-03","reason":"family trip"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, svc.submitted, 1)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), svc.submitted[0].StartDate)

	var body struct {
		Days   int    `json:"days"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Days)
}

func TestCreateValidation(t *testing.T) {
	tech := models.Profile{ID: uuid.New(), Type: models.RoleTechnician}
	cases := []struct {
		body  string
		field string
	}{
		{`{"type_key":"holiday","start_date":"2025-07-01","end_date":"2025-07-01","reason":"x"}`, "type_key"},
		{`{"type_key":"annual","start_date":"07/01/2025","end_date":"2025-07-01","reason":"x"}`, "start_date"},
		{`{"type_key":"annual","start_date":"2025-07-03","end_date":"2025-07-01","reason":"x"}`, "end_date"},
		{`{"type_key":"annual","start_date":"2025-07-01","end_date":"2025-07-01","reason":""}`, "reason"},
	}
	for _, tc := range cases {
		svc := &fakeService{}
		rec := do(router(newHandler(svc), tech), http.MethodPost, "/leaves", tc.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		assert.Contains(t, rec.Body.String(), `"field":"`+tc.field+`"`)
		assert.Empty(t, svc.submitted)
	}
}

func TestBalanceYear(t *testing.T) {
	svc := &fakeService{}
	tech := models.Profile{ID: uuid.New(), Type: models.RoleTechnician}
	r := router(newHandler(svc), tech)

	rec := do(r, http.MethodGet, "/leaves/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2025, svc.year)

	rec = do(r, http.MethodGet, "/leaves/balance?year=2024", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, svc.year)

	rec = do(r, http.MethodGet, "/leaves/balance?year=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendarAndICS(t *testing.T) {
	uid := uuid.New()
	svc := &fakeService{approved: []models.LeaveRequest{{
		ID: uuid.New(), UserID: uid, TypeKey: "annual", Status: models.LeaveApproved,
		StartDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC),
	}}}
	r := router(newHandler(svc), models.Profile{ID: uuid.New(), Type: models.RoleTechnician})

	rec := do(r, http.MethodGet, "/leaves/calendar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Days []leave.Day `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Days, 2)
	assert.Equal(t, "2025-07-01", body.Days[0].Date)

	rec = do(r, http.MethodGet, "/leaves/calendar.ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar"))
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, rec.Body.String(), "BEGIN:VEVENT")
}

func TestDecide(t *testing.T) {
	id := uuid.New()
	path := "/leaves/" + id.String() + "/decision"
	tech := models.Profile{ID: uuid.New(), Type: models.RoleTechnician}
	admin := models.Profile{ID: uuid.New(), Type: models.RoleAdmin}

	svc := &fakeService{}
	rec := do(router(newHandler(svc), tech), http.MethodPost, path, `{"approve":true}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(router(newHandler(svc), admin), http.MethodPost, path, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router(newHandler(svc), admin), http.MethodPost, path, `{"approve":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.decided)
	assert.False(t, *svc.decided)
	assert.Contains(t, rec.Body.String(), string(models.LeaveRejected))

	rec = do(router(newHandler(svc), admin), http.MethodPost, "/leaves/nope/decision", `{"approve":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
