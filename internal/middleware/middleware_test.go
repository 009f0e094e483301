package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncleisme/mobile-app/internal/auth"
	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/session"
)

type fakeProfiles struct {
	profiles map[uuid.UUID]models.Profile
	err      error
}

func (f fakeProfiles) GetProfileByID(_ context.Context, id uuid.UUID) (models.Profile, error) {
	if f.err != nil {
		return models.Profile{}, f.err
	}
	p, ok := f.profiles[id]
	if !ok {
		return models.Profile{}, models.ErrProfileNotFound
	}
	return p, nil
}

type fakeTOTP bool

func (f fakeTOTP) UserHasTOTP(context.Context, uuid.UUID) bool { return bool(f) }

var ok200 = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func withCookie(req *http.Request, sid string) *http.Request {
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: sid})
	return req
}

func TestRequestIDGeneratesAndTrusts(t *testing.T) {
	var seen string
	h := RequestID(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc-123", seen)

	h = RequestID(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetRequestID(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "abc-123", seen)
}

func TestRequireAuthRejectsMissingSession(t *testing.T) {
	store := session.NewStore()
	h := RequireAuth(store, fakeProfiles{})(ok200)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withCookie(httptest.NewRequest(http.MethodGet, "/dashboard", nil), "unknown"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthLoadsProfileAndRefreshesRole(t *testing.T) {
	store := session.NewStore()
	uid := uuid.New()
	sid := store.Create(models.Session{UserID: uid, Role: models.RoleTechnician, Expiry: time.Now().Add(time.Hour)})
	profiles := fakeProfiles{profiles: map[uuid.UUID]models.Profile{uid: {ID: uid, Type: models.RoleManager}}}

	var gotRole models.Role
	var gotProfile uuid.UUID
	h := RequireAuth(store, profiles)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := auth.SessionFromContext(r.Context())
		p, _ := auth.ProfileFromContext(r.Context())
		gotRole, gotProfile = s.Role, p.ID
	}))
	h.ServeHTTP(httptest.NewRecorder(), withCookie(httptest.NewRequest(http.MethodGet, "/", nil), sid))

	assert.Equal(t, models.RoleManager, gotRole)
	assert.Equal(t, uid, gotProfile)
}

func TestRequireAuthDropsSessionOfDeletedProfile(t *testing.T) {
	store := session.NewStore()
	sid := store.Create(models.Session{UserID: uuid.New(), Expiry: time.Now().Add(time.Hour)})

	rec := httptest.NewRecorder()
	RequireAuth(store, fakeProfiles{})(ok200).ServeHTTP(rec, withCookie(httptest.NewRequest(http.MethodGet, "/", nil), sid))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	_, ok := store.Get(sid)
	assert.False(t, ok)
}

func TestRequireAuthBackendFailureIsRetryable(t *testing.T) {
	store := session.NewStore()
	sid := store.Create(models.Session{UserID: uuid.New(), Expiry: time.Now().Add(time.Hour)})

	rec := httptest.NewRecorder()
	RequireAuth(store, fakeProfiles{err: errors.New("db down")})(ok200).ServeHTTP(rec, withCookie(httptest.NewRequest(http.MethodGet, "/", nil), sid))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	_, ok := store.Get(sid)
	assert.True(t, ok)
}

func withProfile(req *http.Request, role models.Role) *http.Request {
	p := models.Profile{ID: uuid.New(), Type: role}
	s := models.Session{UserID: p.ID, Role: role, Provider: "local"}
	ctx := auth.WithSession(req.Context(), "sid", &s)
	return req.WithContext(auth.WithProfile(ctx, &p))
}

func TestRequireElevated(t *testing.T) {
	cases := map[models.Role]int{
		models.RoleAdmin:      http.StatusOK,
		models.RoleManager:    http.StatusOK,
		models.RoleTechnician: http.StatusForbidden,
	}
	for role, want := range cases {
		rec := httptest.NewRecorder()
		RequireElevated(ok200).ServeHTTP(rec, withProfile(httptest.NewRequest(http.MethodGet, "/admin/approvals", nil), role))
		assert.Equal(t, want, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	RequireElevated(ok200).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/approvals", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMFAEnforce(t *testing.T) {
	h := MFAEnforce(fakeTOTP(false), true)(ok200)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withProfile(httptest.NewRequest(http.MethodGet, "/work-orders", nil), models.RoleTechnician))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "mfa_setup_required", body["error"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withProfile(httptest.NewRequest(http.MethodGet, "/auth/mfa/totp/setup", nil), models.RoleTechnician))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	MFAEnforce(fakeTOTP(false), false)(ok200).ServeHTTP(rec, withProfile(httptest.NewRequest(http.MethodGet, "/work-orders", nil), models.RoleTechnician))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoverAnswersRetryable500(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("nil map") }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["retry"])
}

func TestRateLimitPerIP(t *testing.T) {
	h := RateLimitWith(session.NewStore(), 60, 2, time.Minute)(ok200)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.4:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestLimiterEvictsIdleBuckets(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(1, 1, time.Minute)
	l.now = func() time.Time { return now }
	require.True(t, l.allow("a"))

	now = now.Add(2 * time.Minute)
	require.True(t, l.allow("b"))
	_, ok := l.buckets["a"]
	assert.False(t, ok)
}

func TestRequestLoggerCarriesUser(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	inner := EnrichLogger(ok200)
	h := SlogRequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, withProfile(r, models.RoleAdmin))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/workload", nil))

	out := buf.String()
	assert.Contains(t, out, "msg=request")
	assert.Contains(t, out, "role=admin")
	assert.Contains(t, out, "status=200")
}
