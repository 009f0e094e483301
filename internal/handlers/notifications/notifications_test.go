package notifications

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/uncleisme/mobile-app/internal/auth"
	"github.com/uncleisme/mobile-app/internal/feed"
	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/push"
)

type fakeFeed struct {
	user  uuid.UUID
	limit int
}

func (f *fakeFeed) Load(_ context.Context, uid uuid.UUID, limit int) []feed.Item {
	f.user, f.limit = uid, limit
	return []feed.Item{}
}

type fakeTokens struct {
	token, platform string
	err             error
}

func (f *fakeTokens) RegisterToken(_ context.Context, _ uuid.UUID, token, platform string) error {
	f.token, f.platform = token, platform
	return f.err
}

func authed(req *http.Request, uid uuid.UUID) *http.Request {
	p := models.Profile{ID: uid, Type: models.RoleTechnician}
	return req.WithContext(auth.WithProfile(req.Context(), &p))
}

func TestFeedLimit(t *testing.T) {
	uid := uuid.New()
	cases := []struct {
		query string
		code  int
		limit int
	}{
		{"", http.StatusOK, feed.LimitHeader},
		{"?limit=3", http.StatusOK, 3},
		{"?limit=500", http.StatusOK, feed.LimitHeader},
		{"?limit=zero", http.StatusBadRequest, 0},
	}
	for _, tc := range cases {
		f := &fakeFeed{}
		rec := httptest.NewRecorder()
		New(f, nil).Feed(rec, authed(httptest.NewRequest(http.MethodGet, "/notifications"+tc.query, nil), uid))
		assert.Equal(t, tc.code, rec.Code, tc.query)
		assert.Equal(t, tc.limit, f.limit, tc.query)
		if tc.code == http.StatusOK {
			assert.Equal(t, uid, f.user)
			assert.JSONEq(t, `{"content":[]}`, rec.Body.String())
		}
	}
}

func TestFeedRequiresAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	New(&fakeFeed{}, nil).Feed(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterToken(t *testing.T) {
	tokens := &fakeTokens{}
	rec := httptest.NewRecorder()
	req := authed(httptest.NewRequest(http.MethodPost, "/push/tokens", strings.NewReader(`{"token":"abc","platform":"android"}`)), uuid.New())
	New(nil, tokens).RegisterToken(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", tokens.token)
	assert.Equal(t, "android", tokens.platform)
}

func TestRegisterTokenErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&push.MissingFieldsError{Fields: []string{"token"}}, http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := authed(httptest.NewRequest(http.MethodPost, "/push/tokens", strings.NewReader(`{"token":""}`)), uuid.New())
		New(nil, &fakeTokens{err: tc.err}).RegisterToken(rec, req)
		assert.Equal(t, tc.want, rec.Code)
	}
}
