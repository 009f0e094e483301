package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncleisme/mobile-app/internal/models"
)

func TestPGErrorMessage(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "fallback"},
		{"push token dup", &pgconn.PgError{Code: "23505", ConstraintName: "push_tokens_token_key"}, http.StatusConflict, "This device token is already registered."},
		{"leave range", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23514", ConstraintName: "leaves_date_range_chk"}), http.StatusBadRequest, "End date must be on or after the start date."},
		{"bad uuid", &pgconn.PgError{Code: "22P02"}, http.StatusBadRequest, "Invalid value format."},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, http.StatusServiceUnavailable, "fallback"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := PGErrorMessage(tc.err, "fallback")
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.msg, msg)
		})
	}
}

func TestFail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	rec := httptest.NewRecorder()
	Fail(rec, req, fmt.Errorf("get: %w", models.ErrNotFound), "x")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	Fail(rec, req, errors.New("connection refused"), "Failed to load work orders.")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to load work orders.", body["error"])
	assert.Equal(t, true, body["retry"])
}
