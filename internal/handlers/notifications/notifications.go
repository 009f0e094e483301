// Package notifications serves the activity feed and device registration.
package notifications

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/feed"
	httpserver "github.com/uncleisme/mobile-app/internal/http"
	"github.com/uncleisme/mobile-app/internal/httpctx"
	"github.com/uncleisme/mobile-app/internal/push"
)

type FeedLoader interface {
	Load(ctx context.Context, userID uuid.UUID, limit int) []feed.Item
}

type TokenRegistrar interface {
	RegisterToken(ctx context.Context, userID uuid.UUID, token, platform string) error
}

type Handler struct {
	feed   FeedLoader
	tokens TokenRegistrar
}

func New(f FeedLoader, tokens TokenRegistrar) *Handler {
	return &Handler{feed: f, tokens: tokens}
}

// Feed handles GET /notifications?limit=N. The limit defaults to the header
// dropdown size and is capped there.
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	uid, ok := httpctx.UserID(r.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit := feed.LimitHeader
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpserver.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, feed.LimitHeader)
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"content": h.feed.Load(r.Context(), uid, limit)})
}

// RegisterToken handles POST /push/tokens {token, platform}.
func (h *Handler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	uid, ok := httpctx.UserID(r.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}
	if err := httpserver.Decode(w, r, &body); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	if err := h.tokens.RegisterToken(r.Context(), uid, body.Token, body.Platform); err != nil {
		var missing *push.MissingFieldsError
		if errors.As(err, &missing) {
			httpserver.Error(w, http.StatusBadRequest, missing.Error())
			return
		}
		httpserver.Fail(w, r, err, "Failed to register device.")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"ok": true})
}
