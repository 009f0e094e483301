// Package dashboard serves the technician home screen in one round trip.
package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/uncleisme/mobile-app/internal/feed"
	"github.com/uncleisme/mobile-app/internal/handlers/workorders"
	httpserver "github.com/uncleisme/mobile-app/internal/http"
	"github.com/uncleisme/mobile-app/internal/httpctx"
	"github.com/uncleisme/mobile-app/internal/leave"
	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/workorder"
)

type FeedLoader interface {
	Load(ctx context.Context, userID uuid.UUID, limit int) []feed.Item
}

type BalanceLoader interface {
	Balance(ctx context.Context, userID uuid.UUID, year int) *leave.Balance
}

type Handler struct {
	store    workorders.Store
	names    workorders.Names
	feed     FeedLoader
	balances BalanceLoader
	now      func() time.Time
}

func New(store workorders.Store, names workorders.Names, f FeedLoader, balances BalanceLoader) *Handler {
	return &Handler{store: store, names: names, feed: f, balances: balances, now: time.Now}
}

type response struct {
	Profile  models.Profile    `json:"profile"`
	Job      *workorders.View  `json:"job"`
	Summary  workorder.Summary `json:"summary"`
	Activity []feed.Item       `json:"activity"`
	Balance  *leave.Balance    `json:"leave_balance"`
}

// Get handles GET /dashboard. The work-order list, the activity feed and the
// leave balance load concurrently; only the work-order list can fail the request.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpctx.Profile(r.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	now := h.now()
	out := response{Profile: actor, Activity: []feed.Item{}}

	var list []models.WorkOrder
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		list, err = workorders.Scoped(ctx, h.store, actor)
		return err
	})
	g.Go(func() error {
		if h.feed != nil {
			out.Activity = h.feed.Load(ctx, actor.ID, feed.LimitDashboard)
		}
		return nil
	})
	g.Go(func() error {
		if h.balances != nil {
			out.Balance = h.balances.Balance(ctx, actor.ID, now.Year())
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		httpserver.Fail(w, r, err, "Failed to load dashboard.")
		return
	}

	out.Summary = workorder.Summarize(list, now)
	if wo, found := workorder.CurrentJob(list, now); found {
		v := workorders.Views(r.Context(), h.names, []models.WorkOrder{wo}, now)[0]
		out.Job = &v
	}
	httpserver.JSON(w, http.StatusOK, out)
}
