// Package admin serves the manager and administrator screens: the review
// queue, technician workload, live sessions and manual push delivery.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/handlers/workorders"
	httpserver "github.com/uncleisme/mobile-app/internal/http"
	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/push"
	"github.com/uncleisme/mobile-app/internal/report"
	"github.com/uncleisme/mobile-app/internal/repo"
	"github.com/uncleisme/mobile-app/internal/session"
	"github.com/uncleisme/mobile-app/internal/workorder"
)

// Sessions is the slice of the session store the admin screens read.
type Sessions interface {
	List() []session.SessionEntry
	DeleteUser(uid uuid.UUID) int
}

type Pusher interface {
	Send(ctx context.Context, m push.Message) ([]push.Result, error)
}

type Handler struct {
	store    workorders.Store
	names    workorders.Names
	sessions Sessions
	push     Pusher
	now      func() time.Time
}

func New(store workorders.Store, names workorders.Names, sessions Sessions, p Pusher) *Handler {
	return &Handler{store: store, names: names, sessions: sessions, push: p, now: time.Now}
}

// Sessions handles GET /admin/sessions.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	type item struct {
		ID        string      `json:"id"`
		UserID    string      `json:"user_id"`
		Email     string      `json:"email"`
		Role      models.Role `json:"role"`
		Provider  string      `json:"provider"`
		MFA       bool        `json:"mfa"`
		ExpiresAt time.Time   `json:"expires_at"`
	}
	entries := h.sessions.List()
	out := make([]item, 0, len(entries))
	for _, e := range entries {
		out = append(out, item{
			ID:        e.ID,
			UserID:    e.Session.UserID.String(),
			Email:     e.Session.Email,
			Role:      e.Session.Role,
			Provider:  e.Session.Provider,
			MFA:       e.Session.MFA,
			ExpiresAt: e.Session.Expiry,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	httpserver.JSON(w, http.StatusOK, out)
}

// RevokeSessions handles POST /admin/sessions/revoke {user_id}.
func (h *Handler) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := httpserver.Decode(w, r, &body); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	uid, err := uuid.Parse(body.UserID)
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]int{"revoked": h.sessions.DeleteUser(uid)})
}

// Approvals handles GET /admin/approvals: every order awaiting review.
func (h *Handler) Approvals(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListWorkOrders(r.Context(), repo.WorkOrderFilter{})
	if err != nil {
		httpserver.Fail(w, r, err, "Failed to load approvals.")
		return
	}
	now := h.now()
	list = workorder.Filter(list, string(workorder.StatusReview), now)
	httpserver.JSON(w, http.StatusOK, map[string]any{"content": workorders.Views(r.Context(), h.names, list, now)})
}

// Workload handles GET /admin/workload.
func (h *Handler) Workload(w http.ResponseWriter, r *http.Request) {
	list, names, err := h.workload(r.Context())
	if err != nil {
		httpserver.Fail(w, r, err, "Failed to load workload.")
		return
	}
	loads := workorder.AggregateByTechnician(list, names)
	httpserver.JSON(w, http.StatusOK, map[string]any{
		"content": loads,
		"counts":  workorder.CountByStatus(list),
	})
}

// WorkloadXLSX handles GET /admin/workload.xlsx.
func (h *Handler) WorkloadXLSX(w http.ResponseWriter, r *http.Request) {
	list, names, err := h.workload(r.Context())
	if err != nil {
		httpserver.Fail(w, r, err, "Failed to load workload.")
		return
	}
	now := h.now()
	data, err := report.WorkloadXLSX(workorder.AggregateByTechnician(list, names), list, names, now)
	if err != nil {
		httpserver.Fail(w, r, err, "Failed to build workload export.")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="workload-%s.xlsx"`, now.Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) workload(ctx context.Context) ([]models.WorkOrder, map[string]string, error) {
	list, err := h.store.ListWorkOrders(ctx, repo.WorkOrderFilter{})
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, 0, len(list))
	for _, wo := range list {
		if wo.AssignedTo != nil {
			ids = append(ids, wo.AssignedTo.String())
		}
	}
	names := map[string]string{}
	if h.names != nil && len(ids) > 0 {
		names = h.names.ProfileNames(ctx, ids)
	}
	return list, names, nil
}

// SendPush handles POST /admin/push/send.
func (h *Handler) SendPush(w http.ResponseWriter, r *http.Request) {
	var m push.Message
	if err := httpserver.Decode(w, r, &m); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	results, err := h.push.Send(r.Context(), m)
	var missing *push.MissingFieldsError
	switch {
	case err == nil:
		httpserver.JSON(w, http.StatusOK, map[string]any{"results": results})
	case errors.As(err, &missing):
		httpserver.JSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "fields": missing.Fields})
	case errors.Is(err, push.ErrDisabled):
		httpserver.Error(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, push.ErrNoTokens):
		httpserver.Error(w, http.StatusNotFound, err.Error())
	default:
		httpserver.Fail(w, r, err, "Failed to send push notification.")
	}
}
