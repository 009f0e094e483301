// Package leaves serves leave requests, balances and the team calendar.
package leaves

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	httpserver "github.com/uncleisme/mobile-app/internal/http"
	"github.com/uncleisme/mobile-app/internal/httpctx"
	"github.com/uncleisme/mobile-app/internal/leave"
	"github.com/uncleisme/mobile-app/internal/models"
)

type Service interface {
	Submit(ctx context.Context, userID uuid.UUID, r leave.Request) (models.LeaveRequest, error)
	ListMine(ctx context.Context, userID uuid.UUID) []models.LeaveRequest
	Pending(ctx context.Context) ([]models.LeaveRequest, error)
	Decide(ctx context.Context, actor models.Profile, id uuid.UUID, approve bool) (models.LeaveRequest, error)
	Balance(ctx context.Context, userID uuid.UUID, year int) *leave.Balance
	Approved(ctx context.Context) ([]models.LeaveRequest, map[string]string)
}

type Handler struct {
	svc Service
	now func() time.Time
}

func New(svc Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// leaveView adds the inclusive day count to a request.
type leaveView struct {
	models.LeaveRequest
	Days int `json:"days"`
}

func views(list []models.LeaveRequest) []leaveView {
	out := make([]leaveView, 0, len(list))
	for _, l := range list {
		out = append(out, leaveView{LeaveRequest: l, Days: leave.Days(l.StartDate, l.EndDate)})
	}
	return out
}

// Mine handles GET /leaves.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	uid, ok := httpctx.UserID(r.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"content": views(h.svc.ListMine(r.Context(), uid))})
}

// Create handles POST /leaves {type_key, start_date, end_date, reason}.
// Dates are YYYY-MM-DD; RFC 3339 timestamps are also accepted.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := httpctx.UserID(r.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		TypeKey   string `json:"type_key"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Reason    string `json:"reason"`
	}
	if err := httpserver.Decode(w, r, &body); err != nil {
		httpserver.Error(w, http.StatusBadRequest, "bad json")
		return
	}
	req := leave.Request{TypeKey: body.TypeKey, Reason: body.Reason}
	var err error
	if req.StartDate, err = parseDate(body.StartDate); err != nil {
		httpserver.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date", "field": "start_date"})
		return
	}
	if req.EndDate, err = parseDate(body.EndDate); err != nil {
		httpserver.JSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date", "field": "end_date"})
		return
	}

	created, err := h.svc.Submit(r.Context(), uid, req)
	if err != nil {
		var verr *leave.ValidationError
		if errors.As(err, &verr) {
			httpserver.JSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "field": verr.Field})
			return
		}
		httpserver.Fail(w, r, err, "Failed to submit leave request.")
		return
	}
	httpserver.JSON(w, http.StatusCreated, views([]models.LeaveRequest{created})[0])
}

// empty input yields the zero time so validation reports the missing field.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Balance handles GET /leaves/balance?year=YYYY.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	uid, ok := httpctx.UserID(r.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	year := h.now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 2000 || y > 2100 {
			httpserver.Error(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"balance": h.svc.Balance(r.Context(), uid, year)})
}

// Calendar handles GET /leaves/calendar.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	list, names := h.svc.Approved(r.Context())
	httpserver.JSON(w, http.StatusOK, map[string]any{"days": leave.Calendar(list, names)})
}

// CalendarICS handles GET /leaves/calendar.ics.
func (h *Handler) CalendarICS(w http.ResponseWriter, r *http.Request) {
	list, names := h.svc.Approved(r.Context())
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="team-leave.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(leave.ICS(list, names, h.now())))
}

// Pending handles GET /admin/leaves.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Pending(r.Context())
	if err != nil {
		httpserver.Fail(w, r, err, "Failed to load leave requests.")
		return
	}
	httpserver.JSON(w, http.StatusOK, map[string]any{"content": views(list)})
}

// Decide handles POST /leaves/{id}/decision {approve: bool}.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := httpctx.Profile(r.Context())
	if !ok {
		httpserver.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.Error(w, http.StatusBadRequest, "invalid leave id")
		return
	}
	var body struct {
		Approve *bool `json:"approve"`
	}
	if err := httpserver.Decode(w, r, &body); err != nil || body.Approve == nil {
		httpserver.Error(w, http.StatusBadRequest, "approve is required")
		return
	}
	decided, err := h.svc.Decide(r.Context(), actor, id, *body.Approve)
	if err != nil {
		if errors.Is(err, leave.ErrForbidden) {
			httpserver.Error(w, http.StatusForbidden, "forbidden")
			return
		}
		httpserver.Fail(w, r, err, "Failed to record decision.")
		return
	}
	httpserver.JSON(w, http.StatusOK, views([]models.LeaveRequest{decided})[0])
}
