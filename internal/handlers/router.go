// internal/handlers/router.go
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/uncleisme/mobile-app/internal/auth"
	"github.com/uncleisme/mobile-app/internal/handlers/admin"
	"github.com/uncleisme/mobile-app/internal/handlers/dashboard"
	"github.com/uncleisme/mobile-app/internal/handlers/leaves"
	"github.com/uncleisme/mobile-app/internal/handlers/notifications"
	"github.com/uncleisme/mobile-app/internal/handlers/workorders"
	httpserver "github.com/uncleisme/mobile-app/internal/http"
	"github.com/uncleisme/mobile-app/internal/middleware"
	"github.com/uncleisme/mobile-app/internal/models"
	"github.com/uncleisme/mobile-app/internal/push"
	"github.com/uncleisme/mobile-app/internal/realtime"
	"github.com/uncleisme/mobile-app/internal/repo"
	"github.com/uncleisme/mobile-app/internal/session"
)

// Deps is everything the HTTP surface needs, built once in main.
type Deps struct {
	Repo        repo.Repo
	Sessions    *session.Store
	Auth        *auth.Handlers
	Workflow    workorders.Workflow
	Names       workorders.Names
	Feed        dashboard.FeedLoader
	Leave       leaves.Service
	Push        *push.Service
	Hub         *realtime.Hub
	MFARequired bool
	// Health is polled by /healthz; nil always reports ok.
	Health func(ctx context.Context) error
}

func RegisterRoutes(mux *chi.Mux, d Deps) {
	wo := workorders.New(d.Repo, d.Workflow, d.Names)
	dash := dashboard.New(d.Repo, d.Names, d.Feed, d.Leave)
	lv := leaves.New(d.Leave)
	nt := notifications.New(d.Feed, d.Push)
	adm := admin.New(d.Repo, d.Names, d.Sessions, d.Push)

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.Health != nil {
			if err := d.Health(r.Context()); err != nil {
				httpserver.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpserver.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// The hub authenticates from the cookie itself; upgrades skip the JSON middleware.
	mux.Get("/ws", d.Hub.Handler(func(r *http.Request) (uuid.UUID, bool) {
		s := auth.ReadSession(r, d.Sessions)
		if s == nil {
			return uuid.Nil, false
		}
		return s.UserID, true
	}))

	mux.Post("/auth/login", d.Auth.Login)
	mux.Post("/auth/logout", d.Auth.Logout)

	mux.Group(func(sr chi.Router) {
		// Apply auth to the whole group ONCE
		sr.Use(middleware.RequireAuth(d.Sessions, d.Repo))
		sr.Use(middleware.EnrichLogger)
		sr.Use(middleware.MFAEnforce(d.Repo, d.MFARequired))

		sr.Route("/auth", func(ar chi.Router) {
			ar.Get("/me", d.Auth.Me)
			ar.Put("/profile", d.Auth.UpdateProfile)
			ar.Post("/password", d.Auth.ChangePassword)
			ar.Get("/mfa/totp/setup", d.Auth.TOTPSetupBegin)
			ar.Post("/mfa/totp/verify", d.Auth.TOTPSetupVerify)
		})

		sr.Get("/dashboard", dash.Get)

		sr.Route("/work-orders", func(wr chi.Router) {
			wr.Get("/", wo.List)
			wr.Get("/next", wo.Next)
			wr.Get("/{id}", wo.Get)
			wr.Post("/{id}/start", wo.Start)
			wr.Post("/{id}/complete", wo.Complete)
			wr.With(middleware.RequireElevated).Post("/{id}/approve", wo.Approve)
			wr.With(middleware.RequireElevated).Post("/{id}/send-back", wo.SendBack)
		})

		sr.Get("/notifications", nt.Feed)
		sr.Post("/push/tokens", nt.RegisterToken)

		sr.Route("/leaves", func(lr chi.Router) {
			lr.Get("/", lv.Mine)
			lr.Post("/", lv.Create)
			lr.Get("/balance", lv.Balance)
			lr.Get("/calendar", lv.Calendar)
			lr.Get("/calendar.ics", lv.CalendarICS)
			lr.With(middleware.RequireElevated).Post("/{id}/decision", lv.Decide)
		})

		sr.Route("/admin", func(ar chi.Router) {
			ar.Use(middleware.RequireElevated)
			ar.Get("/approvals", adm.Approvals)
			ar.Get("/workload", adm.Workload)
			ar.Get("/workload.xlsx", adm.WorkloadXLSX)
			ar.Get("/leaves", lv.Pending)
			ar.With(middleware.RequireRole(models.RoleAdmin)).Get("/sessions", adm.Sessions)
			ar.With(middleware.RequireRole(models.RoleAdmin)).Post("/sessions/revoke", adm.RevokeSessions)
			ar.Post("/push/send", adm.SendPush)
		})
	})
}
