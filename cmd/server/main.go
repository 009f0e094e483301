// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uncleisme/mobile-app/internal/auth"
	"github.com/uncleisme/mobile-app/internal/config"
	db "github.com/uncleisme/mobile-app/internal/db"
	"github.com/uncleisme/mobile-app/internal/feed"
	"github.com/uncleisme/mobile-app/internal/handlers"
	"github.com/uncleisme/mobile-app/internal/leave"
	"github.com/uncleisme/mobile-app/internal/logging"
	"github.com/uncleisme/mobile-app/internal/lookup"
	"github.com/uncleisme/mobile-app/internal/middleware"
	"github.com/uncleisme/mobile-app/internal/push"
	"github.com/uncleisme/mobile-app/internal/realtime"
	"github.com/uncleisme/mobile-app/internal/repo"
	"github.com/uncleisme/mobile-app/internal/review"
	"github.com/uncleisme/mobile-app/internal/session"
	"github.com/uncleisme/mobile-app/internal/storage"
)

func main() {
	// --- Load config (config.yaml + env overrides) ---
	cfg := config.Load()

	// --- Logger ---
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format == "json")

	// Configure session cookie security (dev often needs Secure=false)
	auth.SetCookieSecurity(cfg.Security.Session.CookieSecure)
	auth.SetCookieSameSite(cfg.Security.Session.SameSite)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Background session sweeper ---
	sessions := session.NewStore()
	sessions.StartSweeper(ctx, cfg.Security.Session.SweeperInterval)

	// --- Connect to Postgres ---
	if cfg.Database.Migrate {
		if err := db.Migrate(cfg.Database.URL); err != nil {
			slog.Error("migration error", "err", err)
			os.Exit(1)
		}
	}
	slog.Debug("connecting to database")
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		slog.Error("db connect error", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("db ping error", "err", err)
		os.Exit(1)
	}
	slog.Debug("database connection ready")

	r := repo.New(db.New(pool))

	// --- Lookup cache ---
	var cache lookup.Cache
	if cfg.Redis.Enabled {
		rc, err := lookup.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Warn("redis unavailable, lookups go straight to postgres", "err", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}
	names := lookup.New(r, cache, cfg.Feed.LookupTTL)

	// --- Photo storage ---
	opts := storage.Options{
		Driver:    cfg.Storage.Driver,
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		PublicURL: cfg.Storage.PublicURL,
	}
	if opts.PublicURL == "" && (opts.Driver == "" || opts.Driver == "memory") {
		opts.PublicURL = strings.TrimRight(cfg.BaseURL, "/") + "/files"
	}
	photos, err := storage.New(ctx, opts)
	if err != nil {
		slog.Error("storage setup error", "err", err)
		os.Exit(1)
	}

	// --- Push + realtime ---
	var sender push.Sender
	if cfg.PushEnabled() {
		fcm, err := push.NewFCM(ctx, cfg.Push.ProjectID, []byte(cfg.Push.ServiceAccountJSON), cfg.Push.ServiceAccountFile)
		if err != nil {
			slog.Warn("push disabled", "err", err)
		} else {
			sender = fcm
		}
	}
	pushSvc := push.NewService(r, sender)
	hub := realtime.NewHub(cfg.CORS.AllowedOrigins)

	workflow := review.New(r, r, photos, review.Notifiers{pushSvc, hub})
	feeds := feed.NewBuilder(r, names, cfg.Feed.BroadcastFallback)
	leaves := leave.NewService(r, names)

	// --- Router ---
	mux := chi.NewRouter()

	mux.Use(middleware.Recover)
	// Ensure request ID then log requests with slog
	mux.Use(middleware.RequestID(cfg.Security.RequestID.TrustHeader))
	mux.Use(middleware.SlogRequestLogger)
	if cfg.Security.RateLimit.Enabled {
		mux.Use(middleware.RateLimitWith(sessions, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst, cfg.Security.RateLimit.TTL))
	}

	// --- CORS middleware ---
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by browsers
	}))

	handlers.RegisterRoutes(mux, handlers.Deps{
		Repo:        r,
		Sessions:    sessions,
		Auth:        auth.NewHandlers(r, sessions, cfg.Security.Session.TTL, cfg.Security.MFA.Issuer),
		Workflow:    workflow,
		Names:       names,
		Feed:        feeds,
		Leave:       leaves,
		Push:        pushSvc,
		Hub:         hub,
		MFARequired: cfg.Security.MFA.LocalRequired,
		Health:      pool.Ping,
	})

	if mem, ok := photos.(*storage.Memory); ok {
		mux.Get("/files/*", func(w http.ResponseWriter, req *http.Request) {
			b, found := mem.Get(chi.URLParam(req, "*"))
			if !found {
				http.NotFound(w, req)
				return
			}
			w.Header().Set("Content-Type", http.DetectContentType(b))
			_, _ = w.Write(b)
		})
	}

	// --- Start server ---
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("listening", "addr", cfg.Addr, "base_url", cfg.BaseURL, "push", pushSvc.Enabled(), "storage", opts.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	// Let in-flight review notifications finish before the pool closes.
	workflow.Wait()
}
