package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	httpserver "github.com/uncleisme/mobile-app/internal/http"
)

// Recover turns a handler panic into a generic retryable 500 and logs the stack.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.ErrorContext(r.Context(), "panic in handler", "panic", rec, "stack", string(debug.Stack()))
			httpserver.JSON(w, http.StatusInternalServerError, map[string]any{
				"error": "Something went wrong.",
				"retry": true,
			})
		}()
		next.ServeHTTP(w, r)
	})
}
