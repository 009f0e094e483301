// internal/http/respond.go
package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/uncleisme/mobile-app/internal/models"
)

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Error writes {"error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// Fail maps a backend error to a response. Not-found becomes 404, Postgres
// errors go through PGErrorMessage and anything else is a 500 with fallback.
// Backend failures are flagged retryable so clients can offer a retry.
func Fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrProfileNotFound) {
		Error(w, http.StatusNotFound, "not found")
		return
	}
	status, msg := PGErrorMessage(err, fallback)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "err", err)
		JSON(w, status, map[string]any{"error": msg, "retry": true})
		return
	}
	Error(w, status, msg)
}

// Decode reads a JSON body of at most 1MB into v.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("extra content after JSON body")
	}
	return nil
}
