package middleware

import (
	"context"
	"net/http"

	"github.com/uncleisme/mobile-app/internal/auth"
)

// private context keys for logging enrichment
type ctxKey string

const (
	ctxLogUserID ctxKey = "log_user_id"
	ctxLogRole   ctxKey = "log_role"
	ctxLogInfo   ctxKey = "log_request_info"
)

// requestInfo is shared between SlogRequestLogger and the handlers below it,
// so the access log line can carry who made the request.
type requestInfo struct {
	userID string
	role   string
}

// EnrichLogger stores user_id/role into context for logging handlers to pick up.
// Mount it after RequireAuth.
func EnrichLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sess, ok := auth.SessionFromContext(ctx); ok {
			uid := sess.UserID.String()
			role := string(sess.Role)
			if p, ok := auth.ProfileFromContext(ctx); ok {
				role = string(p.Type)
			}
			ctx = context.WithValue(ctx, ctxLogUserID, uid)
			ctx = context.WithValue(ctx, ctxLogRole, role)
			if info, ok := ctx.Value(ctxLogInfo).(*requestInfo); ok {
				info.userID = uid
				info.role = role
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLogUserID returns the enriched user id if set.
func GetLogUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxLogUserID).(string)
	return v, ok && v != ""
}

// GetLogRole returns the enriched profile role if set.
func GetLogRole(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxLogRole).(string)
	return v, ok && v != ""
}
