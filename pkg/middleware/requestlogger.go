package middleware

import (
	"log/slog"
	"net/http"

	"github.com/driftwear/storefront/pkg/logger"
)

// RequestLogger stores a request-scoped logger in context, pre-tagged with
// correlation_id, user_id, trace_id, and span_id where those are available.
// Handlers pick it up with logger.FromContext. Mount it after RequestLogging
// and Tracing so the correlation ID and span context are already set; the
// user identity comes from RequireCustomer or, failing that, the X-User-ID
// header.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := UserIDFromContext(ctx)
			if userID == "" {
				userID = r.Header.Get("X-User-ID")
			}
			if userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			scoped := logger.WithContext(ctx, base)
			next.ServeHTTP(w, r.WithContext(logger.NewContext(ctx, scoped)))
		})
	}
}
