package middleware

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// RequireCustomer middleware extracts the authenticated customer ID from the
// X-User-ID header (populated by the edge gateway after token validation) and
// injects it into the request context. Requests without an identity are
// rejected with 401.
func RequireCustomer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			customerID := r.Header.Get("X-User-ID")
			if customerID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    "UNAUTHORIZED",
					"message": "missing customer identity",
				})
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, customerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUserID returns a new context carrying the given user ID. Intended for
// tests and non-HTTP callers.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
