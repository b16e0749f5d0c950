package middleware

import (
	"log/slog"
	"net/http"

	"github.com/BigRedEye/dc-hw/pkg/logger"
)

// RequestLogger derives a request-scoped logger carrying correlation_id,
// user_id, trace_id, and span_id, and stores it in the context so handlers
// can pick it up with logger.FromContext.
//
// Mount it after RequestLogging and Tracing so the correlation id and span
// context are already in place. The user id comes from the context when the
// auth middleware has run, or from the X-User-ID header that internal
// services forward on behalf of the gateway.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if logger.UserIDFromContext(ctx) == "" {
				if id := r.Header.Get("X-User-ID"); id != "" {
					ctx = logger.WithUserID(ctx, id)
				}
			}

			scoped := logger.WithContext(ctx, base)
			next.ServeHTTP(w, r.WithContext(logger.NewContext(ctx, scoped)))
		})
	}
}
