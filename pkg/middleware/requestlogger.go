package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// whatever correlation, session, user and trace fields are already present.
// Mount it after RequestLogging and Tracing. Middleware that adds fields later
// (the session middleware) calls Enrich again.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, Enrich(r, base))
		})
	}
}

// Enrich returns r with a logger built from base and r's context fields.
func Enrich(r *http.Request, base *slog.Logger) *http.Request {
	ctx := r.Context()
	return r.WithContext(logger.NewContext(ctx, logger.WithContext(ctx, base)))
}
