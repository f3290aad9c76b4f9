package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/middleware"
)

// Session identification.
const (
	SessionCookieName = "storefront_session"
	SessionHeader     = "X-Session-ID"
)

// SessionConfig controls the session cookie.
type SessionConfig struct {
	TTL    time.Duration
	Secure bool
}

// UserLookup resolves the identity hint for a session, "" when unknown.
type UserLookup func(ctx context.Context, sessionID string) string

// Session resolves the shopper's session id from the cookie or the
// X-Session-ID header and issues a new one when neither holds a valid id.
// The id is echoed in both the cookie and the header, stored in the context
// and added to the request-scoped logger together with the token's user id.
func Session(cfg SessionConfig, lookup UserLookup, base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, issued := resolveSessionID(r)

			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(SessionHeader, sessionID)

			ctx := logger.WithSessionID(r.Context(), sessionID)
			if !issued && lookup != nil {
				if userID := lookup(ctx, sessionID); userID != "" {
					ctx = logger.WithUserID(ctx, userID)
				}
			}

			next.ServeHTTP(w, middleware.Enrich(r.WithContext(ctx), base))
		})
	}
}

// resolveSessionID returns the caller's session id, or a fresh one with
// issued=true. Only UUIDs are accepted so ids are safe to embed in keys.
func resolveSessionID(r *http.Request) (string, bool) {
	if c, err := r.Cookie(SessionCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String(), false
		}
	}
	if h := r.Header.Get(SessionHeader); h != "" {
		if id, err := uuid.Parse(h); err == nil {
			return id.String(), false
		}
	}
	return uuid.NewString(), true
}

func sessionIDFromRequest(r *http.Request) string {
	return logger.SessionIDFromContext(r.Context())
}
