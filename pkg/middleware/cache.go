package middleware

import (
	"net/http"
)

// NoStore marks GET and HEAD responses as per-shopper: no shared cache may
// keep them and any cache must key them on the session cookie and token.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			h := w.Header()
			h.Set("Cache-Control", "private, no-store")
			h.Add("Vary", "Cookie")
			h.Add("Vary", "Authorization")
		}
		next.ServeHTTP(w, r)
	})
}
