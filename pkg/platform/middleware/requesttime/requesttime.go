// Package requesttime pins one clock reading per request so the records a
// request writes and the events it emits carry the same timestamp.
package requesttime

import (
	"net/http"
	"time"

	"electionhub/pkg/requestcontext"
)

// Middleware stores the request start in UTC, truncated to the microsecond
// precision Postgres keeps, so a timestamp read back equals the one emitted.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC().Truncate(time.Microsecond)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), now)))
	})
}
