package ratelimit

import (
	"fmt"
	"math"
	"net/http"

	"github.com/phrazzld/edge-gateway/internal/api/shared"
	"github.com/phrazzld/edge-gateway/internal/gateway/clientid"
	"github.com/phrazzld/edge-gateway/internal/platform/logger"
	"github.com/phrazzld/edge-gateway/internal/platform/metrics"
)

// Middleware returns the rate-limiting stage of the gateway chain. It must
// run before authentication so over-quota clients are rejected without
// spending any token-validation work on them.
func Middleware(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.Exempt(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			id := clientid.FromRequest(r)
			log := logger.FromContext(r.Context())

			decision, err := l.Allow(r.Context(), id)
			if err != nil {
				// The store is unavailable (e.g. Redis outage). Limiting is a
				// protection layer, not an auth gate, so the request proceeds.
				log.Warn("rate limit store unavailable, allowing request",
					"error", err,
					"client_id", id,
					"path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				metrics.RateLimitedTotal.Inc()
				log.Warn("rate limit exceeded",
					"client_id", id,
					"path", r.URL.Path,
					"count", decision.Count,
					"limit", l.Limit())

				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSeconds(decision)))
				shared.RespondWithError(w, r, http.StatusTooManyRequests,
					"Rate limit exceeded", "Too many requests. Try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// retryAfterSeconds converts the remaining window duration into the whole
// seconds a client should wait, rounded up and never less than one.
func retryAfterSeconds(d Decision) int64 {
	secs := int64(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
