package ratelimit

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/middleware"
)

// Middleware throttles requests per client IP under scope. Counter failures let the request through.
func (l *Limiter) Middleware(scope string, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "ratelimit").Str("scope", scope).Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := middleware.ClientIP(r)
			decision, err := l.Allow(r.Context(), scope+":"+ip)
			if err != nil {
				logger.Error().Err(err).Str("remote_ip", ip).Msg("rate limit check failed")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

			if !decision.Allowed {
				retry := int(math.Ceil(decision.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"detail": "request was throttled"})
				logger.Warn().Str("remote_ip", ip).Int64("count", decision.Count).Msg("rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
