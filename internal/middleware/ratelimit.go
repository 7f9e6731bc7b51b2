package middleware

import (
	"net"
	"net/http"
	"subscriber-journey/pkg/ratelimit"

	"github.com/rs/zerolog/log"
)

// RateLimit caps attempts per client address for one endpoint.
func RateLimit(limiter *ratelimit.Limiter, name string, rule ratelimit.Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := name + ":" + ClientIP(r)
			if !limiter.Allow(key, rule) {
				log.Warn().Str("key", key).Msg("Rate limit exceeded")
				writeError(w, http.StatusTooManyRequests, "Too many attempts. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
