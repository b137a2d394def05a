package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rentbook/internal/domain"
	"rentbook/internal/logging"
	"rentbook/internal/metrics"

	"github.com/rs/zerolog"
)

// rateLimit counts requests per uid, or per client IP for anonymous callers.
func rateLimit(store domain.RateLimitStore, limit int, window time.Duration, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ip:" + clientIP(r)
			if uid := principal(r); uid != "" {
				key = "uid:" + uid
			}

			allowed, err := store.CheckRateLimit(r.Context(), key, limit, window)
			if err != nil {
				// Fail open.
				logging.FromContext(r.Context(), logger, "http").Warn().Err(err).Str("key", key).Msg("rate limit check failed")
				allowed = true
			}
			if !allowed {
				metrics.IncRateLimited()
				w.Header().Set("Retry-After", retryAfter(window))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retryAfter(window time.Duration) string {
	secs := int(window / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// clientIP uses the connection address only. Forwarding headers reach it
// through middleware.RealIP when http.trust_proxy is on.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if addr := strings.TrimSpace(r.RemoteAddr); addr != "" {
		return addr
	}
	return "unknown"
}
