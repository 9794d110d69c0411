package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	apperrors "github.com/kbukum/taskflow/errors"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// RequestsPerMinute is the maximum number of requests per key per minute.
	RequestsPerMinute int
	// KeyFunc extracts the rate limit key from a request. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
	// Store holds the counters. Defaults to an in-memory store.
	Store limiter.Store
}

// ToLimiterRate converts the config to a one-minute limiter.Rate.
func (c RateLimitConfig) ToLimiterRate() limiter.Rate {
	return limiter.Rate{Period: time.Minute, Limit: int64(c.RequestsPerMinute)}
}

// RateLimit limits each key to RequestsPerMinute requests per minute and
// reports the quota in X-RateLimit-* headers. A store error lets the
// request through.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	if cfg.Store == nil {
		cfg.Store = memory.NewStore()
	}
	rl := limiter.New(cfg.Store, cfg.ToLimiterRate())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lctx, err := rl.Get(r.Context(), cfg.KeyFunc(r))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				h.Set("Retry-After", strconv.FormatInt(retryAfter(lctx.Reset, time.Now()), 10))
				writeError(w, apperrors.RateLimited())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// retryAfter returns the whole seconds until reset, at least 1.
func retryAfter(reset int64, now time.Time) int64 {
	if secs := reset - now.Unix(); secs > 0 {
		return secs
	}
	return 1
}

// ClientIP keys requests by the remote host.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SubjectKey keys requests by the authenticated subject, falling back to
// ClientIP for anonymous requests.
func SubjectKey(r *http.Request) string {
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		if sub, ok := claims["sub"].(string); ok && sub != "" {
			return sub
		}
	}
	return ClientIP(r)
}
