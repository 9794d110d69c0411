package middleware

import (
	"fmt"
	"net/http"
	"strings"
)

// DefaultMaxBodySize caps request bodies when no size is configured.
const DefaultMaxBodySize = 1 << 20

// BodySizeLimit restricts request bodies to maxSize, e.g. "512KB" or "1MB".
func BodySizeLimit(maxSize string) Middleware {
	size := ParseSize(maxSize, DefaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}

// ParseSize converts "10MB", "512KB", "1GB" or a plain byte count into
// bytes. Unparseable or non-positive input yields fallback.
func ParseSize(s string, fallback int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		factor int64
	}{{"GB", 1 << 30}, {"MB", 1 << 20}, {"KB", 1 << 10}, {"B", 1}} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.factor
			s = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			break
		}
	}
	var n int64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n * multiplier
}
