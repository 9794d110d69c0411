package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/taskflow/logger"
)

// probePaths are not logged.
var probePaths = map[string]bool{
	"/health": true,
	"/alive":  true,
	"/ready":  true,
}

// RequestLogger logs every request with method, path, status and duration.
// Probe paths are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			status := sw.Status()
			fields := map[string]interface{}{
				"method":             r.Method,
				"path":               r.URL.Path,
				"bytes":              sw.written,
				logger.FieldStatus:   status,
				logger.FieldDuration: time.Since(start).Milliseconds(),
			}
			logByStatus(log.WithContext(r.Context()), fields, status)
		})
	}
}

func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("request completed", fields)
	case status >= 400:
		log.Warn("request completed", fields)
	default:
		log.Debug("request completed", fields)
	}
}
