package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/taskflow/logger"
	"github.com/kbukum/taskflow/validation"
)

// HeaderRequestID carries the request ID on requests and responses.
const HeaderRequestID = "X-Request-Id"

// RequestID makes sure every request carries an X-Request-Id. A valid
// incoming UUID is kept; anything else is replaced. The ID is echoed on the
// response and stored in the request context for logging.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || new(validation.Checks).UUID(HeaderRequestID, id).Err() != nil {
				id = uuid.NewString()
			}
			r.Header.Set(HeaderRequestID, id)
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
		})
	}
}
