package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/taskflow/component"
)

// ProbeResponse is the body of the liveness and readiness probes.
type ProbeResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
	// Waiting names the unhealthy components holding readiness back.
	Waiting []string `json:"waiting,omitempty"`
}

// Liveness answers 200 as long as the process can serve HTTP.
func Liveness(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ProbeResponse{Status: "alive", Service: serviceName, Timestamp: time.Now().UTC()})
	}
}

// Readiness answers 503 while any component is unhealthy. Degraded
// components do not block readiness.
func Readiness(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := ProbeResponse{Status: "ready", Service: serviceName, Timestamp: time.Now().UTC()}
		if checker != nil {
			for _, h := range checker(c.Request.Context()) {
				if h.Status == component.StatusUnhealthy {
					resp.Waiting = append(resp.Waiting, h.Name)
				}
			}
		}
		if len(resp.Waiting) > 0 {
			resp.Status = "not_ready"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
