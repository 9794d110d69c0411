package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/taskflow/version"
)

var startTime = time.Now()

// VersionResponse is the body of the version endpoint.
type VersionResponse struct {
	Service string `json:"service"`
	version.Info
	Release bool   `json:"release"`
	Uptime  string `json:"uptime"`
}

// Version reports build information and process uptime.
func Version(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		c.JSON(http.StatusOK, VersionResponse{
			Service: serviceName,
			Info:    v,
			Release: v.Release(),
			Uptime:  time.Since(startTime).Round(time.Second).String(),
		})
	}
}
