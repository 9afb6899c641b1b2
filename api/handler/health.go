package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/humbal1/pierce-doc-links-scrapper/models"
	"github.com/humbal1/pierce-doc-links-scrapper/session"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when the session store cannot be read.
func Health(svc JobService, sessions session.Store, queueEnabled bool, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		jar, err := sessions.Load(c.Request.Context())
		if err != nil {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			JobStats:  svc.Stats(),
			Session:   len(jar) > 0,
			WorkQueue: queueEnabled,
			Version:   Version,
		})
	}
}
