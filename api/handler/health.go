package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/rerascrape/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// RunReporter exposes a collection run's progress.
type RunReporter interface {
	Status() models.RunStatus
	Records() []models.ProjectRecord
}

// Health returns a handler for GET /api/v1/health.
//
// Status is "done" once the run reached its final phase and "running"
// before that.
func Health(run RunReporter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := run.Status()

		status := "running"
		if st.Phase == "done" {
			status = "done"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Run:     st,
			Version: Version,
		})
	}
}
