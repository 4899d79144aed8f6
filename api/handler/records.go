package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/rerascrape/models"
)

// Records returns a handler for GET /api/v1/records: every record accepted
// so far, in acceptance order.
func Records(run RunReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		recs := run.Records()
		if recs == nil {
			recs = []models.ProjectRecord{}
		}
		c.JSON(http.StatusOK, models.RecordsResponse{
			Count:   len(recs),
			Records: recs,
		})
	}
}
