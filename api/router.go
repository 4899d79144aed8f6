package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/rerascrape/api/handler"
	"github.com/use-agent/rerascrape/config"
)

// NewRouter creates the read-only status server.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
func NewRouter(run handler.RunReporter, cfg config.StatusConfig, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(run, startTime))
	v1.GET("/records", handler.Records(run))

	return r
}
