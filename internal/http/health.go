package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger verifies that the storage backend is reachable.
type Pinger interface {
	Ping() error
}

// HealthController reports service health.
type HealthController struct {
	db      Pinger
	version string
}

// NewHealthController creates a new health controller.
func NewHealthController(db Pinger, version string) *HealthController {
	return &HealthController{db: db, version: version}
}

// Status reports overall health including database connectivity.
// GET /health
func (hc *HealthController) Status(c *gin.Context) {
	if err := hc.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"version": hc.version,
			"error":   "database unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": hc.version,
	})
}
