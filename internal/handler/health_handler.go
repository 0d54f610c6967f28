package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db *sqlx.DB
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "greenledger"})
}

// Readiness handles GET /readyz. Ready means the invoice store is
// reachable; the extraction pipeline itself has no external dependencies
// and is reported as a fixed component so dashboards see the full set.
func (h *HealthHandler) Readiness(c *gin.Context) {
	components := gin.H{
		"database":   "ok",
		"extraction": "ok",
	}
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		components["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "components": components})
}
