package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/llmsim/llmsim/internal/domain/stats"
)

// SystemHandler serves health and stats.
type SystemHandler struct {
	stats *stats.Aggregator
}

func NewSystemHandler(agg *stats.Aggregator) *SystemHandler {
	return &SystemHandler{stats: agg}
}

// Health handles GET /health.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "llmsim",
	})
}

// Stats handles GET /llmsim/stats.
func (h *SystemHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Snapshot())
}
