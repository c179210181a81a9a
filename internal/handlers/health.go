package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/monitors"
)

func (h *Handler) HealthCheck(c *gin.Context) {
	results, healthy := monitors.Run(c.Request.Context(), h.Checks)

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":       status,
		"message":      "Taskboard is running",
		"dependencies": results,
		"timestamp":    time.Now().Format(time.RFC3339),
	})
}
