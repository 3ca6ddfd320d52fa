package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codevcn/thunderchat-client/internal/engine"
	"github.com/codevcn/thunderchat-client/internal/telemetry"
)

// RegisterDebugRoutes wires the local debug and metrics endpoints.
func RegisterDebugRoutes(router *gin.Engine, eng *engine.Engine, emitter *telemetry.AuditEmitter, enabled bool) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if !enabled {
		return
	}

	router.GET("/debug/window", func(c *gin.Context) {
		snap, ok := eng.Snapshot()
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active conversation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"window":        snap,
			"pending_sends": eng.PendingSends(),
		})
	})

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		var userID *int64
		if header := c.GetHeader("X-User-ID"); header != "" {
			if parsed, err := strconv.ParseInt(header, 10, 64); err == nil {
				userID = &parsed
			}
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", userID)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
