package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/config"
	"github.com/Dannyisop-alt/Unified-alert-dashboard/internal/logging"
)

// NewRouter wires all routes. Webhook ingestion and health are always
// open; dashboard query routes require a session when auth is enabled.
func NewRouter(h *Handler, logger *logging.Logger, cfg config.Config, registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	api := r.Group(cfg.API.BasePath)
	{
		// Senders must always get their acknowledgment; webhooks stay open.
		api.POST("/webhooks/alerts", h.ReceiveInfrastructureWebhook)
		api.POST("/webhooks/logs", h.ReceiveLogWebhook)

		api.POST("/auth/login", h.Login)

		dashboard := api.Group("")
		if cfg.Auth.Enabled {
			dashboard.Use(AuthRequired(h.sessions))
		}
		dashboard.GET("/alerts", h.ListAlerts)
		dashboard.GET("/alerts/options", h.AlertOptions)
		dashboard.POST("/alerts/query", h.QueryAlerts)
		dashboard.POST("/alerts/:id/read", h.MarkRead)
		dashboard.POST("/alerts/:id/acknowledge", h.Acknowledge)
		dashboard.GET("/heartbeat", h.Heartbeat)
		dashboard.GET("/webhooks/raw", h.RawWebhooks)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}
