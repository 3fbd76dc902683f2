package main

import (
	"context"
	"net/http"

	"foreclosure-voice/internal/auth"
	"foreclosure-voice/internal/httpapi"
	"foreclosure-voice/internal/telephony"
	"foreclosure-voice/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type routeDeps struct {
	Webhooks telephony.WebhookHandler
	API      httpapi.Handlers
	Auth     *auth.Manager

	// TwilioToken empty disables webhook signature checks.
	TwilioToken string
	PublicBase  string

	Gatherer prometheus.Gatherer
	Ready    func(context.Context) error
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(c.Request.Context()); err != nil {
				logger.FromGin(c).Warn("readiness check failed", "err", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Provider webhooks. Every response, including failures, is TwiML.
	hooks := r.Group("/")
	hooks.Use(telephony.Recovery(), telephony.RequireTwilioSignature(d.TwilioToken, d.PublicBase))
	{
		hooks.POST("/", d.Webhooks.InitialCall)
		hooks.POST("/menu", d.Webhooks.Menu)
		hooks.POST("/ai-conversation", d.Webhooks.AIConversation)
		hooks.POST("/continue", d.Webhooks.AIConversation)
		hooks.POST("/fallback", d.Webhooks.Fallback)
		hooks.POST("/status", d.Webhooks.CallStatus)
	}

	// Staff read API.
	v1 := r.Group("/v1")
	v1.Use(gin.Recovery())
	{
		v1.POST("/auth/refresh", auth.Refresh(d.Auth))

		protected := v1.Group("")
		protected.Use(auth.RequireAccessToken(d.Auth))

		callsGroup := protected.Group("/calls")
		{
			callsGroup.GET("/:call_id", httpapi.ReadCalls(), d.API.GetCall)
			callsGroup.GET("/:call_id/turns", httpapi.ReadTranscripts(), d.API.ListTurns)
		}

		reports := protected.Group("/reports")
		reports.Use(httpapi.ReadReports())
		{
			reports.GET("/calls", d.API.CallsReport)
			reports.GET("/ai-outcomes", d.API.AIOutcomesReport)
		}
	}
}
