// Package routes defines the HTTP routes for the handoff service.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unifiedui/handoff-service/internal/api/handlers"
	"github.com/unifiedui/handoff-service/internal/api/middleware"
)

// BasePath is the prefix of every API route.
const BasePath = "/api/v1/handoff-service"

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler   *handlers.HealthHandler
	AccessHandler   *handlers.AccessHandler
	SessionsHandler *handlers.SessionsHandler
	I18nHandler     *handlers.I18nHandler
	HandoffsHandler *handlers.HandoffsHandler
	AuthMiddleware  *middleware.AuthMiddleware
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	v1 := r.Group(BasePath)
	{
		// Health check routes (no auth required)
		v1.GET("/health", cfg.HealthHandler.Health)
		v1.GET("/ready", cfg.HealthHandler.Ready)
		v1.GET("/live", cfg.HealthHandler.Live)

		v1.GET("/i18n/:lang", cfg.I18nHandler.GetDictionary)

		// Visitor routes: the capability token is checked per bot by the engine
		visitor := v1.Group("")
		visitor.Use(middleware.CapabilityToken())
		{
			bots := visitor.Group("/bots/:botId")
			{
				bots.GET("", cfg.AccessHandler.GetBot)
				bots.POST("/access", cfg.AccessHandler.Verify)
				bots.GET("/access", cfg.AccessHandler.Check)
				bots.POST("/sessions/messages", cfg.SessionsHandler.SendMessage)
			}

			sessions := visitor.Group("/sessions/:sessionId")
			{
				sessions.GET("/messages", cfg.SessionsHandler.Poll)
				sessions.POST("/handoff", cfg.SessionsHandler.RequestHandoff)
				sessions.POST("/feedback", cfg.SessionsHandler.SubmitFeedback)
				sessions.POST("/lead", cfg.SessionsHandler.SubmitLead)
				sessions.POST("/lead/request", cfg.SessionsHandler.RequestLeadForm)
				sessions.PUT("/language", cfg.SessionsHandler.SetLanguage)
			}
		}

		// Agent routes
		agents := v1.Group("/handoffs")
		agents.Use(cfg.AuthMiddleware.Authenticate())
		{
			agents.GET("", cfg.HandoffsHandler.List)
			agents.GET("/:handoffId", cfg.HandoffsHandler.Get)
			agents.GET("/:handoffId/events", cfg.HandoffsHandler.Events)
			agents.GET("/:handoffId/ws", cfg.HandoffsHandler.WebSocket)
			agents.POST("/:handoffId/messages", cfg.HandoffsHandler.SendMessage)
			agents.POST("/:handoffId/resolve", cfg.HandoffsHandler.Resolve)
		}

		v1.DELETE("/bots/:botId/access", cfg.AuthMiddleware.Authenticate(), cfg.AccessHandler.Revoke)
	}

	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware, cors gin.HandlerFunc) {
	// Apply global middleware
	r.Use(loggingMw.Logger())
	r.Use(errorMw.Recovery())
	if cors != nil {
		r.Use(cors)
	}
	r.NoRoute(middleware.NotFound())
	r.HandleMethodNotAllowed = true
	r.NoMethod(middleware.MethodNotAllowed())

	// Setup routes
	Setup(r, cfg)
}
