package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dcarbon/emailpreview/internal/api/handlers"
	"github.com/dcarbon/emailpreview/internal/api/middleware"
	"github.com/dcarbon/emailpreview/internal/draftmode"
	"github.com/dcarbon/emailpreview/internal/services"
)

// Dependencies are the services the routes are wired to.
type Dependencies struct {
	Gate        *services.GateService
	Preview     *services.PreviewService
	Audit       handlers.AuditRecorder
	StoreHealth handlers.StoreStatus
	Draft       *draftmode.Manager
	// GateLimiter throttles the gate; nil leaves it unthrottled.
	GateLimiter *middleware.RateLimiter
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Register wires up the preview pages and API routes.
func Register(router *gin.Engine, deps Dependencies) {
	router.GET("/", handlers.HomeHandler)

	gate := handlers.NewGateHandler(deps.Gate, deps.Draft, deps.Audit)
	gateChain := []gin.HandlerFunc{gate.Enter}
	if deps.GateLimiter != nil {
		gateChain = append([]gin.HandlerFunc{deps.GateLimiter.Limit()}, gateChain...)
	}
	router.GET("/api/preview", gateChain...)

	preview := handlers.NewPreviewHandler(deps.Preview, deps.Draft)
	router.GET("/preview", preview.Page)

	api := router.Group("/api/v1")
	api.GET("/health", handlers.NewHealthHandler(deps.StoreHealth).Get)
	api.GET("/preview", preview.JSON)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}
