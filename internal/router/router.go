package router

import (
	"github.com/gin-gonic/gin"

	"github.com/aryandalviplx/OCR-bill/internal/handler"
	"github.com/aryandalviplx/OCR-bill/internal/middleware"
	"github.com/aryandalviplx/OCR-bill/internal/service"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	tokens service.TokenService,
	claimH *handler.ClaimHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Protected routes - require valid bearer token
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))

	claims := protected.Group("/claims")
	claims.POST("", claimH.Submit)
	claims.GET("/runs", claimH.ListRuns)
	claims.GET("/runs/:id", claimH.GetRun)
	claims.GET("/runs/:id/bundle", claimH.ExportBundle)
	claims.GET("/runs/:id/bundle/url", claimH.ArchivedBundleURL)
	claims.GET("/runs/:id/items.csv", claimH.ExportItemsCSV)
	claims.GET("/:claimId/audit", claimH.ListAuditEvents)

	return r
}
