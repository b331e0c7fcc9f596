package routes

import (
	"github.com/corp-resolver/app/controllers"
	"github.com/gin-gonic/gin"
)

// SetupAPIRoutes thiết lập tất cả API routes
func SetupAPIRoutes(router *gin.Engine, corpController *controllers.CorpController, adminController *controllers.AdminController) {
	// API v1 group
	v1 := router.Group("/v1")
	{
		// Resolve tên công ty
		corps := v1.Group("/corps")
		{
			corps.POST("/resolve", corpController.Resolve)
			corps.POST("/jobs", corpController.BatchResolve)
			corps.GET("/jobs/:jobID/status", corpController.GetJobStatus)
			corps.GET("/jobs/:jobID/results", corpController.GetJobResults)
			corps.GET("/search", corpController.Search)
			corps.GET("/:code", corpController.GetCorp)
		}

		// Admin routes
		admin := v1.Group("/admin")
		{
			admin.POST("/registry/reload", adminController.ReloadRegistry)
			admin.GET("/export/registry", adminController.ExportRegistry)
			admin.POST("/indexes/build", adminController.BuildIndexes)
			admin.POST("/indexes/seed", adminController.SeedIndex)
			admin.POST("/cache/invalidate", adminController.InvalidateCache)
			admin.GET("/stats", adminController.GetStats)
			admin.GET("/reviews", adminController.ListReviews)
			admin.POST("/reviews/:id/approve", adminController.ApproveReview)
			admin.POST("/reviews/:id/reject", adminController.RejectReview)
			admin.POST("/aliases", adminController.AddAlias)
		}

		v1.GET("/health", corpController.HealthCheck)
	}
}

// SetupHealthRoutes thiết lập health check routes
func SetupHealthRoutes(router *gin.Engine, corpController *controllers.CorpController) {
	router.GET("/health", corpController.HealthCheck)
	router.GET("/ready", corpController.HealthCheck)
	router.GET("/live", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "alive"})
	})
}
