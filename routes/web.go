package routes

import (
	"github.com/gin-gonic/gin"
)

// SetupWebRoutes thiết lập web routes
func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"message": "Corp Name Resolver",
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"api": "Corp Name Resolver API v1",
				"endpoints": map[string]string{
					"resolve":     "POST /v1/corps/resolve",
					"batch":       "POST /v1/corps/jobs",
					"job_status":  "GET /v1/corps/jobs/:jobID/status",
					"job_results": "GET /v1/corps/jobs/:jobID/results?format=ndjson&gzip=1",
					"search":      "GET /v1/corps/search?q=&limit=&listed=",
					"corp":        "GET /v1/corps/:code",
					"reload":      "POST /v1/admin/registry/reload",
					"reviews":     "GET /v1/admin/reviews",
					"health":      "GET /v1/health",
				},
			})
		})
	}
}
