package routes

import (
	"time"

	"github.com/corp-resolver/app/controllers"
	"github.com/corp-resolver/helpers/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupAllRoutes thiết lập tất cả routes
func SetupAllRoutes(router *gin.Engine, corpController *controllers.CorpController, adminController *controllers.AdminController, logger *zap.Logger) {
	// Thiết lập middleware
	setupMiddleware(router, logger)

	// Thiết lập các loại routes
	SetupWebRoutes(router)
	SetupHealthRoutes(router, corpController)
	SetupAPIRoutes(router, corpController, adminController)

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

// setupMiddleware thiết lập middleware cho router
func setupMiddleware(router *gin.Engine, logger *zap.Logger) {
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(requestLogger(logger))
}

// requestID gắn X-Request-ID cho mỗi request, giữ nguyên nếu client đã gửi
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = utils.GenerateUUID()
		}
		c.Set(controllers.RequestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// requestLogger log mỗi request bằng zap
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(controllers.RequestIDKey)),
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.Error("HTTP request", fields...)
		case c.Writer.Status() >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Debug("HTTP request", fields...)
		}
	}
}
