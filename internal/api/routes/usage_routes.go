package routes

import (
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/handlers"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// SetupUsageRoutes registers the usage tracking and rate-limit endpoints.
// These accept anonymous callers: identity is resolved best-effort so the
// rate limiter can fail open for fully anonymous requests.
func SetupUsageRoutes(router *gin.Engine, handler *handlers.UsageHandler, jwtSecret string) {
	usage := router.Group("/api/usage")
	usage.Use(middleware.IdentityMiddleware(jwtSecret))
	{
		usage.GET("/rate-limit", handler.CheckRateLimit)
		usage.POST("/track", handler.TrackUsage)
		usage.GET("/stats", gzip.Gzip(gzip.DefaultCompression), handler.GetUserStats)
	}
}
