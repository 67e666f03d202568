package routes

import (
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/handlers"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// SetupStreaksRoutes registers the daily streak endpoints. Claims and status
// require an authenticated user; the leaderboard is public.
func SetupStreaksRoutes(router *gin.Engine, handler *handlers.StreaksHandler, jwtSecret string) {
	streaks := router.Group("/api/streaks")

	streaks.GET("/leaderboard", gzip.Gzip(gzip.DefaultCompression), handler.GetLeaderboard)

	authed := streaks.Group("")
	authed.Use(middleware.NewAuthMiddleware(jwtSecret))
	{
		authed.POST("/claim", handler.ClaimDaily)
		authed.GET("", handler.GetStreak)
	}
}
