package routes

import (
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/handlers"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// SetupXpRoutes registers the XP ledger endpoints. All of them act on the
// authenticated caller's own ledger.
func SetupXpRoutes(router *gin.Engine, handler *handlers.XpHandler, jwtSecret string) {
	xp := router.Group("/api/xp")
	xp.Use(middleware.NewAuthMiddleware(jwtSecret))
	{
		xp.POST("", handler.LogXpGain)
		xp.GET("/stats", gzip.Gzip(gzip.DefaultCompression), handler.GetXpStats)
		xp.GET("/activity", handler.GetRecentActivity)
		xp.GET("/activity/today", handler.GetTodayActivity)
	}
}
