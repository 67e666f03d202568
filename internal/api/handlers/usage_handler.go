package handlers

import (
	"net/http"

	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/dto"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/middleware"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/domain/usage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UsageHandler struct {
	service usage.Service
	logger  *zap.Logger
}

func NewUsageHandler(service usage.Service, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{
		service: service,
		logger:  logger,
	}
}

// CheckRateLimit answers whether the caller may perform an action right now.
// The answer is advisory; a denied caller gets a 200 with allowed=false, not
// a 429, because checking a limit is not the same as hitting one.
func (h *UsageHandler) CheckRateLimit(c *gin.Context) {
	action := c.Query("action")
	identifier := middleware.GetIdentifier(c)

	result, err := h.service.CheckLimit(c.Request.Context(), identifier, action)
	if err != nil {
		h.logger.Error("Failed to check rate limit",
			zap.String("action", action),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check rate limit"})
		return
	}

	if !result.Allowed {
		middleware.ObserveRateLimitRejection(action)
	}

	c.JSON(http.StatusOK, dto.RateLimitResponse{
		Allowed:   result.Allowed,
		Remaining: result.Remaining,
		ResetAt:   result.ResetAt,
		Count:     result.Count,
		Limit:     result.Limit,
	})
}

// TrackUsage records one usage event for the caller's identifier.
func (h *UsageHandler) TrackUsage(c *gin.Context) {
	var req dto.TrackUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userID, _ := middleware.GetUserID(c)
	sessionID, _ := middleware.GetSessionID(c)

	result, err := h.service.Record(c.Request.Context(), usage.RecordInput{
		UserID:    userID,
		SessionID: sessionID,
		Action:    req.Action,
		Metadata:  req.Metadata,
	})
	if err != nil {
		h.logger.Error("Failed to record usage event",
			zap.String("action", req.Action),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record usage"})
		return
	}

	c.JSON(http.StatusOK, dto.TrackUsageResponse{Success: result.Success})
}

// GetUserStats returns the authenticated user's usage aggregates.
func (h *UsageHandler) GetUserStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	stats, err := h.service.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load usage stats",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load usage stats"})
		return
	}

	c.JSON(http.StatusOK, dto.UsageStatsResponse{
		TotalActions:    stats.TotalActions,
		TodayActions:    stats.TodayActions,
		WeekActions:     stats.WeekActions,
		ActionBreakdown: stats.ActionBreakdown,
		FirstAction:     stats.FirstAction,
		LastAction:      stats.LastAction,
	})
}
