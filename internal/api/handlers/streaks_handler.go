package handlers

import (
	"net/http"
	"strconv"

	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/dto"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/middleware"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/domain/streaks"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StreaksHandler struct {
	service         streaks.Service
	leaderboardSize int
	logger          *zap.Logger
}

func NewStreaksHandler(service streaks.Service, leaderboardSize int, logger *zap.Logger) *StreaksHandler {
	if leaderboardSize <= 0 {
		leaderboardSize = 10
	}
	return &StreaksHandler{
		service:         service,
		leaderboardSize: leaderboardSize,
		logger:          logger,
	}
}

// ClaimDaily attempts the caller's daily streak claim. A same-day repeat
// claim is a business outcome (success=false with a reason), not an error.
func (h *StreaksHandler) ClaimDaily(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	result, err := h.service.Claim(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to claim daily reward",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim daily reward"})
		return
	}

	c.JSON(http.StatusOK, dto.ClaimStreakResponse{
		Success:   result.Success,
		XpAwarded: result.XpAwarded,
		NewStreak: result.NewStreak,
		StreakDay: result.StreakDay,
		Reason:    result.Reason,
	})
}

// GetStreak returns the caller's streak status.
func (h *StreaksHandler) GetStreak(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	status, err := h.service.GetStreak(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load streak status",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load streak"})
		return
	}

	c.JSON(http.StatusOK, dto.StreakStatusResponse{
		CurrentStreak:      status.CurrentStreak,
		LongestStreak:      status.LongestStreak,
		LastClaimDate:      status.LastClaimDate,
		CanClaimToday:      status.CanClaimToday,
		TotalXpFromStreaks: status.TotalXpFromStreaks,
	})
}

// GetLeaderboard returns the longest-streak leaderboard.
func (h *StreaksHandler) GetLeaderboard(c *gin.Context) {
	limit := h.leaderboardSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.service.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load streak leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}

	resp := dto.LeaderboardResponse{Entries: make([]dto.LeaderboardEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, dto.LeaderboardEntryResponse{
			Rank:          e.Rank,
			UserID:        e.UserID,
			Username:      e.Username,
			CurrentStreak: e.CurrentStreak,
			LongestStreak: e.LongestStreak,
		})
	}

	c.JSON(http.StatusOK, resp)
}
