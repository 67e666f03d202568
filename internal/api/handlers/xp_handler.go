package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/dto"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/api/middleware"
	"github.com/Akogare-Cafe/vibebuff-sub007/internal/domain/progression"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type XpHandler struct {
	service progression.Service
	logger  *zap.Logger
}

func NewXpHandler(service progression.Service, logger *zap.Logger) *XpHandler {
	return &XpHandler{
		service: service,
		logger:  logger,
	}
}

// LogXpGain appends an XP grant to the caller's ledger and returns the
// recomputed profile state.
func (h *XpHandler) LogXpGain(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req dto.LogXpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.service.Grant(c.Request.Context(), progression.GrantInput{
		UserID:      userID,
		Amount:      req.Amount,
		Source:      req.Source,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, progression.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to grant xp",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to grant xp"})
		return
	}

	c.JSON(http.StatusOK, dto.LogXpResponse{
		NewXp:     result.NewXp,
		NewLevel:  result.NewLevel,
		LeveledUp: result.LeveledUp,
		NewTitle:  result.NewTitle,
	})
}

// GetXpStats returns the caller's XP ledger aggregates.
func (h *XpHandler) GetXpStats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	stats, err := h.service.GetXpStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load xp stats",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load xp stats"})
		return
	}

	c.JSON(http.StatusOK, dto.XpStatsResponse{
		TotalXp:       stats.TotalXp,
		TodayXp:       stats.TodayXp,
		WeekXp:        stats.WeekXp,
		ActivityCount: stats.ActivityCount,
		BySource:      stats.BySource,
	})
}

// GetRecentActivity returns the caller's most recent ledger entries.
func (h *XpHandler) GetRecentActivity(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	entries, err := h.service.GetRecentActivity(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.Error("Failed to load xp activity",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load xp activity"})
		return
	}

	c.JSON(http.StatusOK, toActivityResponses(entries))
}

// GetTodayActivity returns the caller's entries since UTC midnight.
func (h *XpHandler) GetTodayActivity(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	activity, err := h.service.GetTodayActivity(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load today's xp activity",
			zap.String("user_id", userID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load xp activity"})
		return
	}

	c.JSON(http.StatusOK, dto.TodayActivityResponse{
		Activities: toActivityResponses(activity.Activities),
		TotalXp:    activity.TotalXp,
		Count:      activity.Count,
	})
}

func toActivityResponses(entries []progression.XpActivityEntry) []dto.XpActivityResponse {
	out := make([]dto.XpActivityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.XpActivityResponse{
			ID:          e.ID.String(),
			Amount:      e.Amount,
			Source:      e.Source,
			Description: e.Description,
			Timestamp:   e.Timestamp,
		})
	}
	return out
}
