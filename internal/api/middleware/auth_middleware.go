package middleware

import (
	"net/http"
	"strings"

	"github.com/Akogare-Cafe/vibebuff-sub007/pkg/logger"
	"github.com/Akogare-Cafe/vibebuff-sub007/pkg/security/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var log = logger.NewLogger()

const (
	bearerSchema = "Bearer "

	// SessionHeader carries a client-generated session id for anonymous
	// callers.
	SessionHeader = "X-Session-ID"
)

// NewAuthMiddleware creates a middleware requiring a valid bearer token.
// Used by the streak and XP routes, which only make sense for a known user.
func NewAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, bearerSchema) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := authHeader[len(bearerSchema):]

		claims, err := auth.ValidateToken(tokenString, jwtSecret)
		if err != nil {
			log.Error("Token validation failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)

		c.Next()
	}
}

// IdentityMiddleware resolves a best-effort identity without requiring one.
// A valid bearer token yields a user id; otherwise the session header, if
// present, yields an anonymous identifier. Fully anonymous requests pass
// through so the rate limiter can fail open.
func IdentityMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, bearerSchema) {
			tokenString := authHeader[len(bearerSchema):]
			if claims, err := auth.ValidateToken(tokenString, jwtSecret); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("email", claims.Email)
			}
		}

		if sessionID := c.GetHeader(SessionHeader); sessionID != "" {
			c.Set("session_id", sessionID)
		}

		c.Next()
	}
}

// GetUserID retrieves the authenticated user's ID from the context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

// GetSessionID retrieves the anonymous session ID from the context
func GetSessionID(c *gin.Context) (string, bool) {
	sessionID, exists := c.Get("session_id")
	if !exists {
		return "", false
	}
	id, ok := sessionID.(string)
	return id, ok && id != ""
}

// GetIdentifier returns the usage-accounting partition key: the user id
// when authenticated, else the session id, else empty.
func GetIdentifier(c *gin.Context) string {
	if userID, ok := GetUserID(c); ok {
		return userID
	}
	if sessionID, ok := GetSessionID(c); ok {
		return sessionID
	}
	return ""
}
