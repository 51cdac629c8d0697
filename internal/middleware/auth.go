package middleware

import (
	"net/http"
	"strings"

	"github.com/chrism0rs/Taskie/internal/auth"
	"github.com/gin-gonic/gin"
)

const userIDContextKey = "userID"

func UserIDFromContext(c *gin.Context) (int64, bool) {
	userID, ok := c.Get(userIDContextKey)
	if !ok {
		return 0, false
	}
	value, ok := userID.(int64)
	return value, ok && value > 0
}

func RequireAuth(cfg auth.TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			return
		}

		claims, err := auth.VerifyToken(token, cfg)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
			return
		}

		c.Set(userIDContextKey, claims.UserID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
