package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushub/campushub-backend/internal/auth"
	"github.com/campushub/campushub-backend/internal/logging"
)

// RequireUser rejects requests without a valid bearer token.
func RequireUser(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			return
		}

		userID, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				logging.FromContext(c.Request.Context()).Error("token verification failed", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		auth.SetUserID(c, userID)
		c.Next()
	}
}

// OptionalUser sets the user when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalUser(v auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if userID, err := v.Verify(c.Request.Context(), token); err == nil {
				auth.SetUserID(c, userID)
			}
		}
		c.Next()
	}
}

// extractToken extracts the Bearer token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.EqualFold(bearerToken[:7], "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
