package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/moviepick/internal/services"
)

const (
	contextClientID = "client_id"
	contextTier     = "client_tier"
)

// Auth requires a bearer credential: either a JWT issued by the token
// endpoint or a raw API key.
func Auth(authService *services.AuthService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "MISSING_AUTHORIZATION", "Authorization header is required")
			return
		}

		tokenParts := strings.Fields(authHeader)
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
			abortUnauthorized(c, "INVALID_AUTHORIZATION_FORMAT", "Authorization header must be in format 'Bearer <token>'")
			return
		}

		tokenString := tokenParts[1]

		// API keys never contain dots, JWTs always do
		if !strings.Contains(tokenString, ".") {
			tier, err := authService.ValidateAPIKey(tokenString)
			if err != nil {
				logger.WithError(err).Warn("Invalid API key")
				abortUnauthorized(c, "INVALID_API_KEY", "Invalid API key")
				return
			}

			c.Set(contextClientID, "key:"+keyFingerprint(tokenString))
			c.Set(contextTier, tier)
			c.Next()
			return
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			logger.WithError(err).Warn("Invalid JWT token")
			abortUnauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(contextClientID, claims.ClientID)
		c.Set(contextTier, claims.Tier)
		c.Next()
	}
}

// GetClientFromContext returns the authenticated client id and tier, or
// empty strings for unauthenticated requests.
func GetClientFromContext(c *gin.Context) (string, string) {
	return c.GetString(contextClientID), c.GetString(contextTier)
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// keyFingerprint keeps raw keys out of Redis and logs.
func keyFingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}
