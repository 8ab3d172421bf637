package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/peercall/peercall/internal/auth"
)

// Auth resolves the bearer credential via the identity adapter and puts
// the caller's identity on the request context. The token is read from
// the Authorization header, or from the token query parameter for the
// WebSocket endpoint (browsers cannot set headers on WS dials).
func Auth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Msg("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("user_id", int64(claims.UserID))
		c.Set("role", claims.Role)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return c.Query("token")
}
