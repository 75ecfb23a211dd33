package middleware

import (
	"net/http"
	"strings"

	"offline-gateway/internal/auth"

	"github.com/gin-gonic/gin"
)

// ClientIDKey is the gin context key holding the authenticated surface id.
const ClientIDKey = "client_id"

// TokenValidator validates surface tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWTAuthMiddleware validates the surface token in the Authorization header
func JWTAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		// Fallback for WebSocket/browser where custom headers cannot be set: allow token in query param
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			c.Abort()
			return
		}

		claims, err := validator.Validate(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ClientIDKey, claims.ClientID)

		c.Next()
	}
}
