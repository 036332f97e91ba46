package middleware

import (
	"errors"
	"strings"

	"github.com/flowhook/core/internal/pkg/jwt"
	"github.com/flowhook/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const ContextKeyUserID = "user_id"

// Auth returns a middleware that enforces JWT authentication for the
// admin API. The ingest endpoint never goes through this; webhook
// callers authenticate per-config inside the gateway pipeline.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := validateToken(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

func validateToken(rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, errors.New("token is required")
	}
	return jwt.Parse(token)
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
