package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/unifiedui/handoff-service/internal/domain/errors"
)

const agentNameKey = "agent_name"

// AuthMiddleware authenticates human agents by API key.
type AuthMiddleware struct {
	// keys maps an API key to the agent name.
	keys map[string]string
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(keys map[string]string) *AuthMiddleware {
	return &AuthMiddleware{keys: keys}
}

// Authenticate returns a gin middleware that validates the Bearer agent key.
// Browsers cannot set headers on WebSocket upgrades, so the access_token
// query parameter is accepted as well.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c)
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization")
			return
		}

		name, ok := m.lookup(token)
		if !ok {
			abortUnauthorized(c, "invalid agent key")
			return
		}

		c.Set(agentNameKey, name)
		c.Next()
	}
}

func extractToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("access_token")
		return token, token != ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// lookup compares against every key so timing does not reveal a prefix.
func (m *AuthMiddleware) lookup(token string) (string, bool) {
	name, found := "", false
	for key, agent := range m.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1 {
			name, found = agent, true
		}
	}
	return name, found
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Code:    domainerrors.ErrCodeUnauthorized,
		Message: message,
	})
}

// GetAgentName retrieves the authenticated agent from the gin context.
func GetAgentName(c *gin.Context) string {
	if name, exists := c.Get(agentNameKey); exists {
		return name.(string)
	}
	return ""
}
