package middleware

import "github.com/gin-gonic/gin"

// CapabilityHeader carries the visitor's capability token.
const CapabilityHeader = "X-Capability-Token"

const capabilityKey = "capability_token"

// CapabilityToken extracts the visitor's token from the header or the token
// query parameter. Validation is left to the access gate.
func CapabilityToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(CapabilityHeader)
		if token == "" {
			token = c.Query("token")
		}
		c.Set(capabilityKey, token)
		c.Next()
	}
}

// GetCapabilityToken retrieves the visitor's token from the gin context.
func GetCapabilityToken(c *gin.Context) string {
	if token, exists := c.Get(capabilityKey); exists {
		return token.(string)
	}
	return ""
}
