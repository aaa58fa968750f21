// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const requestIDKey = "request_id"

// credentialParams are query parameters that carry secrets and are never
// logged verbatim.
var credentialParams = []string{"token", "access_token"}

// LoggingMiddleware handles request logging.
type LoggingMiddleware struct {
	logger    zerolog.Logger
	quietPath map[string]bool
}

// NewLoggingMiddleware creates a new LoggingMiddleware on the global logger.
// Requests to quietPaths, like health probes, are logged at debug level.
func NewLoggingMiddleware(quietPaths ...string) *LoggingMiddleware {
	return NewLoggingMiddlewareWithLogger(log.Logger, quietPaths...)
}

// NewLoggingMiddlewareWithLogger creates a new LoggingMiddleware with a custom logger.
func NewLoggingMiddlewareWithLogger(logger zerolog.Logger, quietPaths ...string) *LoggingMiddleware {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}
	return &LoggingMiddleware{logger: logger, quietPath: quiet}
}

// Logger returns a gin middleware that tags the request with an id and logs
// it once it completes. Push streams are logged when they end.
func (m *LoggingMiddleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = m.logger.Error()
		case status >= 400:
			event = m.logger.Warn()
		case m.quietPath[c.Request.URL.Path]:
			event = m.logger.Debug()
		default:
			event = m.logger.Info()
		}

		if c.IsWebsocket() || c.Writer.Header().Get("Content-Type") == "text/event-stream" {
			event = event.Bool("stream", true)
		}
		for _, param := range []string{"botId", "sessionId", "handoffId"} {
			if v := c.Param(param); v != "" {
				event = event.Str(param, v)
			}
		}
		if agent := GetAgentName(c); agent != "" {
			event = event.Str("agent", agent)
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Str("query", redactQuery(c.Request.URL.RawQuery)).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", requestID).
			Int("body_size", c.Writer.Size()).
			Msg("request completed")
	}
}

// redactQuery masks credential parameters in a raw query string.
func redactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparsable]"
	}
	redacted := false
	for _, p := range credentialParams {
		if _, ok := values[p]; ok {
			values.Set(p, "REDACTED")
			redacted = true
		}
	}
	if !redacted {
		return raw
	}
	return values.Encode()
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
