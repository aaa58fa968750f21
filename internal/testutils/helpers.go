// Package testutils provides test utilities and helpers.
package testutils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/handoff-service/internal/services/platform"
)

// Test bot IDs served by NewTestBots.
const (
	TestBotID       = "support"
	TestManualBotID = "manual"
	TestLockedBotID = "locked"
	TestAgentKey    = "agent-key-123"
	TestAgentName   = "ana"
)

// NewTestBots returns a registry with an open bot, a manual-lead bot and a
// password-protected bot.
func NewTestBots() *platform.StaticClient {
	return platform.NewStaticClient(
		&platform.BotConfig{
			ID:              TestBotID,
			Name:            "Support",
			WelcomeMessage:  "Hi, how can we help?",
			DefaultLanguage: "en",
			Languages:       []string{"en", "de"},
			LeadTrigger:     platform.LeadTrigger{Type: platform.LeadTriggerAfterMessages, Messages: 3},
			Handoff:         platform.HandoffSettings{Enabled: true},
		},
		&platform.BotConfig{
			ID:          TestManualBotID,
			Name:        "Manual",
			LeadTrigger: platform.LeadTrigger{Type: platform.LeadTriggerManual},
		},
		&platform.BotConfig{
			ID:          TestLockedBotID,
			Name:        "Locked",
			SecretHash:  "$2a$04$placeholder",
			LeadTrigger: platform.LeadTrigger{Type: platform.LeadTriggerManual},
		},
	)
}

// SetupTestRouter creates a new Gin router for testing.
func SetupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// PerformRequest performs an HTTP request against a test router.
func PerformRequest(router http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// AgentHeaders returns the Authorization header for TestAgentKey.
func AgentHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + TestAgentKey}
}

// ParseJSONResponse parses a JSON response body.
func ParseJSONResponse(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), v)
	require.NoError(t, err, "failed to parse JSON response")
}

// AssertStatusCode asserts the response status code.
func AssertStatusCode(t *testing.T, expected int, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, expected, w.Code, "unexpected status code: %s", w.Body.String())
}
