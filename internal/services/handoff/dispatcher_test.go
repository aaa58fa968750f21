package handoff_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/services/handoff"
	"github.com/unifiedui/handoff-service/internal/services/platform"
)

func newRequest() *models.HandoffRequest {
	return &models.HandoffRequest{
		ID:          "h1",
		SessionID:   "s1",
		BotID:       "bot",
		Reason:      "billing question",
		Status:      models.HandoffRequested,
		RequestedAt: time.Now().UTC(),
	}
}

func TestDispatch_HandoffDisabled(t *testing.T) {
	d := handoff.NewDispatcher(handoff.DispatcherConfig{})
	bot := &platform.BotConfig{ID: "bot"}

	err := d.Dispatch(context.Background(), bot, newRequest())

	assert.ErrorIs(t, err, handoff.ErrNoHandler)
}

func TestDispatch_InboxWhenNoWebhook(t *testing.T) {
	d := handoff.NewDispatcher(handoff.DispatcherConfig{})
	bot := &platform.BotConfig{ID: "bot", Handoff: platform.HandoffSettings{Enabled: true}}

	assert.NoError(t, d.Dispatch(context.Background(), bot, newRequest()))
}

func TestDispatch_PostsToBotWebhook(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	d := handoff.NewDispatcher(handoff.DispatcherConfig{DefaultWebhookURL: "http://127.0.0.1:1/unused"})
	bot := &platform.BotConfig{ID: "bot", Name: "Support", Handoff: platform.HandoffSettings{Enabled: true, WebhookURL: server.URL}}

	require.NoError(t, d.Dispatch(context.Background(), bot, newRequest()))
	assert.Equal(t, "handoff.requested", got["event"])
	assert.Equal(t, "h1", got["handoffId"])
	assert.Equal(t, "billing question", got["reason"])
}

func TestDispatch_WebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := handoff.NewDispatcher(handoff.DispatcherConfig{DefaultWebhookURL: server.URL})
	bot := &platform.BotConfig{ID: "bot", Handoff: platform.HandoffSettings{Enabled: true}}

	assert.Error(t, d.Dispatch(context.Background(), bot, newRequest()))
}
