package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/services/platform"
)

// ErrNoHandler is returned when a bot has no way to reach a human.
var ErrNoHandler = errors.New("no handoff handler available")

// Dispatcher notifies the human queue about a new handoff request.
type Dispatcher interface {
	Dispatch(ctx context.Context, bot *platform.BotConfig, req *models.HandoffRequest) error
}

// DispatcherConfig holds the configuration for the default dispatcher.
type DispatcherConfig struct {
	// Timeout bounds one webhook call.
	Timeout time.Duration
	// DefaultWebhookURL is used for bots without their own webhook. Empty
	// means requests wait in the inbox for agents to pick up.
	DefaultWebhookURL string
	HTTPClient        *http.Client
}

// RoutingDispatcher posts to the bot's webhook when one is configured and
// otherwise leaves the request in the inbox listed by GET /handoffs.
type RoutingDispatcher struct {
	defaultURL string
	httpClient *http.Client
}

// NewDispatcher creates a new routing dispatcher.
func NewDispatcher(cfg DispatcherConfig) *RoutingDispatcher {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &RoutingDispatcher{defaultURL: cfg.DefaultWebhookURL, httpClient: httpClient}
}

// webhookPayload is the JSON body posted to handoff webhooks.
type webhookPayload struct {
	Event       string    `json:"event"`
	HandoffID   string    `json:"handoffId"`
	SessionID   string    `json:"sessionId"`
	BotID       string    `json:"botId"`
	BotName     string    `json:"botName,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

// Dispatch notifies the queue. Bots with handoff disabled fail with
// ErrNoHandler.
func (d *RoutingDispatcher) Dispatch(ctx context.Context, bot *platform.BotConfig, req *models.HandoffRequest) error {
	if bot == nil || !bot.Handoff.Enabled {
		return ErrNoHandler
	}

	url := bot.Handoff.WebhookURL
	if url == "" {
		url = d.defaultURL
	}
	if url == "" {
		return nil
	}

	body, err := json.Marshal(webhookPayload{
		Event:       "handoff.requested",
		HandoffID:   req.ID,
		SessionID:   req.SessionID,
		BotID:       req.BotID,
		BotName:     bot.Name,
		Reason:      req.Reason,
		RequestedAt: req.RequestedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal handoff payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("handoff webhook returned status %d", resp.StatusCode)
	}
	return nil
}
