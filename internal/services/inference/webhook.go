package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookConfig holds the configuration for the webhook backend.
type WebhookConfig struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// WebhookService posts each turn to a chat workflow endpoint.
type WebhookService struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

// webhookRequest is the JSON body sent to the workflow.
type webhookRequest struct {
	ChatInput string         `json:"chatInput"`
	SessionID string         `json:"sessionId"`
	BotID     string         `json:"botId"`
	Language  string         `json:"language,omitempty"`
	History   []HistoryEntry `json:"history,omitempty"`
}

// webhookResponse accepts the field names common chat workflows reply with.
type webhookResponse struct {
	Output string `json:"output"`
	Text   string `json:"text"`
	Reply  string `json:"reply"`
}

// NewWebhookService creates a new webhook backend. Per-bot URLs override
// cfg.URL, so an empty URL is allowed when every bot sets its own.
func NewWebhookService(cfg *WebhookConfig) (*WebhookService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &WebhookService{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// Generate posts the turn and returns the workflow's reply.
func (s *WebhookService) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	url := req.WebhookURL
	if url == "" {
		url = s.url
	}
	if url == "" {
		return "", fmt.Errorf("no inference webhook configured for bot %s", req.BotID)
	}

	body, err := json.Marshal(webhookRequest{
		ChatInput: req.Text,
		SessionID: req.SessionID,
		BotID:     req.BotID,
		Language:  req.Language,
		History:   req.History,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var parsed webhookResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return "", fmt.Errorf("failed to decode response: %w", err)
		}
		for _, candidate := range []string{parsed.Output, parsed.Text, parsed.Reply} {
			if candidate != "" {
				return candidate, nil
			}
		}
		return "", fmt.Errorf("response has no reply text")
	}

	reply := strings.TrimSpace(string(raw))
	if reply == "" {
		return "", fmt.Errorf("empty response")
	}
	return reply, nil
}
