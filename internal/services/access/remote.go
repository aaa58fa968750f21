package access

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiBasePath is the prefix of the service's HTTP API.
const apiBasePath = "/api/v1/handoff-service"

// RemoteGateConfig holds the configuration of a RemoteGate.
type RemoteGateConfig struct {
	BaseURL string
	// AgentKey authorizes Revoke. Verify and CheckAccess do not need it.
	AgentKey   string
	HTTPClient *http.Client
}

// RemoteGate talks to the access endpoints of a running service.
type RemoteGate struct {
	baseURL    string
	agentKey   string
	httpClient *http.Client
}

var (
	_ Checker = (*RemoteGate)(nil)
	_ Revoker = (*RemoteGate)(nil)
)

// NewRemoteGate creates a client for the service at cfg.BaseURL.
func NewRemoteGate(cfg *RemoteGateConfig) (*RemoteGate, error) {
	if cfg == nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &RemoteGate{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + apiBasePath,
		agentKey:   cfg.AgentKey,
		httpClient: httpClient,
	}, nil
}

// Verify posts the candidate password.
func (g *RemoteGate) Verify(ctx context.Context, botID, candidate string) (*VerifyResult, error) {
	body, err := json.Marshal(map[string]string{"password": candidate})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	var result VerifyResult
	if err := g.do(ctx, http.MethodPost, botID, bytes.NewReader(body), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckAccess re-validates a cached token.
func (g *RemoteGate) CheckAccess(ctx context.Context, botID, token string) (bool, error) {
	var result struct {
		Granted bool `json:"granted"`
	}
	header := http.Header{"X-Capability-Token": []string{token}}
	if err := g.do(ctx, http.MethodGet, botID, nil, header, &result); err != nil {
		return false, err
	}
	return result.Granted, nil
}

// Revoke drops every token issued for botID. It needs an agent key.
func (g *RemoteGate) Revoke(ctx context.Context, botID string) (int64, error) {
	if g.agentKey == "" {
		return 0, fmt.Errorf("agent key is required to revoke tokens")
	}
	var result struct {
		Revoked int64 `json:"revoked"`
	}
	header := http.Header{"Authorization": []string{"Bearer " + g.agentKey}}
	if err := g.do(ctx, http.MethodDelete, botID, nil, header, &result); err != nil {
		return 0, err
	}
	return result.Revoked, nil
}

func (g *RemoteGate) do(ctx context.Context, method, botID string, body io.Reader, header http.Header, out interface{}) error {
	endpoint := g.baseURL + "/bots/" + url.PathEscape(botID) + "/access"
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("access request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("access request returned %d: %s (%s)", resp.StatusCode, apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("access request returned %d", resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
