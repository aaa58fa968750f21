package access

import (
	"context"
	"fmt"
)

// PromptFunc asks the visitor for a password. attempt starts at 1 and
// lastError carries the previous rejection. Returning an error aborts Enter.
type PromptFunc func(ctx context.Context, attempt int, lastError string) (string, error)

// Client drives the visitor side of the gate with an explicit token cache.
type Client struct {
	gate  Checker
	cache TokenCache
}

// NewClient creates a gate client.
func NewClient(gate Checker, cache TokenCache) *Client {
	return &Client{gate: gate, cache: cache}
}

// Enter returns a valid token for botID. A cached token is re-checked first
// and only when it is missing or rejected is the visitor prompted, as many
// times as it takes.
func (c *Client) Enter(ctx context.Context, botID string, prompt PromptFunc) (string, error) {
	if token, ok := c.cache.Get(botID); ok {
		granted, err := c.gate.CheckAccess(ctx, botID, token)
		if err != nil {
			return "", err
		}
		if granted {
			return token, nil
		}
		if err := c.cache.Remove(botID); err != nil {
			return "", err
		}
	}

	// Open bots grant the empty candidate without prompting.
	result, err := c.gate.Verify(ctx, botID, "")
	if err != nil {
		return "", err
	}

	lastError := ""
	for attempt := 1; !result.Granted; attempt++ {
		candidate, err := prompt(ctx, attempt, lastError)
		if err != nil {
			return "", fmt.Errorf("password prompt aborted: %w", err)
		}
		if result, err = c.gate.Verify(ctx, botID, candidate); err != nil {
			return "", err
		}
		lastError = result.Error
	}

	if err := c.cache.Put(botID, result.Token); err != nil {
		return "", err
	}
	return result.Token, nil
}
