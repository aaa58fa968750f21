// Package inference produces bot replies. Backends are selected by
// configuration: an HTTP webhook, an LLM through langchaingo or a local echo.
package inference

import "context"

// Type selects the inference backend.
type Type string

const (
	TypeWebhook Type = "webhook"
	TypeLLM     Type = "llm"
	TypeEcho    Type = "echo"
)

// Role is the speaker of a history entry as seen by the model.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// HistoryEntry is one prior turn passed to the model.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest carries one visitor turn and its context.
type GenerateRequest struct {
	BotID     string
	SessionID string
	Text      string
	History   []HistoryEntry
	Language  string

	// SystemPrompt and WebhookURL are per-bot overrides.
	SystemPrompt string
	WebhookURL   string
}

// Service generates a reply for a visitor turn.
type Service interface {
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}
