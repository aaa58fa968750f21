package inference

import (
	"fmt"
	"net/http"
	"time"
)

// Config selects and configures the backend.
type Config struct {
	Type    Type
	Timeout time.Duration
	Webhook WebhookConfig
	LLM     LLMConfig
}

// NewService creates the configured backend.
func NewService(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	switch cfg.Type {
	case TypeWebhook:
		webhook := cfg.Webhook
		if webhook.HTTPClient == nil && cfg.Timeout > 0 {
			webhook.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		}
		return NewWebhookService(&webhook)
	case TypeLLM:
		return NewLLMService(&cfg.LLM)
	case TypeEcho, "":
		return EchoService{}, nil
	default:
		return nil, fmt.Errorf("unsupported inference type: %s", cfg.Type)
	}
}
