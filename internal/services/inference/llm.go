package inference

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// LLMConfig selects a langchaingo provider.
type LLMConfig struct {
	Provider     string // ollama or openai
	Model        string
	OllamaHost   string
	OpenAIAPIKey string
	SystemPrompt string
}

// LLMService answers through a langchaingo model.
type LLMService struct {
	model        llms.Model
	systemPrompt string
}

// NewLLMService builds the provider named in cfg.
func NewLLMService(cfg *LLMConfig) (*LLMService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case "ollama":
		model, err = ollama.New(
			ollama.WithModel(cfg.Model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai API key is required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.Model),
		)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", cfg.Provider, err)
	}

	return NewLLMServiceWithModel(model, cfg.SystemPrompt), nil
}

// NewLLMServiceWithModel wraps an existing model.
func NewLLMServiceWithModel(model llms.Model, systemPrompt string) *LLMService {
	return &LLMService{model: model, systemPrompt: systemPrompt}
}

// Generate sends the system prompt, the history and the new turn.
func (s *LLMService) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	systemPrompt := s.systemPrompt
	if req.SystemPrompt != "" {
		systemPrompt = req.SystemPrompt
	}

	messages := make([]llms.MessageContent, 0, len(req.History)+2)
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	for _, entry := range req.History {
		kind := llms.ChatMessageTypeHuman
		if entry.Role == RoleAssistant {
			kind = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(kind, entry.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Text))

	response, err := s.model.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if len(response.Choices) == 0 || response.Choices[0].Content == "" {
		return "", fmt.Errorf("no response choices")
	}
	return response.Choices[0].Content, nil
}
