package platform

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/unifiedui/handoff-service/internal/domain/errors"
)

// Client looks up bot policies.
type Client interface {
	// GetBot returns the policy of a bot or a NOT_FOUND domain error.
	GetBot(ctx context.Context, botID string) (*BotConfig, error)
}

// StaticClient serves a fixed set of bot policies.
type StaticClient struct {
	mu   sync.RWMutex
	bots map[string]*BotConfig
}

var _ Client = (*StaticClient)(nil)

// NewStaticClient creates a registry from the given policies.
func NewStaticClient(bots ...*BotConfig) *StaticClient {
	c := &StaticClient{bots: make(map[string]*BotConfig, len(bots))}
	for _, bot := range bots {
		c.bots[bot.ID] = bot
	}
	return c
}

// LoadFile reads a YAML (or JSON) bot policy file.
func LoadFile(path string) (*StaticClient, error) {
	if path == "" {
		return nil, fmt.Errorf("bot policy path not configured")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bot policy path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read bot policy file: %w", err)
	}

	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse bot policy file: %w", err)
	}

	seen := make(map[string]bool, len(file.Bots))
	for i, bot := range file.Bots {
		if err := validate(bot); err != nil {
			return nil, fmt.Errorf("bot %d: %w", i, err)
		}
		if seen[bot.ID] {
			return nil, fmt.Errorf("duplicate bot id %q", bot.ID)
		}
		seen[bot.ID] = true
	}

	return NewStaticClient(file.Bots...), nil
}

func validate(bot *BotConfig) error {
	if bot == nil || bot.ID == "" {
		return fmt.Errorf("id is required")
	}
	switch bot.LeadTrigger.Type {
	case "":
		bot.LeadTrigger.Type = LeadTriggerManual
	case LeadTriggerManual:
	case LeadTriggerAfterMessages:
		if bot.LeadTrigger.Messages <= 0 {
			return fmt.Errorf("after_messages trigger needs a positive message count")
		}
	default:
		return fmt.Errorf("unknown lead trigger %q", bot.LeadTrigger.Type)
	}
	if bot.Handoff.OfferAfterMessages < 0 {
		return fmt.Errorf("offerAfterMessages must not be negative")
	}
	return nil
}

// GetBot returns the policy for botID.
func (c *StaticClient) GetBot(_ context.Context, botID string) (*BotConfig, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bot, ok := c.bots[botID]
	if !ok {
		return nil, errors.NewNotFoundError("bot", botID)
	}
	return bot, nil
}

// Put adds or replaces a policy.
func (c *StaticClient) Put(bot *BotConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bots[bot.ID] = bot
}
