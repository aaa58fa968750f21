// Package platform provides the bot policy registry.
package platform

// LeadTriggerType selects when the lead form is surfaced.
type LeadTriggerType string

const (
	LeadTriggerAfterMessages LeadTriggerType = "after_messages"
	LeadTriggerManual        LeadTriggerType = "manual"
)

// LeadTrigger configures lead capture. Messages is the visitor turn
// threshold for after_messages.
type LeadTrigger struct {
	Type     LeadTriggerType `yaml:"type" json:"type"`
	Messages int             `yaml:"messages,omitempty" json:"messages,omitempty"`
}

// HandoffSettings configures human handoff for a bot.
type HandoffSettings struct {
	Enabled            bool   `yaml:"enabled" json:"enabled"`
	OfferAfterMessages int    `yaml:"offerAfterMessages" json:"offerAfterMessages"`
	WebhookURL         string `yaml:"webhookUrl,omitempty" json:"-"`
}

// InferenceSettings overrides the global inference backend per bot.
type InferenceSettings struct {
	SystemPrompt string `yaml:"systemPrompt,omitempty" json:"-"`
	WebhookURL   string `yaml:"webhookUrl,omitempty" json:"-"`
}

// BotConfig is the sharing and behaviour policy of one bot.
type BotConfig struct {
	ID              string            `yaml:"id" json:"botId"`
	Name            string            `yaml:"name" json:"name"`
	SecretHash      string            `yaml:"secretHash,omitempty" json:"-"`
	WelcomeMessage  string            `yaml:"welcomeMessage,omitempty" json:"welcomeMessage,omitempty"`
	DefaultLanguage string            `yaml:"defaultLanguage,omitempty" json:"defaultLanguage,omitempty"`
	Languages       []string          `yaml:"languages,omitempty" json:"languages,omitempty"`
	LeadTrigger     LeadTrigger       `yaml:"leadTrigger" json:"leadTrigger"`
	Handoff         HandoffSettings   `yaml:"handoff" json:"handoff"`
	Inference       InferenceSettings `yaml:"inference,omitempty" json:"-"`
}

// RequiresPassword reports whether visitors must pass the access gate.
func (b *BotConfig) RequiresPassword() bool {
	return b.SecretHash != ""
}

// policyFile is the on-disk layout of the bot policy file.
type policyFile struct {
	Bots []*BotConfig `yaml:"bots"`
}
