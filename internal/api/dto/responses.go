package dto

import (
	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/services/platform"
	"github.com/unifiedui/handoff-service/internal/services/triggers"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

// VerifyAccessResponse is the access gate result.
type VerifyAccessResponse struct {
	Granted bool   `json:"granted"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CheckAccessResponse reports whether a cached token is still valid.
type CheckAccessResponse struct {
	Granted bool `json:"granted"`
}

// RevokeAccessResponse reports how many tokens were dropped.
type RevokeAccessResponse struct {
	Revoked int64 `json:"revoked"`
}

// BotInfoResponse is the public part of a bot policy.
type BotInfoResponse struct {
	BotID            string   `json:"botId"`
	Name             string   `json:"name"`
	WelcomeMessage   string   `json:"welcomeMessage,omitempty"`
	DefaultLanguage  string   `json:"defaultLanguage,omitempty"`
	Languages        []string `json:"languages,omitempty"`
	RequiresPassword bool     `json:"requiresPassword"`
	HandoffEnabled   bool     `json:"handoffEnabled"`
	LeadTrigger      string   `json:"leadTrigger"`
}

// NewBotInfoResponse builds the public view of bot.
func NewBotInfoResponse(bot *platform.BotConfig) *BotInfoResponse {
	return &BotInfoResponse{
		BotID:            bot.ID,
		Name:             bot.Name,
		WelcomeMessage:   bot.WelcomeMessage,
		DefaultLanguage:  bot.DefaultLanguage,
		Languages:        bot.Languages,
		RequiresPassword: bot.RequiresPassword(),
		HandoffEnabled:   bot.Handoff.Enabled,
		LeadTrigger:      string(bot.LeadTrigger.Type),
	}
}

// SendMessageResponse is the result of a visitor turn.
type SendMessageResponse struct {
	SessionID         string            `json:"sessionId"`
	Restarted         bool              `json:"restarted"`
	Route             string            `json:"route"`
	Messages          []*models.Message `json:"messages"`
	Triggers          triggers.State    `json:"triggers"`
	LeadFormTriggered bool              `json:"leadFormTriggered"`
	Watermark         int64             `json:"watermark"`
}

// PollResponse holds the messages after the watermark and the session state.
type PollResponse struct {
	SessionID       string                 `json:"sessionId"`
	Messages        []*models.Message      `json:"messages"`
	Status          models.HandoffStatus   `json:"status"`
	Handoff         *models.HandoffRequest `json:"handoff,omitempty"`
	Triggers        triggers.State         `json:"triggers"`
	PendingFeedback []string               `json:"pendingFeedback"`
	Language        string                 `json:"language,omitempty"`
	Watermark       int64                  `json:"watermark"`
}

// HandoffResponse is the result of a handoff request.
type HandoffResponse struct {
	Accepted bool                   `json:"accepted"`
	Repeated bool                   `json:"repeated,omitempty"`
	Status   models.HandoffStatus   `json:"status"`
	Handoff  *models.HandoffRequest `json:"handoff,omitempty"`
	Message  *models.Message        `json:"message,omitempty"`
}

// FeedbackResponse is the stored rating.
type FeedbackResponse struct {
	Feedback     *models.Feedback `json:"feedback"`
	AlreadyGiven bool             `json:"alreadyGiven"`
}

// LeadResponse is the stored lead.
type LeadResponse struct {
	Lead             *models.Lead   `json:"lead"`
	AlreadySubmitted bool           `json:"alreadySubmitted"`
	Triggers         triggers.State `json:"triggers"`
}

// TriggerResponse is the trigger state after a manual action.
type TriggerResponse struct {
	Triggers          triggers.State `json:"triggers"`
	LeadFormTriggered bool           `json:"leadFormTriggered"`
}

// SessionResponse wraps a session.
type SessionResponse struct {
	Session *models.Session `json:"session"`
}

// DictionaryResponse is a UI dictionary.
type DictionaryResponse struct {
	Language string            `json:"language"`
	Entries  map[string]string `json:"entries"`
}

// ListHandoffsResponse is the agent inbox.
type ListHandoffsResponse struct {
	Handoffs []*models.HandoffRequest `json:"handoffs"`
	Total    int                      `json:"total"`
}

// MessageResponse wraps one message.
type MessageResponse struct {
	Message *models.Message `json:"message"`
}

// HandoffDetailResponse wraps one handoff request.
type HandoffDetailResponse struct {
	Handoff *models.HandoffRequest `json:"handoff"`
}

// ErrorFrame is sent to the agent console when a WebSocket command fails.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
