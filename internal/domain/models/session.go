package models

import "time"

// AccessState describes how a visitor reached the session.
type AccessState string

const (
	AccessOpen             AccessState = "open"
	AccessPasswordRequired AccessState = "password_required"
	AccessGranted          AccessState = "granted"
)

// HandoffStatus is the session's position in the handoff state machine.
type HandoffStatus string

const (
	HandoffNone      HandoffStatus = "none"
	HandoffRequested HandoffStatus = "requested"
	HandoffActive    HandoffStatus = "active"
	HandoffResolved  HandoffStatus = "resolved"
)

// IsOpen reports whether visitor messages are routed to a human.
func (s HandoffStatus) IsOpen() bool {
	return s == HandoffRequested || s == HandoffActive
}

// Session is one visitor's conversation with one bot.
type Session struct {
	ID               string        `json:"sessionId" bson:"_id"`
	BotID            string        `json:"botId" bson:"botId"`
	AccessState      AccessState   `json:"accessState" bson:"accessState"`
	HandoffStatus    HandoffStatus `json:"handoffStatus" bson:"handoffStatus"`
	CurrentHandoffID string        `json:"currentHandoffId,omitempty" bson:"currentHandoffId,omitempty"`
	MessageCount     int           `json:"messageCount" bson:"messageCount"`
	LeadSubmitted    bool          `json:"leadSubmitted" bson:"leadSubmitted"`
	LeadRequested    bool          `json:"leadRequested" bson:"leadRequested"`
	Language         string        `json:"language,omitempty" bson:"language,omitempty"`
	CreatedAt        time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// NewSession creates a session in the none handoff status.
func NewSession(id, botID string, access AccessState, language string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:            id,
		BotID:         botID,
		AccessState:   access,
		HandoffStatus: HandoffNone,
		Language:      language,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Touch updates the modification time.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
