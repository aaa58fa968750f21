// Package models contains domain models for the handoff service.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SenderKind identifies the producer of a message.
type SenderKind string

const (
	// SenderVisitor is a turn typed by the visitor in the widget.
	SenderVisitor SenderKind = "visitor"
	// SenderBot is a reply produced by the inference service.
	SenderBot SenderKind = "bot"
	// SenderAgent is a turn typed by a human agent.
	SenderAgent SenderKind = "agent"
	// SenderSystem is a status announcement or an error notice.
	SenderSystem SenderKind = "system"
)

// IsValid reports whether k is a known sender kind.
func (k SenderKind) IsValid() bool {
	switch k {
	case SenderVisitor, SenderBot, SenderAgent, SenderSystem:
		return true
	}
	return false
}

// SystemKind tags a system message. It is set iff SenderKind is SenderSystem.
type SystemKind string

const (
	SystemHandoffRequested SystemKind = "handoff_requested"
	SystemHandoffActive    SystemKind = "handoff_active"
	SystemHandoffResolved  SystemKind = "handoff_resolved"
	SystemHandoffFailed    SystemKind = "handoff_failed"
	SystemInferenceError   SystemKind = "inference_error"
)

// IsValid reports whether k is a known system kind.
func (k SystemKind) IsValid() bool {
	switch k {
	case SystemHandoffRequested, SystemHandoffActive, SystemHandoffResolved,
		SystemHandoffFailed, SystemInferenceError:
		return true
	}
	return false
}

// IsError reports whether the system message surfaces a failed action.
func (k SystemKind) IsError() bool {
	return k == SystemHandoffFailed || k == SystemInferenceError
}

// Message is one immutable turn in a session's log. Seq is the per-session
// ordering position starting at 1.
type Message struct {
	ID         string     `json:"id" bson:"_id"`
	SessionID  string     `json:"sessionId" bson:"sessionId"`
	Seq        int64      `json:"seq" bson:"seq"`
	SenderKind SenderKind `json:"senderKind" bson:"senderKind"`
	SenderName string     `json:"senderName,omitempty" bson:"senderName,omitempty"`
	SystemKind SystemKind `json:"systemKind,omitempty" bson:"systemKind,omitempty"`
	Content    string     `json:"content" bson:"content"`
	// ReplyTo is the seq of the visitor turn a bot terminal message answers.
	ReplyTo int64 `json:"replyTo,omitempty" bson:"replyTo,omitempty"`
	// Superseded marks a bot reply that landed after a handoff was opened.
	Superseded bool      `json:"superseded,omitempty" bson:"superseded,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}

// NewVisitorMessage creates an unsequenced visitor message.
func NewVisitorMessage(content string) *Message {
	return &Message{SenderKind: SenderVisitor, Content: content}
}

// NewBotMessage creates an unsequenced bot reply.
func NewBotMessage(content string) *Message {
	return &Message{SenderKind: SenderBot, Content: content}
}

// NewAgentMessage creates an unsequenced agent message.
func NewAgentMessage(agentName, content string) *Message {
	return &Message{SenderKind: SenderAgent, SenderName: agentName, Content: content}
}

// NewSystemMessage creates an unsequenced system message of the given kind.
func NewSystemMessage(kind SystemKind, content string) *Message {
	return &Message{SenderKind: SenderSystem, SystemKind: kind, Content: content}
}

// Stamp assigns identity and ordering fields. It is called by the log only.
func (m *Message) Stamp(sessionID string, seq int64, now time.Time) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.SessionID = sessionID
	m.Seq = seq
	m.CreatedAt = now.UTC()
}

// Validate checks the sender/system tagging rules.
func (m *Message) Validate() error {
	if !m.SenderKind.IsValid() {
		return fmt.Errorf("unknown sender kind %q", m.SenderKind)
	}
	if m.SenderKind == SenderAgent && m.SenderName == "" {
		return fmt.Errorf("agent message requires a sender name")
	}
	if m.SenderKind == SenderSystem {
		if !m.SystemKind.IsValid() {
			return fmt.Errorf("unknown system kind %q", m.SystemKind)
		}
	} else if m.SystemKind != "" {
		return fmt.Errorf("system kind set on %s message", m.SenderKind)
	}
	return nil
}

// IsBot reports whether the message was produced by the bot.
func (m *Message) IsBot() bool {
	return m.SenderKind == SenderBot
}

// LastSeq returns the seq of the last message, or 0 for an empty slice.
func LastSeq(messages []*Message) int64 {
	if len(messages) == 0 {
		return 0
	}
	return messages[len(messages)-1].Seq
}
