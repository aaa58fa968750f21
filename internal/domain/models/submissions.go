package models

import "time"

// FeedbackKind is a rating for a bot message.
type FeedbackKind string

const (
	FeedbackThumbsUp   FeedbackKind = "thumbs_up"
	FeedbackThumbsDown FeedbackKind = "thumbs_down"
)

// IsValid reports whether k is a known rating.
func (k FeedbackKind) IsValid() bool {
	return k == FeedbackThumbsUp || k == FeedbackThumbsDown
}

// Feedback rates exactly one bot message. At most one exists per message.
type Feedback struct {
	SessionID   string       `json:"sessionId" bson:"sessionId"`
	MessageID   string       `json:"messageId" bson:"messageId"`
	Kind        FeedbackKind `json:"kind" bson:"kind"`
	SubmittedAt time.Time    `json:"submittedAt" bson:"submittedAt"`
}

// Lead holds the contact fields captured for a session. At most one exists
// per session.
type Lead struct {
	BotID       string            `json:"botId" bson:"botId"`
	SessionID   string            `json:"sessionId" bson:"sessionId"`
	Fields      map[string]string `json:"fields" bson:"fields"`
	SubmittedAt time.Time         `json:"submittedAt" bson:"submittedAt"`
}
