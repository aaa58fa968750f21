package models

// EventType names a push stream event.
type EventType string

const (
	EventInit         EventType = "init"
	EventMessage      EventType = "message"
	EventStatusChange EventType = "status_change"
	EventKeepalive    EventType = "keepalive"
)

// Event is one frame of the push stream. Init carries the full log, message
// carries one message and status_change carries the new status.
type Event struct {
	Type      EventType       `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Messages  []*Message      `json:"messages,omitempty"`
	Message   *Message        `json:"message,omitempty"`
	Status    HandoffStatus   `json:"status,omitempty"`
	Handoff   *HandoffRequest `json:"handoff,omitempty"`
	Watermark int64           `json:"watermark"`
}
