package models

import "time"

// HandoffRequest records one human-assistance cycle of a session. It is
// retained after resolve.
type HandoffRequest struct {
	ID                string        `json:"handoffId" bson:"_id"`
	SessionID         string        `json:"sessionId" bson:"sessionId"`
	BotID             string        `json:"botId" bson:"botId"`
	Reason            string        `json:"reason,omitempty" bson:"reason,omitempty"`
	Status            HandoffStatus `json:"status" bson:"status"`
	AssignedAgentName string        `json:"assignedAgentName,omitempty" bson:"assignedAgentName,omitempty"`
	RequestedAt       time.Time     `json:"requestedAt" bson:"requestedAt"`
	ActivatedAt       *time.Time    `json:"activatedAt,omitempty" bson:"activatedAt,omitempty"`
	ResolvedAt        *time.Time    `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
}

// Activate assigns the agent and moves the request to active.
func (h *HandoffRequest) Activate(agentName string, now time.Time) {
	t := now.UTC()
	h.Status = HandoffActive
	h.AssignedAgentName = agentName
	h.ActivatedAt = &t
}

// Resolve moves the request to resolved.
func (h *HandoffRequest) Resolve(now time.Time) {
	t := now.UTC()
	h.Status = HandoffResolved
	h.ResolvedAt = &t
}
