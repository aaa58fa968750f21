// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// VerifyAccessRequest carries a candidate bot password.
type VerifyAccessRequest struct {
	Password string `json:"password"`
}

// SendMessageRequest is a visitor turn. An empty or unknown sessionId starts
// a fresh session.
type SendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text" binding:"required"`
	Language  string `json:"language,omitempty"`
}

// PollQuery is the poll watermark.
type PollQuery struct {
	Since int64 `form:"since" binding:"omitempty,min=0"`
}

// RequestHandoffRequest asks for a human agent.
type RequestHandoffRequest struct {
	Reason string `json:"reason,omitempty"`
}

// SubmitFeedbackRequest rates a bot message.
type SubmitFeedbackRequest struct {
	MessageID string `json:"messageId" binding:"required"`
	Kind      string `json:"kind" binding:"required,oneof=thumbs_up thumbs_down"`
}

// SubmitLeadRequest carries the lead form fields.
type SubmitLeadRequest struct {
	Fields map[string]string `json:"fields" binding:"required"`
}

// SetLanguageRequest switches the session language.
type SetLanguageRequest struct {
	Language string `json:"language" binding:"required"`
}

// ListHandoffsQuery filters the agent inbox.
type ListHandoffsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=requested active resolved"`
	BotID  string `form:"botId"`
	Limit  int64  `form:"limit" binding:"omitempty,min=1,max=200"`
}

// AgentMessageRequest is an agent turn.
type AgentMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// Agent WebSocket command types.
const (
	CommandMessage = "message"
	CommandResolve = "resolve"
)

// AgentCommand is a frame sent by the agent console over the WebSocket.
type AgentCommand struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}
