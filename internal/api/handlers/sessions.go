package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unifiedui/handoff-service/internal/api/dto"
	"github.com/unifiedui/handoff-service/internal/api/middleware"
	"github.com/unifiedui/handoff-service/internal/domain/errors"
	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/services/conversation"
)

// SessionsHandler handles the visitor-facing conversation endpoints.
type SessionsHandler struct {
	engine *conversation.Engine
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(engine *conversation.Engine) *SessionsHandler {
	return &SessionsHandler{
		engine: engine,
	}
}

// SendMessage handles POST /bots/{botId}/sessions/messages
// @Summary Send a visitor message
// @Description Appends a visitor turn and routes it to the bot or the human handoff. An empty or unknown sessionId starts a fresh session.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param botId path string true "Bot ID"
// @Param X-Capability-Token header string false "Capability token"
// @Param request body dto.SendMessageRequest true "Visitor message"
// @Success 200 {object} dto.SendMessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/handoff-service/bots/{botId}/sessions/messages [post]
func (h *SessionsHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.engine.SendVisitorMessage(c.Request.Context(), &conversation.SendInput{
		BotID:     c.Param("botId"),
		SessionID: req.SessionID,
		Token:     middleware.GetCapabilityToken(c),
		Text:      req.Text,
		Language:  req.Language,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SendMessageResponse{
		SessionID:         result.Session.ID,
		Restarted:         result.Restarted,
		Route:             string(result.Route),
		Messages:          result.Messages,
		Triggers:          result.Triggers,
		LeadFormTriggered: result.LeadFormTriggered,
		Watermark:         result.Watermark,
	})
}

// Poll handles GET /sessions/{sessionId}/messages
// @Summary Poll for new messages
// @Description Returns messages with seq greater than since, the handoff status and the trigger state
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param since query int false "Last seen seq" default(0) minimum(0)
// @Param X-Capability-Token header string false "Capability token"
// @Success 200 {object} dto.PollResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/handoff-service/sessions/{sessionId}/messages [get]
func (h *SessionsHandler) Poll(c *gin.Context) {
	var query dto.PollQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return
	}

	result, err := h.engine.Poll(c.Request.Context(), &conversation.PollInput{
		SessionID: c.Param("sessionId"),
		Token:     middleware.GetCapabilityToken(c),
		Since:     query.Since,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	messages := result.Messages
	if messages == nil {
		messages = []*models.Message{}
	}
	c.JSON(http.StatusOK, dto.PollResponse{
		SessionID:       result.Session.ID,
		Messages:        messages,
		Status:          result.Status,
		Handoff:         result.Handoff,
		Triggers:        result.Triggers,
		PendingFeedback: result.PendingFeedback,
		Language:        result.Session.Language,
		Watermark:       result.Watermark,
	})
}

// RequestHandoff handles POST /sessions/{sessionId}/handoff
// @Summary Request a human agent
// @Description Moves the session to requested and notifies the agents. A failed dispatch returns accepted=false and leaves the state unchanged.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param X-Capability-Token header string false "Capability token"
// @Param request body dto.RequestHandoffRequest false "Reason"
// @Success 200 {object} dto.HandoffResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/handoff-service/sessions/{sessionId}/handoff [post]
func (h *SessionsHandler) RequestHandoff(c *gin.Context) {
	var req dto.RequestHandoffRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
			return
		}
	}

	result, err := h.engine.RequestHandoff(c.Request.Context(), &conversation.HandoffInput{
		SessionID: c.Param("sessionId"),
		Token:     middleware.GetCapabilityToken(c),
		Reason:    req.Reason,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.HandoffResponse{
		Accepted: result.Accepted,
		Repeated: result.Repeated,
		Status:   result.Status,
		Handoff:  result.Handoff,
		Message:  result.Message,
	})
}

// SubmitFeedback handles POST /sessions/{sessionId}/feedback
// @Summary Rate a bot message
// @Description Stores a thumbs up or down for a bot message. Rating the same message twice keeps the first rating.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param X-Capability-Token header string false "Capability token"
// @Param request body dto.SubmitFeedbackRequest true "Rating"
// @Success 200 {object} dto.FeedbackResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/handoff-service/sessions/{sessionId}/feedback [post]
func (h *SessionsHandler) SubmitFeedback(c *gin.Context) {
	var req dto.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.engine.SubmitFeedback(c.Request.Context(), &conversation.FeedbackInput{
		SessionID: c.Param("sessionId"),
		Token:     middleware.GetCapabilityToken(c),
		MessageID: req.MessageID,
		Kind:      models.FeedbackKind(req.Kind),
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FeedbackResponse{
		Feedback:     result.Feedback,
		AlreadyGiven: result.AlreadyGiven,
	})
}

// SubmitLead handles POST /sessions/{sessionId}/lead
// @Summary Submit the lead form
// @Description Stores the contact fields once per session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param X-Capability-Token header string false "Capability token"
// @Param request body dto.SubmitLeadRequest true "Lead fields"
// @Success 200 {object} dto.LeadResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/handoff-service/sessions/{sessionId}/lead [post]
func (h *SessionsHandler) SubmitLead(c *gin.Context) {
	var req dto.SubmitLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.engine.SubmitLead(c.Request.Context(), &conversation.LeadInput{
		SessionID: c.Param("sessionId"),
		Token:     middleware.GetCapabilityToken(c),
		Fields:    req.Fields,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LeadResponse{
		Lead:             result.Lead,
		AlreadySubmitted: result.AlreadySubmitted,
		Triggers:         result.Triggers,
	})
}

// RequestLeadForm handles POST /sessions/{sessionId}/lead/request
// @Summary Request the lead form
// @Description Surfaces the lead form for bots with a manual trigger
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param X-Capability-Token header string false "Capability token"
// @Success 200 {object} dto.TriggerResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/handoff-service/sessions/{sessionId}/lead/request [post]
func (h *SessionsHandler) RequestLeadForm(c *gin.Context) {
	result, err := h.engine.RequestLeadForm(c.Request.Context(), c.Param("sessionId"), middleware.GetCapabilityToken(c))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TriggerResponse{
		Triggers:          result.Triggers,
		LeadFormTriggered: result.LeadFormTriggered,
	})
}

// SetLanguage handles PUT /sessions/{sessionId}/language
// @Summary Switch the session language
// @Description Stores the session language. The message log is not touched.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param X-Capability-Token header string false "Capability token"
// @Param request body dto.SetLanguageRequest true "Language code"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/handoff-service/sessions/{sessionId}/language [put]
func (h *SessionsHandler) SetLanguage(c *gin.Context) {
	var req dto.SetLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	session, err := h.engine.SetLanguage(c.Request.Context(), c.Param("sessionId"), middleware.GetCapabilityToken(c), req.Language)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SessionResponse{Session: session})
}
