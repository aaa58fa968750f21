package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unifiedui/handoff-service/internal/api/dto"
	"github.com/unifiedui/handoff-service/internal/api/middleware"
	"github.com/unifiedui/handoff-service/internal/domain/errors"
	"github.com/unifiedui/handoff-service/internal/services/access"
	"github.com/unifiedui/handoff-service/internal/services/conversation"
)

// AccessHandler handles the bot access gate and the public bot info.
type AccessHandler struct {
	gate    access.Checker
	revoker access.Revoker
	engine  *conversation.Engine
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(gate access.Checker, revoker access.Revoker, engine *conversation.Engine) *AccessHandler {
	return &AccessHandler{
		gate:    gate,
		revoker: revoker,
		engine:  engine,
	}
}

// GetBot handles GET /bots/{botId}
// @Summary Get bot info
// @Description Returns the public policy of a bot, including its welcome message
// @Tags Access
// @Produce json
// @Param botId path string true "Bot ID"
// @Success 200 {object} dto.BotInfoResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/handoff-service/bots/{botId} [get]
func (h *AccessHandler) GetBot(c *gin.Context) {
	bot, err := h.engine.GetBot(c.Request.Context(), c.Param("botId"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBotInfoResponse(bot))
}

// Verify handles POST /bots/{botId}/access
// @Summary Verify a bot password
// @Description Checks the password and issues a capability token. A wrong password is not an HTTP error; the visitor may retry.
// @Tags Access
// @Accept json
// @Produce json
// @Param botId path string true "Bot ID"
// @Param request body dto.VerifyAccessRequest true "Password"
// @Success 200 {object} dto.VerifyAccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/handoff-service/bots/{botId}/access [post]
func (h *AccessHandler) Verify(c *gin.Context) {
	var req dto.VerifyAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.gate.Verify(c.Request.Context(), c.Param("botId"), req.Password)
	if err != nil {
		middleware.HandleError(c, asDomainError(err, "failed to verify access"))
		return
	}

	c.JSON(http.StatusOK, dto.VerifyAccessResponse{
		Granted: result.Granted,
		Token:   result.Token,
		Error:   result.Error,
	})
}

// Check handles GET /bots/{botId}/access
// @Summary Check a capability token
// @Description Re-validates a previously issued token without extending it
// @Tags Access
// @Produce json
// @Param botId path string true "Bot ID"
// @Param X-Capability-Token header string false "Capability token"
// @Success 200 {object} dto.CheckAccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/handoff-service/bots/{botId}/access [get]
func (h *AccessHandler) Check(c *gin.Context) {
	granted, err := h.gate.CheckAccess(c.Request.Context(), c.Param("botId"), middleware.GetCapabilityToken(c))
	if err != nil {
		middleware.HandleError(c, asDomainError(err, "failed to check access"))
		return
	}
	c.JSON(http.StatusOK, dto.CheckAccessResponse{Granted: granted})
}

// Revoke handles DELETE /bots/{botId}/access
// @Summary Revoke capability tokens
// @Description Drops every token issued for the bot, e.g. after its password changed. Visitors must enter the password again.
// @Tags Access
// @Produce json
// @Param botId path string true "Bot ID"
// @Success 200 {object} dto.RevokeAccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/handoff-service/bots/{botId}/access [delete]
func (h *AccessHandler) Revoke(c *gin.Context) {
	bot, err := h.engine.GetBot(c.Request.Context(), c.Param("botId"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}

	n, err := h.revoker.Revoke(c.Request.Context(), bot.ID)
	if err != nil {
		middleware.HandleError(c, asDomainError(err, "failed to revoke access"))
		return
	}
	c.JSON(http.StatusOK, dto.RevokeAccessResponse{Revoked: n})
}

// asDomainError keeps domain errors and wraps anything else as internal.
func asDomainError(err error, message string) error {
	if _, ok := errors.GetDomainError(err); ok {
		return err
	}
	return errors.NewInternalError(message, err)
}
