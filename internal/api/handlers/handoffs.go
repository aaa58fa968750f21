package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/unifiedui/handoff-service/internal/api/dto"
	"github.com/unifiedui/handoff-service/internal/api/middleware"
	"github.com/unifiedui/handoff-service/internal/api/sse"
	"github.com/unifiedui/handoff-service/internal/core/docdb"
	"github.com/unifiedui/handoff-service/internal/domain/errors"
	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/services/conversation"
)

const (
	defaultKeepalive = 15 * time.Second
	wsWriteTimeout   = 10 * time.Second
	defaultListLimit = 50
)

// HandoffsHandlerConfig holds the dependencies of the agent endpoints.
type HandoffsHandlerConfig struct {
	Engine         *conversation.Engine
	Keepalive      time.Duration
	AllowedOrigins []string
}

// HandoffsHandler handles the agent-facing handoff endpoints.
type HandoffsHandler struct {
	engine         *conversation.Engine
	keepalive      time.Duration
	originPatterns []string
}

// NewHandoffsHandler creates a new HandoffsHandler.
func NewHandoffsHandler(cfg *HandoffsHandlerConfig) *HandoffsHandler {
	keepalive := cfg.Keepalive
	if keepalive <= 0 {
		keepalive = defaultKeepalive
	}
	return &HandoffsHandler{
		engine:         cfg.Engine,
		keepalive:      keepalive,
		originPatterns: originPatterns(cfg.AllowedOrigins),
	}
}

// originPatterns turns CORS origins into the host patterns websocket.Accept
// matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if origin == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}
	return patterns
}

// List handles GET /handoffs
// @Summary List handoff requests
// @Description Returns the agent inbox, oldest request first
// @Tags Handoffs
// @Produce json
// @Param status query string false "Status filter" Enums(requested, active, resolved)
// @Param botId query string false "Bot filter"
// @Param limit query int false "Maximum number of requests" default(50) minimum(1) maximum(200)
// @Success 200 {object} dto.ListHandoffsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/handoff-service/handoffs [get]
func (h *HandoffsHandler) List(c *gin.Context) {
	var query dto.ListHandoffsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	if query.Limit == 0 {
		query.Limit = defaultListLimit
	}

	handoffs, err := h.engine.ListHandoffs(c.Request.Context(), &docdb.ListHandoffsOptions{
		Status:  models.HandoffStatus(query.Status),
		BotID:   query.BotID,
		Limit:   query.Limit,
		OrderBy: docdb.SortOrderAsc,
	})
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	if handoffs == nil {
		handoffs = []*models.HandoffRequest{}
	}

	c.JSON(http.StatusOK, dto.ListHandoffsResponse{
		Handoffs: handoffs,
		Total:    len(handoffs),
	})
}

// Get handles GET /handoffs/{handoffId}
// @Summary Get a handoff request
// @Tags Handoffs
// @Produce json
// @Param handoffId path string true "Handoff ID"
// @Success 200 {object} dto.HandoffDetailResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/handoff-service/handoffs/{handoffId} [get]
func (h *HandoffsHandler) Get(c *gin.Context) {
	req, err := h.engine.GetHandoff(c.Request.Context(), c.Param("handoffId"))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.HandoffDetailResponse{Handoff: req})
}

// SendMessage handles POST /handoffs/{handoffId}/messages
// @Summary Send an agent message
// @Description Appends an agent turn to an active handoff
// @Tags Handoffs
// @Accept json
// @Produce json
// @Param handoffId path string true "Handoff ID"
// @Param request body dto.AgentMessageRequest true "Agent message"
// @Success 200 {object} dto.MessageResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/handoff-service/handoffs/{handoffId}/messages [post]
func (h *HandoffsHandler) SendMessage(c *gin.Context) {
	var req dto.AgentMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	msg, err := h.engine.SendAgentMessage(c.Request.Context(), c.Param("handoffId"), middleware.GetAgentName(c), req.Text)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: msg})
}

// Resolve handles POST /handoffs/{handoffId}/resolve
// @Summary Resolve a handoff
// @Description Ends the human cycle; later visitor messages go to the bot again
// @Tags Handoffs
// @Produce json
// @Param handoffId path string true "Handoff ID"
// @Success 200 {object} dto.HandoffDetailResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/handoff-service/handoffs/{handoffId}/resolve [post]
func (h *HandoffsHandler) Resolve(c *gin.Context) {
	req, err := h.engine.ResolveHandoff(c.Request.Context(), c.Param("handoffId"), middleware.GetAgentName(c))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.HandoffDetailResponse{Handoff: req})
}

// Events handles GET /handoffs/{handoffId}/events
// @Summary Attach to a handoff over SSE
// @Description Attaches the agent (activating a requested handoff) and streams the session: init, then message, status_change and keepalive events
// @Tags Handoffs
// @Produce text/event-stream
// @Param handoffId path string true "Handoff ID"
// @Success 200 {string} string "SSE stream"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/handoff-service/handoffs/{handoffId}/events [get]
func (h *HandoffsHandler) Events(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := h.engine.AttachAgent(ctx, c.Param("handoffId"), middleware.GetAgentName(c))
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	defer sub.Close()

	w, err := sse.NewWriter(c.Writer)
	if err != nil {
		middleware.HandleError(c, errors.NewInternalError("streaming not supported", err))
		return
	}
	c.Status(http.StatusOK)

	if err := w.WriteSessionEvent(sub.Init); err != nil {
		return
	}

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.WriteKeepalive(sub.Init.SessionID); err != nil {
				return
			}
		case event, ok := <-sub.Events():
			if !ok {
				if sub.Dropped() {
					_ = w.WriteError(errors.ErrCodeTransportDisconnected, "subscriber fell behind, reconnect to resync", "")
				}
				return
			}
			if err := w.WriteSessionEvent(event); err != nil {
				return
			}
		}
	}
}

// WebSocket handles GET /handoffs/{handoffId}/ws
// @Summary Attach to a handoff over WebSocket
// @Description Same stream as the SSE endpoint; the agent sends {"type":"message","text":...} and {"type":"resolve"} frames back
// @Tags Handoffs
// @Param handoffId path string true "Handoff ID"
// @Param access_token query string false "Agent key for clients that cannot set headers"
// @Success 101 {string} string "Switching protocols"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/handoff-service/handoffs/{handoffId}/ws [get]
func (h *HandoffsHandler) WebSocket(c *gin.Context) {
	handoffID := c.Param("handoffId")
	agent := middleware.GetAgentName(c)

	// Watch before the upgrade so a missing or resolved handoff is a plain
	// HTTP error. Activation waits for the upgrade.
	sub, err := h.engine.WatchHandoff(c.Request.Context(), handoffID)
	if err != nil {
		middleware.HandleError(c, err)
		return
	}
	defer sub.Close()

	conn, err := websocket.Accept(upgradeWriter(c.Writer), c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Warn().Err(err).Str("handoff_id", handoffID).Msg("failed to accept websocket")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if err := h.engine.ActivateHandoff(ctx, handoffID, agent); err != nil {
		log.Warn().Err(err).Str("handoff_id", handoffID).Msg("failed to activate handoff")
		status := websocket.StatusInternalError
		if errors.IsInvalidTransition(err) {
			status = websocket.StatusPolicyViolation
		}
		_ = conn.Close(status, "attach failed")
		return
	}

	go func() {
		defer cancel()
		h.readCommands(ctx, conn, handoffID, agent)
	}()

	status, reason := h.writeEvents(ctx, conn, sub)
	if err := conn.Close(status, reason); err != nil {
		log.Debug().Err(err).Str("handoff_id", handoffID).Msg("websocket close")
	}
}

// upgradeWriter hands the handshake the raw response writer and routes the
// hijack through gin, so gin neither writes a header of its own nor refuses
// the hijack.
func upgradeWriter(w gin.ResponseWriter) http.ResponseWriter {
	raw := http.ResponseWriter(w)
	if u, ok := w.(interface{ Unwrap() http.ResponseWriter }); ok {
		raw = u.Unwrap()
	}
	return struct {
		http.ResponseWriter
		http.Hijacker
	}{raw, w}
}

// writeEvents pumps the subscription to the connection until either side
// ends. It returns the close status to send.
func (h *HandoffsHandler) writeEvents(ctx context.Context, conn *websocket.Conn, sub *conversation.Subscription) (websocket.StatusCode, string) {
	if err := writeFrame(ctx, conn, sub.Init); err != nil {
		return websocket.StatusInternalError, "write failed"
	}

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return websocket.StatusNormalClosure, "session ended"
		case <-ticker.C:
			keepalive := models.Event{Type: models.EventKeepalive, SessionID: sub.Init.SessionID}
			if err := writeFrame(ctx, conn, keepalive); err != nil {
				return websocket.StatusInternalError, "write failed"
			}
		case event, ok := <-sub.Events():
			if !ok {
				if sub.Dropped() {
					return websocket.StatusTryAgainLater, "resync required"
				}
				return websocket.StatusNormalClosure, "session ended"
			}
			if err := writeFrame(ctx, conn, event); err != nil {
				return websocket.StatusInternalError, "write failed"
			}
		}
	}
}

// readCommands applies agent frames until the connection closes.
func (h *HandoffsHandler) readCommands(ctx context.Context, conn *websocket.Conn, handoffID, agent string) {
	for {
		var cmd dto.AgentCommand
		if err := wsjson.Read(ctx, conn, &cmd); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Debug().Err(err).Str("handoff_id", handoffID).Msg("websocket read ended")
			}
			return
		}

		var err error
		switch cmd.Type {
		case dto.CommandMessage:
			_, err = h.engine.SendAgentMessage(ctx, handoffID, agent, cmd.Text)
		case dto.CommandResolve:
			_, err = h.engine.ResolveHandoff(ctx, handoffID, agent)
		default:
			err = errors.NewValidationError("unknown command type", cmd.Type)
		}
		if err == nil {
			continue
		}

		frame := dto.ErrorFrame{Type: sse.EventError, Code: errors.ErrCodeInternal, Message: err.Error()}
		if domainErr, ok := errors.GetDomainError(err); ok {
			frame.Code = domainErr.Code
			frame.Message = domainErr.Message
		}
		if werr := writeFrame(ctx, conn, frame); werr != nil {
			return
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}
