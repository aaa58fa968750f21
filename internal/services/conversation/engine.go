package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/unifiedui/handoff-service/internal/core/docdb"
	"github.com/unifiedui/handoff-service/internal/domain/errors"
	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/pkg/metrics"
	"github.com/unifiedui/handoff-service/internal/services/access"
	"github.com/unifiedui/handoff-service/internal/services/analytics"
	"github.com/unifiedui/handoff-service/internal/services/handoff"
	"github.com/unifiedui/handoff-service/internal/services/inference"
	"github.com/unifiedui/handoff-service/internal/services/platform"
	"github.com/unifiedui/handoff-service/internal/services/translation"
	"github.com/unifiedui/handoff-service/internal/services/triggers"
)

// Route names where a visitor message went.
type Route string

const (
	RouteBot     Route = "bot"
	RouteHandoff Route = "handoff"
)

// Texts of the handoff system messages.
const (
	HandoffRequestedText = "A human agent has been requested."
	HandoffFailedText    = "No human agent is available right now. Please try again later."
	HandoffResolvedText  = "The conversation has been resolved."
)

// EngineConfig holds the dependencies of the engine.
type EngineConfig struct {
	Store      docdb.Client
	Bots       platform.Client
	Gate       access.Checker
	Inference  inference.Service
	Dispatcher handoff.Dispatcher
	Analytics  analytics.Sink
	Metrics    *metrics.Metrics

	InferenceTimeout time.Duration
	HistoryLimit     int
	SubscriberBuffer int
	LogCacheSize     int
}

// Engine implements the visitor and agent operations of a chat session.
type Engine struct {
	store      docdb.Client
	bots       platform.Client
	gate       access.Checker
	dispatcher handoff.Dispatcher
	analytics  analytics.Sink
	metrics    *metrics.Metrics

	log *Log
	bot *BotChannel
	now func() time.Time
}

// NewEngine creates a new conversation engine.
func NewEngine(cfg *EngineConfig) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("conversation store is required")
	}
	if cfg.Bots == nil {
		return nil, fmt.Errorf("bot registry is required")
	}
	if cfg.Gate == nil {
		return nil, fmt.Errorf("access gate is required")
	}
	if cfg.Inference == nil {
		return nil, fmt.Errorf("inference service is required")
	}
	if cfg.Dispatcher == nil {
		return nil, fmt.Errorf("handoff dispatcher is required")
	}

	sink := cfg.Analytics
	if sink == nil {
		sink = analytics.NopSink{}
	}

	messageLog, err := NewLog(&LogConfig{
		Store:     cfg.Store.Messages(),
		Hub:       NewHub(cfg.SubscriberBuffer, cfg.Metrics),
		CacheSize: cfg.LogCacheSize,
		Metrics:   cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		store:      cfg.Store,
		bots:       cfg.Bots,
		gate:       cfg.Gate,
		dispatcher: cfg.Dispatcher,
		analytics:  sink,
		metrics:    cfg.Metrics,
		log:        messageLog,
		bot: NewBotChannel(&BotChannelConfig{
			Log:          messageLog,
			Sessions:     cfg.Store.Sessions(),
			Inference:    cfg.Inference,
			Timeout:      cfg.InferenceTimeout,
			HistoryLimit: cfg.HistoryLimit,
			Analytics:    sink,
			Metrics:      cfg.Metrics,
		}),
		now: time.Now,
	}, nil
}

// Log returns the engine's message log.
func (e *Engine) Log() *Log {
	return e.log
}

// SendInput is a visitor turn.
type SendInput struct {
	BotID     string
	SessionID string
	Token     string
	Text      string
	Language  string
}

// SendResult is the outcome of a visitor turn. Messages holds everything
// appended by the call in log order.
type SendResult struct {
	Session           *models.Session
	Restarted         bool
	Route             Route
	Messages          []*models.Message
	Triggers          triggers.State
	LeadFormTriggered bool
	Watermark         int64
}

// SendVisitorMessage appends a visitor turn and routes it. The routing
// decision and the append see the same handoff status. Bot-routed turns wait
// for the reply; handoff-routed turns return once the agents were notified.
// An unknown session id starts a fresh session.
func (e *Engine) SendVisitorMessage(ctx context.Context, in *SendInput) (*SendResult, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, errors.NewValidationError("message text is required", "")
	}

	bot, err := e.bots.GetBot(ctx, in.BotID)
	if err != nil {
		return nil, err
	}
	accessState, err := e.authorizeBot(ctx, bot, in.Token)
	if err != nil {
		return nil, err
	}

	sessionID, restarted, err := e.resolveSessionID(ctx, bot.ID, in.SessionID)
	if err != nil {
		return nil, err
	}

	result := &SendResult{Restarted: restarted}
	var visitor *models.Message

	err = e.log.Session(ctx, sessionID, func(tx *Tx) error {
		session, err := e.store.Sessions().Get(ctx, sessionID)
		if err != nil {
			return errors.NewInternalError("failed to load session", err)
		}
		isNew := session == nil
		if isNew {
			language := in.Language
			if language == "" {
				language = bot.DefaultLanguage
			}
			session = models.NewSession(sessionID, bot.ID, accessState, language)
			if err := e.store.Sessions().Create(ctx, session); err != nil {
				return errors.NewInternalError("failed to create session", err)
			}
			e.analytics.Record(analytics.EventSessionStarted, map[string]string{"bot_id": bot.ID, "session_id": sessionID})
		}

		before := triggers.Evaluate(session, bot)

		visitor, err = tx.Append(models.NewVisitorMessage(text))
		if err != nil {
			return err
		}

		if session.HandoffStatus.IsOpen() {
			result.Route = RouteHandoff
		} else {
			result.Route = RouteBot
		}

		session.MessageCount++
		session.Touch()
		if err := e.store.Sessions().Update(ctx, session); err != nil {
			return errors.NewInternalError("failed to update session", err)
		}

		result.Triggers = triggers.Evaluate(session, bot)
		result.LeadFormTriggered = triggers.Crossed(before, result.Triggers)
		result.Session = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Messages = append(result.Messages, visitor)
	e.analytics.Record(analytics.EventMessageSent, map[string]string{
		"bot_id":     bot.ID,
		"session_id": sessionID,
		"route":      string(result.Route),
	})
	if result.LeadFormTriggered {
		e.analytics.Record(analytics.EventLeadFormShown, map[string]string{"bot_id": bot.ID, "session_id": sessionID})
	}

	if result.Route == RouteBot {
		reply, err := e.bot.Send(ctx, result.Session, bot, visitor)
		if err != nil {
			return nil, err
		}
		result.Messages = append(result.Messages, reply)
	}

	result.Watermark = models.LastSeq(result.Messages)
	return result, nil
}

// resolveSessionID returns the session to append to. Empty, unknown and
// foreign session ids get a fresh id; restarted is set for the latter two.
func (e *Engine) resolveSessionID(ctx context.Context, botID, sessionID string) (string, bool, error) {
	if sessionID == "" {
		return uuid.New().String(), false, nil
	}
	session, err := e.store.Sessions().Get(ctx, sessionID)
	if err != nil {
		return "", false, errors.NewInternalError("failed to load session", err)
	}
	if session == nil || session.BotID != botID {
		log.Info().
			Str("session_id", sessionID).
			Str("bot_id", botID).
			Msg("stale session id, starting a fresh session")
		return uuid.New().String(), true, nil
	}
	return sessionID, false, nil
}

// PollInput asks for the messages after a watermark.
type PollInput struct {
	SessionID string
	Token     string
	Since     int64
}

// PollResult holds the messages newer than the watermark and the current
// session state.
type PollResult struct {
	Session         *models.Session
	Messages        []*models.Message
	Status          models.HandoffStatus
	Handoff         *models.HandoffRequest
	Triggers        triggers.State
	PendingFeedback []string
	Watermark       int64
}

// Poll returns the messages with seq > since. An empty result is not an
// error.
func (e *Engine) Poll(ctx context.Context, in *PollInput) (*PollResult, error) {
	if in.Since < 0 {
		return nil, errors.NewValidationError("since must not be negative", fmt.Sprintf("%d", in.Since))
	}
	e.metrics.Poll()

	session, bot, err := e.authorizeSession(ctx, in.SessionID, in.Token)
	if err != nil {
		return nil, err
	}

	rated, err := e.store.Feedback().ListBySession(ctx, session.ID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load feedback", err)
	}

	result := &PollResult{}
	err = e.log.Session(ctx, session.ID, func(tx *Tx) error {
		current, err := e.mustSession(ctx, session.ID)
		if err != nil {
			return err
		}
		result.Session = current
		result.Messages = tx.Since(in.Since)
		result.Status = current.HandoffStatus
		result.Triggers = triggers.Evaluate(current, bot)
		result.PendingFeedback = triggers.PendingFeedback(tx.Since(0), rated)
		result.Watermark = tx.Watermark()

		if current.CurrentHandoffID != "" {
			h, err := e.store.Handoffs().Get(ctx, current.CurrentHandoffID)
			if err != nil {
				return errors.NewInternalError("failed to load handoff", err)
			}
			result.Handoff = h
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HandoffInput is a visitor's request for a human.
type HandoffInput struct {
	SessionID string
	Token     string
	Reason    string
}

// HandoffResult is the outcome of a handoff operation. Accepted is false when
// the request could not be dispatched; Message then holds the appended
// handoff_failed notice.
type HandoffResult struct {
	Accepted bool
	Repeated bool
	Status   models.HandoffStatus
	Handoff  *models.HandoffRequest
	Message  *models.Message
}

// RequestHandoff moves the session to requested and notifies the human
// queue. Asking again while a request is open returns that request.
func (e *Engine) RequestHandoff(ctx context.Context, in *HandoffInput) (*HandoffResult, error) {
	session, bot, err := e.authorizeSession(ctx, in.SessionID, in.Token)
	if err != nil {
		return nil, err
	}

	result := &HandoffResult{}
	err = e.log.Session(ctx, session.ID, func(tx *Tx) error {
		session, err := e.mustSession(ctx, session.ID)
		if err != nil {
			return err
		}

		t, err := handoff.Apply(session.HandoffStatus, handoff.EventRequest)
		if err != nil {
			return err
		}
		if t.Outcome == handoff.Repeat {
			h, err := e.store.Handoffs().Get(ctx, session.CurrentHandoffID)
			if err != nil {
				return errors.NewInternalError("failed to load handoff", err)
			}
			result.Accepted = true
			result.Repeated = true
			result.Status = session.HandoffStatus
			result.Handoff = h
			return nil
		}

		req := &models.HandoffRequest{
			ID:          uuid.New().String(),
			SessionID:   session.ID,
			BotID:       bot.ID,
			Reason:      strings.TrimSpace(in.Reason),
			Status:      models.HandoffRequested,
			RequestedAt: e.now().UTC(),
		}

		// Persist first so agents are never notified of a request that
		// does not exist.
		if err := e.store.Handoffs().Create(ctx, req); err != nil {
			return errors.NewInternalError("failed to create handoff", err)
		}

		if err := e.dispatcher.Dispatch(ctx, bot, req); err != nil {
			log.Warn().
				Err(err).
				Str("session_id", session.ID).
				Str("bot_id", bot.ID).
				Str("handoff_id", req.ID).
				Msg("handoff dispatch failed")
			if delErr := e.store.Handoffs().Delete(ctx, req.ID); delErr != nil {
				return errors.NewInternalError("failed to discard undelivered handoff", delErr)
			}
			msg, appendErr := tx.Append(models.NewSystemMessage(models.SystemHandoffFailed, HandoffFailedText))
			if appendErr != nil {
				return appendErr
			}
			e.analytics.Record(analytics.EventHandoffFailed, map[string]string{"bot_id": bot.ID, "session_id": session.ID})
			result.Status = session.HandoffStatus
			result.Message = msg
			return nil
		}

		session.HandoffStatus = t.To
		session.CurrentHandoffID = req.ID
		session.Touch()
		if err := e.store.Sessions().Update(ctx, session); err != nil {
			return errors.NewInternalError("failed to update session", err)
		}

		msg, err := tx.Append(models.NewSystemMessage(models.SystemHandoffRequested, HandoffRequestedText))
		if err != nil {
			return err
		}
		tx.Publish(statusEvent(t.To, req))
		e.metrics.Transition(string(t.From), string(t.To))
		e.analytics.Record(analytics.EventHandoffRequested, map[string]string{
			"bot_id":     bot.ID,
			"session_id": session.ID,
			"handoff_id": req.ID,
		})

		result.Accepted = true
		result.Status = t.To
		result.Handoff = req
		result.Message = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AttachAgent opens a push subscription for an agent. The first attach of a
// requested handoff moves it to active; the subscriber receives the
// handoff_active message and the status_change right after its init.
// Further connections only subscribe.
func (e *Engine) AttachAgent(ctx context.Context, handoffID, agentName string) (*Subscription, error) {
	if agentName == "" {
		return nil, errors.NewValidationError("agent name is required", "")
	}
	sub, err := e.WatchHandoff(ctx, handoffID)
	if err != nil {
		return nil, err
	}
	if err := e.ActivateHandoff(ctx, handoffID, agentName); err != nil {
		sub.Close()
		return nil, err
	}
	return sub, nil
}

// WatchHandoff subscribes to the handoff's session without changing its
// state. It fails the same way an attach would, so a transport can reject
// the agent before committing to a connection.
func (e *Engine) WatchHandoff(ctx context.Context, handoffID string) (*Subscription, error) {
	req, err := e.mustHandoff(ctx, handoffID)
	if err != nil {
		return nil, err
	}

	var sub *Subscription
	err = e.log.Session(ctx, req.SessionID, func(tx *Tx) error {
		req, err := e.mustHandoff(ctx, handoffID)
		if err != nil {
			return err
		}
		if _, err := handoff.Apply(req.Status, handoff.EventAttach); err != nil {
			return err
		}
		sub = tx.Subscribe(req.Status, copyHandoff(req))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ActivateHandoff moves a requested handoff to active. Activating an active
// handoff is a no-op.
func (e *Engine) ActivateHandoff(ctx context.Context, handoffID, agentName string) error {
	if agentName == "" {
		return errors.NewValidationError("agent name is required", "")
	}
	req, err := e.mustHandoff(ctx, handoffID)
	if err != nil {
		return err
	}

	return e.log.Session(ctx, req.SessionID, func(tx *Tx) error {
		req, err := e.mustHandoff(ctx, handoffID)
		if err != nil {
			return err
		}
		t, err := handoff.Apply(req.Status, handoff.EventAttach)
		if err != nil {
			return err
		}
		if t.Outcome == handoff.Repeat {
			return nil
		}

		if err := e.transition(ctx, tx, req, t, func() {
			req.Activate(agentName, e.now())
		}, models.NewSystemMessage(models.SystemHandoffActive, fmt.Sprintf("%s joined the conversation.", agentName))); err != nil {
			return err
		}

		e.analytics.Record(analytics.EventHandoffActivated, map[string]string{
			"bot_id":     req.BotID,
			"session_id": req.SessionID,
			"handoff_id": req.ID,
		})
		log.Info().
			Str("handoff_id", req.ID).
			Str("session_id", req.SessionID).
			Str("agent", agentName).
			Msg("agent attached")
		return nil
	})
}

// SendAgentMessage appends an agent turn to an active handoff.
func (e *Engine) SendAgentMessage(ctx context.Context, handoffID, agentName, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.NewValidationError("message text is required", "")
	}
	if agentName == "" {
		return nil, errors.NewValidationError("agent name is required", "")
	}
	req, err := e.mustHandoff(ctx, handoffID)
	if err != nil {
		return nil, err
	}

	var msg *models.Message
	err = e.log.Session(ctx, req.SessionID, func(tx *Tx) error {
		req, err := e.mustHandoff(ctx, handoffID)
		if err != nil {
			return err
		}
		if req.Status != models.HandoffActive {
			return errors.NewConflictError("handoff is not active", string(req.Status))
		}
		msg, err = tx.Append(models.NewAgentMessage(agentName, text))
		return err
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// ResolveHandoff closes an active handoff. Later visitor messages go to the
// bot again; no new cycle starts by itself.
func (e *Engine) ResolveHandoff(ctx context.Context, handoffID, agentName string) (*models.HandoffRequest, error) {
	req, err := e.mustHandoff(ctx, handoffID)
	if err != nil {
		return nil, err
	}

	var resolved *models.HandoffRequest
	err = e.log.Session(ctx, req.SessionID, func(tx *Tx) error {
		req, err := e.mustHandoff(ctx, handoffID)
		if err != nil {
			return err
		}
		t, err := handoff.Apply(req.Status, handoff.EventResolve)
		if err != nil {
			return err
		}

		if err := e.transition(ctx, tx, req, t, func() {
			req.Resolve(e.now())
		}, models.NewSystemMessage(models.SystemHandoffResolved, HandoffResolvedText)); err != nil {
			return err
		}

		e.analytics.Record(analytics.EventHandoffResolved, map[string]string{
			"bot_id":     req.BotID,
			"session_id": req.SessionID,
			"handoff_id": req.ID,
		})
		log.Info().
			Str("handoff_id", req.ID).
			Str("session_id", req.SessionID).
			Str("agent", agentName).
			Msg("handoff resolved")
		resolved = copyHandoff(req)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

// transition applies an advancing transition to the handoff and its
// session, appends the announcement and broadcasts the status change.
// Callers hold the session lock.
func (e *Engine) transition(ctx context.Context, tx *Tx, req *models.HandoffRequest, t handoff.Transition, mutate func(), announcement *models.Message) error {
	session, err := e.mustSession(ctx, req.SessionID)
	if err != nil {
		return err
	}

	mutate()
	if err := e.store.Handoffs().Update(ctx, req); err != nil {
		return errors.NewInternalError("failed to update handoff", err)
	}
	if session.CurrentHandoffID == req.ID {
		session.HandoffStatus = t.To
		session.Touch()
		if err := e.store.Sessions().Update(ctx, session); err != nil {
			return errors.NewInternalError("failed to update session", err)
		}
	}

	if _, err := tx.Append(announcement); err != nil {
		return err
	}
	tx.Publish(statusEvent(t.To, req))
	e.metrics.Transition(string(t.From), string(t.To))
	return nil
}

// FeedbackInput rates a bot message.
type FeedbackInput struct {
	SessionID string
	Token     string
	MessageID string
	Kind      models.FeedbackKind
}

// FeedbackResult is the stored rating. AlreadyGiven is set when the message
// had been rated before; the earlier rating is kept.
type FeedbackResult struct {
	Feedback     *models.Feedback
	AlreadyGiven bool
}

// SubmitFeedback records a rating for a bot message. Submitting twice is a
// no-op success.
func (e *Engine) SubmitFeedback(ctx context.Context, in *FeedbackInput) (*FeedbackResult, error) {
	if !in.Kind.IsValid() {
		return nil, errors.NewValidationError("invalid feedback kind", string(in.Kind))
	}
	session, bot, err := e.authorizeSession(ctx, in.SessionID, in.Token)
	if err != nil {
		return nil, err
	}

	var target *models.Message
	if err := e.log.Session(ctx, session.ID, func(tx *Tx) error {
		target = tx.Find(in.MessageID)
		return nil
	}); err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errors.NewNotFoundError("message", in.MessageID)
	}
	if !target.IsBot() {
		return nil, errors.NewValidationError("feedback can only be given on bot messages", in.MessageID)
	}

	stored, created, err := e.store.Feedback().Submit(ctx, &models.Feedback{
		SessionID:   session.ID,
		MessageID:   target.ID,
		Kind:        in.Kind,
		SubmittedAt: e.now().UTC(),
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to store feedback", err)
	}
	if created {
		e.analytics.Record(analytics.EventFeedbackSubmitted, map[string]string{
			"bot_id":     bot.ID,
			"session_id": session.ID,
			"kind":       string(in.Kind),
		})
	}
	return &FeedbackResult{Feedback: stored, AlreadyGiven: !created}, nil
}

// LeadInput carries the captured contact fields.
type LeadInput struct {
	SessionID string
	Token     string
	Fields    map[string]string
}

// LeadResult is the stored lead.
type LeadResult struct {
	Lead             *models.Lead
	AlreadySubmitted bool
	Triggers         triggers.State
}

// SubmitLead stores the session's lead and stops the lead form.
func (e *Engine) SubmitLead(ctx context.Context, in *LeadInput) (*LeadResult, error) {
	fields := make(map[string]string, len(in.Fields))
	for k, v := range in.Fields {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return nil, errors.NewValidationError("lead fields are required", "")
	}

	session, bot, err := e.authorizeSession(ctx, in.SessionID, in.Token)
	if err != nil {
		return nil, err
	}

	result := &LeadResult{}
	err = e.log.Session(ctx, session.ID, func(tx *Tx) error {
		session, err := e.mustSession(ctx, session.ID)
		if err != nil {
			return err
		}
		stored, created, err := e.store.Leads().Submit(ctx, &models.Lead{
			BotID:       bot.ID,
			SessionID:   session.ID,
			Fields:      fields,
			SubmittedAt: e.now().UTC(),
		})
		if err != nil {
			return errors.NewInternalError("failed to store lead", err)
		}
		if !session.LeadSubmitted {
			session.LeadSubmitted = true
			session.Touch()
			if err := e.store.Sessions().Update(ctx, session); err != nil {
				return errors.NewInternalError("failed to update session", err)
			}
		}
		if created {
			e.analytics.Record(analytics.EventLeadSubmitted, map[string]string{"bot_id": bot.ID, "session_id": session.ID})
		}
		result.Lead = stored
		result.AlreadySubmitted = !created
		result.Triggers = triggers.Evaluate(session, bot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TriggerResult is the trigger state after a manual action.
type TriggerResult struct {
	Triggers          triggers.State
	LeadFormTriggered bool
}

// RequestLeadForm marks the lead form as requested for bots with a manual
// trigger.
func (e *Engine) RequestLeadForm(ctx context.Context, sessionID, token string) (*TriggerResult, error) {
	session, bot, err := e.authorizeSession(ctx, sessionID, token)
	if err != nil {
		return nil, err
	}

	result := &TriggerResult{}
	err = e.log.Session(ctx, session.ID, func(tx *Tx) error {
		session, err := e.mustSession(ctx, session.ID)
		if err != nil {
			return err
		}
		before := triggers.Evaluate(session, bot)
		if !session.LeadRequested {
			session.LeadRequested = true
			session.Touch()
			if err := e.store.Sessions().Update(ctx, session); err != nil {
				return errors.NewInternalError("failed to update session", err)
			}
		}
		result.Triggers = triggers.Evaluate(session, bot)
		result.LeadFormTriggered = triggers.Crossed(before, result.Triggers)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.LeadFormTriggered {
		e.analytics.Record(analytics.EventLeadFormShown, map[string]string{"bot_id": bot.ID, "session_id": sessionID})
	}
	return result, nil
}

// SetLanguage stores the session's language. The log is not touched.
func (e *Engine) SetLanguage(ctx context.Context, sessionID, token, language string) (*models.Session, error) {
	if !translation.ValidLanguage(language) {
		return nil, errors.NewValidationError("invalid language code", language)
	}
	session, bot, err := e.authorizeSession(ctx, sessionID, token)
	if err != nil {
		return nil, err
	}
	if len(bot.Languages) > 0 && !contains(bot.Languages, language) {
		return nil, errors.NewValidationError("language not supported by bot", language)
	}

	var updated *models.Session
	err = e.log.Session(ctx, session.ID, func(tx *Tx) error {
		session, err := e.mustSession(ctx, session.ID)
		if err != nil {
			return err
		}
		session.Language = language
		session.Touch()
		if err := e.store.Sessions().Update(ctx, session); err != nil {
			return errors.NewInternalError("failed to update session", err)
		}
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.analytics.Record(analytics.EventLanguageChanged, map[string]string{
		"bot_id":     bot.ID,
		"session_id": session.ID,
		"language":   language,
	})
	return updated, nil
}

// ListHandoffs returns handoff requests for the agent inbox.
func (e *Engine) ListHandoffs(ctx context.Context, opts *docdb.ListHandoffsOptions) ([]*models.HandoffRequest, error) {
	handoffs, err := e.store.Handoffs().List(ctx, opts)
	if err != nil {
		return nil, errors.NewInternalError("failed to list handoffs", err)
	}
	return handoffs, nil
}

// GetHandoff returns one handoff request.
func (e *Engine) GetHandoff(ctx context.Context, handoffID string) (*models.HandoffRequest, error) {
	return e.mustHandoff(ctx, handoffID)
}

// GetBot returns the public policy of a bot.
func (e *Engine) GetBot(ctx context.Context, botID string) (*platform.BotConfig, error) {
	return e.bots.GetBot(ctx, botID)
}

// authorizeBot checks the capability token against the bot's policy.
func (e *Engine) authorizeBot(ctx context.Context, bot *platform.BotConfig, token string) (models.AccessState, error) {
	if !bot.RequiresPassword() {
		return models.AccessOpen, nil
	}
	ok, err := e.gate.CheckAccess(ctx, bot.ID, token)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.NewAccessDeniedError(bot.ID)
	}
	return models.AccessGranted, nil
}

// authorizeSession loads an existing session and checks the token against
// its bot.
func (e *Engine) authorizeSession(ctx context.Context, sessionID, token string) (*models.Session, *platform.BotConfig, error) {
	session, err := e.mustSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	bot, err := e.bots.GetBot(ctx, session.BotID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := e.authorizeBot(ctx, bot, token); err != nil {
		return nil, nil, err
	}
	return session, bot, nil
}

func (e *Engine) mustSession(ctx context.Context, sessionID string) (*models.Session, error) {
	if sessionID == "" {
		return nil, errors.NewSessionNotFoundError(sessionID)
	}
	session, err := e.store.Sessions().Get(ctx, sessionID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load session", err)
	}
	if session == nil {
		return nil, errors.NewSessionNotFoundError(sessionID)
	}
	return session, nil
}

func (e *Engine) mustHandoff(ctx context.Context, handoffID string) (*models.HandoffRequest, error) {
	req, err := e.store.Handoffs().Get(ctx, handoffID)
	if err != nil {
		return nil, errors.NewInternalError("failed to load handoff", err)
	}
	if req == nil {
		return nil, errors.NewNotFoundError("handoff", handoffID)
	}
	return req, nil
}

func statusEvent(status models.HandoffStatus, req *models.HandoffRequest) models.Event {
	return models.Event{
		Type:    models.EventStatusChange,
		Status:  status,
		Handoff: copyHandoff(req),
	}
}

// copyHandoff detaches events from later mutations of req.
func copyHandoff(req *models.HandoffRequest) *models.HandoffRequest {
	if req == nil {
		return nil
	}
	c := *req
	return &c
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
