package conversation

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unifiedui/handoff-service/internal/core/docdb"
	"github.com/unifiedui/handoff-service/internal/domain/errors"
	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/pkg/metrics"
	"github.com/unifiedui/handoff-service/internal/services/analytics"
	"github.com/unifiedui/handoff-service/internal/services/inference"
	"github.com/unifiedui/handoff-service/internal/services/platform"
)

// InferenceErrorText is the content of the system message appended when the
// bot could not answer.
const InferenceErrorText = "Sorry, I could not answer that. Please try again."

// BotChannelConfig holds the dependencies of a BotChannel.
type BotChannelConfig struct {
	Log       *Log
	Sessions  docdb.SessionsCollection
	Inference inference.Service
	Timeout   time.Duration
	// HistoryLimit caps the prior turns passed to the model.
	HistoryLimit int
	Analytics    analytics.Sink
	Metrics      *metrics.Metrics
}

// BotChannel forwards a visitor turn to the inference service and appends
// exactly one terminal message: the reply or an inference_error notice.
type BotChannel struct {
	log          *Log
	sessions     docdb.SessionsCollection
	inference    inference.Service
	timeout      time.Duration
	historyLimit int
	analytics    analytics.Sink
	metrics      *metrics.Metrics
}

// NewBotChannel creates a new bot reply channel.
func NewBotChannel(cfg *BotChannelConfig) *BotChannel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = 20
	}
	sink := cfg.Analytics
	if sink == nil {
		sink = analytics.NopSink{}
	}
	return &BotChannel{
		log:          cfg.Log,
		sessions:     cfg.Sessions,
		inference:    cfg.Inference,
		timeout:      timeout,
		historyLimit: limit,
		analytics:    sink,
		metrics:      cfg.Metrics,
	}
}

// Send generates the reply to visitor, which must already be in the log.
// The inference call runs outside the session lock. The returned error is
// only set when the terminal message itself could not be appended.
func (c *BotChannel) Send(ctx context.Context, session *models.Session, bot *platform.BotConfig, visitor *models.Message) (*models.Message, error) {
	history, err := c.history(ctx, session.ID, visitor.Seq)
	if err != nil {
		return nil, err
	}

	req := &inference.GenerateRequest{
		BotID:        bot.ID,
		SessionID:    session.ID,
		Text:         visitor.Content,
		History:      history,
		Language:     session.Language,
		SystemPrompt: bot.Inference.SystemPrompt,
		WebhookURL:   bot.Inference.WebhookURL,
	}

	genCtx, cancel := context.WithTimeout(ctx, c.timeout)
	start := time.Now()
	reply, genErr := c.inference.Generate(genCtx, req)
	cancel()
	elapsed := time.Since(start)

	// The terminal message is appended even if the caller went away.
	appendCtx := context.WithoutCancel(ctx)

	if genErr != nil || reply == "" {
		c.metrics.Inference("error", elapsed)
		log.Warn().
			Err(genErr).
			Str("session_id", session.ID).
			Str("bot_id", bot.ID).
			Dur("elapsed", elapsed).
			Msg("inference failed")
		c.analytics.Record(analytics.EventInferenceFailed, map[string]string{"bot_id": bot.ID, "session_id": session.ID})
		return c.appendReply(appendCtx, session.ID, visitor.Seq, models.NewSystemMessage(models.SystemInferenceError, InferenceErrorText))
	}

	c.metrics.Inference("success", elapsed)
	msg, err := c.appendReply(appendCtx, session.ID, visitor.Seq, models.NewBotMessage(reply))
	if err != nil {
		return nil, err
	}
	c.analytics.Record(analytics.EventBotReplied, map[string]string{"bot_id": bot.ID, "session_id": session.ID})
	return msg, nil
}

// appendReply appends the terminal message under the session lock. A handoff
// opened while inference ran is already in the log ahead of the reply, so the
// reply is marked superseded.
func (c *BotChannel) appendReply(ctx context.Context, sessionID string, replyTo int64, msg *models.Message) (*models.Message, error) {
	msg.ReplyTo = replyTo
	var appended *models.Message
	err := c.log.Session(ctx, sessionID, func(tx *Tx) error {
		if c.sessions != nil {
			session, err := c.sessions.Get(ctx, sessionID)
			if err != nil {
				return errors.NewInternalError("failed to load session", err)
			}
			if session != nil && session.HandoffStatus.IsOpen() {
				msg.Superseded = true
				log.Info().
					Str("session_id", sessionID).
					Int64("reply_to", replyTo).
					Msg("bot reply landed after handoff opened")
			}
		}
		var err error
		appended, err = tx.Append(msg)
		return err
	})
	if err != nil {
		return nil, err
	}
	return appended, nil
}

// history returns the visitor, bot and agent turns before seq, oldest first,
// capped at the history limit.
func (c *BotChannel) history(ctx context.Context, sessionID string, before int64) ([]inference.HistoryEntry, error) {
	messages, err := c.log.Read(ctx, sessionID, 0)
	if err != nil {
		return nil, err
	}

	entries := make([]inference.HistoryEntry, 0, len(messages))
	for _, msg := range messages {
		if msg.Seq >= before {
			break
		}
		switch msg.SenderKind {
		case models.SenderVisitor:
			entries = append(entries, inference.HistoryEntry{Role: inference.RoleUser, Content: msg.Content})
		case models.SenderBot, models.SenderAgent:
			entries = append(entries, inference.HistoryEntry{Role: inference.RoleAssistant, Content: msg.Content})
		}
	}
	if len(entries) > c.historyLimit {
		entries = entries[len(entries)-c.historyLimit:]
	}
	return entries, nil
}
