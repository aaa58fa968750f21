// Package conversation owns the per-session message log and everything that
// has to happen atomically with an append: routing, handoff transitions and
// push subscription snapshots.
package conversation

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/unifiedui/handoff-service/internal/core/docdb"
	"github.com/unifiedui/handoff-service/internal/domain/errors"
	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/pkg/metrics"
)

// sessionLog is the in-memory copy of one session's messages. It is only
// touched while the session lock is held.
type sessionLog struct {
	messages []*models.Message
}

func (l *sessionLog) watermark() int64 {
	return models.LastSeq(l.messages)
}

// LogConfig holds the dependencies of a Log.
type LogConfig struct {
	Store     docdb.MessagesCollection
	Hub       *Hub
	CacheSize int
	Metrics   *metrics.Metrics
}

// Log is a write-through cache over the message store. Appends are
// serialised per session, written to the store first and only then made
// visible to readers and subscribers. Messages are immutable once appended.
type Log struct {
	store   docdb.MessagesCollection
	hub     *Hub
	locks   *lockTable
	cache   *lru.Cache[string, *sessionLog]
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewLog creates a new message log.
func NewLog(cfg *LogConfig) (*Log, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, fmt.Errorf("message store is required")
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, *sessionLog](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create log cache: %w", err)
	}
	hub := cfg.Hub
	if hub == nil {
		hub = NewHub(0, cfg.Metrics)
	}
	return &Log{
		store:   cfg.Store,
		hub:     hub,
		locks:   newLockTable(),
		cache:   cache,
		metrics: cfg.Metrics,
		now:     time.Now,
	}, nil
}

// Hub returns the hub the log publishes to.
func (l *Log) Hub() *Hub {
	return l.hub
}

// Tx is the view of one session while its lock is held. It must not be
// used after the callback passed to Session returns.
type Tx struct {
	ctx       context.Context
	log       *Log
	sessionID string
	entry     *sessionLog
}

// Session runs fn with the session lock held.
func (l *Log) Session(ctx context.Context, sessionID string, fn func(tx *Tx) error) error {
	unlock := l.locks.lock(sessionID)
	defer unlock()

	entry, err := l.load(ctx, sessionID)
	if err != nil {
		return err
	}
	return fn(&Tx{ctx: ctx, log: l, sessionID: sessionID, entry: entry})
}

// load returns the cached log, hydrating it from the store on a miss.
// Callers hold the session lock.
func (l *Log) load(ctx context.Context, sessionID string) (*sessionLog, error) {
	if entry, ok := l.cache.Get(sessionID); ok {
		return entry, nil
	}
	messages, err := l.store.ListSince(ctx, sessionID, 0)
	if err != nil {
		return nil, errors.NewInternalError("failed to load session log", err)
	}
	entry := &sessionLog{messages: messages}
	l.cache.Add(sessionID, entry)
	return entry, nil
}

// Append stamps msg with the next seq, persists it and publishes it.
func (l *Log) Append(ctx context.Context, sessionID string, msg *models.Message) (*models.Message, error) {
	var appended *models.Message
	err := l.Session(ctx, sessionID, func(tx *Tx) error {
		var err error
		appended, err = tx.Append(msg)
		return err
	})
	return appended, err
}

// Read returns the messages with seq > since in append order. Any watermark
// may be passed any number of times.
func (l *Log) Read(ctx context.Context, sessionID string, since int64) ([]*models.Message, error) {
	var messages []*models.Message
	err := l.Session(ctx, sessionID, func(tx *Tx) error {
		messages = tx.Since(since)
		return nil
	})
	return messages, err
}

// SessionID returns the session the transaction is bound to.
func (tx *Tx) SessionID() string {
	return tx.sessionID
}

// Append adds msg to the log. The message is visible to readers only after
// the store accepted it.
func (tx *Tx) Append(msg *models.Message) (*models.Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, errors.NewValidationError("invalid message", err.Error())
	}

	seq := tx.entry.watermark() + 1
	msg.Stamp(tx.sessionID, seq, tx.log.now())
	if err := tx.log.store.Append(tx.ctx, msg); err != nil {
		return nil, errors.NewInternalError("failed to append message", err)
	}

	tx.entry.messages = append(tx.entry.messages, msg)
	tx.log.metrics.MessageAppended(string(msg.SenderKind))
	tx.log.hub.publish(tx.sessionID, models.Event{
		Type:      models.EventMessage,
		Message:   msg,
		Watermark: seq,
	})
	return msg, nil
}

// Since returns a copy of the messages with seq > since.
func (tx *Tx) Since(since int64) []*models.Message {
	messages := tx.entry.messages
	start := len(messages)
	for i, msg := range messages {
		if msg.Seq > since {
			start = i
			break
		}
	}
	out := make([]*models.Message, len(messages)-start)
	copy(out, messages[start:])
	return out
}

// Find returns the message with the given id, or nil.
func (tx *Tx) Find(messageID string) *models.Message {
	for _, msg := range tx.entry.messages {
		if msg.ID == messageID {
			return msg
		}
	}
	return nil
}

// Watermark returns the seq of the last appended message.
func (tx *Tx) Watermark() int64 {
	return tx.entry.watermark()
}

// Publish sends a non-message event to the session's subscribers.
func (tx *Tx) Publish(event models.Event) {
	event.Watermark = tx.entry.watermark()
	tx.log.hub.publish(tx.sessionID, event)
}

// Subscribe registers a push subscription whose init event is built from the
// current state. Every later event starts after init's watermark.
func (tx *Tx) Subscribe(status models.HandoffStatus, handoff *models.HandoffRequest) *Subscription {
	return tx.log.hub.subscribe(tx.sessionID, models.Event{
		Type:      models.EventInit,
		Messages:  tx.Since(0),
		Status:    status,
		Handoff:   handoff,
		Watermark: tx.entry.watermark(),
	})
}
