// Package analytics records fire-and-forget product events. Recording never
// blocks or fails the caller.
package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unifiedui/handoff-service/internal/pkg/metrics"
)

// Event names.
const (
	EventMessageSent       = "message_sent"
	EventBotReplied        = "bot_replied"
	EventInferenceFailed   = "inference_failed"
	EventHandoffRequested  = "handoff_requested"
	EventHandoffFailed     = "handoff_failed"
	EventHandoffActivated  = "handoff_activated"
	EventHandoffResolved   = "handoff_resolved"
	EventFeedbackSubmitted = "feedback_submitted"
	EventLeadFormShown     = "lead_form_shown"
	EventLeadSubmitted     = "lead_submitted"
	EventLanguageChanged   = "language_changed"
	EventSessionStarted    = "session_started"
)

// Event is one recorded analytics event.
type Event struct {
	Name       string
	Attributes map[string]string
	OccurredAt time.Time
}

// Sink accepts analytics events.
type Sink interface {
	Record(name string, attrs map[string]string)
}

// Store persists analytics events.
type Store interface {
	Insert(ctx context.Context, event *Event) error
}

// NopSink discards every event.
type NopSink struct{}

// Record does nothing.
func (NopSink) Record(string, map[string]string) {}

// RecorderConfig sizes the recorder's queue.
type RecorderConfig struct {
	QueueSize int
	Workers   int
}

// Recorder writes events to a Store through a JobQueue.
type Recorder struct {
	queue   *JobQueue[*Event]
	metrics *metrics.Metrics
}

var _ Sink = (*Recorder)(nil)

// NewRecorder creates and starts a recorder.
func NewRecorder(store Store, cfg RecorderConfig, m *metrics.Metrics) *Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	queue := NewJobQueue(cfg.QueueSize, func(ctx context.Context, event *Event) error {
		if err := store.Insert(ctx, event); err != nil {
			log.Warn().Err(err).Str("event", event.Name).Msg("failed to record analytics event")
			return err
		}
		return nil
	})
	queue.Start(cfg.Workers)

	return &Recorder{queue: queue, metrics: m}
}

// Record enqueues the event. A full queue drops it.
func (r *Recorder) Record(name string, attrs map[string]string) {
	copied := make(map[string]string, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}

	event := &Event{Name: name, Attributes: copied, OccurredAt: time.Now().UTC()}
	if !r.queue.Enqueue(event) {
		r.metrics.AnalyticsDrop()
		log.Debug().Str("event", name).Msg("analytics queue full, event dropped")
	}
}

// Close flushes queued events and stops the workers.
func (r *Recorder) Close() {
	r.queue.Stop()
}
