// Package metrics provides Prometheus metrics for the handoff service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	MessagesAppended   *prometheus.CounterVec
	HandoffTransitions *prometheus.CounterVec
	InferenceRequests  *prometheus.CounterVec
	InferenceDuration  prometheus.Histogram
	PushSubscribers    prometheus.Gauge
	PushDropped        prometheus.Counter
	PollRequests       prometheus.Counter
	AnalyticsDropped   prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handoff_messages_appended_total",
				Help: "Messages appended to session logs by sender kind",
			},
			[]string{"sender_kind"},
		),
		HandoffTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handoff_transitions_total",
				Help: "Handoff state transitions",
			},
			[]string{"from", "to"},
		),
		InferenceRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "handoff_inference_requests_total",
				Help: "Inference calls by outcome",
			},
			[]string{"outcome"},
		),
		InferenceDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "handoff_inference_duration_seconds",
				Help:    "Duration of inference calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		PushSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "handoff_push_subscribers",
				Help: "Open push subscriptions",
			},
		),
		PushDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "handoff_push_subscribers_dropped_total",
				Help: "Push subscriptions closed because their buffer was full",
			},
		),
		PollRequests: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "handoff_poll_requests_total",
				Help: "Visitor poll requests",
			},
		),
		AnalyticsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "handoff_analytics_dropped_total",
				Help: "Analytics events dropped because the queue was full",
			},
		),
	}
}

// MessageAppended counts one appended message.
func (m *Metrics) MessageAppended(senderKind string) {
	if m == nil {
		return
	}
	m.MessagesAppended.WithLabelValues(senderKind).Inc()
}

// Transition counts one handoff state change.
func (m *Metrics) Transition(from, to string) {
	if m == nil {
		return
	}
	m.HandoffTransitions.WithLabelValues(from, to).Inc()
}

// Inference records one inference call.
func (m *Metrics) Inference(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.InferenceRequests.WithLabelValues(outcome).Inc()
	m.InferenceDuration.Observe(elapsed.Seconds())
}

// SubscriberOpened tracks a new push subscription.
func (m *Metrics) SubscriberOpened() {
	if m == nil {
		return
	}
	m.PushSubscribers.Inc()
}

// SubscriberClosed tracks a closed push subscription.
func (m *Metrics) SubscriberClosed(dropped bool) {
	if m == nil {
		return
	}
	m.PushSubscribers.Dec()
	if dropped {
		m.PushDropped.Inc()
	}
}

// Poll counts one poll request.
func (m *Metrics) Poll() {
	if m == nil {
		return
	}
	m.PollRequests.Inc()
}

// AnalyticsDrop counts one dropped analytics event.
func (m *Metrics) AnalyticsDrop() {
	if m == nil {
		return
	}
	m.AnalyticsDropped.Inc()
}
