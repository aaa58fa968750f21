package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/unifiedui/handoff-service/internal/pkg/metrics"
)

func TestMetrics_Record(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.MessageAppended("bot")
	m.MessageAppended("bot")
	m.Transition("none", "requested")
	m.Inference("ok", 150*time.Millisecond)
	m.SubscriberOpened()
	m.SubscriberOpened()
	m.SubscriberClosed(true)
	m.Poll()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesAppended.WithLabelValues("bot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandoffTransitions.WithLabelValues("none", "requested")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InferenceRequests.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PushSubscribers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PushDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollRequests))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.MessageAppended("bot")
		m.Transition("a", "b")
		m.Inference("error", time.Second)
		m.SubscriberOpened()
		m.SubscriberClosed(false)
		m.Poll()
		m.AnalyticsDrop()
	})
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.New(prometheus.NewRegistry())
		metrics.New(prometheus.NewRegistry())
	})
}
