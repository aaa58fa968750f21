package analytics_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/handoff-service/internal/pkg/metrics"
	"github.com/unifiedui/handoff-service/internal/services/analytics"
)

func TestJobQueue_ProcessesAndDrainsOnStop(t *testing.T) {
	var processed atomic.Int64
	q := analytics.NewJobQueue(100, func(ctx context.Context, n int) error {
		processed.Add(int64(n))
		return nil
	})
	q.Start(3)

	for i := 0; i < 50; i++ {
		require.True(t, q.Enqueue(1))
	}
	q.Stop()

	assert.Equal(t, int64(50), processed.Load())
	assert.False(t, q.Enqueue(1))
	assert.NotPanics(t, q.Stop)
}

func TestJobQueue_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	q := analytics.NewJobQueue(1, func(ctx context.Context, _ int) error {
		<-release
		return nil
	})

	// No workers yet, so the buffer of one fills immediately.
	assert.True(t, q.Enqueue(1))
	assert.False(t, q.Enqueue(2))
	assert.Equal(t, 1, q.QueueSize())

	q.Start(1)
	close(release)
	q.Stop()
}

// memoryStore collects inserted events.
type memoryStore struct {
	mu     sync.Mutex
	events []*analytics.Event
	err    error
}

func (s *memoryStore) Insert(_ context.Context, e *analytics.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func TestRecorder_CopiesAttributes(t *testing.T) {
	store := &memoryStore{}
	rec := analytics.NewRecorder(store, analytics.RecorderConfig{QueueSize: 10, Workers: 1}, nil)
	attrs := map[string]string{"bot_id": "b"}

	rec.Record(analytics.EventMessageSent, attrs)
	attrs["bot_id"] = "mutated"
	rec.Close()

	require.Len(t, store.events, 1)
	assert.Equal(t, analytics.EventMessageSent, store.events[0].Name)
	assert.Equal(t, "b", store.events[0].Attributes["bot_id"])
	assert.False(t, store.events[0].OccurredAt.IsZero())
}

func TestRecorder_StoreErrorsAreSwallowed(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	rec := analytics.NewRecorder(store, analytics.RecorderConfig{}, nil)

	assert.NotPanics(t, func() {
		rec.Record(analytics.EventLeadSubmitted, nil)
		rec.Close()
	})
}

func TestRecorder_DropAfterClose(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rec := analytics.NewRecorder(&memoryStore{}, analytics.RecorderConfig{QueueSize: 1}, m)
	rec.Close()

	rec.Record(analytics.EventMessageSent, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalyticsDropped))
}

func TestSQLiteStore_InsertAndCount(t *testing.T) {
	store, err := analytics.NewSQLiteStore(filepath.Join(t.TempDir(), "data", "analytics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rec := analytics.NewRecorder(store, analytics.RecorderConfig{QueueSize: 10, Workers: 2}, nil)
	rec.Record(analytics.EventHandoffRequested, map[string]string{"session_id": "s1"})
	rec.Record(analytics.EventHandoffRequested, map[string]string{"session_id": "s2"})
	rec.Record(analytics.EventHandoffResolved, nil)
	rec.Close()

	ctx := context.Background()
	n, err := store.Count(ctx, analytics.EventHandoffRequested)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.Count(ctx, analytics.EventHandoffResolved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.NoError(t, store.Ping(ctx))
}

func TestNopSink(t *testing.T) {
	assert.NotPanics(t, func() { analytics.NopSink{}.Record("x", nil) })
}
