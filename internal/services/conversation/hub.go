package conversation

import (
	"sync"

	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/pkg/metrics"
)

// Hub fans session events out to push subscribers. Publishing never blocks:
// a subscriber whose buffer is full is closed and has to reconnect.
type Hub struct {
	mu      sync.Mutex
	subs    map[string]map[*Subscription]struct{}
	buffer  int
	metrics *metrics.Metrics
}

// NewHub creates a hub whose subscriptions buffer up to buffer events.
func NewHub(buffer int, m *metrics.Metrics) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:    make(map[string]map[*Subscription]struct{}),
		buffer:  buffer,
		metrics: m,
	}
}

// Subscription is one push connection. Init holds the snapshot taken when the
// subscription was registered; Events continues exactly after it.
type Subscription struct {
	Init models.Event

	sessionID string
	events    chan models.Event
	hub       *Hub
	closed    bool
	dropped   bool
}

// Events returns the live event stream. It is closed when the subscription
// ends, either by Close or because the subscriber fell behind.
func (s *Subscription) Events() <-chan models.Event {
	return s.events
}

// Dropped reports whether the hub closed the subscription because its
// buffer was full.
func (s *Subscription) Dropped() bool {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.dropped
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s, false)
}

// subscribe registers a subscription. Callers hold the session lock so no
// event can be published between taking init and registering.
func (h *Hub) subscribe(sessionID string, init models.Event) *Subscription {
	init.SessionID = sessionID
	sub := &Subscription{
		Init:      init,
		sessionID: sessionID,
		events:    make(chan models.Event, h.buffer),
		hub:       h,
	}

	h.mu.Lock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	h.metrics.SubscriberOpened()
	return sub
}

// publish delivers event to every subscriber of the session.
func (h *Hub) publish(sessionID string, event models.Event) {
	event.SessionID = sessionID

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[sessionID] {
		select {
		case sub.events <- event:
		default:
			h.removeLocked(sub, true)
		}
	}
}

func (h *Hub) remove(sub *Subscription, dropped bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub, dropped)
}

func (h *Hub) removeLocked(sub *Subscription, dropped bool) {
	if sub.closed {
		return
	}
	sub.closed = true
	sub.dropped = dropped
	close(sub.events)

	if set, ok := h.subs[sub.sessionID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.sessionID)
		}
	}
	h.metrics.SubscriberClosed(dropped)
}

// Subscribers returns the number of open subscriptions for a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}
