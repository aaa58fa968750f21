package console

import (
	"sort"
	"sync"

	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// View is the agent's local copy of a session. Messages are deduplicated by
// ID and kept in seq order, so replays after a reconnect are harmless.
type View struct {
	mu        sync.RWMutex
	byID      map[string]*models.Message
	status    models.HandoffStatus
	handoff   *models.HandoffRequest
	sessionID string
	watermark int64
}

// NewView creates an empty view.
func NewView() *View {
	return &View{byID: make(map[string]*models.Message)}
}

// Apply folds one push event into the view. It reports whether the event
// added a message or changed the status.
func (v *View) Apply(event models.Event) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	changed := false
	switch event.Type {
	case models.EventInit:
		for _, msg := range event.Messages {
			changed = v.add(msg) || changed
		}
		changed = v.setStatus(event.Status, event.Handoff) || changed
	case models.EventMessage:
		changed = v.add(event.Message)
	case models.EventStatusChange:
		changed = v.setStatus(event.Status, event.Handoff)
	}

	if event.SessionID != "" {
		v.sessionID = event.SessionID
	}
	if event.Watermark > v.watermark {
		v.watermark = event.Watermark
	}
	return changed
}

func (v *View) add(msg *models.Message) bool {
	if msg == nil {
		return false
	}
	if _, ok := v.byID[msg.ID]; ok {
		return false
	}
	v.byID[msg.ID] = msg
	return true
}

func (v *View) setStatus(status models.HandoffStatus, h *models.HandoffRequest) bool {
	if status == "" {
		return false
	}
	changed := status != v.status
	v.status = status
	if h != nil {
		v.handoff = h
	}
	return changed
}

// Messages returns the known messages ordered by seq.
func (v *View) Messages() []*models.Message {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]*models.Message, 0, len(v.byID))
	for _, msg := range v.byID {
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Status returns the last known handoff status.
func (v *View) Status() models.HandoffStatus {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}

// Handoff returns the last known handoff request.
func (v *View) Handoff() *models.HandoffRequest {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.handoff
}

// SessionID returns the session the view follows.
func (v *View) SessionID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.sessionID
}

// Watermark returns the highest seq seen.
func (v *View) Watermark() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.watermark
}
