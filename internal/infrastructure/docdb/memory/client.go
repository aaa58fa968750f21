// Package memory provides an in-process conversation store. Records are
// copied on the way in and out so callers never share state with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/unifiedui/handoff-service/internal/core/docdb"
	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// Client implements docdb.Client in memory.
type Client struct {
	mu       sync.RWMutex
	messages map[string][]*models.Message
	sessions map[string]*models.Session
	handoffs map[string]*models.HandoffRequest
	feedback map[string]map[string]*models.Feedback
	leads    map[string]*models.Lead
}

var _ docdb.Client = (*Client)(nil)

// NewClient creates an empty store.
func NewClient() *Client {
	return &Client{
		messages: make(map[string][]*models.Message),
		sessions: make(map[string]*models.Session),
		handoffs: make(map[string]*models.HandoffRequest),
		feedback: make(map[string]map[string]*models.Feedback),
		leads:    make(map[string]*models.Lead),
	}
}

func (c *Client) Messages() docdb.MessagesCollection { return messages{c} }
func (c *Client) Sessions() docdb.SessionsCollection { return sessions{c} }
func (c *Client) Handoffs() docdb.HandoffsCollection { return handoffs{c} }
func (c *Client) Feedback() docdb.FeedbackCollection { return feedback{c} }
func (c *Client) Leads() docdb.LeadsCollection       { return leads{c} }

// EnsureIndexes is a no-op.
func (c *Client) EnsureIndexes(context.Context) error { return nil }

// Ping always succeeds.
func (c *Client) Ping(context.Context) error { return nil }

// Close is a no-op.
func (c *Client) Close(context.Context) error { return nil }

type messages struct{ c *Client }

func (m messages) Append(_ context.Context, msg *models.Message) error {
	if msg.ID == "" || msg.SessionID == "" || msg.Seq <= 0 {
		return fmt.Errorf("message must be stamped before it is stored")
	}
	m.c.mu.Lock()
	defer m.c.mu.Unlock()

	log := m.c.messages[msg.SessionID]
	if last := models.LastSeq(log); msg.Seq <= last {
		return fmt.Errorf("seq %d already taken in session %s", msg.Seq, msg.SessionID)
	}
	cp := *msg
	m.c.messages[msg.SessionID] = append(log, &cp)
	return nil
}

func (m messages) ListSince(_ context.Context, sessionID string, since int64) ([]*models.Message, error) {
	m.c.mu.RLock()
	defer m.c.mu.RUnlock()

	log := m.c.messages[sessionID]
	i := sort.Search(len(log), func(i int) bool { return log[i].Seq > since })
	out := make([]*models.Message, 0, len(log)-i)
	for _, msg := range log[i:] {
		cp := *msg
		out = append(out, &cp)
	}
	return out, nil
}

type sessions struct{ c *Client }

func (s sessions) Get(_ context.Context, id string) (*models.Session, error) {
	s.c.mu.RLock()
	defer s.c.mu.RUnlock()

	stored, ok := s.c.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *stored
	return &cp, nil
}

func (s sessions) Create(_ context.Context, session *models.Session) error {
	if session.ID == "" {
		return fmt.Errorf("session ID is required")
	}
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if _, exists := s.c.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	cp := *session
	s.c.sessions[session.ID] = &cp
	return nil
}

func (s sessions) Update(_ context.Context, session *models.Session) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()

	if _, exists := s.c.sessions[session.ID]; !exists {
		return fmt.Errorf("session %s not found", session.ID)
	}
	cp := *session
	s.c.sessions[session.ID] = &cp
	return nil
}

type handoffs struct{ c *Client }

func (h handoffs) Create(_ context.Context, handoff *models.HandoffRequest) error {
	if handoff.ID == "" {
		return fmt.Errorf("handoff ID is required")
	}
	h.c.mu.Lock()
	defer h.c.mu.Unlock()

	if _, exists := h.c.handoffs[handoff.ID]; exists {
		return fmt.Errorf("handoff %s already exists", handoff.ID)
	}
	cp := *handoff
	h.c.handoffs[handoff.ID] = &cp
	return nil
}

func (h handoffs) Get(_ context.Context, id string) (*models.HandoffRequest, error) {
	h.c.mu.RLock()
	defer h.c.mu.RUnlock()

	stored, ok := h.c.handoffs[id]
	if !ok {
		return nil, nil
	}
	cp := *stored
	return &cp, nil
}

func (h handoffs) Update(_ context.Context, handoff *models.HandoffRequest) error {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()

	if _, exists := h.c.handoffs[handoff.ID]; !exists {
		return fmt.Errorf("handoff %s not found", handoff.ID)
	}
	cp := *handoff
	h.c.handoffs[handoff.ID] = &cp
	return nil
}

func (h handoffs) Delete(_ context.Context, id string) error {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()

	delete(h.c.handoffs, id)
	return nil
}

func (h handoffs) List(_ context.Context, opts *docdb.ListHandoffsOptions) ([]*models.HandoffRequest, error) {
	if opts == nil {
		opts = &docdb.ListHandoffsOptions{}
	}
	h.c.mu.RLock()
	out := make([]*models.HandoffRequest, 0, len(h.c.handoffs))
	for _, stored := range h.c.handoffs {
		if opts.Status != "" && stored.Status != opts.Status {
			continue
		}
		if opts.BotID != "" && stored.BotID != opts.BotID {
			continue
		}
		cp := *stored
		out = append(out, &cp)
	}
	h.c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if opts.OrderBy == docdb.SortOrderDesc {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].RequestedAt.Before(out[j].RequestedAt)
	})
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

type feedback struct{ c *Client }

func (f feedback) Submit(_ context.Context, fb *models.Feedback) (*models.Feedback, bool, error) {
	f.c.mu.Lock()
	defer f.c.mu.Unlock()

	bySession := f.c.feedback[fb.SessionID]
	if bySession == nil {
		bySession = make(map[string]*models.Feedback)
		f.c.feedback[fb.SessionID] = bySession
	}
	if existing, ok := bySession[fb.MessageID]; ok {
		cp := *existing
		return &cp, false, nil
	}
	cp := *fb
	bySession[fb.MessageID] = &cp
	out := cp
	return &out, true, nil
}

func (f feedback) ListBySession(_ context.Context, sessionID string) ([]*models.Feedback, error) {
	f.c.mu.RLock()
	defer f.c.mu.RUnlock()

	out := make([]*models.Feedback, 0, len(f.c.feedback[sessionID]))
	for _, stored := range f.c.feedback[sessionID] {
		cp := *stored
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

type leads struct{ c *Client }

func (l leads) Submit(_ context.Context, lead *models.Lead) (*models.Lead, bool, error) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()

	if existing, ok := l.c.leads[lead.SessionID]; ok {
		return copyLead(existing), false, nil
	}
	l.c.leads[lead.SessionID] = copyLead(lead)
	return copyLead(lead), true, nil
}

func (l leads) GetBySession(_ context.Context, sessionID string) (*models.Lead, error) {
	l.c.mu.RLock()
	defer l.c.mu.RUnlock()

	stored, ok := l.c.leads[sessionID]
	if !ok {
		return nil, nil
	}
	return copyLead(stored), nil
}

func copyLead(lead *models.Lead) *models.Lead {
	cp := *lead
	cp.Fields = make(map[string]string, len(lead.Fields))
	for k, v := range lead.Fields {
		cp.Fields[k] = v
	}
	return &cp
}
