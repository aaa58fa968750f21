package conversation_test

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/handoff-service/internal/core/docdb"
	"github.com/unifiedui/handoff-service/internal/domain/errors"
	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/infrastructure/docdb/memory"
	"github.com/unifiedui/handoff-service/internal/services/conversation"
	"github.com/unifiedui/handoff-service/internal/services/handoff"
	"github.com/unifiedui/handoff-service/internal/services/inference"
	"github.com/unifiedui/handoff-service/internal/services/platform"
	"github.com/unifiedui/handoff-service/internal/testutils/mocks"
)

type fixture struct {
	engine     *conversation.Engine
	store      *memory.Client
	inference  *mocks.MockInferenceService
	dispatcher *mocks.MockDispatcher
	gate       *mocks.MockChecker
}

func testBots() *platform.StaticClient {
	return platform.NewStaticClient(
		&platform.BotConfig{
			ID:          "support",
			Name:        "Support",
			LeadTrigger: platform.LeadTrigger{Type: platform.LeadTriggerAfterMessages, Messages: 3},
			Handoff:     platform.HandoffSettings{Enabled: true},
			Languages:   []string{"en", "de"},
		},
		&platform.BotConfig{
			ID:          "manual",
			Name:        "Manual",
			LeadTrigger: platform.LeadTrigger{Type: platform.LeadTriggerManual},
		},
		&platform.BotConfig{
			ID:          "locked",
			Name:        "Locked",
			SecretHash:  "$2a$04$placeholder",
			LeadTrigger: platform.LeadTrigger{Type: platform.LeadTriggerManual},
		},
	)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      memory.NewClient(),
		inference:  &mocks.MockInferenceService{},
		dispatcher: &mocks.MockDispatcher{},
		gate:       &mocks.MockChecker{},
	}
	f.engine = newEngine(t, f.store, f.inference, f.dispatcher, f.gate, 0)
	return f
}

func newEngine(t *testing.T, store docdb.Client, svc inference.Service, d handoff.Dispatcher, gate *mocks.MockChecker, timeout time.Duration) *conversation.Engine {
	t.Helper()
	engine, err := conversation.NewEngine(&conversation.EngineConfig{
		Store:            store,
		Bots:             testBots(),
		Gate:             gate,
		Inference:        svc,
		Dispatcher:       d,
		InferenceTimeout: timeout,
		SubscriberBuffer: 64,
	})
	require.NoError(t, err)
	return engine
}

func (f *fixture) send(t *testing.T, sessionID, text string) *conversation.SendResult {
	t.Helper()
	result, err := f.engine.SendVisitorMessage(context.Background(), &conversation.SendInput{
		BotID:     "support",
		SessionID: sessionID,
		Text:      text,
	})
	require.NoError(t, err)
	return result
}

// startHandoff creates a session with one bot exchange and an open handoff
// request.
func (f *fixture) startHandoff(t *testing.T) (string, *models.HandoffRequest) {
	t.Helper()
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("Hi!", nil).Maybe()
	f.dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	sessionID := f.send(t, "", "Hello").Session.ID
	result, err := f.engine.RequestHandoff(context.Background(), &conversation.HandoffInput{SessionID: sessionID, Reason: "billing"})
	require.NoError(t, err)
	require.True(t, result.Accepted)
	return sessionID, result.Handoff
}

func nextEvent(t *testing.T, sub *conversation.Subscription) models.Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return models.Event{}
}

func countKind(messages []*models.Message, kind models.SenderKind) int {
	n := 0
	for _, msg := range messages {
		if msg.SenderKind == kind {
			n++
		}
	}
	return n
}

func TestSendVisitorMessage_HelloGetsExactlyOneBotReply(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.MatchedBy(func(req *inference.GenerateRequest) bool {
		return req.Text == "Hello" && req.BotID == "support" && len(req.History) == 0
	})).Return("Hi! How can I help?", nil).Once()

	result := f.send(t, "", "Hello")

	assert.Equal(t, conversation.RouteBot, result.Route)
	assert.False(t, result.Restarted)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, models.SenderVisitor, result.Messages[0].SenderKind)
	assert.Equal(t, models.SenderBot, result.Messages[1].SenderKind)
	assert.Equal(t, "Hi! How can I help?", result.Messages[1].Content)
	assert.Equal(t, int64(2), result.Watermark)

	messages, err := f.engine.Log().Read(context.Background(), result.Session.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, countKind(messages, models.SenderBot))
	f.inference.AssertNumberOfCalls(t, "Generate", 1)
	assert.Equal(t, 1, result.Session.MessageCount)
}

func TestSendVisitorMessage_PassesHistory(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("reply", nil)

	sessionID := f.send(t, "", "first").Session.ID
	f.send(t, sessionID, "second")

	last := f.inference.Calls[1].Arguments.Get(1).(*inference.GenerateRequest)
	assert.Equal(t, "second", last.Text)
	assert.Equal(t, []inference.HistoryEntry{
		{Role: inference.RoleUser, Content: "first"},
		{Role: inference.RoleAssistant, Content: "reply"},
	}, last.History)
}

func TestSendVisitorMessage_InferenceFailureAppendsErrorMessage(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("", stderrors.New("upstream down"))

	result := f.send(t, "", "Hello")

	require.Len(t, result.Messages, 2)
	reply := result.Messages[1]
	assert.Equal(t, models.SenderSystem, reply.SenderKind)
	assert.Equal(t, models.SystemInferenceError, reply.SystemKind)
	assert.True(t, reply.SystemKind.IsError())

	// The session stays usable.
	again := f.send(t, result.Session.ID, "Still there?")
	assert.Equal(t, int64(4), again.Watermark)
}

func TestSendVisitorMessage_ReplyAfterHandoffIsSuperseded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.inference.On("Generate", mock.Anything, mock.MatchedBy(func(req *inference.GenerateRequest) bool {
		return req.Text == "Hello"
	})).Return("Hi!", nil).Once()

	first := f.send(t, "", "Hello")
	sessionID := first.Session.ID
	require.Len(t, first.Messages, 2)
	assert.Equal(t, first.Messages[0].Seq, first.Messages[1].ReplyTo)
	assert.False(t, first.Messages[1].Superseded)

	// The visitor asks for a human while the bot is still thinking.
	f.inference.On("Generate", mock.Anything, mock.MatchedBy(func(req *inference.GenerateRequest) bool {
		return req.Text == "I need a refund"
	})).Run(func(mock.Arguments) {
		result, err := f.engine.RequestHandoff(ctx, &conversation.HandoffInput{SessionID: sessionID})
		require.NoError(t, err)
		require.True(t, result.Accepted)
	}).Return("Refunds take 5 days.", nil).Once()

	second := f.send(t, sessionID, "I need a refund")
	require.Len(t, second.Messages, 2)
	visitor, reply := second.Messages[0], second.Messages[1]
	assert.Equal(t, models.SenderBot, reply.SenderKind)
	assert.Equal(t, visitor.Seq, reply.ReplyTo)
	assert.True(t, reply.Superseded)

	messages, err := f.engine.Log().Read(ctx, sessionID, visitor.Seq)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.SystemHandoffRequested, messages[0].SystemKind)
	assert.Equal(t, reply.ID, messages[1].ID)
}

// blockingInference waits for its context to end.
type blockingInference struct{}

func (blockingInference) Generate(ctx context.Context, _ *inference.GenerateRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestSendVisitorMessage_InferenceTimeout(t *testing.T) {
	engine := newEngine(t, memory.NewClient(), blockingInference{}, &mocks.MockDispatcher{}, &mocks.MockChecker{}, 20*time.Millisecond)

	result, err := engine.SendVisitorMessage(context.Background(), &conversation.SendInput{BotID: "support", Text: "Hello"})
	require.NoError(t, err)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, models.SystemInferenceError, result.Messages[1].SystemKind)
}

func TestSendVisitorMessage_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.SendVisitorMessage(context.Background(), &conversation.SendInput{BotID: "support", Text: "   "})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = f.engine.SendVisitorMessage(context.Background(), &conversation.SendInput{BotID: "nope", Text: "hi"})
	assert.True(t, errors.IsNotFound(err))
}

func TestSendVisitorMessage_StaleSessionRestarts(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("hi", nil)

	result := f.send(t, "gone-session", "Hello")
	assert.True(t, result.Restarted)
	assert.NotEqual(t, "gone-session", result.Session.ID)

	// A session of another bot is treated as stale too.
	manual, err := f.engine.SendVisitorMessage(context.Background(), &conversation.SendInput{BotID: "manual", Text: "hi"})
	require.NoError(t, err)
	result = f.send(t, manual.Session.ID, "Hello")
	assert.True(t, result.Restarted)
	assert.NotEqual(t, manual.Session.ID, result.Session.ID)
}

func TestPoll_UnknownSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Poll(context.Background(), &conversation.PollInput{SessionID: "missing"})
	assert.True(t, errors.IsSessionNotFound(err))

	_, err = f.engine.Poll(context.Background(), &conversation.PollInput{SessionID: "missing", Since: -1})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestPoll_ReturnsOnlyNewerMessages(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("hi", nil)
	sessionID := f.send(t, "", "one").Session.ID
	f.send(t, sessionID, "two")

	result, err := f.engine.Poll(context.Background(), &conversation.PollInput{SessionID: sessionID, Since: 2})
	require.NoError(t, err)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, int64(3), result.Messages[0].Seq)
	assert.Equal(t, int64(4), result.Watermark)
	assert.Equal(t, models.HandoffNone, result.Status)

	empty, err := f.engine.Poll(context.Background(), &conversation.PollInput{SessionID: sessionID, Since: 4})
	require.NoError(t, err)
	assert.Empty(t, empty.Messages)
	assert.Equal(t, int64(4), empty.Watermark)
}

func TestAccess_LockedBotRequiresToken(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("hi", nil)
	f.gate.On("CheckAccess", mock.Anything, "locked", "good").Return(true, nil)
	f.gate.On("CheckAccess", mock.Anything, "locked", mock.Anything).Return(false, nil)
	ctx := context.Background()

	_, err := f.engine.SendVisitorMessage(ctx, &conversation.SendInput{BotID: "locked", Text: "hi"})
	assert.True(t, errors.IsAccessDenied(err))

	result, err := f.engine.SendVisitorMessage(ctx, &conversation.SendInput{BotID: "locked", Token: "good", Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, models.AccessGranted, result.Session.AccessState)

	_, err = f.engine.Poll(ctx, &conversation.PollInput{SessionID: result.Session.ID, Token: "stolen"})
	assert.True(t, errors.IsAccessDenied(err))

	_, err = f.engine.Poll(ctx, &conversation.PollInput{SessionID: result.Session.ID, Token: "good"})
	assert.NoError(t, err)
}

func TestRequestHandoff_PersistsBeforeDispatch(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("hi", nil)
	ctx := context.Background()

	var stored *models.HandoffRequest
	f.dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			req := args.Get(2).(*models.HandoffRequest)
			got, err := f.store.Handoffs().Get(ctx, req.ID)
			require.NoError(t, err)
			stored = got
		}).
		Return(nil).Once()

	sessionID := f.send(t, "", "Hello").Session.ID
	result, err := f.engine.RequestHandoff(ctx, &conversation.HandoffInput{SessionID: sessionID})
	require.NoError(t, err)
	require.True(t, result.Accepted)
	require.NotNil(t, stored, "handoff must exist when agents are notified")
	assert.Equal(t, result.Handoff.ID, stored.ID)
	assert.Equal(t, models.HandoffRequested, stored.Status)
}

func TestRequestHandoff_DispatchFailureDiscardsRecord(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("hi", nil)
	ctx := context.Background()

	var notified string
	f.dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { notified = args.Get(2).(*models.HandoffRequest).ID }).
		Return(stderrors.New("webhook down")).Once()

	sessionID := f.send(t, "", "Hello").Session.ID
	result, err := f.engine.RequestHandoff(ctx, &conversation.HandoffInput{SessionID: sessionID})
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	require.NotEmpty(t, notified)

	got, err := f.store.Handoffs().Get(ctx, notified)
	require.NoError(t, err)
	assert.Nil(t, got)
	_, err = f.engine.GetHandoff(ctx, notified)
	assert.True(t, errors.IsNotFound(err))
}

func TestRequestHandoff_DispatchFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("hi", nil)
	f.dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).Return(handoff.ErrNoHandler).Once()
	f.dispatcher.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	ctx := context.Background()
	sessionID := f.send(t, "", "Hello").Session.ID

	result, err := f.engine.RequestHandoff(ctx, &conversation.HandoffInput{SessionID: sessionID})
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, models.HandoffNone, result.Status)
	assert.Nil(t, result.Handoff)
	require.NotNil(t, result.Message)
	assert.Equal(t, models.SystemHandoffFailed, result.Message.SystemKind)

	handoffs, err := f.engine.ListHandoffs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, handoffs)

	// The visitor can retry.
	retry, err := f.engine.RequestHandoff(ctx, &conversation.HandoffInput{SessionID: sessionID})
	require.NoError(t, err)
	assert.True(t, retry.Accepted)
	assert.Equal(t, models.HandoffRequested, retry.Status)
	assert.Equal(t, models.SystemHandoffRequested, retry.Message.SystemKind)
}

func TestRequestHandoff_RepeatReturnsExistingRequest(t *testing.T) {
	f := newFixture(t)
	sessionID, first := f.startHandoff(t)

	again, err := f.engine.RequestHandoff(context.Background(), &conversation.HandoffInput{SessionID: sessionID})
	require.NoError(t, err)
	assert.True(t, again.Accepted)
	assert.True(t, again.Repeated)
	assert.Equal(t, first.ID, again.Handoff.ID)
	assert.Nil(t, again.Message)
	f.dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestAttachAgent_ActivatesAndBroadcasts(t *testing.T) {
	f := newFixture(t)
	sessionID, req := f.startHandoff(t)
	ctx := context.Background()

	observer, err := f.engine.WatchHandoff(ctx, req.ID)
	require.NoError(t, err)
	defer observer.Close()

	sub, err := f.engine.AttachAgent(ctx, req.ID, "ana")
	require.NoError(t, err)
	defer sub.Close()

	assert.Equal(t, models.HandoffRequested, sub.Init.Status)

	for _, s := range []*conversation.Subscription{sub, observer} {
		ev := nextEvent(t, s)
		assert.Equal(t, models.EventMessage, ev.Type)
		assert.Equal(t, models.SystemHandoffActive, ev.Message.SystemKind)

		ev = nextEvent(t, s)
		assert.Equal(t, models.EventStatusChange, ev.Type)
		assert.Equal(t, models.HandoffActive, ev.Status)
		assert.Equal(t, "ana", ev.Handoff.AssignedAgentName)
	}

	poll, err := f.engine.Poll(ctx, &conversation.PollInput{SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, models.HandoffActive, poll.Status)
	assert.Equal(t, "ana", poll.Handoff.AssignedAgentName)
	assert.NotNil(t, poll.Handoff.ActivatedAt)
}

func TestAttachAgent_SecondConnectionOnlySubscribes(t *testing.T) {
	f := newFixture(t)
	sessionID, req := f.startHandoff(t)
	ctx := context.Background()

	first, err := f.engine.AttachAgent(ctx, req.ID, "ana")
	require.NoError(t, err)
	defer first.Close()

	second, err := f.engine.AttachAgent(ctx, req.ID, "ana")
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, models.HandoffActive, second.Init.Status)
	assert.Len(t, second.Events(), 0)

	messages, err := f.engine.Log().Read(ctx, sessionID, 0)
	require.NoError(t, err)
	active := 0
	for _, msg := range messages {
		if msg.SystemKind == models.SystemHandoffActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
}

func TestWatchHandoff_LeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	sessionID, req := f.startHandoff(t)
	ctx := context.Background()

	sub, err := f.engine.WatchHandoff(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HandoffRequested, sub.Init.Status)
	assert.Len(t, sub.Events(), 0)
	sub.Close()

	poll, err := f.engine.Poll(ctx, &conversation.PollInput{SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, models.HandoffRequested, poll.Status)

	require.NoError(t, f.engine.ActivateHandoff(ctx, req.ID, "ana"))
	require.NoError(t, f.engine.ActivateHandoff(ctx, req.ID, "bob"))

	got, err := f.engine.GetHandoff(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HandoffActive, got.Status)
	assert.Equal(t, "ana", got.AssignedAgentName)

	_, err = f.engine.ResolveHandoff(ctx, req.ID, "ana")
	require.NoError(t, err)
	_, err = f.engine.WatchHandoff(ctx, req.ID)
	assert.True(t, errors.IsInvalidTransition(err))
	_, err = f.engine.WatchHandoff(ctx, "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestHandoff_InvalidTransitions(t *testing.T) {
	f := newFixture(t)
	_, req := f.startHandoff(t)
	ctx := context.Background()

	// requested cannot resolve.
	_, err := f.engine.ResolveHandoff(ctx, req.ID, "ana")
	assert.True(t, errors.IsInvalidTransition(err))

	// agents cannot talk before attaching.
	_, err = f.engine.SendAgentMessage(ctx, req.ID, "ana", "hello")
	assert.True(t, errors.HasCode(err, errors.ErrCodeConflict))

	sub, err := f.engine.AttachAgent(ctx, req.ID, "ana")
	require.NoError(t, err)
	sub.Close()
	_, err = f.engine.ResolveHandoff(ctx, req.ID, "ana")
	require.NoError(t, err)

	// resolved cannot be attached or resolved again.
	_, err = f.engine.AttachAgent(ctx, req.ID, "bob")
	assert.True(t, errors.IsInvalidTransition(err))
	_, err = f.engine.ResolveHandoff(ctx, req.ID, "ana")
	assert.True(t, errors.IsInvalidTransition(err))

	_, err = f.engine.AttachAgent(ctx, "missing", "ana")
	assert.True(t, errors.IsNotFound(err))
}

func TestRouting_ActiveHandoffNeverReachesBot(t *testing.T) {
	f := newFixture(t)
	sessionID, req := f.startHandoff(t)
	ctx := context.Background()
	sub, err := f.engine.AttachAgent(ctx, req.ID, "ana")
	require.NoError(t, err)
	defer sub.Close()
	callsBefore := len(f.inference.Calls)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.engine.SendVisitorMessage(ctx, &conversation.SendInput{
				BotID:     "support",
				SessionID: sessionID,
				Text:      "need help",
			})
			assert.NoError(t, err)
			assert.Equal(t, conversation.RouteHandoff, result.Route)
			assert.Len(t, result.Messages, 1)
		}()
	}
	wg.Wait()

	assert.Len(t, f.inference.Calls, callsBefore)

	// The agent receives every visitor turn on the push stream.
	visitorEvents := 0
	for visitorEvents < 10 {
		ev := nextEvent(t, sub)
		if ev.Type == models.EventMessage && ev.Message.SenderKind == models.SenderVisitor {
			visitorEvents++
		}
	}

	msg, err := f.engine.SendAgentMessage(ctx, req.ID, "ana", "I am here")
	require.NoError(t, err)
	assert.Equal(t, "ana", msg.SenderName)
}

func TestResolveHandoff_ReturnsToBotAndAllowsNewCycle(t *testing.T) {
	f := newFixture(t)
	sessionID, req := f.startHandoff(t)
	ctx := context.Background()
	sub, err := f.engine.AttachAgent(ctx, req.ID, "ana")
	require.NoError(t, err)
	defer sub.Close()

	resolved, err := f.engine.ResolveHandoff(ctx, req.ID, "ana")
	require.NoError(t, err)
	assert.Equal(t, models.HandoffResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)

	nextEvent(t, sub) // handoff_active
	nextEvent(t, sub) // status_change active
	ev := nextEvent(t, sub)
	assert.Equal(t, models.SystemHandoffResolved, ev.Message.SystemKind)
	ev = nextEvent(t, sub)
	assert.Equal(t, models.EventStatusChange, ev.Type)
	assert.Equal(t, models.HandoffResolved, ev.Status)

	result := f.send(t, sessionID, "thanks")
	assert.Equal(t, conversation.RouteBot, result.Route)
	assert.Equal(t, models.HandoffResolved, result.Session.HandoffStatus)

	again, err := f.engine.RequestHandoff(ctx, &conversation.HandoffInput{SessionID: sessionID})
	require.NoError(t, err)
	assert.True(t, again.Accepted)
	assert.False(t, again.Repeated)
	assert.NotEqual(t, req.ID, again.Handoff.ID)

	old, err := f.engine.GetHandoff(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HandoffResolved, old.Status)
}

// pushView merges push events the way a console does: dedupe by id, order by
// seq.
func pushView(init models.Event, events []models.Event) []string {
	seen := make(map[string]bool)
	bySeq := make(map[int64]string)
	var maxSeq int64
	add := func(msg *models.Message) {
		if seen[msg.ID] {
			return
		}
		seen[msg.ID] = true
		bySeq[msg.Seq] = msg.ID
		if msg.Seq > maxSeq {
			maxSeq = msg.Seq
		}
	}
	for _, msg := range init.Messages {
		add(msg)
	}
	for _, ev := range events {
		if ev.Type == models.EventMessage {
			add(ev.Message)
		}
	}
	ids := make([]string, 0, len(bySeq))
	for seq := int64(1); seq <= maxSeq; seq++ {
		if id, ok := bySeq[seq]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func messageIDs(messages []*models.Message) []string {
	ids := make([]string, len(messages))
	for i, msg := range messages {
		ids[i] = msg.ID
	}
	return ids
}

func drain(sub *conversation.Subscription) []models.Event {
	var events []models.Event
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestPushAndPollConverge(t *testing.T) {
	f := newFixture(t)
	sessionID, req := f.startHandoff(t)
	ctx := context.Background()

	sub, err := f.engine.AttachAgent(ctx, req.ID, "ana")
	require.NoError(t, err)
	defer sub.Close()

	poller := int64(0)
	var polled []*models.Message
	for i := 0; i < 5; i++ {
		f.send(t, sessionID, "visitor turn")
		_, err := f.engine.SendAgentMessage(ctx, req.ID, "ana", "agent turn")
		require.NoError(t, err)

		result, err := f.engine.Poll(ctx, &conversation.PollInput{SessionID: sessionID, Since: poller})
		require.NoError(t, err)
		polled = append(polled, result.Messages...)
		poller = result.Watermark
	}

	pushed := pushView(sub.Init, drain(sub))
	assert.Equal(t, messageIDs(polled), pushed)
}

func TestReconnectMidHandoffHasNoDuplicatesOrGaps(t *testing.T) {
	f := newFixture(t)
	sessionID, req := f.startHandoff(t)
	ctx := context.Background()

	// The console keeps every message it has seen across connections.
	seen := make(map[string]*models.Message)
	merge := func(init models.Event, events []models.Event) {
		for _, msg := range init.Messages {
			seen[msg.ID] = msg
		}
		for _, ev := range events {
			if ev.Type == models.EventMessage {
				seen[ev.Message.ID] = ev.Message
			}
		}
	}

	first, err := f.engine.AttachAgent(ctx, req.ID, "ana")
	require.NoError(t, err)
	f.send(t, sessionID, "one")
	merge(first.Init, drain(first))
	first.Close()

	// Appended while disconnected.
	f.send(t, sessionID, "two")
	_, err = f.engine.SendAgentMessage(ctx, req.ID, "ana", "reply")
	require.NoError(t, err)

	second, err := f.engine.AttachAgent(ctx, req.ID, "ana")
	require.NoError(t, err)
	defer second.Close()
	f.send(t, sessionID, "three")
	merge(second.Init, drain(second))

	view := make([]*models.Message, 0, len(seen))
	for _, msg := range seen {
		view = append(view, msg)
	}
	sort.Slice(view, func(i, j int) bool { return view[i].Seq < view[j].Seq })

	poll, err := f.engine.Poll(ctx, &conversation.PollInput{SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, messageIDs(poll.Messages), messageIDs(view))
	for i, msg := range view {
		assert.Equal(t, int64(i+1), msg.Seq)
	}
}

func TestSubmitFeedback_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("hi", nil)
	ctx := context.Background()
	result := f.send(t, "", "Hello")
	sessionID := result.Session.ID
	visitor, bot := result.Messages[0], result.Messages[1]

	first, err := f.engine.SubmitFeedback(ctx, &conversation.FeedbackInput{SessionID: sessionID, MessageID: bot.ID, Kind: models.FeedbackThumbsUp})
	require.NoError(t, err)
	assert.False(t, first.AlreadyGiven)

	second, err := f.engine.SubmitFeedback(ctx, &conversation.FeedbackInput{SessionID: sessionID, MessageID: bot.ID, Kind: models.FeedbackThumbsDown})
	require.NoError(t, err)
	assert.True(t, second.AlreadyGiven)
	assert.Equal(t, models.FeedbackThumbsUp, second.Feedback.Kind)

	stored, err := f.store.Feedback().ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.FeedbackThumbsUp, stored[0].Kind)

	_, err = f.engine.SubmitFeedback(ctx, &conversation.FeedbackInput{SessionID: sessionID, MessageID: visitor.ID, Kind: models.FeedbackThumbsUp})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = f.engine.SubmitFeedback(ctx, &conversation.FeedbackInput{SessionID: sessionID, MessageID: "missing", Kind: models.FeedbackThumbsUp})
	assert.True(t, errors.IsNotFound(err))

	_, err = f.engine.SubmitFeedback(ctx, &conversation.FeedbackInput{SessionID: sessionID, MessageID: bot.ID, Kind: "meh"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestPoll_PendingFeedback(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("hi", nil)
	ctx := context.Background()
	first := f.send(t, "", "one")
	sessionID := first.Session.ID
	second := f.send(t, sessionID, "two")

	_, err := f.engine.SubmitFeedback(ctx, &conversation.FeedbackInput{SessionID: sessionID, MessageID: first.Messages[1].ID, Kind: models.FeedbackThumbsUp})
	require.NoError(t, err)

	poll, err := f.engine.Poll(ctx, &conversation.PollInput{SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, []string{second.Messages[1].ID}, poll.PendingFeedback)
}

func TestLeadTrigger_FiresOnceAtThreshold(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("hi", nil)
	ctx := context.Background()

	var sessionID string
	triggered := 0
	for i := 1; i <= 5; i++ {
		result := f.send(t, sessionID, "msg")
		sessionID = result.Session.ID
		if result.LeadFormTriggered {
			triggered++
			assert.Equal(t, 3, i)
		}
		assert.Equal(t, i >= 3, result.Triggers.ShowLeadForm)
	}
	assert.Equal(t, 1, triggered)

	lead, err := f.engine.SubmitLead(ctx, &conversation.LeadInput{SessionID: sessionID, Fields: map[string]string{"email": "a@b.c"}})
	require.NoError(t, err)
	assert.False(t, lead.AlreadySubmitted)
	assert.False(t, lead.Triggers.ShowLeadForm)

	for i := 0; i < 3; i++ {
		result := f.send(t, sessionID, "more")
		assert.False(t, result.Triggers.ShowLeadForm)
		assert.False(t, result.LeadFormTriggered)
	}

	again, err := f.engine.SubmitLead(ctx, &conversation.LeadInput{SessionID: sessionID, Fields: map[string]string{"email": "x@y.z"}})
	require.NoError(t, err)
	assert.True(t, again.AlreadySubmitted)
	assert.Equal(t, "a@b.c", again.Lead.Fields["email"])

	_, err = f.engine.SubmitLead(ctx, &conversation.LeadInput{SessionID: sessionID, Fields: map[string]string{" ": ""}})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestRequestLeadForm_Manual(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("hi", nil)
	ctx := context.Background()
	result, err := f.engine.SendVisitorMessage(ctx, &conversation.SendInput{BotID: "manual", Text: "hi"})
	require.NoError(t, err)
	assert.False(t, result.Triggers.ShowLeadForm)

	first, err := f.engine.RequestLeadForm(ctx, result.Session.ID, "")
	require.NoError(t, err)
	assert.True(t, first.LeadFormTriggered)
	assert.True(t, first.Triggers.ShowLeadForm)

	second, err := f.engine.RequestLeadForm(ctx, result.Session.ID, "")
	require.NoError(t, err)
	assert.False(t, second.LeadFormTriggered)
	assert.True(t, second.Triggers.ShowLeadForm)
}

func TestSetLanguage_AppendsNothing(t *testing.T) {
	f := newFixture(t)
	f.inference.On("Generate", mock.Anything, mock.Anything).Return("hi", nil)
	ctx := context.Background()
	result := f.send(t, "", "Hello")
	sessionID := result.Session.ID

	session, err := f.engine.SetLanguage(ctx, sessionID, "", "de")
	require.NoError(t, err)
	assert.Equal(t, "de", session.Language)

	poll, err := f.engine.Poll(ctx, &conversation.PollInput{SessionID: sessionID})
	require.NoError(t, err)
	assert.Equal(t, result.Watermark, poll.Watermark)
	assert.Equal(t, "de", poll.Session.Language)

	_, err = f.engine.SetLanguage(ctx, sessionID, "", "fr")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	_, err = f.engine.SetLanguage(ctx, sessionID, "", "not a language")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestListHandoffs_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	_, req := f.startHandoff(t)
	ctx := context.Background()

	open, err := f.engine.ListHandoffs(ctx, &docdb.ListHandoffsOptions{Status: models.HandoffRequested})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, req.ID, open[0].ID)
	assert.Equal(t, "billing", open[0].Reason)

	active, err := f.engine.ListHandoffs(ctx, &docdb.ListHandoffsOptions{Status: models.HandoffActive})
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := conversation.NewEngine(nil)
	assert.Error(t, err)
	_, err = conversation.NewEngine(&conversation.EngineConfig{Store: memory.NewClient()})
	assert.Error(t, err)
}
