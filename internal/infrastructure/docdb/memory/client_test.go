package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/handoff-service/internal/core/docdb"
	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/infrastructure/docdb/memory"
)

func stamped(sessionID string, seq int64, content string) *models.Message {
	msg := models.NewVisitorMessage(content)
	msg.Stamp(sessionID, seq, time.Now())
	return msg
}

func TestMessages_AppendAndListSince(t *testing.T) {
	ctx := context.Background()
	store := memory.NewClient()

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, store.Messages().Append(ctx, stamped("s1", i, "m")))
	}
	require.NoError(t, store.Messages().Append(ctx, stamped("s2", 1, "other")))

	all, err := store.Messages().ListSince(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tail, err := store.Messages().ListSince(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(3), tail[0].Seq)

	none, err := store.Messages().ListSince(ctx, "s1", 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMessages_RejectsReusedSeq(t *testing.T) {
	ctx := context.Background()
	store := memory.NewClient()
	require.NoError(t, store.Messages().Append(ctx, stamped("s1", 1, "a")))

	err := store.Messages().Append(ctx, stamped("s1", 1, "b"))

	assert.Error(t, err)
}

func TestMessages_RejectsUnstamped(t *testing.T) {
	err := memory.NewClient().Messages().Append(context.Background(), models.NewBotMessage("x"))

	assert.Error(t, err)
}

func TestSessions_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.NewClient()
	session := models.NewSession("s1", "bot", models.AccessOpen, "en")
	require.NoError(t, store.Sessions().Create(ctx, session))

	session.MessageCount = 99
	got, err := store.Sessions().Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.MessageCount)

	got.MessageCount = 1
	require.NoError(t, store.Sessions().Update(ctx, got))
	again, err := store.Sessions().Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.MessageCount)
}

func TestSessions_GetMissing(t *testing.T) {
	got, err := memory.NewClient().Sessions().Get(context.Background(), "nope")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestHandoffs_ListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	store := memory.NewClient()
	base := time.Now()
	for i, status := range []models.HandoffStatus{models.HandoffRequested, models.HandoffActive, models.HandoffRequested} {
		require.NoError(t, store.Handoffs().Create(ctx, &models.HandoffRequest{
			ID:          string(rune('a' + i)),
			Status:      status,
			RequestedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	requested, err := store.Handoffs().List(ctx, &docdb.ListHandoffsOptions{Status: models.HandoffRequested})
	require.NoError(t, err)
	require.Len(t, requested, 2)
	assert.Equal(t, "a", requested[0].ID)
	assert.Equal(t, "c", requested[1].ID)

	newest, err := store.Handoffs().List(ctx, &docdb.ListHandoffsOptions{OrderBy: docdb.SortOrderDesc, Limit: 1})
	require.NoError(t, err)
	require.Len(t, newest, 1)
	assert.Equal(t, "c", newest[0].ID)
}

func TestHandoffs_Delete(t *testing.T) {
	ctx := context.Background()
	store := memory.NewClient()
	require.NoError(t, store.Handoffs().Create(ctx, &models.HandoffRequest{ID: "h1", Status: models.HandoffRequested}))

	require.NoError(t, store.Handoffs().Delete(ctx, "h1"))
	got, err := store.Handoffs().Get(ctx, "h1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, store.Handoffs().Delete(ctx, "h1"))
}

func TestFeedback_SubmitIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewClient()

	first, created, err := store.Feedback().Submit(ctx, &models.Feedback{SessionID: "s1", MessageID: "m1", Kind: models.FeedbackThumbsUp})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := store.Feedback().Submit(ctx, &models.Feedback{SessionID: "s1", MessageID: "m1", Kind: models.FeedbackThumbsDown})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Kind, second.Kind)

	all, err := store.Feedback().ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.FeedbackThumbsUp, all[0].Kind)
}

func TestLeads_OnePerSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewClient()

	_, created, err := store.Leads().Submit(ctx, &models.Lead{SessionID: "s1", Fields: map[string]string{"email": "a@b.c"}})
	require.NoError(t, err)
	assert.True(t, created)

	stored, created, err := store.Leads().Submit(ctx, &models.Lead{SessionID: "s1", Fields: map[string]string{"email": "x@y.z"}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "a@b.c", stored.Fields["email"])
}
