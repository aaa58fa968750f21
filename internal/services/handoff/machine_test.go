package handoff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unifiedui/handoff-service/internal/domain/errors"
	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/services/handoff"
)

var (
	allStatuses = []models.HandoffStatus{models.HandoffNone, models.HandoffRequested, models.HandoffActive, models.HandoffResolved}
	allEvents   = []handoff.Event{handoff.EventRequest, handoff.EventAttach, handoff.EventResolve}
)

func TestApply_Table(t *testing.T) {
	tests := []struct {
		from    models.HandoffStatus
		event   handoff.Event
		to      models.HandoffStatus
		outcome handoff.Outcome
	}{
		{models.HandoffNone, handoff.EventRequest, models.HandoffRequested, handoff.Advance},
		{models.HandoffResolved, handoff.EventRequest, models.HandoffRequested, handoff.Advance},
		{models.HandoffRequested, handoff.EventRequest, models.HandoffRequested, handoff.Repeat},
		{models.HandoffActive, handoff.EventRequest, models.HandoffActive, handoff.Repeat},
		{models.HandoffRequested, handoff.EventAttach, models.HandoffActive, handoff.Advance},
		{models.HandoffActive, handoff.EventAttach, models.HandoffActive, handoff.Repeat},
		{models.HandoffActive, handoff.EventResolve, models.HandoffResolved, handoff.Advance},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.event), func(t *testing.T) {
			got, err := handoff.Apply(tt.from, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.To)
			assert.Equal(t, tt.outcome, got.Outcome)
		})
	}
}

func TestApply_Invalid(t *testing.T) {
	invalid := []struct {
		from  models.HandoffStatus
		event handoff.Event
	}{
		{models.HandoffNone, handoff.EventAttach},
		{models.HandoffNone, handoff.EventResolve},
		{models.HandoffRequested, handoff.EventResolve},
		{models.HandoffResolved, handoff.EventAttach},
		{models.HandoffResolved, handoff.EventResolve},
	}
	for _, tt := range invalid {
		_, err := handoff.Apply(tt.from, tt.event)
		assert.True(t, errors.IsInvalidTransition(err), "%s/%s", tt.from, tt.event)
	}
}

func TestApply_EmptyStatusIsNone(t *testing.T) {
	got, err := handoff.Apply("", handoff.EventRequest)

	require.NoError(t, err)
	assert.Equal(t, models.HandoffRequested, got.To)
}

// Walks every reachable path from none and records which status preceded
// each advancing move.
func TestApply_Reachability(t *testing.T) {
	predecessors := map[models.HandoffStatus]map[models.HandoffStatus]bool{}
	for _, from := range allStatuses {
		for _, ev := range allEvents {
			tr, err := handoff.Apply(from, ev)
			if err != nil || tr.Outcome != handoff.Advance {
				continue
			}
			if predecessors[tr.To] == nil {
				predecessors[tr.To] = map[models.HandoffStatus]bool{}
			}
			predecessors[tr.To][from] = true
		}
	}

	assert.Equal(t, map[models.HandoffStatus]bool{models.HandoffActive: true}, predecessors[models.HandoffResolved])
	assert.Equal(t, map[models.HandoffStatus]bool{models.HandoffRequested: true}, predecessors[models.HandoffActive])
	assert.False(t, predecessors[models.HandoffResolved][models.HandoffNone])
	assert.False(t, predecessors[models.HandoffResolved][models.HandoffRequested])
}
