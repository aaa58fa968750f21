// Package handoff holds the handoff state machine and the dispatchers that
// notify the human queue.
package handoff

import (
	"github.com/unifiedui/handoff-service/internal/domain/errors"
	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// Event drives a handoff transition.
type Event string

const (
	EventRequest Event = "request"
	EventAttach  Event = "attach"
	EventResolve Event = "resolve"
)

// Outcome describes what a transition means for the caller.
type Outcome int

const (
	// Advance moves the session to Transition.To and runs the side effects.
	Advance Outcome = iota
	// Repeat keeps the current request and emits nothing.
	Repeat
)

// Transition is the result of applying an event to a status.
type Transition struct {
	From    models.HandoffStatus
	To      models.HandoffStatus
	Outcome Outcome
}

type edge struct {
	from  models.HandoffStatus
	event Event
}

var table = map[edge]Transition{
	{models.HandoffNone, EventRequest}:      {models.HandoffNone, models.HandoffRequested, Advance},
	{models.HandoffResolved, EventRequest}:  {models.HandoffResolved, models.HandoffRequested, Advance},
	{models.HandoffRequested, EventRequest}: {models.HandoffRequested, models.HandoffRequested, Repeat},
	{models.HandoffActive, EventRequest}:    {models.HandoffActive, models.HandoffActive, Repeat},
	{models.HandoffRequested, EventAttach}:  {models.HandoffRequested, models.HandoffActive, Advance},
	{models.HandoffActive, EventAttach}:     {models.HandoffActive, models.HandoffActive, Repeat},
	{models.HandoffActive, EventResolve}:    {models.HandoffActive, models.HandoffResolved, Advance},
}

// Apply looks up the transition for event from status. Pairs missing from
// the table yield an INVALID_TRANSITION domain error.
func Apply(from models.HandoffStatus, event Event) (Transition, error) {
	if from == "" {
		from = models.HandoffNone
	}
	t, ok := table[edge{from, event}]
	if !ok {
		return Transition{}, errors.NewInvalidTransitionError(string(from), string(event))
	}
	return t, nil
}
