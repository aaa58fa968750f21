// Package triggers decides when the widget surfaces the lead form, the
// handoff offer and feedback prompts. Every function here is pure.
package triggers

import (
	"github.com/unifiedui/handoff-service/internal/domain/models"
	"github.com/unifiedui/handoff-service/internal/services/platform"
)

// State is the evaluated trigger output for a session.
type State struct {
	ShowLeadForm      bool `json:"showLeadForm"`
	ShowHandoffOption bool `json:"showHandoffOption"`
}

// Evaluate computes the trigger state from the session counters and the
// bot's static policy. It never shows the lead form once a lead exists.
func Evaluate(session *models.Session, bot *platform.BotConfig) State {
	if session == nil || bot == nil {
		return State{}
	}

	var state State
	if !session.LeadSubmitted {
		switch bot.LeadTrigger.Type {
		case platform.LeadTriggerAfterMessages:
			n := bot.LeadTrigger.Messages
			state.ShowLeadForm = n > 0 && session.MessageCount >= n
		case platform.LeadTriggerManual:
			state.ShowLeadForm = session.LeadRequested
		}
	}

	status := session.HandoffStatus
	if status == "" {
		status = models.HandoffNone
	}
	state.ShowHandoffOption = bot.Handoff.Enabled &&
		!status.IsOpen() &&
		session.MessageCount >= bot.Handoff.OfferAfterMessages

	return state
}

// Crossed reports the false to true edge of the lead form between two
// evaluations.
func Crossed(before, after State) bool {
	return !before.ShowLeadForm && after.ShowLeadForm
}

// PendingFeedback returns the IDs of bot messages that have no rating yet,
// in log order.
func PendingFeedback(messages []*models.Message, rated []*models.Feedback) []string {
	done := make(map[string]bool, len(rated))
	for _, fb := range rated {
		done[fb.MessageID] = true
	}

	pending := make([]string, 0)
	for _, msg := range messages {
		if msg.IsBot() && !done[msg.ID] {
			pending = append(pending, msg.ID)
		}
	}
	return pending
}
