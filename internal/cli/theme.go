package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unifiedui/handoff-service/internal/domain/models"
)

// Theme holds the colors of the console transcript.
type Theme struct {
	Visitor lipgloss.Color
	Bot     lipgloss.Color
	Agent   lipgloss.Color
	System  lipgloss.Color
	Error   lipgloss.Color
}

var defaultTheme = Theme{
	Visitor: lipgloss.Color("#5FAFD7"), // light blue
	Bot:     lipgloss.Color("#AF87FF"), // purple
	Agent:   lipgloss.Color("#00D787"), // green
	System:  lipgloss.Color("#6C6C6C"), // dim gray
	Error:   lipgloss.Color("#FF005F"), // red
}

func (t Theme) senderStyle(kind models.SenderKind) lipgloss.Style {
	switch kind {
	case models.SenderVisitor:
		return lipgloss.NewStyle().Foreground(t.Visitor).Bold(true)
	case models.SenderBot:
		return lipgloss.NewStyle().Foreground(t.Bot)
	case models.SenderAgent:
		return lipgloss.NewStyle().Foreground(t.Agent).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(t.System).Italic(true)
	}
}

func (t Theme) systemStyle(kind models.SystemKind) lipgloss.Style {
	if kind.IsError() {
		return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(t.System).Italic(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.System).Italic(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}
