package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles degrade to plain text on dumb terminals.
var colored = termenv.EnvColorProfile() != termenv.Ascii

func style(s lipgloss.Style) lipgloss.Style {
	if !colored {
		return lipgloss.NewStyle()
	}
	return s
}

var (
	HeaderStyle = style(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#D97706")).
			Bold(true).
			Padding(0, 1))

	PhaseStyle = style(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true))

	LaneStyle = style(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")))

	CurrentLaneStyle = style(lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				Bold(true))

	CrashStyle = style(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true))

	SuccessStyle = style(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true))

	ErrorStyle = style(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true))

	InfoStyle = style(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")))

	StatStyle = style(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")))

	HistoryLowStyle = style(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")))

	HistoryMidStyle = style(lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")))

	HistoryHighStyle = style(lipgloss.NewStyle().
				Foreground(lipgloss.Color("#96CEB4")).
				Bold(true))
)

// historyStyle bands a realized multiplier: low < 1.5, mid < 3, high
// otherwise.
func historyStyle(mult float64) lipgloss.Style {
	switch {
	case mult < 1.5:
		return HistoryLowStyle
	case mult < 3:
		return HistoryMidStyle
	default:
		return HistoryHighStyle
	}
}
