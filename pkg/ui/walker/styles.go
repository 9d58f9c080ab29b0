package walker

import "github.com/charmbracelet/lipgloss"

// theme groups reusable styles for walker regions.
type theme struct {
	header     lipgloss.Style
	headerMeta lipgloss.Style
	divider    lipgloss.Style
	panel      lipgloss.Style
	panelTitle lipgloss.Style
	event      lipgloss.Style
	eventTime  lipgloss.Style
	status     lipgloss.Style
	statusErr  lipgloss.Style
	statusOK   lipgloss.Style
}

func defaultTheme() theme {
	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("88")),
		headerMeta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("223")),
		divider: lipgloss.NewStyle().
			Foreground(lipgloss.Color("130")),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("130")).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("214")).
			Padding(0, 1),
		event: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		eventTime: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Bold(true),
		statusErr: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true),
		statusOK: lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")).
			Bold(true),
	}
}
