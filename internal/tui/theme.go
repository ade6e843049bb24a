package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	header     lipgloss.Style
	panel      lipgloss.Style
	panelTitle lipgloss.Style
	activeTab  lipgloss.Style
	tab        lipgloss.Style
	user       lipgloss.Style
	assistant  lipgloss.Style
	errorText  lipgloss.Style
	dim        lipgloss.Style
	accent     lipgloss.Style
	status     lipgloss.Style
	statusErr  lipgloss.Style
	detail     lipgloss.Style
}

func newTheme() theme {
	border := lipgloss.Color("#3b4252")
	return theme{
		header:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e5e9f0")).Background(lipgloss.Color("#293340")).Padding(0, 1),
		panel:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(0, 1),
		panelTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#88c0d0")),
		activeTab:  lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#88c0d0")),
		tab:        lipgloss.NewStyle().Foreground(lipgloss.Color("#616e88")),
		user:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a3be8c")),
		assistant:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#81a1c1")),
		errorText:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f44336")),
		dim:        lipgloss.NewStyle().Foreground(lipgloss.Color("#616e88")),
		accent:     lipgloss.NewStyle().Foreground(lipgloss.Color("#ebcb8b")),
		status:     lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c")),
		statusErr:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f44336")),
		detail:     lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).BorderForeground(border),
	}
}

// confidenceStyle colorea segun el hex de la banda.
func confidenceStyle(hex string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
}
