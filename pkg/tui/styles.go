package tui

import "github.com/charmbracelet/lipgloss"

var (
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	StyleSubtle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	StyleLabel = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	StyleLoading = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	StyleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#991B1B")).
			Background(lipgloss.Color("#FEE2E2")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FCA5A5")).
			Padding(0, 1)

	StyleResultTitle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#6D28D9")).
				MarginBottom(1)

	StyleResult = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#A78BFA")).
			Padding(0, 1)

	StyleBullet = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8B5CF6"))
)
