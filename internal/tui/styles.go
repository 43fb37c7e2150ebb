package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	codeStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
)
