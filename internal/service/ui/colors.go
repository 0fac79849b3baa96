package ui

import "github.com/charmbracelet/lipgloss"

// Basic ANSI colors only, so output stays readable on light and dark themes.
var (
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)

	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// DescStyle is dimmed so descriptions recede behind names.
	DescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	FlagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

	// AgentStyle prefixes lines spoken by an agent.
	AgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
)
