// Package ui holds the terminal pieces of the irename CLI: the suggestion
// picker, the write confirmation, the in-flight spinner, hover rendering and
// styled notifications.
package ui

import "github.com/charmbracelet/lipgloss"

// Centralized style definitions.
var (
	infoPrefixStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // cyan
	errorPrefixStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")) // red

	nameStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // gray
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")) // magenta

	diffAddStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // green
	diffRemoveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
	diffHunkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // cyan
)
