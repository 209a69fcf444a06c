package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	header    lipgloss.Style
	timestamp lipgloss.Style
	self      lipgloss.Style
	peer      lipgloss.Style
	pending   lipgloss.Style
	failed    lipgloss.Style
	status    lipgloss.Style
	errStatus lipgloss.Style
	hint      lipgloss.Style

	send        lipgloss.Style
	sendIdle    lipgloss.Style
	sendFocused lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1),
		timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		self:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		peer:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		pending:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		failed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		errStatus: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		hint:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		send:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1).MarginLeft(1),
		sendIdle:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1).MarginLeft(1),
		sendFocused: lipgloss.NewStyle().Bold(true).Reverse(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1).MarginLeft(1),
	}
}
