package notifications

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	badge    lipgloss.Style
	unread   lipgloss.Style
	read     lipgloss.Style
	kind     lipgloss.Style
	when     lipgloss.Style
	empty    lipgloss.Style
	softErr  lipgloss.Style
	selected lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		badge:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		unread:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		read:     lipgloss.NewStyle().Faint(true),
		kind:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		when:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		empty:    lipgloss.NewStyle().Faint(true),
		softErr:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
	}
}
