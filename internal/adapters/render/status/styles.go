package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	label   lipgloss.Style
	postID  lipgloss.Style
	detail  lipgloss.Style
	comment lipgloss.Style
	warning lipgloss.Style
	section lipgloss.Style
	empty   lipgloss.Style
	topic   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		label:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		postID:  lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		comment: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section: lipgloss.NewStyle().MarginTop(1),
		empty:   lipgloss.NewStyle().Faint(true),
		topic:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}
