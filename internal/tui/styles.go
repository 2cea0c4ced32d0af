package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the view.
type Styles struct {
	Title      lipgloss.Style
	Focused    lipgloss.Style
	Blurred    lipgloss.Style
	Facet      lipgloss.Style
	Cursor     lipgloss.Style
	Selected   lipgloss.Style
	Count      lipgloss.Style
	ResultID   lipgloss.Style
	Meta       lipgloss.Style
	Highlight  lipgloss.Style
	Suggestion lipgloss.Style
	Status     lipgloss.Style
	Error      lipgloss.Style
	Help       lipgloss.Style
}

// DefaultStyles returns the styles used when none are configured.
func DefaultStyles() Styles {
	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Focused:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("205")).Padding(0, 1),
		Blurred:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		Facet:      lipgloss.NewStyle().Bold(true).Underline(true),
		Cursor:     lipgloss.NewStyle().Foreground(lipgloss.Color("205")),
		Selected:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Count:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		ResultID:   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Meta:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Highlight:  lipgloss.NewStyle().Bold(true),
		Suggestion: lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
		Status:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Help:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}
