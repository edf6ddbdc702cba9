package ui

import "github.com/charmbracelet/lipgloss"

type Style struct {
	Header           lipgloss.Style
	Status           lipgloss.Style
	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	FocusedInput     lipgloss.Style
	BlurredInput     lipgloss.Style
	Error            lipgloss.Style
}

func DefaultStyles() *Style {
	return &Style{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		UserMessage: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("12")).
			PaddingLeft(1),
		AssistantMessage: lipgloss.NewStyle().PaddingLeft(1),
		FocusedInput: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")),
		BlurredInput: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
		Error: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Foreground(lipgloss.Color("9")).
			Padding(0, 1),
	}
}
