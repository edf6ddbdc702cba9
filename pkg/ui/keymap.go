package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	SubmitMessage    key.Binding
	ClearHistory     key.Binding
	CycleModel       key.Binding
	ToggleStream     key.Binding
	EditPersona      key.Binding
	ApplyPersona     key.Binding
	CancelEdit       key.Binding
	ExportTranscript key.Binding
	ScrollUp         key.Binding
	ScrollDown       key.Binding

	Quit key.Binding
}

var DefaultKeyMap = KeyMap{
	SubmitMessage: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "send"),
	),
	ClearHistory: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear history"),
	),
	CycleModel: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "model"),
	),
	ToggleStream: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "streaming"),
	),
	EditPersona: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "persona"),
	),
	ApplyPersona: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "apply persona"),
	),
	CancelEdit: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
	ExportTranscript: key.NewBinding(
		key.WithKeys("ctrl+e"),
		key.WithHelp("ctrl+e", "export"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdown", "scroll down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.SubmitMessage, k.ApplyPersona, k.CancelEdit,
		k.ClearHistory, k.CycleModel, k.ToggleStream, k.EditPersona, k.ExportTranscript,
		k.Quit,
	}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SubmitMessage, k.ClearHistory, k.ExportTranscript},
		{k.CycleModel, k.ToggleStream, k.EditPersona, k.ApplyPersona, k.CancelEdit},
		{k.ScrollUp, k.ScrollDown, k.Quit},
	}
}
