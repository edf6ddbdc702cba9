package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-go-golems/tachat/pkg/chat"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type State string

const (
	StateUserInput        State = "user_input"
	StateEditPersona      State = "edit_persona"
	StateStreamCompletion State = "stream_completion"
)

type turnDoneMsg struct {
	Result chat.TurnResult
}

type Model struct {
	ctx     context.Context
	session *chat.Session

	viewport viewport.Model
	textArea textarea.Model
	persona  textarea.Model
	help     help.Model

	keyMap   KeyMap
	style    *Style
	renderer *messageRenderer

	width  int
	height int

	state State
	// reply of the running turn, cursor included while streaming
	currentResponse string
	// text of the running turn, put back into the input if it fails
	pendingInput string

	err        error
	status     string
	exportPath string
}

type ModelOption func(*Model)

func WithContext(ctx context.Context) ModelOption {
	return func(m *Model) {
		m.ctx = ctx
	}
}

func WithExportPath(path string) ModelOption {
	return func(m *Model) {
		m.exportPath = path
	}
}

// WithGlamourStyle picks a glamour standard style (dark, light, notty...).
func WithGlamourStyle(name string) ModelOption {
	return func(m *Model) {
		m.renderer = newMessageRenderer(m.style, name)
	}
}

func NewModel(session *chat.Session, options ...ModelOption) Model {
	ret := Model{
		ctx:        context.Background(),
		session:    session,
		keyMap:     DefaultKeyMap,
		style:      DefaultStyles(),
		viewport:   viewport.New(80, 20),
		help:       help.New(),
		state:      StateUserInput,
		exportPath: "tachat-transcript.yaml",
		width:      80,
		height:     24,
	}
	ret.renderer = newMessageRenderer(ret.style, "dark")

	for _, o := range options {
		o(&ret)
	}

	ret.textArea = textarea.New()
	ret.textArea.Placeholder = "Ask about Arduino, sensors, microcontrollers..."
	ret.textArea.ShowLineNumbers = false
	ret.textArea.SetHeight(3)
	ret.textArea.Focus()

	ret.persona = textarea.New()
	ret.persona.ShowLineNumbers = false
	ret.persona.SetHeight(6)
	ret.persona.CharLimit = 0

	ret.updateKeyBindings()
	ret.recomputeSize()

	return ret
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recomputeSize()

	case StreamStartMsg:
		if m.ownEvent(msg.Metadata.SessionID) {
			m.currentResponse = ""
		}

	case StreamCompletionMsg:
		if m.ownEvent(msg.Metadata.SessionID) && m.state == StateStreamCompletion {
			m.currentResponse = msg.Completion + chat.Cursor
			m.refresh()
		}

	case StreamDoneMsg:
		if m.ownEvent(msg.Metadata.SessionID) && m.state == StateStreamCompletion {
			m.currentResponse = msg.Text
			m.refresh()
		}

	case StreamErrorMsg:
		// the turn result carries the error
		log.Debug().Str("error", msg.Err).Msg("completion error event")

	case turnDoneMsg:
		cmd = m.finishTurn(msg.Result)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if key.Matches(msg, m.keyMap.Quit) {
		return m, tea.Quit
	}

	if m.state == StateEditPersona {
		switch {
		case key.Matches(msg, m.keyMap.ApplyPersona):
			m.session.SetPersona(m.persona.Value())
			m.status = "persona updated"
			cmd = m.leavePersonaEditor()
		case key.Matches(msg, m.keyMap.CancelEdit):
			cmd = m.leavePersonaEditor()
		default:
			m.persona, cmd = m.persona.Update(msg)
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keyMap.SubmitMessage):
		return m, m.submit()

	case key.Matches(msg, m.keyMap.ClearHistory):
		if err := m.session.Clear(); err != nil {
			m.err = err
		} else {
			m.err = nil
			m.status = "history cleared"
		}
		m.refresh()

	case key.Matches(msg, m.keyMap.CycleModel):
		next := m.session.Settings().Model.Next()
		if err := m.session.SetModel(next); err != nil {
			m.err = err
		} else {
			m.status = fmt.Sprintf("model: %s (%s)", next, next.Description())
		}

	case key.Matches(msg, m.keyMap.ToggleStream):
		m.session.SetStream(!m.session.Settings().Stream)

	case key.Matches(msg, m.keyMap.EditPersona):
		m.state = StateEditPersona
		m.persona.SetValue(m.session.Settings().Persona)
		m.textArea.Blur()
		cmd = m.persona.Focus()
		m.updateKeyBindings()
		m.recomputeSize()

	case key.Matches(msg, m.keyMap.ExportTranscript):
		if err := m.session.ExportToFile(m.exportPath); err != nil {
			m.err = errors.Wrap(err, "could not export transcript")
		} else {
			m.status = "transcript exported to " + m.exportPath
		}

	case key.Matches(msg, m.keyMap.CancelEdit):
		m.err = nil
		m.status = ""

	case key.Matches(msg, m.keyMap.ScrollUp), key.Matches(msg, m.keyMap.ScrollDown):
		m.viewport, cmd = m.viewport.Update(msg)

	default:
		if m.state == StateUserInput {
			m.textArea, cmd = m.textArea.Update(msg)
		}
	}

	m.recomputeSize()
	return m, cmd
}

func (m *Model) submit() tea.Cmd {
	if m.state != StateUserInput {
		return nil
	}
	text := m.textArea.Value()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	m.pendingInput = text
	m.textArea.Reset()
	m.textArea.Blur()
	m.currentResponse = ""
	m.err = nil
	m.status = ""
	m.state = StateStreamCompletion
	m.updateKeyBindings()

	session := m.session
	ctx := m.ctx
	return func() tea.Msg {
		// progress arrives as events through the router
		return turnDoneMsg{Result: session.Submit(ctx, text, nil)}
	}
}

func (m *Model) finishTurn(res chat.TurnResult) tea.Cmd {
	if res.Err != nil {
		m.err = res.Err
		if !errors.Is(res.Err, chat.ErrTurnInProgress) {
			m.textArea.SetValue(m.pendingInput)
		}
	}
	m.pendingInput = ""
	m.currentResponse = ""
	m.state = StateUserInput
	m.updateKeyBindings()
	m.recomputeSize()
	return m.textArea.Focus()
}

func (m *Model) leavePersonaEditor() tea.Cmd {
	m.persona.Blur()
	m.state = StateUserInput
	m.updateKeyBindings()
	m.recomputeSize()
	return m.textArea.Focus()
}

func (m *Model) ownEvent(sessionID string) bool {
	return sessionID == "" || sessionID == m.session.ID
}

func (m *Model) updateKeyBindings() {
	idle := m.state == StateUserInput
	editing := m.state == StateEditPersona

	m.keyMap.SubmitMessage.SetEnabled(idle)
	m.keyMap.ClearHistory.SetEnabled(idle)
	m.keyMap.CycleModel.SetEnabled(idle)
	m.keyMap.ToggleStream.SetEnabled(idle)
	m.keyMap.EditPersona.SetEnabled(idle)
	m.keyMap.ExportTranscript.SetEnabled(idle)
	m.keyMap.ApplyPersona.SetEnabled(editing)
	m.keyMap.CancelEdit.SetEnabled(idle || editing)
}

func (m *Model) recomputeSize() {
	m.renderer.setWidth(m.width)

	fixed := lipgloss.Height(m.headerView()) +
		lipgloss.Height(m.inputView()) +
		lipgloss.Height(m.help.View(m.keyMap))
	if v := m.errorView(); v != "" {
		fixed += lipgloss.Height(v)
	}

	h, _ := m.style.FocusedInput.GetFrameSize()
	m.textArea.SetWidth(m.width - h)
	m.persona.SetWidth(m.width - h)

	height := m.height - fixed
	if height < 0 {
		height = 0
	}
	m.viewport.Width = m.width
	m.viewport.Height = height
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.messageView())
	m.viewport.GotoBottom()
}

func (m Model) headerView() string {
	cs := m.session.Settings()
	stream := "off"
	if cs.Stream {
		stream = "on"
	}
	status := fmt.Sprintf("model: %s  stream: %s", cs.Model, stream)
	if m.status != "" {
		status += "  " + m.status
	}
	return m.style.Header.Render("Embedded AI TA") + "  " + m.style.Status.Render(status)
}

func (m Model) messageView() string {
	var parts []string
	for _, msg := range m.session.Visible() {
		out, err := m.renderer.render(msg)
		if err != nil {
			log.Warn().Err(err).Str("message_id", msg.ID.String()).Msg("could not render message")
			continue
		}
		if out != "" {
			parts = append(parts, out)
		}
	}
	if m.state == StateStreamCompletion && m.currentResponse != "" {
		parts = append(parts, m.renderer.renderStreaming(m.currentResponse))
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) inputView() string {
	switch m.state {
	case StateEditPersona:
		return m.style.FocusedInput.Render(m.persona.View())
	case StateStreamCompletion:
		return m.style.BlurredInput.Render(m.textArea.View())
	case StateUserInput:
	}
	return m.style.FocusedInput.Render(m.textArea.View())
}

func (m Model) errorView() string {
	if m.err == nil {
		return ""
	}
	w, _ := m.style.Error.GetFrameSize()
	return m.style.Error.Width(m.width - w).Render(m.err.Error())
}

func (m Model) View() string {
	parts := []string{m.headerView(), m.viewport.View()}
	if v := m.errorView(); v != "" {
		parts = append(parts, v)
	}
	parts = append(parts, m.inputView(), m.help.View(m.keyMap))
	return strings.Join(parts, "\n")
}
