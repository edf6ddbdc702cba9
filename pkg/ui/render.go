package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/tachat/pkg/conversation"
	"github.com/rs/zerolog/log"
)

// messageRenderer renders visible messages for the viewport. System messages
// render to nothing.
type messageRenderer struct {
	style       *Style
	glamourName string
	width       int
	md          *glamour.TermRenderer

	out string
}

var _ conversation.RoleVisitor = &messageRenderer{}

func newMessageRenderer(style *Style, glamourStyle string) *messageRenderer {
	r := &messageRenderer{
		style:       style,
		glamourName: glamourStyle,
	}
	r.setWidth(80)
	return r
}

func (r *messageRenderer) setWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == r.width && r.md != nil {
		return
	}
	r.width = width
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.glamourName),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		log.Warn().Err(err).Str("style", r.glamourName).Msg("could not create markdown renderer")
		r.md = nil
		return
	}
	r.md = md
}

func (r *messageRenderer) markdown(text string) string {
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func (r *messageRenderer) VisitSystem(*conversation.Message) error {
	r.out = ""
	return nil
}

func (r *messageRenderer) VisitUser(m *conversation.Message) error {
	r.out = r.style.UserMessage.Width(r.width - 2).Render(m.Content)
	return nil
}

func (r *messageRenderer) VisitAssistant(m *conversation.Message) error {
	r.out = r.style.AssistantMessage.Render(r.markdown(m.Content))
	return nil
}

func (r *messageRenderer) render(m conversation.Message) (string, error) {
	if err := m.Visit(r); err != nil {
		return "", err
	}
	return r.out, nil
}

// renderStreaming renders a reply that is still coming in. It is shown as
// plain text, since half a markdown document often renders badly.
func (r *messageRenderer) renderStreaming(text string) string {
	return r.style.AssistantMessage.Width(r.width - 2).Render(text)
}
