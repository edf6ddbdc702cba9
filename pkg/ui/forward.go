package ui

import (
	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/tachat/pkg/events"
)

type StreamStartMsg struct {
	Metadata events.EventMetadata
}

type StreamCompletionMsg struct {
	Metadata   events.EventMetadata
	Delta      string
	Completion string
}

type StreamDoneMsg struct {
	Metadata events.EventMetadata
	Text     string
}

type StreamErrorMsg struct {
	Metadata events.EventMetadata
	Err      string
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// ForwardFunc turns completion events from the router into bubbletea
// messages for p.
func ForwardFunc(p Sender) func(msg *message.Message) error {
	return events.EventHandlerFunc(func(e events.Event) error {
		switch e_ := e.(type) {
		case *events.EventStart:
			p.Send(StreamStartMsg{Metadata: e_.Metadata()})
		case *events.EventPartialCompletion:
			p.Send(StreamCompletionMsg{
				Metadata:   e_.Metadata(),
				Delta:      e_.Delta,
				Completion: e_.Completion,
			})
		case *events.EventFinal:
			p.Send(StreamDoneMsg{Metadata: e_.Metadata(), Text: e_.Text})
		case *events.EventError:
			p.Send(StreamErrorMsg{Metadata: e_.Metadata(), Err: e_.ErrorString})
		}
		return nil
	})
}
