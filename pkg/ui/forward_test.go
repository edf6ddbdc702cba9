package ui

import (
	"encoding/json"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/tachat/pkg/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.msgs = append(r.msgs, msg)
}

func TestForwardFunc(t *testing.T) {
	sender := &recordingSender{}
	f := ForwardFunc(sender)

	meta := events.EventMetadata{ID: uuid.New(), SessionID: "s1"}
	for _, e := range []events.Event{
		events.NewStartEvent(meta),
		events.NewPartialCompletionEvent(meta, "a", "a"),
		events.NewFinalEvent(meta, "a"),
		events.NewErrorEvent(meta, assert.AnError),
	} {
		b, err := json.Marshal(e)
		require.NoError(t, err)
		require.NoError(t, f(message.NewMessage(watermill.NewUUID(), b)))
	}

	require.Len(t, sender.msgs, 4)
	assert.IsType(t, StreamStartMsg{}, sender.msgs[0])
	partial := sender.msgs[1].(StreamCompletionMsg)
	assert.Equal(t, "a", partial.Completion)
	assert.Equal(t, "s1", partial.Metadata.SessionID)
	assert.Equal(t, StreamDoneMsg{Metadata: meta, Text: "a"}.Text, sender.msgs[2].(StreamDoneMsg).Text)
	assert.Equal(t, assert.AnError.Error(), sender.msgs[3].(StreamErrorMsg).Err)
}
