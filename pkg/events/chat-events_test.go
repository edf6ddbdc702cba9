package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventFromJsonDispatchesOnType(t *testing.T) {
	meta := EventMetadata{
		ID:        uuid.New(),
		SessionID: "s1",
		Model:     "gpt-4o-mini",
		Stream:    true,
	}

	tests := []struct {
		name  string
		event Event
		check func(t *testing.T, e Event)
	}{
		{
			name:  "start",
			event: NewStartEvent(meta),
			check: func(t *testing.T, e Event) {
				_, ok := e.(*EventStart)
				assert.True(t, ok)
			},
		},
		{
			name:  "partial",
			event: NewPartialCompletionEvent(meta, "lo", "Hello"),
			check: func(t *testing.T, e Event) {
				p, ok := e.(*EventPartialCompletion)
				require.True(t, ok)
				assert.Equal(t, "lo", p.Delta)
				assert.Equal(t, "Hello", p.Completion)
			},
		},
		{
			name:  "final",
			event: NewFinalEvent(meta, "Hello world"),
			check: func(t *testing.T, e Event) {
				f, ok := e.(*EventFinal)
				require.True(t, ok)
				assert.Equal(t, "Hello world", f.Text)
			},
		},
		{
			name:  "error",
			event: NewErrorEvent(meta, assert.AnError),
			check: func(t *testing.T, e Event) {
				f, ok := e.(*EventError)
				require.True(t, ok)
				assert.Equal(t, assert.AnError.Error(), f.ErrorString)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.event)
			require.NoError(t, err)

			e, err := NewEventFromJson(b)
			require.NoError(t, err)
			assert.Equal(t, tt.event.Type(), e.Type())
			assert.Equal(t, meta.ID, e.Metadata().ID)
			assert.Equal(t, "s1", e.Metadata().SessionID)
			assert.Equal(t, b, e.Payload())
			tt.check(t, e)
		})
	}
}

func TestNewEventFromJsonUnknownType(t *testing.T) {
	e, err := NewEventFromJson([]byte(`{"type":"tool-call"}`))
	require.NoError(t, err)
	assert.Equal(t, EventType("tool-call"), e.Type())
}

func TestNewEventFromJsonRejectsGarbage(t *testing.T) {
	_, err := NewEventFromJson([]byte(`not json`))
	assert.Error(t, err)

	_, err = NewEventFromJson([]byte(`null`))
	assert.Error(t, err)
}
