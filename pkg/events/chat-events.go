package events

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventTypeStart             EventType = "start"
	EventTypePartialCompletion EventType = "partial"
	EventTypeFinal             EventType = "final"
	EventTypeError             EventType = "error"
)

// Event is something that happened while a completion was running.
type Event interface {
	Type() EventType
	Metadata() EventMetadata
	Payload() []byte
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Metadata_ EventMetadata `json:"meta,omitempty"`

	// set by NewEventFromJson, not further used
	payload []byte
}

func (e *EventImpl) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", string(e.Type_))
	ev.Object("meta", e.Metadata_)
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Metadata() EventMetadata {
	return e.Metadata_
}

func (e *EventImpl) Payload() []byte {
	return e.payload
}

var _ Event = &EventImpl{}

type EventStart struct {
	EventImpl
}

func NewStartEvent(metadata EventMetadata) *EventStart {
	return &EventStart{
		EventImpl: EventImpl{
			Type_:     EventTypeStart,
			Metadata_: metadata,
		},
	}
}

var _ Event = &EventStart{}

// EventPartialCompletion carries one fragment of a streamed reply.
type EventPartialCompletion struct {
	EventImpl
	Delta string `json:"delta"`
	// Completion is everything received so far, Delta included.
	Completion string `json:"completion"`
}

func NewPartialCompletionEvent(metadata EventMetadata, delta string, completion string) *EventPartialCompletion {
	return &EventPartialCompletion{
		EventImpl: EventImpl{
			Type_:     EventTypePartialCompletion,
			Metadata_: metadata,
		},
		Delta:      delta,
		Completion: completion,
	}
}

var _ Event = &EventPartialCompletion{}

type EventFinal struct {
	EventImpl
	Text string `json:"text"`
}

func NewFinalEvent(metadata EventMetadata, text string) *EventFinal {
	return &EventFinal{
		EventImpl: EventImpl{
			Type_:     EventTypeFinal,
			Metadata_: metadata,
		},
		Text: text,
	}
}

var _ Event = &EventFinal{}

type EventError struct {
	EventImpl
	ErrorString string `json:"error_string"`
}

func NewErrorEvent(metadata EventMetadata, err error) *EventError {
	return &EventError{
		EventImpl: EventImpl{
			Type_:     EventTypeError,
			Metadata_: metadata,
		},
		ErrorString: err.Error(),
	}
}

var _ Event = &EventError{}

type Usage struct {
	InputTokens  int `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int `json:"output_tokens" yaml:"output_tokens"`
}

// EventMetadata is attached to every event of one completion call.
type EventMetadata struct {
	ID         uuid.UUID `json:"message_id" yaml:"message_id"`
	SessionID  string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Model      string    `json:"model,omitempty" yaml:"model,omitempty"`
	Stream     bool      `json:"stream" yaml:"stream"`
	StopReason *string   `json:"stop_reason,omitempty" yaml:"stop_reason,omitempty"`
	Usage      *Usage    `json:"usage,omitempty" yaml:"usage,omitempty"`
	DurationMs *int64    `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

func (em EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	e.Str("message_id", em.ID.String())
	if em.SessionID != "" {
		e.Str("session_id", em.SessionID)
	}
	if em.Model != "" {
		e.Str("model", em.Model)
	}
	e.Bool("stream", em.Stream)
	if em.StopReason != nil && *em.StopReason != "" {
		e.Str("stop_reason", *em.StopReason)
	}
	if em.Usage != nil {
		e.Int("input_tokens", em.Usage.InputTokens)
		e.Int("output_tokens", em.Usage.OutputTokens)
	}
	if em.DurationMs != nil {
		e.Int64("duration_ms", *em.DurationMs)
	}
}

func NewEventFromJson(b []byte) (Event, error) {
	var e *EventImpl
	err := json.Unmarshal(b, &e)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.New("empty event payload")
	}

	e.payload = b

	switch e.Type_ {
	case EventTypeStart:
		return toTypedEvent[EventStart](b)
	case EventTypePartialCompletion:
		return toTypedEvent[EventPartialCompletion](b)
	case EventTypeFinal:
		return toTypedEvent[EventFinal](b)
	case EventTypeError:
		return toTypedEvent[EventError](b)
	default:
		return e, nil
	}
}

type typedEvent[T any] interface {
	*T
	Event
	setPayload([]byte)
}

func (e *EventImpl) setPayload(b []byte) {
	e.payload = b
}

func toTypedEvent[T any, PT typedEvent[T]](b []byte) (Event, error) {
	var ret T
	if err := json.Unmarshal(b, &ret); err != nil {
		return nil, errors.Wrapf(err, "could not decode %T", ret)
	}
	p := PT(&ret)
	p.setPayload(b)
	return p, nil
}
