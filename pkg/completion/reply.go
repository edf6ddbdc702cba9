package completion

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/pkg/errors"
)

// FragmentStream yields reply fragments in order. Recv returns io.EOF once
// the reply is complete. A stream can only be consumed once.
type FragmentStream interface {
	Recv() (string, error)
	Close()
}

// Reply is the outcome of one completion call: a full text, a stream of
// fragments, or a failure.
type Reply struct {
	text   string
	stream FragmentStream
	err    error
}

func TextReply(text string) Reply {
	return Reply{text: text}
}

func StreamReply(stream FragmentStream) Reply {
	return Reply{stream: stream}
}

func FailedReply(err error) Reply {
	return Reply{err: err}
}

func (r Reply) Ok() bool {
	return r.err == nil
}

func (r Reply) Err() error {
	return r.err
}

func (r Reply) IsStream() bool {
	return r.err == nil && r.stream != nil
}

func (r Reply) Text() string {
	return r.text
}

func (r Reply) Stream() FragmentStream {
	return r.stream
}

// Collect drains stream, calling fn with each non-empty fragment and the
// text assembled so far. On error the partial text is returned with it.
func Collect(stream FragmentStream, fn func(delta string, soFar string) error) (string, error) {
	defer stream.Close()

	var sb strings.Builder
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if fn != nil {
			if err := fn(delta, sb.String()); err != nil {
				return sb.String(), err
			}
		}
	}
}

// CallError is the single failure kind of a completion call.
type CallError struct {
	Model settings.Model
	Err   error
}

func NewCallError(model settings.Model, err error) *CallError {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce
	}
	return &CallError{Model: model, Err: err}
}

func (e *CallError) Error() string {
	return fmt.Sprintf("An error occurred while calling the OpenAI API with model %s: %v", e.Model, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}
