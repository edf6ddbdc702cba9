package completion

import (
	"context"
	"io"
	"time"
	"unicode/utf8"

	"github.com/go-go-golems/tachat/pkg/events"
	"github.com/go-go-golems/tachat/pkg/helpers"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// EchoClient answers with the last user message, character by character when
// streaming. It needs no credentials and is used for offline runs and tests.
type EchoClient struct {
	Delay time.Duration
	opts  *options
}

var _ Client = &EchoClient{}

func NewEchoClient(delay time.Duration, options_ ...Option) *EchoClient {
	ret := &EchoClient{
		Delay: delay,
		opts:  &options{},
	}
	for _, o := range options_ {
		o(ret.opts)
	}
	return ret
}

func (e *EchoClient) Complete(ctx context.Context, req Request) Reply {
	metadata := events.EventMetadata{
		ID:        uuid.New(),
		SessionID: req.SessionID,
		Model:     string(req.Model),
		Stream:    req.Stream,
	}

	if err := req.Validate(); err != nil {
		return e.opts.fail(ctx, metadata, err)
	}
	text, ok := req.LastUserContent()
	if !ok {
		return e.opts.fail(ctx, metadata, errors.New("no user message to echo"))
	}

	e.opts.publish(ctx, events.NewStartEvent(metadata))
	started := time.Now()

	if !req.Stream {
		metadata.DurationMs = helpers.ToPointer(time.Since(started).Milliseconds())
		e.opts.publish(ctx, events.NewFinalEvent(metadata, text))
		return TextReply(text)
	}

	ctx_, cancel := context.WithCancel(ctx)
	c := make(chan helpers.Result[string])
	// only read after c is closed
	complete := false

	go func() {
		defer close(c)
		for i := 0; i < len(text); {
			_, size := utf8.DecodeRuneInString(text[i:])
			fragment := text[i : i+size]
			i += size
			if e.Delay > 0 {
				select {
				case <-ctx_.Done():
					return
				case <-time.After(e.Delay):
				}
			}
			select {
			case <-ctx_.Done():
				return
			case c <- helpers.NewValueResult(fragment):
			}
		}
		complete = true
	}()

	es := &eventStream{
		ctx:      ctx,
		opts:     e.opts,
		metadata: metadata,
		started:  started,
		closer:   cancel,
	}
	es.next = func() (string, error) {
		r, ok := <-c
		if !ok {
			if !complete {
				return "", ctx_.Err()
			}
			return "", io.EOF
		}
		return r.Value()
	}
	return StreamReply(es)
}
