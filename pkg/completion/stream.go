package completion

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/go-go-golems/tachat/pkg/events"
	"github.com/go-go-golems/tachat/pkg/helpers"
	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Option func(*options)

type options struct {
	sinks []events.EventSink
}

// WithSinks adds sinks receiving the events of every call.
func WithSinks(sinks ...events.EventSink) Option {
	return func(o *options) {
		o.sinks = append(o.sinks, sinks...)
	}
}

func (o *options) publish(ctx context.Context, e events.Event) {
	for _, sink := range o.sinks {
		if err := sink.PublishEvent(e); err != nil {
			log.Warn().Err(err).Str("event_type", string(e.Type())).Msg("failed to publish event")
		}
	}
	events.PublishEventToContext(ctx, e)
}

func (o *options) fail(ctx context.Context, metadata events.EventMetadata, err error) Reply {
	ce := NewCallError(settings.Model(metadata.Model), err)
	o.publish(ctx, events.NewErrorEvent(metadata, ce))
	log.Debug().Err(err).Str("model", metadata.Model).Str("session_id", metadata.SessionID).Msg("completion failed")
	return FailedReply(ce)
}

// eventStream turns raw deltas from next into a FragmentStream, skipping
// empty deltas and publishing partial, final and error events.
type eventStream struct {
	ctx      context.Context
	opts     *options
	metadata events.EventMetadata
	next     func() (string, error)
	closer   func()

	started time.Time
	text    strings.Builder
	chunks  int
	done    bool
}

func (s *eventStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		delta, err := s.next()
		if errors.Is(err, io.EOF) {
			s.done = true
			s.metadata.DurationMs = helpers.ToPointer(time.Since(s.started).Milliseconds())
			s.opts.publish(s.ctx, events.NewFinalEvent(s.metadata, s.text.String()))
			log.Debug().
				Str("session_id", s.metadata.SessionID).
				Str("model", s.metadata.Model).
				Int("chunks", s.chunks).
				Msg("stream finished")
			return "", io.EOF
		}
		if err != nil {
			s.done = true
			ce := NewCallError(settings.Model(s.metadata.Model), err)
			s.opts.publish(s.ctx, events.NewErrorEvent(s.metadata, ce))
			return "", ce
		}
		if delta == "" {
			continue
		}
		s.chunks++
		s.text.WriteString(delta)
		s.opts.publish(s.ctx, events.NewPartialCompletionEvent(s.metadata, delta, s.text.String()))
		return delta, nil
	}
}

func (s *eventStream) Close() {
	s.done = true
	if s.closer != nil {
		s.closer()
		s.closer = nil
	}
}
