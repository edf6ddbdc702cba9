package chat

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-go-golems/tachat/pkg/completion"
	"github.com/go-go-golems/tachat/pkg/conversation"
	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Cursor is appended to the assistant text while a reply is still streaming.
const Cursor = "▌"

var (
	ErrEmptyInput     = errors.New("empty input")
	ErrTurnInProgress = errors.New("a reply is still being generated")
)

// Display receives the progress of one turn.
type Display interface {
	// Partial is called for every streamed fragment with the text so far,
	// followed by Cursor.
	Partial(text string)
	Final(text string)
	Error(message string)
}

type NopDisplay struct{}

func (NopDisplay) Partial(string) {}
func (NopDisplay) Final(string)   {}
func (NopDisplay) Error(string)   {}

// TurnResult is the outcome of Submit. Err is nil on success.
type TurnResult struct {
	User  conversation.Message
	Reply string
	Err   error
}

func (r TurnResult) Ok() bool {
	return r.Err == nil
}

// Session is the state of one conversation: its transcript and settings.
// All methods are safe for concurrent use, but only one turn runs at a time.
type Session struct {
	ID string

	client completion.Client

	mu         sync.Mutex
	store      *conversation.Store
	settings   *settings.ChatSettings
	inFlight   bool
	lastActive time.Time
}

func NewSession(client completion.Client, cs *settings.ChatSettings) *Session {
	if cs == nil {
		cs = settings.NewChatSettings()
	}
	ret := &Session{
		ID:         uuid.NewString(),
		client:     client,
		store:      conversation.NewStore(),
		settings:   cs.Clone(),
		lastActive: time.Now(),
	}
	ret.store.EnsureSystem(ret.settings.Persona)
	return ret
}

func (s *Session) Settings() *settings.ChatSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// SetPersona changes the system instruction. The transcript picks it up
// immediately.
func (s *Session) SetPersona(persona string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Persona = persona
	s.store.EnsureSystem(persona)
}

func (s *Session) SetModel(m settings.Model) error {
	if !m.IsSupported() {
		return errors.Wrapf(settings.ErrUnsupportedModel, "%q", m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Model = m
	return nil
}

func (s *Session) SetStream(stream bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Stream = stream
}

// Clear drops the history, keeping only the system message.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrTurnInProgress
	}
	s.store.Reset()
	s.store.EnsureSystem(s.settings.Persona)
	log.Debug().Str("session_id", s.ID).Msg("cleared conversation")
	return nil
}

func (s *Session) Visible() []conversation.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.EnsureSystem(s.settings.Persona)
	return s.store.Visible()
}

func (s *Session) Transcript() []conversation.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.EnsureSystem(s.settings.Persona)
	return s.store.ForTransport()
}

func (s *Session) Export(w io.Writer, format conversation.ExportFormat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Export(w, format)
}

func (s *Session) ExportToFile(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ExportToFile(filename)
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastActive) {
		s.lastActive = now
	}
}

// idleSince reports whether the session has no turn running and was last
// used before cutoff.
func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.inFlight && s.lastActive.Before(cutoff)
}

// Submit runs one turn: the user text is appended, the model is called and
// its reply appended. If the call fails, the user text is removed again and
// the error is reported to d, leaving the transcript as it was before.
func (s *Session) Submit(ctx context.Context, text string, d Display) TurnResult {
	if d == nil {
		d = NopDisplay{}
	}
	if strings.TrimSpace(text) == "" {
		return TurnResult{Err: ErrEmptyInput}
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return TurnResult{Err: ErrTurnInProgress}
	}
	s.inFlight = true
	s.lastActive = time.Now()
	s.store.EnsureSystem(s.settings.Persona)
	user := s.store.AppendUser(text)
	req := completion.Request{
		Model:      s.settings.Model,
		Transcript: s.store.ForTransport(),
		Stream:     s.settings.Stream,
		SessionID:  s.ID,
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.lastActive = time.Now()
		s.mu.Unlock()
	}()

	log.Debug().
		Str("session_id", s.ID).
		Str("model", string(req.Model)).
		Bool("stream", req.Stream).
		Int("message_count", len(req.Transcript)).
		Msg("submitting turn")

	reply, err := s.complete(ctx, req, d)

	s.mu.Lock()
	if err != nil {
		s.rollback(user)
		s.mu.Unlock()

		err = completion.NewCallError(req.Model, err)
		log.Warn().Err(err).Str("session_id", s.ID).Msg("turn failed, rolled back user message")
		d.Error(err.Error())
		return TurnResult{User: *user, Err: err}
	}
	s.store.AppendAssistant(reply)
	s.mu.Unlock()

	return TurnResult{User: *user, Reply: reply}
}

func (s *Session) complete(ctx context.Context, req completion.Request, d Display) (string, error) {
	reply := s.client.Complete(ctx, req)
	if !reply.Ok() {
		return "", reply.Err()
	}
	if !reply.IsStream() {
		d.Final(reply.Text())
		return reply.Text(), nil
	}

	text, err := completion.Collect(reply.Stream(), func(delta string, soFar string) error {
		d.Partial(soFar + Cursor)
		return nil
	})
	if err != nil {
		return "", err
	}
	d.Final(text)
	return text, nil
}

// rollback removes the user message of a failed turn. It has to be the last
// message, since Clear is refused while a turn is running.
func (s *Session) rollback(user *conversation.Message) {
	last, ok := s.store.Last()
	if !ok || last.ID != user.ID {
		log.Error().Str("session_id", s.ID).Msg("user message of failed turn is not the last message, not rolling back")
		return
	}
	s.store.RemoveLast()
}
