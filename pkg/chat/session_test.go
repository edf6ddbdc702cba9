package chat

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/go-go-golems/tachat/pkg/completion"
	"github.com/go-go-golems/tachat/pkg/conversation"
	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient answers every call with the next scripted step.
type scriptedClient struct {
	mu       sync.Mutex
	steps    []scriptedStep
	requests []completion.Request
}

type scriptedStep struct {
	fragments []string
	// failAfter makes a stream fail after that many fragments
	failAfter int
	err       error
}

func (c *scriptedClient) Complete(ctx context.Context, req completion.Request) completion.Reply {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	step := c.steps[0]
	c.steps = c.steps[1:]
	c.mu.Unlock()

	if step.err != nil && step.failAfter == 0 {
		return completion.FailedReply(completion.NewCallError(req.Model, step.err))
	}
	if !req.Stream {
		return completion.TextReply(strings.Join(step.fragments, ""))
	}
	return completion.StreamReply(&scriptedStream{step: step})
}

type scriptedStream struct {
	step scriptedStep
	sent int
}

func (s *scriptedStream) Recv() (string, error) {
	if s.step.err != nil && s.sent == s.step.failAfter {
		return "", s.step.err
	}
	if s.sent >= len(s.step.fragments) {
		return "", io.EOF
	}
	f := s.step.fragments[s.sent]
	s.sent++
	return f, nil
}

func (s *scriptedStream) Close() {}

type recordingDisplay struct {
	partials []string
	finals   []string
	errors   []string
}

func (d *recordingDisplay) Partial(text string) { d.partials = append(d.partials, text) }
func (d *recordingDisplay) Final(text string)   { d.finals = append(d.finals, text) }
func (d *recordingDisplay) Error(message string) {
	d.errors = append(d.errors, message)
}

func TestNewSessionInitializesSystemMessage(t *testing.T) {
	s := NewSession(&scriptedClient{}, nil)
	transcript := s.Transcript()
	require.Len(t, transcript, 1)
	assert.Equal(t, conversation.RoleSystem, transcript[0].Role)
	assert.Equal(t, settings.DefaultPersona, transcript[0].Content)
	assert.Empty(t, s.Visible())
	assert.NotEmpty(t, s.ID)
}

func TestPersonaEditsOverlaySystemMessage(t *testing.T) {
	client := &scriptedClient{steps: []scriptedStep{{fragments: []string{"ok"}}}}
	s := NewSession(client, nil)

	for _, p := range []string{"one", "two", "", "You are terse."} {
		s.SetPersona(p)
		transcript := s.Transcript()
		assert.Equal(t, conversation.RoleSystem, transcript[0].Role)
		assert.Equal(t, p, transcript[0].Content)
	}

	res := s.Submit(context.Background(), "hi", nil)
	require.NoError(t, res.Err)
	s.SetPersona("You are verbose.")
	transcript := s.Transcript()
	require.Len(t, transcript, 3)
	assert.Equal(t, "You are verbose.", transcript[0].Content)
	assert.Equal(t, "You are terse.", client.requests[0].Transcript[0].Content)
}

func TestSubmitStreamingSuccess(t *testing.T) {
	client := &scriptedClient{steps: []scriptedStep{{fragments: []string{"Hel", "", "lo", "!"}}}}
	s := NewSession(client, nil)
	d := &recordingDisplay{}

	before := len(s.Transcript())
	res := s.Submit(context.Background(), "Hello", d)
	require.True(t, res.Ok())
	assert.Equal(t, "Hello!", res.Reply)
	assert.Equal(t, "Hello", res.User.Content)

	assert.Equal(t, []string{"Hel" + Cursor, "Hello" + Cursor, "Hello!" + Cursor}, d.partials)
	assert.Equal(t, []string{"Hello!"}, d.finals)
	assert.Empty(t, d.errors)
	assert.NotContains(t, d.finals[0], Cursor)

	transcript := s.Transcript()
	assert.Len(t, transcript, before+2)
	assert.Equal(t, conversation.Pair{Role: conversation.RoleAssistant, Content: "Hello!"}, transcript[len(transcript)-1])
	assert.Equal(t, res.Reply, d.finals[0])
}

func TestSubmitTerseScenario(t *testing.T) {
	client := &scriptedClient{steps: []scriptedStep{{fragments: []string{"Hi."}}}}
	s := NewSession(client, nil)
	s.SetPersona("You are terse.")
	require.NoError(t, s.SetModel(settings.ModelGPT35Turbo))
	s.SetStream(false)

	d := &recordingDisplay{}
	res := s.Submit(context.Background(), "Hello", d)
	require.NoError(t, res.Err)

	assert.Equal(t, []conversation.Pair{
		{Role: conversation.RoleSystem, Content: "You are terse."},
		{Role: conversation.RoleUser, Content: "Hello"},
		{Role: conversation.RoleAssistant, Content: "Hi."},
	}, s.Transcript())

	require.Len(t, client.requests, 1)
	assert.Equal(t, settings.ModelGPT35Turbo, client.requests[0].Model)
	assert.False(t, client.requests[0].Stream)
	assert.Equal(t, s.ID, client.requests[0].SessionID)
	assert.Empty(t, d.partials)
	assert.Equal(t, []string{"Hi."}, d.finals)
}

func TestSubmitFailureRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		stream bool
		step   scriptedStep
	}{
		{name: "provider error", stream: false, step: scriptedStep{err: errors.New("401 unauthorized")}},
		{name: "stream setup error", stream: true, step: scriptedStep{err: errors.New("connection refused")}},
		{name: "mid-stream error", stream: true, step: scriptedStep{fragments: []string{"par", "tial"}, failAfter: 1, err: errors.New("connection reset")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{steps: []scriptedStep{
				{fragments: []string{"first answer"}},
				tt.step,
			}}
			s := NewSession(client, nil)
			s.SetStream(tt.stream)
			require.NoError(t, s.Submit(context.Background(), "first", nil).Err)

			before := s.Transcript()
			d := &recordingDisplay{}
			res := s.Submit(context.Background(), "X", d)
			require.Error(t, res.Err)

			var ce *completion.CallError
			require.True(t, errors.As(res.Err, &ce))
			assert.Equal(t, settings.DefaultModel, ce.Model)

			assert.Equal(t, before, s.Transcript())
			for _, m := range s.Visible() {
				assert.NotEqual(t, "X", m.Content)
			}
			require.Len(t, d.errors, 1)
			assert.True(t, strings.HasPrefix(d.errors[0], "An error occurred while calling the OpenAI API with model gpt-4o-mini"))
			assert.Empty(t, d.finals)
			assert.False(t, s.Busy())
		})
	}
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	client := &scriptedClient{}
	s := NewSession(client, nil)
	for _, text := range []string{"", "   ", "\n\t"} {
		res := s.Submit(context.Background(), text, nil)
		assert.ErrorIs(t, res.Err, ErrEmptyInput)
	}
	assert.Empty(t, client.requests)
	assert.Len(t, s.Transcript(), 1)
}

// blockingClient streams one fragment, then waits for release.
type blockingClient struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingClient) Complete(ctx context.Context, req completion.Request) completion.Reply {
	close(b.started)
	<-b.release
	return completion.TextReply("done")
}

func TestSubmitRejectsConcurrentTurn(t *testing.T) {
	client := &blockingClient{started: make(chan struct{}), release: make(chan struct{})}
	s := NewSession(client, nil)

	done := make(chan TurnResult)
	go func() {
		done <- s.Submit(context.Background(), "first", nil)
	}()
	<-client.started

	assert.True(t, s.Busy())
	assert.ErrorIs(t, s.Submit(context.Background(), "second", nil).Err, ErrTurnInProgress)
	assert.ErrorIs(t, s.Clear(), ErrTurnInProgress)

	close(client.release)
	res := <-done
	require.NoError(t, res.Err)
	assert.Len(t, s.Transcript(), 3)
	assert.False(t, s.Busy())
}

func TestClearKeepsOnlyPersona(t *testing.T) {
	client := &scriptedClient{steps: []scriptedStep{{fragments: []string{"a"}}, {fragments: []string{"b"}}}}
	s := NewSession(client, nil)
	require.NoError(t, s.Submit(context.Background(), "1", nil).Err)
	s.SetPersona("new persona")
	require.NoError(t, s.Submit(context.Background(), "2", nil).Err)

	require.NoError(t, s.Clear())
	assert.Equal(t, []conversation.Pair{{Role: conversation.RoleSystem, Content: "new persona"}}, s.Transcript())
	assert.Empty(t, s.Visible())
}

func TestSetModelValidates(t *testing.T) {
	s := NewSession(&scriptedClient{}, nil)
	assert.ErrorIs(t, s.SetModel("gpt-4"), settings.ErrUnsupportedModel)
	assert.Equal(t, settings.DefaultModel, s.Settings().Model)
	require.NoError(t, s.SetModel(settings.ModelGPT35Turbo))
	assert.Equal(t, settings.ModelGPT35Turbo, s.Settings().Model)
}

func TestSettingsAreCopied(t *testing.T) {
	cs := settings.NewChatSettings()
	s := NewSession(&scriptedClient{}, cs)
	cs.Persona = "changed outside"
	assert.Equal(t, settings.DefaultPersona, s.Settings().Persona)

	got := s.Settings()
	got.Persona = "changed copy"
	assert.Equal(t, settings.DefaultPersona, s.Settings().Persona)
}

func TestSessionWithEchoClient(t *testing.T) {
	s := NewSession(completion.NewEchoClient(0), nil)
	d := &recordingDisplay{}
	res := s.Submit(context.Background(), "ping", d)
	require.NoError(t, res.Err)
	assert.Equal(t, "ping", res.Reply)
	assert.Equal(t, "ping"+Cursor, d.partials[len(d.partials)-1])
	assert.Equal(t, []string{"ping"}, d.finals)
}

func TestSessionExport(t *testing.T) {
	client := &scriptedClient{steps: []scriptedStep{{fragments: []string{"answer"}}}}
	s := NewSession(client, nil)
	require.NoError(t, s.Submit(context.Background(), "question", nil).Err)

	var sb strings.Builder
	require.NoError(t, s.Export(&sb, conversation.ExportFormatYAML))
	assert.Contains(t, sb.String(), "question")
	assert.Contains(t, sb.String(), "answer")
}
