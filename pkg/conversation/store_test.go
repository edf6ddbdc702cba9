package conversation

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEnsureSystemInitializesEmptyStore(t *testing.T) {
	s := NewStore()
	s.EnsureSystem("You are terse.")

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, "You are terse.", msgs[0].Content)
}

func TestEnsureSystemTracksLatestPersona(t *testing.T) {
	s := NewStore()
	personas := []string{"first", "second", "", "You are terse."}
	for _, p := range personas {
		s.EnsureSystem(p)
		s.AppendUser("hi")
		s.AppendAssistant("hello")
	}

	msgs := s.Messages()
	require.Len(t, msgs, 1+2*len(personas))
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, "You are terse.", msgs[0].Content)
	for _, m := range msgs[1:] {
		assert.NotEqual(t, RoleSystem, m.Role)
	}
}

func TestEnsureSystemInsertsWhenFirstIsNotSystem(t *testing.T) {
	s := NewStore()
	s.AppendUser("orphan")
	s.EnsureSystem("persona")

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, "persona", msgs[0].Content)
	assert.Equal(t, "orphan", msgs[1].Content)
}

func TestEnsureSystemIsIdempotent(t *testing.T) {
	s := NewStore()
	s.EnsureSystem("p")
	s.EnsureSystem("p")
	s.EnsureSystem("p")
	assert.Equal(t, 1, s.Len())
}

func TestVisibleNeverIncludesSystem(t *testing.T) {
	s := NewStore()
	assert.Empty(t, s.Visible())

	s.EnsureSystem("p")
	assert.Empty(t, s.Visible())

	s.AppendUser("question")
	s.AppendAssistant("answer")
	visible := s.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, RoleUser, visible[0].Role)
	assert.Equal(t, RoleAssistant, visible[1].Role)
}

func TestVisibleReturnsCopies(t *testing.T) {
	s := NewStore()
	s.EnsureSystem("p")
	s.AppendUser("question")

	visible := s.Visible()
	visible[0].Content = "changed"

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, "question", last.Content)
}

func TestForTransportIncludesSystem(t *testing.T) {
	s := NewStore()
	s.EnsureSystem("You are terse.")
	s.AppendUser("Hello")

	assert.Equal(t, []Pair{
		{Role: RoleSystem, Content: "You are terse."},
		{Role: RoleUser, Content: "Hello"},
	}, s.ForTransport())
}

func TestRemoveLastUndoesAppend(t *testing.T) {
	s := NewStore()
	s.EnsureSystem("p")
	before := s.Messages()

	s.AppendUser("X")
	removed, ok := s.RemoveLast()
	require.True(t, ok)
	assert.Equal(t, "X", removed.Content)

	after := s.Messages()
	assert.Equal(t, before, after)
}

func TestRemoveLastOnEmptyStore(t *testing.T) {
	s := NewStore()
	_, ok := s.RemoveLast()
	assert.False(t, ok)
}

func TestResetThenEnsureSystem(t *testing.T) {
	s := NewStore()
	s.EnsureSystem("old")
	s.AppendUser("a")
	s.AppendAssistant("b")

	s.Reset()
	assert.Equal(t, 0, s.Len())

	s.EnsureSystem("new")
	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Equal(t, "new", msgs[0].Content)
}

func TestExportJSONAndYAML(t *testing.T) {
	s := NewStore()
	s.EnsureSystem("p")
	s.AppendUser("Hello")
	s.AppendAssistant("Hi!")

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf, ExportFormatJSON))
	var fromJSON []Message
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	require.Len(t, fromJSON, 3)
	assert.Equal(t, RoleAssistant, fromJSON[2].Role)

	buf.Reset()
	require.NoError(t, s.Export(&buf, ExportFormatYAML))
	var fromYAML []Message
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 3)
	assert.Equal(t, "Hello", fromYAML[1].Content)

	assert.Error(t, s.Export(&buf, ExportFormat("xml")))
}

func TestExportToFileCreatesDirectories(t *testing.T) {
	s := NewStore()
	s.EnsureSystem("p")

	path := filepath.Join(t.TempDir(), "nested", "transcript.yaml")
	require.NoError(t, s.ExportToFile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "role: system")
}

type closeFailingWriter struct {
	bytes.Buffer
	closed bool
}

func (w *closeFailingWriter) Close() error {
	w.closed = true
	return errors.New("disk full")
}

func TestWriteAndCloseReportsCloseError(t *testing.T) {
	s := NewStore()
	s.EnsureSystem("p")

	w := &closeFailingWriter{}
	err := writeAndClose(w, func(w io.Writer) error {
		return s.Export(w, ExportFormatJSON)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, w.closed)
	assert.NotEmpty(t, w.String())
}

func TestWriteAndCloseKeepsWriteError(t *testing.T) {
	s := NewStore()
	w := &closeFailingWriter{}
	err := writeAndClose(w, func(w io.Writer) error {
		return s.Export(w, ExportFormat("xml"))
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export format")
	assert.True(t, w.closed)
}
