package conversation

import (
	"github.com/rs/zerolog/log"
)

// Store holds the linear transcript of one chat session.
//
// Once EnsureSystem has been called, the first message is always the system
// message carrying the current persona. The store does no locking: the
// session that owns it handles one event at a time.
type Store struct {
	messages []*Message
}

func NewStore() *Store {
	return &Store{}
}

// EnsureSystem makes sure index 0 is a system message with the given persona.
// It is safe to call on every render or event.
func (s *Store) EnsureSystem(persona string) {
	switch {
	case len(s.messages) == 0:
		s.messages = []*Message{NewMessage(RoleSystem, persona)}
	case s.messages[0].Role == RoleSystem:
		s.messages[0].Content = persona
	default:
		log.Debug().
			Str("first_role", string(s.messages[0].Role)).
			Int("message_count", len(s.messages)).
			Msg("transcript does not start with a system message, inserting one")
		s.messages = append([]*Message{NewMessage(RoleSystem, persona)}, s.messages...)
	}
}

func (s *Store) AppendUser(text string) *Message {
	return s.append(NewMessage(RoleUser, text))
}

func (s *Store) AppendAssistant(text string) *Message {
	return s.append(NewMessage(RoleAssistant, text))
}

func (s *Store) append(m *Message) *Message {
	s.messages = append(s.messages, m)
	return m
}

// RemoveLast drops the final message. It is used to undo a user message whose
// completion call failed.
func (s *Store) RemoveLast() (*Message, bool) {
	if len(s.messages) == 0 {
		return nil, false
	}
	last := s.messages[len(s.messages)-1]
	s.messages[len(s.messages)-1] = nil
	s.messages = s.messages[:len(s.messages)-1]
	return last, true
}

// Reset empties the store. Callers must call EnsureSystem right after.
func (s *Store) Reset() {
	s.messages = nil
}

func (s *Store) Len() int {
	return len(s.messages)
}

// Last returns a copy of the final message.
func (s *Store) Last() (Message, bool) {
	if len(s.messages) == 0 {
		return Message{}, false
	}
	return *s.messages[len(s.messages)-1], true
}

// Messages returns copies of all messages, system message included.
func (s *Store) Messages() []Message {
	return copyMessages(s.messages)
}

// Visible returns the messages shown to the user: everything except the
// system message.
func (s *Store) Visible() []Message {
	ret := make([]Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.Role == RoleSystem {
			continue
		}
		ret = append(ret, *m)
	}
	return ret
}

// ForTransport returns the full transcript as role/content pairs, ready to be
// sent to the model.
func (s *Store) ForTransport() []Pair {
	ret := make([]Pair, len(s.messages))
	for i, m := range s.messages {
		ret[i] = Pair{Role: m.Role, Content: m.Content}
	}
	return ret
}

func copyMessages(msgs []*Message) []Message {
	ret := make([]Message, len(msgs))
	for i, m := range msgs {
		ret[i] = *m
	}
	return ret
}
