package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var ErrUnknownRole = errors.New("unknown role")

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSystem:
		return RoleSystem, nil
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	default:
		return "", errors.Wrapf(ErrUnknownRole, "%q", s)
	}
}

// RoleVisitor is implemented by anything that renders or otherwise handles
// messages differently depending on who wrote them. Every role has its own
// method, so adding a role breaks all visitors at compile time.
type RoleVisitor interface {
	VisitSystem(m *Message) error
	VisitUser(m *Message) error
	VisitAssistant(m *Message) error
}

// Visit dispatches m to the visitor method matching its role.
func (m *Message) Visit(v RoleVisitor) error {
	switch m.Role {
	case RoleSystem:
		return v.VisitSystem(m)
	case RoleUser:
		return v.VisitUser(m)
	case RoleAssistant:
		return v.VisitAssistant(m)
	default:
		return errors.Wrapf(ErrUnknownRole, "message %s has role %q", m.ID, m.Role)
	}
}

type Message struct {
	ID      uuid.UUID `json:"id" yaml:"id"`
	Time    time.Time `json:"time" yaml:"time"`
	Role    Role      `json:"role" yaml:"role"`
	Content string    `json:"content" yaml:"content"`
}

type MessageOption func(*Message)

func WithTime(t time.Time) MessageOption {
	return func(m *Message) {
		m.Time = t
	}
}

func WithID(id uuid.UUID) MessageOption {
	return func(m *Message) {
		m.ID = id
	}
}

func NewMessage(role Role, content string, options ...MessageOption) *Message {
	ret := &Message{
		ID:      uuid.New(),
		Time:    time.Now(),
		Role:    role,
		Content: content,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (m *Message) String() string {
	return fmt.Sprintf("[%s]: %s", m.Role, strings.TrimRight(m.Content, "\n"))
}

// Pair is the role/content view of a message that gets sent to the model.
type Pair struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
