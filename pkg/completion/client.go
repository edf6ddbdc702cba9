package completion

import (
	"context"

	"github.com/go-go-golems/tachat/pkg/conversation"
	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/pkg/errors"
)

// Client produces a reply for a transcript. Implementations never touch the
// conversation store; failures are reported through the returned Reply.
type Client interface {
	Complete(ctx context.Context, req Request) Reply
}

type Request struct {
	Model      settings.Model
	Transcript []conversation.Pair
	Stream     bool
	// SessionID only tags published events.
	SessionID string
}

func (r Request) Validate() error {
	if !r.Model.IsSupported() {
		return errors.Wrapf(settings.ErrUnsupportedModel, "%q", r.Model)
	}
	if len(r.Transcript) == 0 {
		return errors.New("empty transcript")
	}
	if r.Transcript[0].Role != conversation.RoleSystem {
		return errors.Errorf("transcript starts with %q instead of a system message", r.Transcript[0].Role)
	}
	for i, p := range r.Transcript {
		switch p.Role {
		case conversation.RoleSystem, conversation.RoleUser, conversation.RoleAssistant:
		default:
			return errors.Wrapf(conversation.ErrUnknownRole, "message %d has role %q", i, p.Role)
		}
	}
	return nil
}

// LastUserContent returns the content of the most recent user message.
func (r Request) LastUserContent() (string, bool) {
	for i := len(r.Transcript) - 1; i >= 0; i-- {
		if r.Transcript[i].Role == conversation.RoleUser {
			return r.Transcript[i].Content, true
		}
	}
	return "", false
}
