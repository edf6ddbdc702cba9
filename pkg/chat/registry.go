package chat

import (
	"context"
	"sync"
	"time"

	"github.com/go-go-golems/tachat/pkg/completion"
	"github.com/go-go-golems/tachat/pkg/settings"
	"github.com/rs/zerolog/log"
)

// Registry maps session IDs to sessions for surfaces serving several users,
// like the web server.
type Registry struct {
	client      completion.Client
	newSettings func() *settings.ChatSettings
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(client completion.Client, newSettings func() *settings.ChatSettings) *Registry {
	if newSettings == nil {
		newSettings = settings.NewChatSettings
	}
	return &Registry{
		client:      client,
		newSettings: newSettings,
		now:         time.Now,
		sessions:    map[string]*Session{},
	}
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// GetOrCreate returns the session with the given ID. Unknown or empty IDs get
// a fresh session with a new ID; the second return value reports that.
func (r *Registry) GetOrCreate(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok && id != "" {
		s.touch(r.now())
		return s, false
	}

	s := NewSession(r.client, r.newSettings())
	r.sessions[s.ID] = s
	log.Debug().Str("session_id", s.ID).Int("sessions", len(r.sessions)).Msg("created session")
	return s, true
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	log.Debug().Str("session_id", id).Int("sessions", len(r.sessions)).Msg("deleted session")
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep deletes the sessions that have not been used for maxIdle and have no
// turn running. It returns how many were deleted.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if !s.idleSince(cutoff) {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Int("sessions", len(r.sessions)).Msg("swept idle sessions")
	}
	return removed
}

// SweepEvery runs Sweep each interval until ctx is done.
func (r *Registry) SweepEvery(ctx context.Context, interval time.Duration, maxIdle time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(maxIdle)
		}
	}
}
