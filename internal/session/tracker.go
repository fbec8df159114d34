package session

import (
	"context"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
)

// Terminator ends a live session
type Terminator interface {
	Terminate(ctx context.Context, s *Session) error
}

// Listener receives session lifecycle notifications from whatever launches processes
type Listener interface {
	SessionStarted(s *Session)
	SessionTerminated(s *Session)
}

// Tracker maps project identifiers to their live session. It holds at most
// one session per identifier and is fed only by notifications; nothing is
// persisted. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*Session
	term     Terminator
	logger   *log.Logger
}

var _ Listener = (*Tracker)(nil)

// NewTracker creates an empty tracker. term is used to end a stale session
// when a new one starts for the same identifier; it may be set later with
// SetTerminator.
func NewTracker(term Terminator, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.Default()
	}
	return &Tracker{
		sessions: make(map[string]*Session),
		term:     term,
		logger:   logger,
	}
}

// SetTerminator replaces the terminator used for stale sessions.
func (t *Tracker) SetTerminator(term Terminator) {
	t.mu.Lock()
	t.term = term
	t.mu.Unlock()
}

// SessionStarted records s. A session already tracked under the same name
// is terminated before s is recorded.
func (t *Tracker) SessionStarted(s *Session) {
	if s == nil {
		return
	}

	t.mu.Lock()
	old, exists := t.sessions[s.Name]
	if exists && old.ID == s.ID {
		t.mu.Unlock()
		return
	}
	delete(t.sessions, s.Name)
	term := t.term
	t.mu.Unlock()

	if exists && term != nil {
		t.logger.Info("terminating replaced session", "project", s.Name, "session", old.ID)
		if err := term.Terminate(context.Background(), old); err != nil {
			t.logger.Warn("failed to terminate replaced session", "project", s.Name, "session", old.ID, "error", err)
		}
	}

	t.mu.Lock()
	t.sessions[s.Name] = s
	t.mu.Unlock()
	t.logger.Debug("session started", "project", s.Name, "session", s.ID, "pid", s.PID)
}

// SessionTerminated forgets s. An entry that has since been replaced by a
// newer session for the same name is kept.
func (t *Tracker) SessionTerminated(s *Session) {
	if s == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.sessions[s.Name]; ok && cur.ID == s.ID {
		delete(t.sessions, s.Name)
		t.logger.Debug("session terminated", "project", s.Name, "session", s.ID)
	}
}

// Get returns the live session for a project identifier.
func (t *Tracker) Get(name string) (*Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[name]
	return s, ok
}

// Remove drops the entry for a project identifier.
func (t *Tracker) Remove(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, name)
}

// List returns the tracked sessions ordered by name.
func (t *Tracker) List() []*Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of tracked sessions.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
