package session

import "time"

// Kind tells how a session was launched
type Kind string

const (
	KindRun   Kind = "run"
	KindDebug Kind = "debug"
)

// Status values
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// Session represents one launched project process, run directly or under the debugger
type Session struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"` // Project identifier (name.key)
	Kind       Kind       `json:"kind"`
	Mode       string     `json:"mode"` // "debug" or "release" build the program came from
	PID        int        `json:"pid"`
	Program    string     `json:"program"`
	Dir        string     `json:"dir"`
	Args       []string   `json:"args,omitempty"`
	LogPath    string     `json:"log_path,omitempty"`
	Status     string     `json:"status"` // "running", "stopped"
	StartedAt  time.Time  `json:"started_at"`
	StoppedAt  *time.Time `json:"stopped_at,omitempty"`
	ExitReason string     `json:"exit_reason,omitempty"` // "exited" | "terminated" | "replaced" | "lost"
}

// Running reports whether the session was last seen running.
func (s *Session) Running() bool {
	return s.Status == StatusRunning
}

// MarkStopped records the end of a session.
func (s *Session) MarkStopped(reason string, at time.Time) {
	s.Status = StatusStopped
	s.StoppedAt = &at
	s.ExitReason = reason
}
