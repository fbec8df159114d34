package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goproj/goproj/internal/session"
)

// Call is one recorded Stub invocation
type Call struct {
	Method string
	Name   string // Project identifier, when the method has one
	Args   []string
	Port   int
	Dir    string
	Env    []string
	At     time.Time
}

// Stub is an in-memory Runner for dry runs and tests. It records every call
// and starts nothing. Behaviour can be overridden per method.
type Stub struct {
	BuildFunc     func(req BuildRequest) error
	DebugFunc     func(req DebugRequest) error
	TerminateFunc func(s *session.Session) error
	KillPortFunc  func(port int) error

	mu        sync.Mutex
	calls     []Call
	listeners []session.Listener
	launches  map[string]chan LaunchResult
}

var _ Runner = (*Stub)(nil)

// NewStub creates a stub runner.
func NewStub() *Stub {
	return &Stub{launches: make(map[string]chan LaunchResult)}
}

// Subscribe registers a listener for sessions the stub starts.
func (s *Stub) Subscribe(l session.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Stub) record(c Call) {
	c.At = time.Now()
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

func (s *Stub) notify(fn func(session.Listener)) {
	s.mu.Lock()
	listeners := append([]session.Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		fn(l)
	}
}

// Calls returns a copy of the recorded calls in order.
func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns the recorded calls for one method.
func (s *Stub) CallsTo(method string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (s *Stub) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	s.record(Call{Method: "Build", Name: req.Name, Args: req.Args, Dir: req.Dir, Env: req.Env})
	if s.BuildFunc != nil {
		if err := s.BuildFunc(req); err != nil {
			return BuildResult{Stderr: err.Error()}, err
		}
	}
	return BuildResult{}, nil
}

// Launch records the call and returns a channel that yields once Exit is
// called for the project. Launched programs are tracked sessions.
func (s *Stub) Launch(ctx context.Context, req LaunchRequest) (<-chan LaunchResult, error) {
	s.record(Call{Method: "Launch", Name: req.Name, Args: req.Args, Dir: req.Dir})
	sess := s.newSession(req.Name, session.KindRun, req.Mode, req.Program, req.Dir, req.Args)

	done := make(chan LaunchResult, 1)
	s.mu.Lock()
	s.launches[sess.ID] = done
	s.mu.Unlock()

	s.notify(func(l session.Listener) { l.SessionStarted(sess) })
	return done, nil
}

func (s *Stub) Debug(ctx context.Context, req DebugRequest) (*session.Session, error) {
	args := append(append([]string(nil), req.Flags...), req.Args...)
	s.record(Call{Method: "Debug", Name: req.Name, Args: args, Dir: req.Dir})
	if s.DebugFunc != nil {
		if err := s.DebugFunc(req); err != nil {
			return nil, err
		}
	}
	sess := s.newSession(req.Name, session.KindDebug, "debug", req.Program, req.Dir, req.Args)
	s.notify(func(l session.Listener) { l.SessionStarted(sess) })
	return sess, nil
}

func (s *Stub) newSession(name string, kind session.Kind, mode, program, dir string, args []string) *session.Session {
	return &session.Session{
		ID:        uuid.New().String(),
		Name:      name,
		Kind:      kind,
		Mode:      mode,
		Program:   program,
		Dir:       dir,
		Args:      args,
		Status:    session.StatusRunning,
		StartedAt: time.Now(),
	}
}

// Terminate records the call, marks the session stopped and notifies
// listeners even when TerminateFunc fails.
func (s *Stub) Terminate(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return fmt.Errorf("session has no process")
	}
	s.record(Call{Method: "Terminate", Name: sess.Name})
	defer s.notify(func(l session.Listener) { l.SessionTerminated(sess) })

	var err error
	if s.TerminateFunc != nil {
		err = s.TerminateFunc(sess)
	}
	s.exit(sess, "terminated", -1)
	return err
}

// Exit simulates a launched program exiting with code.
func (s *Stub) Exit(sess *session.Session, code int) {
	s.exit(sess, "exited", code)
	s.notify(func(l session.Listener) { l.SessionTerminated(sess) })
}

func (s *Stub) exit(sess *session.Session, reason string, code int) {
	s.mu.Lock()
	if sess.Running() {
		sess.MarkStopped(reason, time.Now())
	}
	done, ok := s.launches[sess.ID]
	delete(s.launches, sess.ID)
	s.mu.Unlock()
	if ok {
		done <- LaunchResult{Session: sess, ExitCode: code}
		close(done)
	}
}

func (s *Stub) KillPort(ctx context.Context, port int) error {
	s.record(Call{Method: "KillPort", Port: port})
	if s.KillPortFunc != nil {
		return s.KillPortFunc(port)
	}
	return nil
}

func (s *Stub) MakeExecutable(dir string) error {
	s.record(Call{Method: "MakeExecutable", Dir: dir})
	return nil
}
