package runner

import (
	"context"
	"time"

	"github.com/goproj/goproj/internal/session"
)

// Runner performs the external side effects of orchestration: compiling,
// launching, debugging and terminating project processes.
type Runner interface {
	// Build runs the build tool and waits for it. A non-zero exit is an error.
	Build(ctx context.Context, req BuildRequest) (BuildResult, error)
	// Launch starts a program without waiting for it. The returned channel
	// yields exactly one result once the program exits (or the launch
	// command completes, for programs started in a separate console).
	Launch(ctx context.Context, req LaunchRequest) (<-chan LaunchResult, error)
	// Debug starts a program under the debugger and returns its session.
	Debug(ctx context.Context, req DebugRequest) (*session.Session, error)
	// Terminate ends a session's process tree.
	Terminate(ctx context.Context, s *session.Session) error
	// KillPort ends whatever listens on a TCP port.
	KillPort(ctx context.Context, port int) error
	// MakeExecutable adds execute permission to everything below dir.
	MakeExecutable(dir string) error
}

type BuildRequest struct {
	Name string   // Project identifier, for logging
	Dir  string   // Working directory
	Args []string // Arguments to the build tool, e.g. ["build", "-o", "out"]
	Env  []string // Extra environment entries (KEY=VALUE) layered over the current environment
}

type BuildResult struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

type LaunchRequest struct {
	Name    string // Project identifier; becomes the session name
	Mode    string // Build mode the program came from
	Program string
	Dir     string
	Args    []string
}

// LaunchResult is the asynchronous outcome of a launched program
type LaunchResult struct {
	Session  *session.Session // nil when the program was not tracked
	ExitCode int
	Err      error
}

type DebugRequest struct {
	Name    string // Project identifier; becomes the session name
	Program string
	Dir     string
	Args    []string // Program arguments
	Flags   []string // Extra debugger flags
}
