package orchestrator

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/shlex"
	"github.com/sourcegraph/conc"

	"github.com/goproj/goproj/internal/runner"
	"github.com/goproj/goproj/internal/session"
)

// Host is the platform goproj runs on
type Host struct {
	OS   string
	Arch string
}

// CurrentHost returns the running platform.
func CurrentHost() Host {
	return Host{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// Options configures an Orchestrator
type Options struct {
	Runner   runner.Runner
	Tracker  *session.Tracker
	Reporter Reporter
	Logger   *log.Logger
	Root     string // Workspace root; relative script and build paths resolve under it
	Host     Host

	// Sleep waits for d or until ctx is done. Now reads the clock. Both are
	// replaceable so scheduling can be tested without real delays.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Orchestrator runs build, start, stop and debug batches over a selection
// of projects
type Orchestrator struct {
	runner   runner.Runner
	tracker  *session.Tracker
	reporter Reporter
	logger   *log.Logger
	root     string
	host     Host
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time

	observers conc.WaitGroup
}

// New creates an orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if opts.Tracker == nil {
		return nil, fmt.Errorf("session tracker is required")
	}
	if opts.Reporter == nil {
		opts.Reporter = NopReporter{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Host == (Host{}) {
		opts.Host = CurrentHost()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		runner:   opts.Runner,
		tracker:  opts.Tracker,
		reporter: opts.Reporter,
		logger:   opts.Logger,
		root:     opts.Root,
		host:     opts.Host,
		sleep:    opts.Sleep,
		now:      opts.Now,
	}, nil
}

// Wait blocks until every launched program observed by this orchestrator
// has reported its result.
func (o *Orchestrator) Wait() {
	o.observers.Wait()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// splitArgs shell-splits each entry so "-tags prod" becomes two arguments.
func splitArgs(entries []string) ([]string, error) {
	var out []string
	for _, e := range entries {
		parts, err := shlex.Split(e)
		if err != nil {
			return nil, fmt.Errorf("invalid argument %q: %w", e, err)
		}
		out = append(out, parts...)
	}
	return out, nil
}

func (o *Orchestrator) posixHost() bool {
	return o.host.OS != "windows"
}
