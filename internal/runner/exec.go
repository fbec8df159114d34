package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"

	"github.com/goproj/goproj/internal/procutil"
	"github.com/goproj/goproj/internal/session"
)

// Options configures an Exec runner
type Options struct {
	GoBinary       string        // Build tool, default "go"
	DebuggerBinary string        // Debugger, default "dlv"
	DebuggerArgs   []string      // Arguments placed after "exec <program>" and before project flags
	Terminal       bool          // On macOS, start programs in a Terminal window instead of directly
	StopGrace      time.Duration // Time between SIGTERM and SIGKILL
	StartupWait    time.Duration // A debugger that exits within this window counts as a failed start
	Store          *session.Store
	Logger         *log.Logger
}

// Exec runs real processes
type Exec struct {
	opts Options
	goos string

	mu        sync.Mutex
	listeners []session.Listener
	watchers  conc.WaitGroup
}

var _ Runner = (*Exec)(nil)

// NewExec creates a runner. A session store is required so that sessions
// outlive the invocation that started them.
func NewExec(opts Options) (*Exec, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if opts.GoBinary == "" {
		opts.GoBinary = "go"
	}
	if opts.DebuggerBinary == "" {
		opts.DebuggerBinary = "dlv"
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = 3 * time.Second
	}
	if opts.StartupWait <= 0 {
		opts.StartupWait = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Exec{opts: opts, goos: runtime.GOOS}, nil
}

// Subscribe registers a listener for session start and stop notifications.
func (e *Exec) Subscribe(l session.Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

func (e *Exec) notify(fn func(session.Listener)) {
	e.mu.Lock()
	listeners := append([]session.Listener(nil), e.listeners...)
	e.mu.Unlock()
	for _, l := range listeners {
		fn(l)
	}
}

// Wait blocks until every process started by this runner has exited.
func (e *Exec) Wait() {
	e.watchers.Wait()
}

// Build implements Runner.
func (e *Exec) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	cmd := exec.CommandContext(ctx, e.opts.GoBinary, req.Args...)
	cmd.Dir = req.Dir
	cmd.Env = append(os.Environ(), req.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := BuildResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			return res, fmt.Errorf("%s %s failed: %w", e.opts.GoBinary, firstArg(req.Args), err)
		}
		return res, fmt.Errorf("%s %s failed: %w: %s", e.opts.GoBinary, firstArg(req.Args), err, msg)
	}
	return res, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// Launch implements Runner. Programs are started directly and tracked,
// except on Windows (new console via "start") and on macOS with Terminal
// enabled, where no process handle is available.
func (e *Exec) Launch(ctx context.Context, req LaunchRequest) (<-chan LaunchResult, error) {
	switch {
	case e.goos == "windows":
		cmd := exec.Command("cmd")
		setCmdLine(cmd, startCommandLine(req))
		return e.startDetached(cmd, req)
	case e.goos == "darwin" && e.opts.Terminal:
		script, err := writeTerminalScript(req)
		if err != nil {
			return nil, err
		}
		return e.startDetached(exec.Command("open", "-a", "Terminal", script), req)
	}

	_, done, err := e.spawn(req.Name, session.KindRun, req.Mode, req.Program, req.Dir, req.Args)
	if err != nil {
		return nil, err
	}
	return done, nil
}

// startDetached runs a short-lived launcher command whose child is not tracked.
func (e *Exec) startDetached(cmd *exec.Cmd, req LaunchRequest) (<-chan LaunchResult, error) {
	var out bytes.Buffer
	cmd.Dir = req.Dir
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", req.Program, err)
	}
	e.opts.Logger.Debug("launcher started", "project", req.Name, "cmd", strings.Join(cmd.Args, " "))

	done := make(chan LaunchResult, 1)
	e.watchers.Go(func() {
		defer close(done)
		err := cmd.Wait()
		res := LaunchResult{ExitCode: exitCode(err)}
		if err != nil {
			res.Err = fmt.Errorf("launcher failed: %w: %s", err, strings.TrimSpace(out.String()))
		}
		done <- res
	})
	return done, nil
}

func writeTerminalScript(req LaunchRequest) (string, error) {
	name := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(req.Name)
	path := filepath.Join(os.TempDir(), "goproj-"+name+".command")

	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("cd " + shellQuote(req.Dir) + " || exit 1\n")
	b.WriteString(shellQuote(req.Program))
	for _, a := range req.Args {
		b.WriteString(" " + shellQuote(a))
	}
	b.WriteString("\n")

	if err := os.WriteFile(path, []byte(b.String()), 0755); err != nil {
		return "", fmt.Errorf("failed to write launch script: %w", err)
	}
	return path, nil
}

// startCommandLine builds the full "cmd /c start" line for a new console.
// start only reads its first argument as the window title when it is
// quoted, so every argument is quoted.
func startCommandLine(req LaunchRequest) string {
	title := strings.ReplaceAll(req.Name, `"`, "")
	parts := []string{"cmd", "/c", "start", `"` + title + `"`, "/D", quoteArg(req.Dir), quoteArg(req.Program)}
	for _, a := range req.Args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

// quoteArg quotes s for a Windows command line, escaping embedded quotes
// and the backslashes in front of them.
func quoteArg(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	slashes := 0
	for _, c := range s {
		switch c {
		case '\\':
			slashes++
		case '"':
			b.WriteString(strings.Repeat(`\`, slashes+1))
			slashes = 0
		default:
			slashes = 0
		}
		b.WriteRune(c)
	}
	b.WriteString(strings.Repeat(`\`, slashes))
	b.WriteByte('"')
	return b.String()
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Debug implements Runner by starting the program under dlv in headless mode.
func (e *Exec) Debug(ctx context.Context, req DebugRequest) (*session.Session, error) {
	args := []string{"exec", req.Program}
	args = append(args, e.opts.DebuggerArgs...)
	args = append(args, req.Flags...)
	if len(req.Args) > 0 {
		args = append(args, "--")
		args = append(args, req.Args...)
	}

	s, done, err := e.spawnWith(req.Name, session.KindDebug, "debug", e.opts.DebuggerBinary, req.Dir, args, req.Program)
	if err != nil {
		return nil, err
	}

	select {
	case res := <-done:
		return nil, fmt.Errorf("debugger exited immediately (code %d), see %s: %w", res.ExitCode, s.LogPath, errOrExit(res.Err))
	case <-time.After(e.opts.StartupWait):
		return s, nil
	case <-ctx.Done():
		return s, nil
	}
}

func errOrExit(err error) error {
	if err != nil {
		return err
	}
	return errors.New("process exited")
}

func (e *Exec) spawn(name string, kind session.Kind, mode, program, dir string, args []string) (*session.Session, <-chan LaunchResult, error) {
	return e.spawnWith(name, kind, mode, program, dir, args, program)
}

// spawnWith starts binary directly in its own process group with output
// going to the session log, records the session and announces it. The
// returned channel yields the exit result.
func (e *Exec) spawnWith(name string, kind session.Kind, mode, binary, dir string, args []string, program string) (*session.Session, <-chan LaunchResult, error) {
	id := uuid.New().String()
	logPath, err := e.opts.Store.LogPath(id)
	if err != nil {
		return nil, nil, err
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session log: %w", err)
	}

	cmd := exec.Command(binary, args...)
	cmd.Dir = dir
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = procutil.SysProcAttr()

	if err := cmd.Start(); err != nil {
		_ = logFile.Close()
		_ = e.opts.Store.Delete(id)
		return nil, nil, fmt.Errorf("failed to start %s: %w", binary, err)
	}

	s := &session.Session{
		ID:        id,
		Name:      name,
		Kind:      kind,
		Mode:      mode,
		PID:       cmd.Process.Pid,
		Program:   program,
		Dir:       dir,
		Args:      args,
		LogPath:   logPath,
		Status:    session.StatusRunning,
		StartedAt: time.Now(),
	}
	if err := e.opts.Store.Save(s); err != nil {
		e.opts.Logger.Warn("failed to save session", "project", name, "error", err)
	}
	e.opts.Logger.Info("process started", "project", name, "kind", kind, "pid", s.PID, "log", logPath)
	e.notify(func(l session.Listener) { l.SessionStarted(s) })

	done := make(chan LaunchResult, 1)
	e.watchers.Go(func() {
		defer close(done)
		err := cmd.Wait()
		_ = logFile.Close()
		e.finish(s, "exited")
		e.notify(func(l session.Listener) { l.SessionTerminated(s) })
		done <- LaunchResult{Session: s, ExitCode: exitCode(err), Err: err}
	})
	return s, done, nil
}

// finish marks a session stopped once; later calls keep the first reason.
func (e *Exec) finish(s *session.Session, reason string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !s.Running() {
		return
	}
	s.MarkStopped(reason, time.Now())
	if err := e.opts.Store.Save(s); err != nil {
		e.opts.Logger.Warn("failed to save session", "project", s.Name, "error", err)
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Terminate implements Runner: SIGTERM to the process group, then SIGKILL
// if it is still alive after the grace period.
func (e *Exec) Terminate(ctx context.Context, s *session.Session) error {
	if s == nil || s.PID <= 0 {
		return fmt.Errorf("session has no process")
	}
	defer e.notify(func(l session.Listener) { l.SessionTerminated(s) })

	if !procutil.Alive(s.PID) {
		e.finish(s, "exited")
		return nil
	}
	if err := procutil.KillGroup(s.PID, false); err != nil {
		return err
	}

	deadline := time.NewTimer(e.opts.StopGrace)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for procutil.Alive(s.PID) {
		select {
		case <-deadline.C:
			e.opts.Logger.Warn("process did not exit after SIGTERM, sending SIGKILL", "project", s.Name, "pid", s.PID)
			if err := procutil.KillGroup(s.PID, true); err != nil {
				return err
			}
			e.finish(s, "terminated")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	e.finish(s, "terminated")
	return nil
}

// KillPort implements Runner.
func (e *Exec) KillPort(ctx context.Context, port int) error {
	pids, err := procutil.PortPIDs(ctx, port)
	if errors.Is(err, procutil.ErrNoListener) {
		e.opts.Logger.Info("nothing is listening", "port", port)
		return nil
	}
	if err != nil {
		return fmt.Errorf("port %d: %w", port, err)
	}
	var errs []error
	for _, pid := range pids {
		e.opts.Logger.Debug("killing port owner", "port", port, "pid", pid)
		if err := procutil.Kill(pid); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MakeExecutable implements Runner.
func (e *Exec) MakeExecutable(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}
		mode := info.Mode().Perm() | 0111
		if mode == info.Mode().Perm() {
			return nil
		}
		return os.Chmod(path, mode)
	})
}

// Restore announces stored sessions whose process is still alive and marks
// the rest stopped. It returns the number of live sessions.
func (e *Exec) Restore(ctx context.Context) (int, error) {
	sessions, err := e.opts.Store.List()
	if err != nil {
		return 0, err
	}
	live := 0
	for _, s := range sessions {
		if ctx.Err() != nil {
			return live, ctx.Err()
		}
		if !s.Running() {
			continue
		}
		if !procutil.Alive(s.PID) {
			e.finish(s, "lost")
			continue
		}
		live++
		e.notify(func(l session.Listener) { l.SessionStarted(s) })
	}
	return live, nil
}
