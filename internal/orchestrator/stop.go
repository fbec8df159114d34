package orchestrator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goproj/goproj/internal/buildpath"
	"github.com/goproj/goproj/internal/project"
	"github.com/goproj/goproj/internal/session"
)

// Stop ends each project, spaced by the projects' stop delays. A tracked
// session is terminated and a stop-port file, when configured, has every
// listed port's owner killed. Both strategies apply when both are available.
func (o *Orchestrator) Stop(ctx context.Context, projects []*project.Project) error {
	if len(projects) == 0 {
		o.reporter.Notify(LevelInfo, "No project was selected.")
		return nil
	}

	o.reporter.Begin("Stop")
	defer o.reporter.End()

	n := len(projects)
	share := 100.0 / float64(n)
	i := 0
	err := o.dispatch(ctx, schedule(projects, (*project.Project).StopDelay), func(ctx context.Context, p *project.Project) {
		i++
		o.reporter.Progress(share, fmt.Sprintf("%s (%d of %d)", p.ID(), i, n))
		if err := o.stopOne(ctx, p); err != nil {
			o.logger.Error("stop failed", "project", p.ID(), "error", err)
		}
	})

	o.reporter.Notify(LevelInfo, fmt.Sprintf("Stop %d project(s) done.", n))
	return err
}

func (o *Orchestrator) stopOne(ctx context.Context, p *project.Project) error {
	sess, tracked := o.tracker.Get(p.ID())
	if !tracked && p.StopPort() == "" {
		return projectErr(p, "stop", ErrConfig, errors.New("no running session and no stopPort configured"))
	}

	var errs []error
	if tracked {
		o.logger.Info("terminating session", "project", p.ID(), "session", sess.ID, "pid", sess.PID)
		if err := o.runner.Terminate(ctx, sess); err != nil {
			errs = append(errs, projectErr(p, "stop", ErrExternalTool, err))
		}
		o.tracker.Remove(p.ID())
	}

	if p.StopPort() != "" {
		mode := buildpath.Release
		if tracked && (sess.Kind == session.KindDebug || sess.Mode == buildpath.Debug.String()) {
			mode = buildpath.Debug
		}
		if err := o.stopPorts(ctx, p, mode); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// stopPorts kills the owner of every port listed in the project's stop-port
// file. The file is looked up in the executable directory for mode and then
// in the debug directory.
func (o *Orchestrator) stopPorts(ctx context.Context, p *project.Project, mode buildpath.Mode) error {
	path, err := o.findStopPortFile(p, mode)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return projectErr(p, "stop", ErrNotFound, err)
	}
	defer func() { _ = f.Close() }()

	var errs []error
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		port, ok := leadingInt(line)
		if !ok {
			o.logger.Warn("NaN port", "project", p.ID(), "file", path, "value", line)
			continue
		}
		o.logger.Info("killing port", "project", p.ID(), "port", port)
		if err := o.runner.KillPort(ctx, port); err != nil {
			errs = append(errs, projectErr(p, "stop", ErrExternalTool, fmt.Errorf("port %d: %w", port, err)))
		}
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, projectErr(p, "stop", ErrExternalTool, err))
	}
	return errors.Join(errs...)
}

// leadingInt parses the digits a line starts with, so "8080 # http"
// reads as 8080.
func leadingInt(line string) (int, bool) {
	end := strings.IndexFunc(line, func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(line)
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(line[:end])
	return n, err == nil
}

func (o *Orchestrator) findStopPortFile(p *project.Project, mode buildpath.Mode) (string, error) {
	modes := []buildpath.Mode{mode}
	if mode != buildpath.Debug {
		modes = append(modes, buildpath.Debug)
	}
	for _, m := range modes {
		dir, _, err := buildpath.Resolve(o.root, p, m)
		if err != nil {
			return "", projectErr(p, "stop", ErrConfig, err)
		}
		path := filepath.Join(dir, p.StopPort())
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		o.logger.Debug("stop-port file not found", "project", p.ID(), "path", path)
	}
	return "", projectErr(p, "stop", ErrNotFound, fmt.Errorf("stop-port file %q not found", p.StopPort()))
}
