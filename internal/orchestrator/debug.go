package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/goproj/goproj/internal/buildpath"
	"github.com/goproj/goproj/internal/project"
	"github.com/goproj/goproj/internal/runner"
)

// Debug stops projects, builds them in debug mode and starts each
// successfully built one under the debugger, spaced by start delays.
func (o *Orchestrator) Debug(ctx context.Context, projects []*project.Project) error {
	if len(projects) == 0 {
		o.reporter.Notify(LevelInfo, "No project was selected.")
		return nil
	}

	if err := o.Stop(ctx, projects); err != nil {
		return err
	}
	report, err := o.Build(ctx, projects, buildpath.Debug)
	if err != nil {
		return err
	}

	built := make([]*project.Project, 0, len(projects))
	for _, p := range projects {
		if out, ok := report.Outcome(p.ID()); ok && !out.OK() {
			o.logger.Warn("skipping debug, build failed", "project", p.ID())
			continue
		}
		built = append(built, p)
	}

	o.reporter.Begin("Debug")
	defer o.reporter.End()

	n := len(built)
	var share float64
	if n > 0 {
		share = 100.0 / float64(n)
	}
	i := 0
	err = o.dispatch(ctx, schedule(built, (*project.Project).StartDelay), func(ctx context.Context, p *project.Project) {
		i++
		o.reporter.Progress(share, fmt.Sprintf("%s (%d of %d)", p.ID(), i, n))
		if err := o.debugOne(ctx, p); err != nil {
			o.logger.Error("debug failed", "project", p.ID(), "error", err)
		}
	})

	o.reporter.Notify(LevelInfo, fmt.Sprintf("Debug %d project(s) done.", len(projects)))
	return err
}

func (o *Orchestrator) debugOne(ctx context.Context, p *project.Project) error {
	dir, file, err := o.executable(p, buildpath.Debug, "debug")
	if err != nil {
		return err
	}

	o.logger.Info("starting debugger", "project", p.ID(), "program", file)
	sess, err := o.runner.Debug(ctx, runner.DebugRequest{
		Name:    p.ID(),
		Program: file,
		Dir:     dir,
		Args:    p.StartArgs(),
		Flags:   p.DebuggerFlags(),
	})
	if err != nil {
		return projectErr(p, "debug", ErrExternalTool, err)
	}
	if sess == nil {
		return projectErr(p, "debug", ErrExternalTool, errors.New("debugger returned no session"))
	}
	o.logger.Info("debugger started", "project", p.ID(), "session", sess.ID, "pid", sess.PID)
	return nil
}
