package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goproj/goproj/internal/buildpath"
	"github.com/goproj/goproj/internal/project"
	"github.com/goproj/goproj/internal/runner"
)

// Start launches the release build of each project, spaced by the
// projects' start delays. Per-project failures are logged and skipped; the
// only error returned is ErrCancelled.
func (o *Orchestrator) Start(ctx context.Context, projects []*project.Project) error {
	if len(projects) == 0 {
		o.reporter.Notify(LevelInfo, "No project was selected.")
		return nil
	}

	o.reporter.Begin("Start")
	defer o.reporter.End()

	n := len(projects)
	share := 100.0 / float64(n)
	i := 0
	err := o.dispatch(ctx, schedule(projects, (*project.Project).StartDelay), func(ctx context.Context, p *project.Project) {
		i++
		o.reporter.Progress(share, fmt.Sprintf("%s (%d of %d)", p.ID(), i, n))
		if err := o.startOne(ctx, p); err != nil {
			o.logger.Error("start failed", "project", p.ID(), "error", err)
		}
	})

	o.reporter.Notify(LevelInfo, fmt.Sprintf("Start %d project(s) done.", n))
	return err
}

// Restart stops projects and then starts them again.
func (o *Orchestrator) Restart(ctx context.Context, projects []*project.Project) error {
	if err := o.Stop(ctx, projects); err != nil {
		return err
	}
	return o.Start(ctx, projects)
}

// executable checks the host platform and locates a built program, making
// its directory executable on POSIX hosts.
func (o *Orchestrator) executable(p *project.Project, mode buildpath.Mode, op string) (dir, file string, err error) {
	if p.OS() != o.host.OS {
		return "", "", projectErr(p, op, ErrPlatformMismatch,
			fmt.Errorf("built for %s, host is %s", p.OS(), o.host.OS))
	}
	dir, file, err = buildpath.Resolve(o.root, p, mode)
	if err != nil {
		return "", "", projectErr(p, op, ErrConfig, err)
	}
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", projectErr(p, op, ErrNotFound, fmt.Errorf("%s does not exist, build it first", file))
		}
		return "", "", projectErr(p, op, ErrNotFound, err)
	}
	if o.posixHost() {
		if err := o.runner.MakeExecutable(dir); err != nil {
			o.logger.Warn("failed to make executable", "project", p.ID(), "dir", dir, "error", err)
		}
	}
	return dir, file, nil
}

func (o *Orchestrator) startOne(ctx context.Context, p *project.Project) error {
	dir, file, err := o.executable(p, buildpath.Release, "start")
	if err != nil {
		return err
	}
	args, err := splitArgs(p.StartArgs())
	if err != nil {
		return projectErr(p, "start", ErrConfig, err)
	}

	o.logger.Info("starting", "project", p.ID(), "program", file)
	done, err := o.runner.Launch(ctx, runner.LaunchRequest{
		Name:    p.ID(),
		Mode:    buildpath.Release.String(),
		Program: file,
		Dir:     dir,
		Args:    args,
	})
	if err != nil {
		return projectErr(p, "start", ErrExternalTool, err)
	}

	o.observers.Go(func() {
		res, ok := <-done
		if !ok {
			return
		}
		switch {
		case res.Err != nil && res.Session == nil:
			o.logger.Error("launch failed", "project", p.ID(), "error", res.Err)
		case res.Session != nil:
			o.logger.Info("program exited", "project", p.ID(), "code", res.ExitCode)
		default:
			o.logger.Debug("launched in separate console", "project", p.ID())
		}
	})
	return nil
}
