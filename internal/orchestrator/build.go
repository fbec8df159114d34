package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goproj/goproj/internal/artifacts"
	"github.com/goproj/goproj/internal/buildpath"
	"github.com/goproj/goproj/internal/project"
	"github.com/goproj/goproj/internal/runner"
)

// Outcome is the result of building one project
type Outcome struct {
	ID       string
	Exe      string
	Copied   []string
	Duration time.Duration
	Err      error
}

// OK reports whether the build and copy step succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// BuildReport summarizes a build batch
type BuildReport struct {
	Outcomes  []Outcome
	Succeeded int
	Failed    []string // Identifiers of failed projects, in build order
}

func (r *BuildReport) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.OK() {
		r.Succeeded++
	} else {
		r.Failed = append(r.Failed, o.ID)
	}
}

// Outcome returns the outcome for a project identifier.
func (r *BuildReport) Outcome(id string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.ID == id {
			return o, true
		}
	}
	return Outcome{}, false
}

// modeFlags returns the compiler flags for a build mode.
func modeFlags(mode buildpath.Mode) []string {
	if mode == buildpath.Debug {
		return []string{"-gcflags=all=-N -l"}
	}
	return []string{"-ldflags=-w -s"}
}

// Build compiles projects one at a time in selection order. A failing
// project never stops the batch. On cancellation the build in flight
// completes, no further project starts and the partial report is returned
// with ErrCancelled.
func (o *Orchestrator) Build(ctx context.Context, projects []*project.Project, mode buildpath.Mode) (*BuildReport, error) {
	report := &BuildReport{}
	if len(projects) == 0 {
		o.reporter.Notify(LevelInfo, "No project was selected.")
		return report, nil
	}

	o.reporter.Begin(fmt.Sprintf("Build (%s)", mode))
	defer o.reporter.End()

	n := len(projects)
	share := 100.0 / float64(n)
	var err error
	for i, p := range projects {
		if ctx.Err() != nil {
			err = ErrCancelled
			break
		}
		msg := fmt.Sprintf("%s (%d of %d)", p.ID(), i+1, n)
		o.reporter.Progress(share*0.2, msg)
		report.add(o.buildOne(context.WithoutCancel(ctx), p, mode))
		o.reporter.Progress(share*0.8, msg)
	}

	if len(report.Failed) == 0 {
		o.reporter.Notify(LevelInfo, fmt.Sprintf("Build %d project(s) succeed.", report.Succeeded))
	} else {
		o.reporter.Notify(LevelError, fmt.Sprintf("Build %d project(s) succeed, failed(%d): %s.",
			report.Succeeded, len(report.Failed), strings.Join(report.Failed, ", ")))
	}
	return report, err
}

func (o *Orchestrator) buildOne(ctx context.Context, p *project.Project, mode buildpath.Mode) (out Outcome) {
	logger := o.logger.With("project", p.ID())
	out.ID = p.ID()
	start := o.now()
	defer func() { out.Duration = o.now().Sub(start) }()

	fail := func(op string, kind, err error) Outcome {
		out.Err = projectErr(p, op, kind, err)
		logger.Error("build failed", "error", out.Err)
		return out
	}

	exeDir, exeFile, err := buildpath.Resolve(o.root, p, mode)
	if err != nil {
		return fail("build", ErrConfig, err)
	}
	srcDir, err := buildpath.SourceDir(o.root, p)
	if err != nil {
		return fail("build", ErrConfig, err)
	}
	extra, err := splitArgs(p.BuildArgs())
	if err != nil {
		return fail("build", ErrConfig, err)
	}
	out.Exe = exeFile

	args := []string{"build"}
	args = append(args, modeFlags(mode)...)
	args = append(args, extra...)
	args = append(args, "-o", exeFile)

	logger.Info("building", "mode", mode, "dir", srcDir, "out", exeFile)
	res, err := o.runner.Build(ctx, runner.BuildRequest{
		Name: p.ID(),
		Dir:  srcDir,
		Args: args,
		Env:  []string{"GOOS=" + p.OS(), "GOARCH=" + p.Arch()},
	})
	if s := strings.TrimSpace(res.Stdout); s != "" {
		logger.Info(s)
	}
	if s := strings.TrimSpace(res.Stderr); s != "" {
		logger.Error(s)
	}
	if err != nil {
		return fail("build", ErrExternalTool, err)
	}

	for _, entry := range p.BuildCopy() {
		spec, err := artifacts.ParseSpec(entry)
		if err != nil {
			return fail("copy", ErrConfig, err)
		}
		copied, err := artifacts.Copy(o.root, exeDir, spec)
		if err != nil {
			return fail("copy", ErrCopy, err)
		}
		if len(copied) == 0 {
			logger.Warn("copy pattern matched nothing", "src", spec.Src)
		}
		out.Copied = append(out.Copied, copied...)
	}

	logger.Info("build succeeded", "copied", len(out.Copied))
	return out
}
