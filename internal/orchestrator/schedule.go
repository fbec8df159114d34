package orchestrator

import (
	"context"
	"time"

	"github.com/goproj/goproj/internal/project"
)

type task struct {
	project *project.Project
	offset  time.Duration
}

// schedule computes when each project runs relative to the batch start. The
// first project runs at once; every later one waits its own delay after the
// previous one. The first project's delay is never waited on.
func schedule(projects []*project.Project, delay func(*project.Project) float64) []task {
	tasks := make([]task, len(projects))
	var offset time.Duration
	for i, p := range projects {
		if i > 0 {
			if d := delay(p); d > 0 {
				offset += time.Duration(d * float64(time.Second))
			}
		}
		tasks[i] = task{project: p, offset: offset}
	}
	return tasks
}

// dispatch runs fn for each task once its offset has elapsed. Cancellation
// stops further dispatching; a task already running finishes with a
// context that is no longer cancelled.
func (o *Orchestrator) dispatch(ctx context.Context, tasks []task, fn func(ctx context.Context, p *project.Project)) error {
	start := o.now()
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return ErrCancelled
		}
		if wait := t.offset - o.now().Sub(start); wait > 0 {
			if err := o.sleep(ctx, wait); err != nil {
				return ErrCancelled
			}
		}
		if ctx.Err() != nil {
			return ErrCancelled
		}
		fn(context.WithoutCancel(ctx), t.project)
	}
	return nil
}
