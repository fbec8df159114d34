package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goproj/goproj/internal/project"
)

func offsets(tasks []task) []time.Duration {
	out := make([]time.Duration, len(tasks))
	for i, t := range tasks {
		out[i] = t.offset
	}
	return out
}

func TestScheduleCumulative(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		ids  []string
		want []time.Duration
	}{
		{
			name: "delays 0 2 3",
			ids:  []string{"api.release", "worker.release", "cron.release"},
			want: []time.Duration{0, 2 * time.Second, 5 * time.Second},
		},
		{
			name: "first delay is never waited on",
			ids:  []string{"cron.release", "api.release", "worker.release"},
			want: []time.Duration{0, 0, 2 * time.Second},
		},
		{
			name: "single project",
			ids:  []string{"worker.release"},
			want: []time.Duration{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := offsets(schedule(h.projects(t, tt.ids...), (*project.Project).StartDelay))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("offsets mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScheduleIgnoresNegativeDelay(t *testing.T) {
	set, err := project.Parse([]byte(`
projects:
  a:
    x: {os: linux, arch: amd64}
    y: {os: linux, arch: amd64, startDelay: -4}
    z: {os: linux, arch: amd64, startDelay: 1}
`))
	require.NoError(t, err)

	got := offsets(schedule(set.All(), (*project.Project).StartDelay))
	assert.Equal(t, []time.Duration{0, 0, time.Second}, got)
}

func TestDispatchWaitsForOffsets(t *testing.T) {
	h := newHarness(t)
	tasks := schedule(h.projects(t, "api.release", "worker.release", "cron.release"), (*project.Project).StartDelay)
	start := h.clock.Now()

	var at []time.Duration
	err := h.orch.dispatch(context.Background(), tasks, func(ctx context.Context, p *project.Project) {
		at = append(at, h.clock.Now().Sub(start))
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{0, 2 * time.Second, 5 * time.Second}, at)
	assert.Equal(t, []time.Duration{2 * time.Second, 3 * time.Second}, h.clock.sleeps)
}

func TestDispatchCancelled(t *testing.T) {
	h := newHarness(t)
	tasks := schedule(h.projects(t, "api.release", "worker.release", "cron.release"), (*project.Project).StartDelay)

	ctx, cancel := context.WithCancel(context.Background())
	var ran []string
	err := h.orch.dispatch(ctx, tasks, func(ctx context.Context, p *project.Project) {
		ran = append(ran, p.ID())
		cancel()
		assert.NoError(t, ctx.Err(), "dispatched work keeps running after cancel")
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, []string{"api.release"}, ran)
}
