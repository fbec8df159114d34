package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goproj/goproj/internal/project"
	"github.com/goproj/goproj/internal/session"
)

const maxDisplayArgs = 40

// PrintProjects prints resolved projects as an aligned table.
func PrintProjects(w io.Writer, projects []*project.Project) {
	if len(projects) == 0 {
		_, _ = fmt.Fprintln(w, "No projects configured.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tPLATFORM\tSOURCE\tSTART ARGS\tDELAYS")
	for _, p := range projects {
		_, _ = fmt.Fprintf(tw, "%s\t%s_%s\t%s\t%s\t%s\n",
			p.ID(),
			p.OS(), p.Arch(),
			orDash(p.ScriptPath()),
			orDash(truncate(strings.Join(p.StartArgs(), " "), maxDisplayArgs)),
			formatDelays(p.StartDelay(), p.StopDelay()),
		)
	}
	_ = tw.Flush()
}

// PrintSessions prints stored sessions, newest last.
func PrintSessions(w io.Writer, sessions []*session.Session, now time.Time) {
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(w, "No sessions.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tPROJECT\tKIND\tPID\tSTATUS\tUPTIME")
	for _, s := range sessions {
		status := s.Status
		if !s.Running() && s.ExitReason != "" {
			status += " (" + s.ExitReason + ")"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			shortID(s.ID),
			s.Name,
			s.Kind,
			s.PID,
			status,
			formatUptime(s, now),
		)
	}
	_ = tw.Flush()
}

// shortID returns the first block of a session ID, like container tools do
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func formatUptime(s *session.Session, now time.Time) string {
	end := now
	if s.StoppedAt != nil {
		end = *s.StoppedAt
	}
	return formatDuration(end.Sub(s.StartedAt))
}

// formatDuration returns a compact human-readable duration
func formatDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "-"
	case d >= time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

func formatDelays(start, stop float64) string {
	if start == 0 && stop == 0 {
		return "-"
	}
	return fmt.Sprintf("start %gs, stop %gs", start, stop)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
