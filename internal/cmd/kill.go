package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goproj/goproj/internal/session"
)

var killCmd = &cobra.Command{
	Use:   "kill <session-id|project-id> ...",
	Short: "Terminate sessions",
	Long: `Terminate running sessions by session ID (or its unique prefix, as shown
by 'goproj ps') or by project ID. Unlike 'goproj stop', stop-port files are
not consulted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runKill,
}

func init() {
	rootCmd.AddCommand(killCmd)
}

func runKill(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, false)
	if err != nil {
		return err
	}

	var failed int
	for _, arg := range args {
		s, err := a.findSession(arg)
		if err != nil {
			a.logger.Error("cannot kill", "target", arg, "error", err)
			failed++
			continue
		}
		if err := a.runner.Terminate(cmd.Context(), s); err != nil {
			a.logger.Error("failed to terminate session", "session", s.ID, "project", s.Name, "error", err)
			failed++
			continue
		}
		a.tracker.Remove(s.Name)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Terminated %s (%s)\n", s.Name, s.ID)
	}

	if failed > 0 {
		return fmt.Errorf("failed to kill %d of %d target(s)", failed, len(args))
	}
	return nil
}

// findSession resolves a project ID through the tracker, then a session ID
// or unique prefix among running stored sessions.
func (a *app) findSession(target string) (*session.Session, error) {
	if s, ok := a.tracker.Get(target); ok {
		return s, nil
	}

	sessions, err := a.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	var matches []*session.Session
	for _, s := range sessions {
		if s.Running() && strings.HasPrefix(s.ID, target) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no running session matches %q", target)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d sessions", target, len(matches))
	}
}
