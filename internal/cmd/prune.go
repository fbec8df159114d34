package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pruneAll bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove stopped session records",
	Long: `Remove the records and output logs of stopped sessions.

With --all, running sessions are terminated and removed too.`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().BoolVarP(&pruneAll, "all", "a", false, "also terminate and remove running sessions")
}

func runPrune(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, false)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	sessions, err := a.store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	removedCount := 0
	for _, sess := range sessions {
		if sess.Running() {
			if !pruneAll {
				continue
			}
			if err := a.runner.Terminate(cmd.Context(), sess); err != nil {
				// Continue to delete session metadata even if terminate fails
				a.logger.Warn("failed to terminate session", "session", sess.ID, "error", err)
			}
		}
		if err := a.store.Delete(sess.ID); err != nil {
			a.logger.Warn("failed to delete session", "session", sess.ID, "error", err)
			continue
		}
		_, _ = fmt.Fprintf(out, "Removed session: %s (%s)\n", sess.ID, sess.Name)
		removedCount++
	}

	if removedCount == 0 {
		_, _ = fmt.Fprintln(out, "No sessions to remove.")
	} else {
		_, _ = fmt.Fprintf(out, "Removed %d session(s).\n", removedCount)
	}
	return nil
}
