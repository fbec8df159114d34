package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goproj/goproj/internal/session"
	"github.com/goproj/goproj/internal/ui"
)

var psAll bool

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List project sessions",
	Long: `List the programs and debug sessions goproj started. Sessions whose
process has died since the last invocation are marked stopped.`,
	Args: cobra.NoArgs,
	RunE: runPs,
}

func init() {
	psCmd.Flags().BoolVarP(&psAll, "all", "a", false, "include stopped sessions")
	rootCmd.AddCommand(psCmd)
}

func runPs(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, false)
	if err != nil {
		return err
	}

	sessions, err := a.store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	shown := make([]*session.Session, 0, len(sessions))
	for _, s := range sessions {
		if psAll || s.Running() {
			shown = append(shown, s)
		}
	}
	ui.PrintSessions(cmd.OutOrStdout(), shown, time.Now())
	return nil
}
