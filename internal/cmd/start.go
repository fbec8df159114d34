package cmd

import (
	"github.com/spf13/cobra"
)

var (
	startSelect selectFlags
	startWait   bool
)

var startCmd = &cobra.Command{
	Use:   "start [project-id|project-name ...]",
	Short: "Stop and start projects",
	Long: `Stop the selected projects, then start their release builds.

Projects start in selection order, each waiting its startDelay after the
previous one. Output of directly started programs goes to the session log
(see 'goproj ps').

Examples:
  goproj start
  goproj start api
  goproj start --wait api.release.linux.amd64`,
	RunE: runStart,
}

func init() {
	startSelect.register(startCmd)
	startCmd.Flags().BoolVar(&startWait, "wait", false, "wait for started programs to exit")
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, true)
	if err != nil {
		return err
	}
	projects, err := a.selectProjects("start", args, &startSelect)
	if err != nil {
		return err
	}

	if err := a.orch.Restart(cmd.Context(), projects); err != nil {
		return err
	}
	a.wait(startWait)
	return nil
}
