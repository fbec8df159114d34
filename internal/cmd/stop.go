package cmd

import (
	"github.com/spf13/cobra"
)

var stopSelect selectFlags

var stopCmd = &cobra.Command{
	Use:   "stop [project-id|project-name ...]",
	Short: "Stop running projects",
	Long: `Stop the selected projects.

A project's running session is terminated. When the project declares a
stopPort file, every port listed in it (one per line) is freed as well.`,
	RunE: runStop,
}

func init() {
	stopSelect.register(stopCmd)
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, true)
	if err != nil {
		return err
	}
	projects, err := a.selectProjects("stop", args, &stopSelect)
	if err != nil {
		return err
	}
	return a.orch.Stop(cmd.Context(), projects)
}
