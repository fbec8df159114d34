package cmd

import (
	"github.com/spf13/cobra"
)

var (
	debugSelect selectFlags
	debugWait   bool
)

var debugCmd = &cobra.Command{
	Use:   "debug [project-id|project-name ...]",
	Short: "Build and start projects under the debugger",
	Long: `Stop the selected projects, build them without optimizations and start
each one under dlv in headless mode. Attach with any Delve client using the
listen address from the debugger.args setting.

A project whose debug build fails is skipped rather than started from an
older executable; the build errors are logged.`,
	RunE: runDebug,
}

func init() {
	debugSelect.register(debugCmd)
	debugCmd.Flags().BoolVar(&debugWait, "wait", false, "wait for debug sessions to exit")
	rootCmd.AddCommand(debugCmd)
}

func runDebug(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, true)
	if err != nil {
		return err
	}
	projects, err := a.selectProjects("debug", args, &debugSelect)
	if err != nil {
		return err
	}

	if err := a.orch.Debug(cmd.Context(), projects); err != nil {
		return err
	}
	a.wait(debugWait)
	return nil
}
