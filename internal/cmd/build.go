package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goproj/goproj/internal/buildpath"
)

var (
	buildSelect    selectFlags
	buildDebugMode bool
)

var buildCmd = &cobra.Command{
	Use:   "build [project-id|project-name ...]",
	Short: "Build projects",
	Long: `Build the selected projects one at a time.

With no arguments the previous build selection is reused, or every project
whose ID contains the configured match tokens (default: "release").

Examples:
  goproj build
  goproj build api.release worker
  goproj build --all --debug-mode`,
	RunE: runBuild,
}

func init() {
	buildSelect.register(buildCmd)
	buildCmd.Flags().BoolVar(&buildDebugMode, "debug-mode", false, "build without optimizations for debugging")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, true)
	if err != nil {
		return err
	}
	projects, err := a.selectProjects("build", args, &buildSelect)
	if err != nil {
		return err
	}

	mode := buildpath.Release
	if buildDebugMode {
		mode = buildpath.Debug
	}
	report, err := a.orch.Build(cmd.Context(), projects, mode)
	if err != nil {
		return err
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d of %d project(s) failed to build", len(report.Failed), len(report.Outcomes))
	}
	return nil
}
