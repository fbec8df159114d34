package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goproj/goproj/internal/project"
	"github.com/goproj/goproj/internal/ui"
)

var (
	listOutput string
	listWatch  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured projects",
	Long: `List the projects resolved from the workspace's project file, with
extends chains flattened.

Examples:
  goproj list
  goproj list -o yaml
  goproj list --watch`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "text", "output format: text, yaml or json")
	listCmd.Flags().BoolVar(&listWatch, "watch", false, "print the list again whenever the project file changes")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	switch listOutput {
	case "text", "yaml", "json":
	default:
		return fmt.Errorf("unknown output format %q", listOutput)
	}

	a, err := setup(cmd, true)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := printProjects(out, a.set, listOutput); err != nil {
		return err
	}
	if !listWatch {
		return nil
	}

	a.logger.Info("watching for changes", "file", a.projectsPath)
	return project.Watch(cmd.Context(), a.projectsPath, func(set *project.Set, err error) {
		if err != nil {
			a.logger.Error("failed to reload projects", "error", err)
			return
		}
		for _, w := range set.Warnings {
			a.logger.Warn(w, "file", a.projectsPath)
		}
		_, _ = fmt.Fprintln(out)
		if err := printProjects(out, set, listOutput); err != nil {
			a.logger.Error("failed to print projects", "error", err)
		}
	})
}

func printProjects(w io.Writer, set *project.Set, format string) error {
	views := make([]project.View, 0, set.Len())
	for _, p := range set.All() {
		views = append(views, p.View())
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return fmt.Errorf("failed to encode projects: %w", err)
		}
		return enc.Close()
	default:
		ui.PrintProjects(w, set.All())
		return nil
	}
}
