package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goproj/goproj/internal/project"
)

// selectFlags are shared by the commands that act on a project selection
type selectFlags struct {
	all   bool
	match []string
}

func (f *selectFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&f.all, "all", "a", false, "consider every project, ignoring the default match tokens")
	cmd.Flags().StringSliceVar(&f.match, "match", nil, "tokens every candidate ID must contain (replaces the configured defaults)")
}

// selectProjects picks the projects an action runs on. Named arguments (IDs
// or project names) win; --all and --match select every candidate;
// otherwise the saved selection for this action is reused, falling back to
// every candidate. The result is saved back.
func (a *app) selectProjects(action string, args []string, f *selectFlags) ([]*project.Project, error) {
	candidates := a.candidates(action, f)

	var selected []*project.Project
	switch {
	case len(args) > 0:
		for _, arg := range args {
			if p, ok := a.set.Get(arg); ok {
				selected = append(selected, p)
				continue
			}
			byName := a.set.ByName(arg)
			if len(byName) == 0 {
				return nil, fmt.Errorf("%w: unknown project %q", project.ErrConfig, arg)
			}
			// A bare project name expands to its candidate configurations
			matched := false
			for _, p := range byName {
				if contains(candidates, p) {
					selected = append(selected, p)
					matched = true
				}
			}
			if !matched {
				a.logger.Warn("no configuration of project matches the defaults for this action", "project", arg, "action", action)
			}
		}

	case f.all || len(f.match) > 0:
		selected = candidates

	default:
		saved, err := a.selections.Load(a.root, action)
		if err != nil {
			a.logger.Warn("failed to load saved selection", "error", err)
		}
		for _, id := range saved {
			if p, ok := a.set.Get(id); ok && contains(candidates, p) {
				selected = append(selected, p)
			} else {
				a.logger.Debug("saved project is no longer a candidate", "project", id)
			}
		}
		if len(selected) == 0 {
			selected = candidates
		}
	}

	selected = project.Dedupe(selected)
	if err := a.selections.Save(a.root, action, ids(selected)); err != nil {
		a.logger.Warn("failed to save selection", "error", err)
	}
	return selected, nil
}

func (a *app) candidates(action string, f *selectFlags) []*project.Project {
	if f.all {
		return a.set.All()
	}
	tokens := f.match
	if len(tokens) == 0 {
		tokens = a.cfg.MatchTokens(action, a.host.OS, a.host.Arch)
	}
	return a.set.Filter(tokens...)
}

func contains(projects []*project.Project, p *project.Project) bool {
	for _, q := range projects {
		if q.ID() == p.ID() {
			return true
		}
	}
	return false
}

func ids(projects []*project.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID()
	}
	return out
}
