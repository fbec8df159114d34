package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/goproj/goproj/internal/config"
	"github.com/goproj/goproj/internal/git"
	"github.com/goproj/goproj/internal/logging"
	"github.com/goproj/goproj/internal/orchestrator"
	"github.com/goproj/goproj/internal/project"
	"github.com/goproj/goproj/internal/runner"
	"github.com/goproj/goproj/internal/selection"
	"github.com/goproj/goproj/internal/session"
	"github.com/goproj/goproj/internal/ui"
)

var (
	cfgFile      string
	workspaceDir string
	debug        bool
	dryRun       bool
)

var rootCmd = &cobra.Command{
	Use:   "goproj",
	Short: "goproj - build, start, stop and debug Go projects",
	Long: `goproj orchestrates the Go projects declared in a workspace's goproj.yaml.

Build release binaries for every release target:
  goproj build

Start (after stopping) the targets for this machine:
  goproj start
  goproj start api.release.linux.amd64

Debug a project under dlv:
  goproj debug api

Inspect and manage sessions:
  goproj ps
  goproj kill <session-id>
  goproj prune`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it. SIGINT
// and SIGTERM cancel the running batch.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.goproj/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "", "workspace root (default is the git root of the current directory)")
	rootCmd.PersistentFlags().String("projects-file", "", "project file relative to the workspace (default goproj.yaml)")
	rootCmd.PersistentFlags().String("state-dir", "", "directory for sessions and saved selections (default ~/.goproj)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "record actions instead of running tools")
}

// launcher is a runner that reports session lifecycle to listeners
type launcher interface {
	runner.Runner
	Subscribe(session.Listener)
}

// app holds everything a command needs, wired once per invocation
type app struct {
	cfg          *config.Config
	logger       *log.Logger
	root         string
	projectsPath string
	set          *project.Set

	store      *session.Store
	tracker    *session.Tracker
	runner     launcher
	exec       *runner.Exec // nil in dry-run mode
	orch       *orchestrator.Orchestrator
	selections *selection.Store
	host       orchestrator.Host
}

// setup loads configuration and wires the runner, tracker and orchestrator.
// When withProjects is false the project file is not read.
func setup(cmd *cobra.Command, withProjects bool) (*app, error) {
	ctx := cmd.Context()

	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logger, err := logging.New(os.Stderr, level)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureStateDir(); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, host: orchestrator.CurrentHost()}

	if a.root, err = git.Workspace(ctx, workspaceDir); err != nil {
		return nil, err
	}
	logger.Debug("workspace resolved", "root", a.root)

	if withProjects {
		if err := a.loadProjects(); err != nil {
			return nil, err
		}
	}

	if a.store, err = session.NewStore(cfg.StateDir); err != nil {
		return nil, fmt.Errorf("failed to access session store: %w", err)
	}
	if a.selections, err = selection.NewStore(cfg.StateDir); err != nil {
		return nil, fmt.Errorf("failed to access selection store: %w", err)
	}

	a.tracker = session.NewTracker(nil, logger)
	if dryRun {
		logger.Info("dry run: no tool will be executed")
		a.runner = runner.NewStub()
	} else {
		a.exec, err = runner.NewExec(runner.Options{
			GoBinary:       cfg.Go.Binary,
			DebuggerBinary: cfg.Debugger.Binary,
			DebuggerArgs:   cfg.Debugger.Args,
			Terminal:       cfg.Start.UseTerminal(),
			StopGrace:      cfg.Stop.Grace,
			StartupWait:    cfg.Debugger.StartupWait,
			Store:          a.store,
			Logger:         logger,
		})
		if err != nil {
			return nil, err
		}
		a.runner = a.exec
	}
	a.tracker.SetTerminator(a.runner)
	a.runner.Subscribe(a.tracker)

	if a.exec != nil {
		live, err := a.exec.Restore(ctx)
		if err != nil {
			logger.Warn("failed to restore sessions", "error", err)
		}
		logger.Debug("sessions restored", "live", live)
	}

	a.orch, err = orchestrator.New(orchestrator.Options{
		Runner:   a.runner,
		Tracker:  a.tracker,
		Reporter: ui.NewReporter(cmd.OutOrStdout()),
		Logger:   logger,
		Root:     a.root,
		Host:     a.host,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) loadProjects() error {
	path, err := project.FindFile(a.root, a.cfg.ProjectsFile)
	if err != nil {
		return err
	}
	set, err := project.LoadFile(path)
	if err != nil {
		return err
	}
	for _, w := range set.Warnings {
		a.logger.Warn(w, "file", path)
	}
	a.projectsPath = path
	a.set = set
	a.logger.Debug("projects loaded", "file", path, "count", set.Len())
	return nil
}

// wait blocks on launched programs when asked to, so their exit is reported.
func (a *app) wait(enabled bool) {
	if !enabled {
		return
	}
	a.logger.Info("waiting for launched programs to exit")
	a.orch.Wait()
	if a.exec != nil {
		a.exec.Wait()
	}
}
