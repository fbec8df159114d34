package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goproj/goproj/internal/config"
	"github.com/goproj/goproj/internal/orchestrator"
	"github.com/goproj/goproj/internal/project"
	"github.com/goproj/goproj/internal/selection"
)

const workspaceYAML = `
projects:
  api:
    base:
      os: linux
      arch: amd64
      scriptPath: cmd/api
      buildPath: bin
    release.linux.amd64:
      extends: base
    debug.linux.amd64:
      extends: base
  worker:
    release.darwin.arm64:
      os: darwin
      arch: arm64
      scriptPath: cmd/worker
`

func newWorkspace(t *testing.T) (root, state string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	root = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "goproj.yaml"), []byte(workspaceYAML), 0o644))
	return root, filepath.Join(t.TempDir(), "state")
}

// execute runs the root command with fresh flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, workspaceDir, debug, dryRun = "", "", false, false
	buildSelect, startSelect, stopSelect, debugSelect = selectFlags{}, selectFlags{}, selectFlags{}, selectFlags{}
	buildDebugMode, startWait, debugWait = false, false, false
	listOutput, listWatch, psAll, pruneAll = "text", false, false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestBuildDryRun(t *testing.T) {
	root, state := newWorkspace(t)

	out, err := execute(t, "build", "--dry-run", "--workspace", root, "--state-dir", state)
	require.NoError(t, err)
	assert.Contains(t, out, "Build 2 project(s) succeed.")

	sel, err := selection.NewStore(state)
	require.NoError(t, err)
	ids, err := sel.Load(root, "build")
	require.NoError(t, err)
	assert.Equal(t, []string{"api.release.linux.amd64", "worker.release.darwin.arm64"}, ids)
}

func TestBuildDryRunNamedProject(t *testing.T) {
	root, state := newWorkspace(t)

	out, err := execute(t, "build", "--dry-run", "-w", root, "--state-dir", state, "--debug-mode", "api.debug.linux.amd64")
	require.NoError(t, err)
	assert.Contains(t, out, "Build (debug)")
	assert.Contains(t, out, "Build 1 project(s) succeed.")
}

func TestBuildUnknownProject(t *testing.T) {
	root, state := newWorkspace(t)
	_, err := execute(t, "build", "--dry-run", "-w", root, "--state-dir", state, "nope")
	require.ErrorIs(t, err, project.ErrConfig)
}

func TestListJSON(t *testing.T) {
	root, state := newWorkspace(t)

	out, err := execute(t, "list", "-w", root, "--state-dir", state, "-o", "json")
	require.NoError(t, err)

	var views []project.View
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 4)
	assert.Equal(t, "api.base", views[0].ID)
	assert.Equal(t, "cmd/api", views[1].ScriptPath)
}

func TestListRejectsUnknownFormat(t *testing.T) {
	root, state := newWorkspace(t)
	_, err := execute(t, "list", "-w", root, "--state-dir", state, "-o", "xml")
	require.Error(t, err)
}

func TestPsAndPruneEmpty(t *testing.T) {
	root, state := newWorkspace(t)

	out, err := execute(t, "ps", "-w", root, "--state-dir", state)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions.")

	out, err = execute(t, "prune", "-w", root, "--state-dir", state)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions to remove.")
}

func newSelectApp(t *testing.T) *app {
	t.Helper()
	set, err := project.Parse([]byte(workspaceYAML))
	require.NoError(t, err)
	sel, err := selection.NewStore(t.TempDir())
	require.NoError(t, err)

	return &app{
		cfg: &config.Config{Match: map[string][]string{
			"start": {"release", "$arch", "$os"},
			"debug": {"debug", "$arch", "$os"},
		}},
		logger:     log.New(&bytes.Buffer{}),
		root:       "/work",
		set:        set,
		selections: sel,
		host:       orchestrator.Host{OS: "linux", Arch: "amd64"},
	}
}

func TestSelectProjects(t *testing.T) {
	a := newSelectApp(t)

	t.Run("defaults filter by host platform", func(t *testing.T) {
		got, err := a.selectProjects("start", nil, &selectFlags{})
		require.NoError(t, err)
		assert.Equal(t, []string{"api.release.linux.amd64"}, ids(got))
	})

	t.Run("project name expands to candidates", func(t *testing.T) {
		got, err := a.selectProjects("debug", []string{"api", "api.debug.linux.amd64"}, &selectFlags{})
		require.NoError(t, err)
		assert.Equal(t, []string{"api.debug.linux.amd64"}, ids(got))
	})

	t.Run("explicit id bypasses the filter", func(t *testing.T) {
		got, err := a.selectProjects("start", []string{"worker.release.darwin.arm64"}, &selectFlags{})
		require.NoError(t, err)
		assert.Equal(t, []string{"worker.release.darwin.arm64"}, ids(got))
	})

	t.Run("saved selection is reused when it is still a candidate", func(t *testing.T) {
		require.NoError(t, a.selections.Save("/work", "stop", []string{"api.debug.linux.amd64", "gone.x"}))
		got, err := a.selectProjects("stop", nil, &selectFlags{})
		require.NoError(t, err)
		assert.Equal(t, []string{"api.debug.linux.amd64"}, ids(got))
	})

	t.Run("all ignores tokens and saved selection", func(t *testing.T) {
		got, err := a.selectProjects("stop", nil, &selectFlags{all: true})
		require.NoError(t, err)
		assert.Len(t, got, 4)

		saved, err := a.selections.Load("/work", "stop")
		require.NoError(t, err)
		assert.Len(t, saved, 4)
	})

	t.Run("match replaces default tokens", func(t *testing.T) {
		got, err := a.selectProjects("start", nil, &selectFlags{match: []string{"darwin"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"worker.release.darwin.arm64"}, ids(got))
	})
}

func TestDebugHelpMentionsSkippedBuilds(t *testing.T) {
	assert.Contains(t, debugCmd.Long, "debug build fails is skipped")
}
