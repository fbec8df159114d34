package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
projects:
  $name: schema helper
  server:
    base:
      os: linux
      arch: amd64
      scriptPath: ./cmd/server
      buildPath: bin
      buildArgs: ["-tags prod"]
      startArgs: ["--port", "8080"]
      stopPort: ports.txt
    release:
      extends: base
      startDelay: 2
    debug:
      extends: release
      arch: arm64
      dlvFlags: ["--log"]
      startArgs: []
  worker:
    release.linux.amd64:
      os: linux
      arch: amd64
      buildPath: /opt/out
      stopDelay: "1.5"
`

func TestParseFlattensExtends(t *testing.T) {
	set, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"server.base",
		"server.release",
		"server.debug",
		"worker.release.linux.amd64",
	}, set.IDs())

	release, ok := set.Get("server.release")
	require.True(t, ok)
	two := 2.0
	want := View{
		ID:         "server.release",
		Name:       "server",
		Key:        "release",
		OS:         "linux",
		Arch:       "amd64",
		ScriptPath: "./cmd/server",
		BuildArgs:  []string{"-tags prod"},
		BuildPath:  "bin",
		StartArgs:  []string{"--port", "8080"},
		StartDelay: &two,
		StopPort:   "ports.txt",
	}
	if diff := cmp.Diff(want, release.View()); diff != "" {
		t.Errorf("server.release mismatch (-want +got):\n%s", diff)
	}

	debug, ok := set.Get("server.debug")
	require.True(t, ok)
	assert.Equal(t, "server.debug", debug.ID())
	assert.Equal(t, "arm64", debug.Arch())
	assert.Equal(t, 2.0, debug.StartDelay(), "inherited through two levels")
	assert.Equal(t, []string{"--log"}, debug.DebuggerFlags())
	assert.Empty(t, debug.StartArgs(), "explicit empty list overrides the base")

	worker, ok := set.Get("worker.release.linux.amd64")
	require.True(t, ok)
	assert.Equal(t, 1.5, worker.StopDelay(), "weakly typed number")
	assert.Equal(t, 0.0, worker.StartDelay())
}

func TestParseExtendsDeclaredLater(t *testing.T) {
	set, err := Parse([]byte(`
projects:
  api:
    dev:
      extends: common
      arch: arm64
    common:
      os: darwin
      arch: amd64
`))
	require.NoError(t, err)

	dev, ok := set.Get("api.dev")
	require.True(t, ok)
	assert.Equal(t, "darwin", dev.OS())
	assert.Equal(t, "arm64", dev.Arch())
	assert.Equal(t, []string{"api.dev", "api.common"}, set.IDs())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		errMatch string
	}{
		{
			name: "cyclic extends",
			doc: `
projects:
  api:
    a: {extends: b}
    b: {extends: c}
    c: {extends: a}
`,
			errMatch: "cyclic extends",
		},
		{
			name: "self extends",
			doc: `
projects:
  api:
    a: {extends: a}
`,
			errMatch: "cyclic extends",
		},
		{
			name: "unknown base",
			doc: `
projects:
  api:
    a: {extends: missing}
`,
			errMatch: `extends unknown key "missing"`,
		},
		{
			name: "project is not a mapping",
			doc: `
projects:
  api: [1, 2]
`,
			errMatch: "must be a mapping",
		},
		{
			name:     "malformed yaml",
			doc:      "projects: [",
			errMatch: "invalid project configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
			assert.Contains(t, err.Error(), tt.errMatch)
		})
	}
}

func TestParseWarnsOnUnknownFields(t *testing.T) {
	set, err := Parse([]byte(`
projects:
  api:
    dev: {os: linux, arch: amd64, startDelayy: 3}
`))
	require.NoError(t, err)
	require.Len(t, set.Warnings, 1)
	assert.Contains(t, set.Warnings[0], "startDelayy")
}

func TestParseAcceptsJSON(t *testing.T) {
	set, err := Parse([]byte(`{"projectList": {"api": {"dev": {"os": "windows", "arch": "amd64", "startDelay": 1}}}}`))
	require.NoError(t, err)
	p, ok := set.Get("api.dev")
	require.True(t, ok)
	assert.Equal(t, "windows", p.OS())
}

func TestParseWithoutWrapperKey(t *testing.T) {
	set, err := Parse([]byte("$schema: ./goproj.schema.json\napi:\n  release:\n    os: linux\n    arch: amd64\n  debug:\n    extends: release\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"api.release", "api.debug"}, set.IDs())

	p, ok := set.Get("api.debug")
	require.True(t, ok)
	assert.Equal(t, "linux", p.OS())
	assert.Equal(t, "amd64", p.Arch())
}

func TestParseEmpty(t *testing.T) {
	set, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestMatchAndFilter(t *testing.T) {
	set, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, []string{"worker.release.linux.amd64"}, ids(set.Filter("release", "linux", "amd64")))
	assert.Equal(t, []string{"server.release", "worker.release.linux.amd64"}, ids(set.Filter("release")))
	assert.Len(t, set.Filter(), 4)
	assert.Len(t, set.ByName("server"), 3)
}

func TestMergeDoesNotAlias(t *testing.T) {
	base := Merge("api", "base", nil, Raw{BuildArgs: []string{"-a"}})
	child := Merge("api", "child", base, Raw{})

	args := child.BuildArgs()
	args[0] = "mutated"
	assert.Equal(t, []string{"-a"}, base.BuildArgs())
	assert.Equal(t, []string{"-a"}, child.BuildArgs())
	assert.Equal(t, "api.child", child.ID())
}

func TestDedupe(t *testing.T) {
	a := Merge("a", "x", nil, Raw{})
	b := Merge("b", "x", nil, Raw{})
	a2 := Merge("a", "x", nil, Raw{})

	assert.Equal(t, []string{"a.x", "b.x"}, ids(Dedupe([]*Project{a, b, a2, nil})))
}

func TestFindFile(t *testing.T) {
	dir := t.TempDir()

	_, err := FindFile(dir, "")
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "goproj.json"), []byte("{}"), 0o644))
	got, err := FindFile(dir, "goproj.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "goproj.json"), got)

	_, err = FindFile(dir, "custom.yaml")
	assert.Error(t, err)
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goproj.yaml")
	require.NoError(t, os.WriteFile(path, []byte("projects: {}\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Set, 4)
	go func() {
		_ = Watch(ctx, path, func(set *Set, err error) {
			if err == nil {
				changes <- set
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("projects:\n  api:\n    dev: {os: linux, arch: amd64}\n"), 0o644))

	select {
	case set := <-changes:
		assert.Equal(t, []string{"api.dev"}, set.IDs())
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}

func ids(projects []*Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID()
	}
	return out
}
