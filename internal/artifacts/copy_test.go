package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpec(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		spec     string
		want     Spec
		wantErr  bool
		errMatch string
	}{
		{
			name: "source only",
			spec: "assets/**",
			want: Spec{Src: "assets/**"},
		},
		{
			name: "source and destination",
			spec: "config/app.yaml:conf/app.yaml",
			want: Spec{Src: "config/app.yaml", Dst: "conf/app.yaml"},
		},
		{
			name: "windows drive in source",
			spec: `C:\data\*.json:data`,
			want: Spec{Src: `C:\data\*.json`, Dst: "data"},
		},
		{
			name: "windows drive in destination",
			spec: `out/*.dll:D:\deploy`,
			want: Spec{Src: "out/*.dll", Dst: `D:\deploy`},
		},
		{
			name: "tilde expanded",
			spec: "~/shared/*.pem:certs",
			want: Spec{Src: filepath.Join(home, "shared/*.pem"), Dst: "certs"},
		},
		{
			name:     "empty",
			spec:     "  ",
			wantErr:  true,
			errMatch: "cannot be empty",
		},
		{
			name:     "missing source",
			spec:     ":dst",
			wantErr:  true,
			errMatch: "has no source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpec(tt.spec)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCopyGlobIntoExeDir(t *testing.T) {
	root := t.TempDir()
	exeDir := filepath.Join(t.TempDir(), "bin")
	for _, name := range []string{"a.json", "b.json", "c.json"} {
		writeFile(t, filepath.Join(root, "out", name), name)
	}
	writeFile(t, filepath.Join(root, "out", "skip.txt"), "no")

	copied, err := Copy(root, exeDir, Spec{Src: "out/*.json"})
	require.NoError(t, err)
	assert.Len(t, copied, 3)

	for _, name := range []string{"a.json", "b.json", "c.json"} {
		assert.Equal(t, name, readFile(t, filepath.Join(exeDir, name)))
	}
	assert.NoFileExists(t, filepath.Join(exeDir, "skip.txt"))
}

func TestCopyRecursivePreservesStructure(t *testing.T) {
	root := t.TempDir()
	exeDir := t.TempDir()
	writeFile(t, filepath.Join(root, "assets", "logo.png"), "logo")
	writeFile(t, filepath.Join(root, "assets", "img", "icons", "x.svg"), "x")
	writeFile(t, filepath.Join(root, "assets", "fonts", "mono.ttf"), "mono")

	copied, err := Copy(root, exeDir, Spec{Src: "assets/**", Dst: "resources"})
	require.NoError(t, err)
	assert.Len(t, copied, 3)

	assert.Equal(t, "logo", readFile(t, filepath.Join(exeDir, "resources", "logo.png")))
	assert.Equal(t, "x", readFile(t, filepath.Join(exeDir, "resources", "img", "icons", "x.svg")))
	assert.Equal(t, "mono", readFile(t, filepath.Join(exeDir, "resources", "fonts", "mono.ttf")))
}

func TestCopySingleFile(t *testing.T) {
	root := t.TempDir()
	exeDir := t.TempDir()
	writeFile(t, filepath.Join(root, "config", "app.yaml"), "port: 1")

	t.Run("default destination keeps the name", func(t *testing.T) {
		copied, err := Copy(root, exeDir, Spec{Src: "config/app.yaml"})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(exeDir, "app.yaml")}, copied)
	})

	t.Run("relative destination is a file under exe dir", func(t *testing.T) {
		copied, err := Copy(root, exeDir, Spec{Src: "config/app.yaml", Dst: "etc/service.yaml"})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(exeDir, "etc", "service.yaml")}, copied)
		assert.Equal(t, "port: 1", readFile(t, copied[0]))
	})

	t.Run("absolute source and destination", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "abs.yaml")
		copied, err := Copy("/unused", exeDir, Spec{Src: filepath.Join(root, "config", "app.yaml"), Dst: dst})
		require.NoError(t, err)
		assert.Equal(t, []string{dst}, copied)
	})
}

func TestCopyLiteralDirectory(t *testing.T) {
	root := t.TempDir()
	exeDir := t.TempDir()
	writeFile(t, filepath.Join(root, "static", "index.html"), "<html>")
	writeFile(t, filepath.Join(root, "static", "js", "app.js"), "js")

	copied, err := Copy(root, exeDir, Spec{Src: "static", Dst: "www"})
	require.NoError(t, err)
	assert.Len(t, copied, 2)
	assert.Equal(t, "js", readFile(t, filepath.Join(exeDir, "www", "js", "app.js")))
}

func TestCopyNoMatch(t *testing.T) {
	copied, err := Copy(t.TempDir(), t.TempDir(), Spec{Src: "nothing/*.bin"})
	require.NoError(t, err)
	assert.Empty(t, copied)
}

func TestCopyPreservesMode(t *testing.T) {
	root := t.TempDir()
	exeDir := t.TempDir()
	script := filepath.Join(root, "run.sh")
	writeFile(t, script, "#!/bin/sh")
	require.NoError(t, os.Chmod(script, 0o750))

	_, err := Copy(root, exeDir, Spec{Src: "run.sh"})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(exeDir, "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
}
