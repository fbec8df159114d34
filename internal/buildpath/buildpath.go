package buildpath

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrPath is returned when a project's path inputs cannot produce an executable location
var ErrPath = errors.New("invalid build path")

// Mode selects build flags and the output subdirectory
type Mode string

const (
	Debug   Mode = "debug"
	Release Mode = "release"
)

func (m Mode) String() string {
	return string(m)
}

// ParseMode parses "debug" or "release"
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Debug, Release:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrPath, s)
}

// Target is the subset of a project configuration the resolver needs.
type Target interface {
	Name() string
	OS() string
	Arch() string
	BuildPath() string
	ScriptPath() string
}

// PlatformTag returns "{os}_{arch}".
func PlatformTag(os, arch string) string {
	return os + "_" + arch
}

// ExecutableName returns the output file name for a target OS.
func ExecutableName(name, os string) string {
	if os == "windows" {
		return name + ".exe"
	}
	return name
}

// Resolve computes the executable directory and file for a target built in mode.
//
// Layout: <base>/<os>_<arch>/<mode>/<name>/<name>[.exe], where base is the
// target's build path when absolute, otherwise the build path joined under root.
func Resolve(root string, t Target, mode Mode) (dir, file string, err error) {
	if t.Name() == "" {
		return "", "", fmt.Errorf("%w: empty project name", ErrPath)
	}
	if t.OS() == "" || t.Arch() == "" {
		return "", "", fmt.Errorf("%w: %s: os and arch are required", ErrPath, t.Name())
	}
	if mode != Debug && mode != Release {
		return "", "", fmt.Errorf("%w: unknown mode %q", ErrPath, mode)
	}

	base := t.BuildPath()
	if !filepath.IsAbs(base) {
		if root == "" {
			return "", "", fmt.Errorf("%w: %s: relative build path %q needs a workspace root", ErrPath, t.Name(), base)
		}
		base = filepath.Join(root, base)
	}

	dir = filepath.Join(base, PlatformTag(t.OS(), t.Arch()), mode.String(), t.Name())
	file = filepath.Join(dir, ExecutableName(t.Name(), t.OS()))
	return dir, file, nil
}

// SourceDir returns the directory a target is built from.
func SourceDir(root string, t Target) (string, error) {
	src := t.ScriptPath()
	if filepath.IsAbs(src) {
		return filepath.Clean(src), nil
	}
	if root == "" {
		return "", fmt.Errorf("%w: %s: relative script path %q needs a workspace root", ErrPath, t.Name(), src)
	}
	return filepath.Join(root, src), nil
}
