package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

// FindRoot returns the git repository root for the given directory,
// or an empty string if the directory is not inside a git repository
// or git is not installed.
func FindRoot(ctx context.Context, dir string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return filepath.Clean(strings.TrimSpace(string(out)))
}

// Workspace resolves the workspace root. An explicit directory wins;
// otherwise the repository containing the current directory is used,
// falling back to the current directory itself.
func Workspace(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		dir, err := homedir.Expand(explicit)
		if err != nil {
			return "", fmt.Errorf("invalid workspace: %w", err)
		}
		dir, err = filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("invalid workspace: %w", err)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return "", fmt.Errorf("failed to access workspace: %w", err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("workspace %s is not a directory", dir)
		}
		return dir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	if root := FindRoot(ctx, cwd); root != "" {
		return root, nil
	}
	return cwd, nil
}
