//go:build !windows

package procutil

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// SysProcAttr places a child in its own process group so the whole tree can
// be signalled and it outlives the launching terminal's job control.
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// Alive reports whether a process with pid exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Kill sends SIGKILL to a single process.
func Kill(pid int) error {
	if err := unix.Kill(pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("failed to kill pid %d: %w", pid, err)
	}
	return nil
}

// KillGroup signals the process group led by pid, SIGKILL when force is set
// and SIGTERM otherwise. A process that is not a group leader is signalled
// directly.
func KillGroup(pid int, force bool) error {
	sig := unix.SIGTERM
	if force {
		sig = unix.SIGKILL
	}
	err := unix.Kill(-pid, sig)
	if errors.Is(err, unix.ESRCH) {
		err = unix.Kill(pid, sig)
	}
	if err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("failed to signal pid %d: %w", pid, err)
	}
	return nil
}

// PortPIDs returns the processes listening on a TCP port, using lsof and
// falling back to fuser.
func PortPIDs(ctx context.Context, port int) ([]int, error) {
	if _, err := exec.LookPath("lsof"); err == nil {
		out, err := exec.CommandContext(ctx, "lsof", "-nP", "-t", "-iTCP:"+strconv.Itoa(port), "-sTCP:LISTEN").Output()
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
				// lsof exits 1 when nothing matches
				return nil, ErrNoListener
			}
			return nil, fmt.Errorf("lsof failed: %w", err)
		}
		pids := parsePIDLines(string(out))
		if len(pids) == 0 {
			return nil, ErrNoListener
		}
		return pids, nil
	}

	if _, err := exec.LookPath("fuser"); err == nil {
		// fuser prints the PIDs on stdout and the port label on stderr
		out, err := exec.CommandContext(ctx, "fuser", strconv.Itoa(port)+"/tcp").Output()
		pids := parsePIDLines(string(out))
		if len(pids) == 0 {
			if err != nil {
				var exitErr *exec.ExitError
				if !errors.As(err, &exitErr) {
					return nil, fmt.Errorf("fuser failed: %w", err)
				}
			}
			return nil, ErrNoListener
		}
		return pids, nil
	}

	return nil, fmt.Errorf("neither lsof nor fuser is available to look up port %d", port)
}
