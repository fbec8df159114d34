//go:build windows

package procutil

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

// stillActive is the exit code GetExitCodeProcess reports for a running process
const stillActive = 259

// SysProcAttr starts the child in a new process group
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

// Alive reports whether a process with pid is still running.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer func() { _ = windows.CloseHandle(h) }()

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == stillActive
}

// Kill forcibly ends a single process.
func Kill(pid int) error {
	return taskkill(pid, false)
}

// KillGroup ends pid and its child processes. Windows has no graceful
// equivalent of SIGTERM for console-less children, so force is implied.
func KillGroup(pid int, force bool) error {
	return taskkill(pid, true)
}

func taskkill(pid int, tree bool) error {
	args := []string{"/F", "/PID", strconv.Itoa(pid)}
	if tree {
		args = append(args, "/T")
	}
	if out, err := exec.Command("taskkill", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("taskkill %d failed: %w: %s", pid, err, out)
	}
	return nil
}

// PortPIDs returns the processes listening on a TCP port.
func PortPIDs(ctx context.Context, port int) ([]int, error) {
	out, err := exec.CommandContext(ctx, "netstat", "-ano", "-p", "tcp").Output()
	if err != nil {
		return nil, fmt.Errorf("netstat failed: %w", err)
	}
	pids := parseNetstat(string(out), port)
	if len(pids) == 0 {
		return nil, ErrNoListener
	}
	return pids, nil
}
