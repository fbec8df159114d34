//go:build windows

package runner

import (
	"os/exec"
	"syscall"
)

// setCmdLine passes line to the process verbatim instead of re-escaping Args.
func setCmdLine(cmd *exec.Cmd, line string) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: line}
}
