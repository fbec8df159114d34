//go:build !windows

package runner

import "os/exec"

// setCmdLine is a no-op: raw command lines only exist on Windows, the one
// host that launches through "cmd /c start".
func setCmdLine(*exec.Cmd, string) {}
