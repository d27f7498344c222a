// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Windows process handling

//go:build windows

package exec

import (
	"os/exec"
)

// setPlatformProcessGroup is a no-op; Windows has no Unix-style groups.
func setPlatformProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup terminates the child via TerminateProcess
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
