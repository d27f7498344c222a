// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Unix process groups so a cancelled build takes its children with it

//go:build !windows

package exec

import (
	"os/exec"
	"syscall"
)

// setPlatformProcessGroup puts the child in a new process group whose ID
// equals its PID.
func setPlatformProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup sends SIGKILL to the child's process group, or to the
// child alone when the group cannot be resolved.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		return cmd.Process.Kill()
	}
	return syscall.Kill(-pgid, syscall.SIGKILL)
}
