//go:build !windows

package shell

import (
	"os/exec"
	"syscall"
)

// killTree puts cmd in its own process group and kills the whole group on
// cancellation, so children spawned by npm or git die with it.
func killTree(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
