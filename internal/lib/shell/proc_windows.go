//go:build windows

package shell

import (
	"os/exec"
	"strconv"
)

// killTree kills cmd and every process it started with taskkill /T, so
// node processes spawned by npm.cmd die with it.
func killTree(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
		if err := kill.Run(); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
