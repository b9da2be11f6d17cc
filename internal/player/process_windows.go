//go:build windows

package player

import (
	"os/exec"
)

// Windows has no process groups to configure here.
func setProcessGroup(cmd *exec.Cmd) {
	_ = cmd
}
