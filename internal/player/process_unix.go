//go:build !windows

package player

import (
	"os/exec"
	"syscall"
)

// setProcessGroup detaches the player from the terminal's process group so
// Ctrl+C in the client does not tear down a playback the user wants kept.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
