//go:build windows

package player

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Microsoft/go-winio"
)

// Named pipes live under \\.\pipe\ and need go-winio to dial.
func dialSocket(socketPath string) (net.Conn, error) {
	if !strings.HasPrefix(socketPath, `\\.\pipe\`) {
		socketPath = `\\.\pipe\` + filepath.Base(socketPath)
	}
	timeout := 5 * time.Second
	return winio.DialPipe(socketPath, &timeout)
}

func socketExists(socketPath string) bool {
	_, err := os.Stat(socketPath)
	return err == nil
}
