//go:build !windows

package player

import (
	"net"
	"os"
)

func dialSocket(socketPath string) (net.Conn, error) {
	return net.Dial("unix", socketPath)
}

func socketExists(socketPath string) bool {
	_, err := os.Stat(socketPath)
	return err == nil
}
