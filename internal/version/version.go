package version

import (
	"fmt"
	"os"
)

const (
	Version = "0.3"
)

func HasVersionArg() bool {
	if len(os.Args) > 1 {
		arg := os.Args[1]
		return arg == "--version" || arg == "-version" || arg == "-v"
	}
	return false
}

func ShowVersion() {
	fmt.Printf("Nautilus v%s\n", Version)
}
