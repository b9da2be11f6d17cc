package ui

import (
	"fmt"
	"strings"

	"github.com/nautilus-cli/nautilus/internal/retry"
)

// RenderEvent formats one retry progress event as a single line, e.g.
// "Server error (500). Retrying in 2.0s... (2/3)".
func RenderEvent(ev retry.Event) string {
	label := capitalize(string(ev.Class))
	if ev.Status != 0 {
		label = fmt.Sprintf("%s (%d)", label, ev.Status)
	}
	return fmt.Sprintf("%s. Retrying in %.1fs... (%d/%d)",
		label, ev.NextDelay.Seconds(), ev.Attempt, ev.MaxAttempts)
}

// PrintEvent writes a rendered event to the terminal; wired into the retry
// engine as its observer.
func PrintEvent(ev retry.Event) {
	fmt.Println(Warn(RenderEvent(ev)))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
