package pipeline

import (
	"fmt"

	"github.com/pkg/errors"
)

// Absent-content outcomes. The site answered correctly; it simply has
// nothing to offer. Callers render these as information, not failures,
// and the pipeline never enters the Failed state for them.
var (
	ErrNoResults = errors.New("no results found")
	ErrNoServers = errors.New("no servers available")
)

// ErrAborted is returned when the user backs out of an interactive choice.
var ErrAborted = errors.New("selection aborted")

// ConfigError reports a configured provider that matched none of the
// servers the site offered. It is terminal: retrying cannot change the
// configuration.
type ConfigError struct {
	Provider  string
	Available []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configured provider %q not offered (available: %v)", e.Provider, e.Available)
}
