package pipeline

import (
	"context"

	"github.com/nautilus-cli/nautilus/internal/models"
)

// SelectServer picks a server from the list the site offered. A configured
// provider name is matched exactly, case included, first occurrence wins;
// a configured name that matches nothing is a configuration error, never a
// prompt. Without a configured provider the chooser decides.
func SelectServer(ctx context.Context, servers []models.Server, provider string, choose func(context.Context, []models.Server) (models.Server, error)) (models.Server, error) {
	if len(servers) == 0 {
		return models.Server{}, ErrNoServers
	}

	if provider != "" {
		for _, s := range servers {
			if s.Provider == provider {
				return s, nil
			}
		}
		available := make([]string, 0, len(servers))
		for _, s := range servers {
			available = append(available, s.Provider)
		}
		return models.Server{}, &ConfigError{Provider: provider, Available: available}
	}

	if len(servers) == 1 {
		return servers[0], nil
	}
	return choose(ctx, servers)
}
