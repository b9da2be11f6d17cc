package appflow

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nautilus-cli/nautilus/internal/flixhq"
	"github.com/nautilus-cli/nautilus/internal/models"
)

type stubSite struct {
	results []models.Media
	err     error
}

func (s stubSite) Search(context.Context, string) ([]models.Media, error) {
	return s.results, s.err
}

func (s stubSite) Seasons(context.Context, string) ([]models.Season, error) {
	return nil, s.err
}

func (s stubSite) Episodes(context.Context, string) ([]models.Episode, error) {
	return nil, s.err
}

func (s stubSite) EpisodeServers(context.Context, string) ([]models.Server, error) {
	return nil, s.err
}

func (s stubSite) MovieServers(context.Context, string) ([]models.Server, error) {
	return nil, s.err
}

func (s stubSite) EmbedLink(context.Context, string) (string, error) {
	return "https://embed.example/e-1", s.err
}

func (s stubSite) Decrypt(context.Context, string) (*flixhq.DecryptPayload, error) {
	return nil, s.err
}

func TestSpinSiteForwardsResults(t *testing.T) {
	media := []models.Media{{ID: "19789", Title: "Breaking Bad", Type: models.MediaTypeTV}}

	var titles []string
	site := spinSite{
		site: stubSite{results: media},
		spin: func(title string, action func()) {
			titles = append(titles, title)
			action()
		},
	}

	results, err := site.Search(context.Background(), "breaking bad")
	require.NoError(t, err)
	assert.Equal(t, media, results)

	link, err := site.EmbedLink(context.Background(), "4829542")
	require.NoError(t, err)
	assert.Equal(t, "https://embed.example/e-1", link)

	assert.Equal(t, []string{"Searching", "Fetching stream link"}, titles)
}

func TestSpinSiteForwardsErrors(t *testing.T) {
	siteErr := errors.New("network error")
	site := spinSite{
		site: stubSite{err: siteErr},
		spin: func(_ string, action func()) { action() },
	}

	_, err := site.Decrypt(context.Background(), "https://embed.example/e-1")
	assert.ErrorIs(t, err, siteErr)
}
