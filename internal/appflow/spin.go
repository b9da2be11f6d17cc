package appflow

import (
	"context"

	"github.com/nautilus-cli/nautilus/internal/flixhq"
	"github.com/nautilus-cli/nautilus/internal/models"
	"github.com/nautilus-cli/nautilus/internal/pipeline"
	"github.com/nautilus-cli/nautilus/internal/ui"
)

// spinSite decorates a Site with an animated spinner for the duration of
// each network call, retries and backoff sleeps included. Prompts happen
// between calls, so the spinner never overlaps a menu.
type spinSite struct {
	site pipeline.Site
	spin func(title string, action func())
}

func newSpinSite(site pipeline.Site) spinSite {
	return spinSite{site: site, spin: ui.WithSpinner}
}

func (s spinSite) Search(ctx context.Context, query string) (results []models.Media, err error) {
	s.spin("Searching", func() { results, err = s.site.Search(ctx, query) })
	return results, err
}

func (s spinSite) Seasons(ctx context.Context, mediaID string) (seasons []models.Season, err error) {
	s.spin("Fetching seasons", func() { seasons, err = s.site.Seasons(ctx, mediaID) })
	return seasons, err
}

func (s spinSite) Episodes(ctx context.Context, seasonID string) (episodes []models.Episode, err error) {
	s.spin("Fetching episodes", func() { episodes, err = s.site.Episodes(ctx, seasonID) })
	return episodes, err
}

func (s spinSite) EpisodeServers(ctx context.Context, dataID string) (servers []models.Server, err error) {
	s.spin("Fetching servers", func() { servers, err = s.site.EpisodeServers(ctx, dataID) })
	return servers, err
}

func (s spinSite) MovieServers(ctx context.Context, mediaID string) (servers []models.Server, err error) {
	s.spin("Fetching servers", func() { servers, err = s.site.MovieServers(ctx, mediaID) })
	return servers, err
}

func (s spinSite) EmbedLink(ctx context.Context, serverID string) (link string, err error) {
	s.spin("Fetching stream link", func() { link, err = s.site.EmbedLink(ctx, serverID) })
	return link, err
}

func (s spinSite) Decrypt(ctx context.Context, embedLink string) (payload *flixhq.DecryptPayload, err error) {
	s.spin("Decrypting stream", func() { payload, err = s.site.Decrypt(ctx, embedLink) })
	return payload, err
}
