// Package pipeline drives a query from free text to a playable stream.
// It owns the state machine and the selection rules; the network steps
// live in the site client, the prompts behind the Chooser interface.
package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nautilus-cli/nautilus/internal/flixhq"
	"github.com/nautilus-cli/nautilus/internal/models"
	"github.com/nautilus-cli/nautilus/internal/util"
)

// Site is the slice of the site client the pipeline needs. *flixhq.Client
// satisfies it; tests substitute fakes.
type Site interface {
	Search(ctx context.Context, query string) ([]models.Media, error)
	Seasons(ctx context.Context, mediaID string) ([]models.Season, error)
	Episodes(ctx context.Context, seasonID string) ([]models.Episode, error)
	EpisodeServers(ctx context.Context, dataID string) ([]models.Server, error)
	MovieServers(ctx context.Context, mediaID string) ([]models.Server, error)
	EmbedLink(ctx context.Context, serverID string) (string, error)
	Decrypt(ctx context.Context, embedLink string) (*flixhq.DecryptPayload, error)
}

// Chooser answers the interactive decisions of a run.
type Chooser interface {
	ChooseTitle(ctx context.Context, results []models.Media) (models.Media, error)
	ChooseSeason(ctx context.Context, seasons []models.Season) (models.Season, error)
	ChooseEpisode(ctx context.Context, episodes []models.Episode) (models.Episode, error)
	ChooseServer(ctx context.Context, servers []models.Server) (models.Server, error)
}

// Options carry the configuration slice the pipeline acts on.
type Options struct {
	// Provider auto-selects a server by exact name when set.
	Provider string
	// Quality is the preferred stream quality, e.g. "1080".
	Quality string
	// SubsLanguage filters subtitle tracks; NoSubs drops them entirely.
	SubsLanguage string
	NoSubs       bool
}

// Result is the immutable outcome of a successful run.
type Result struct {
	Media   models.Media
	Season  *models.Season
	Episode *models.Episode
	Server  models.Server
	Stream  models.Stream
}

// Pipeline resolves queries against one site through one chooser.
type Pipeline struct {
	site    Site
	chooser Chooser
	opts    Options

	state   State
	onState func(State)
}

// New creates a Pipeline in the Idle state. onState, if non-nil, observes
// every transition.
func New(site Site, chooser Chooser, opts Options, onState func(State)) *Pipeline {
	return &Pipeline{
		site:    site,
		chooser: chooser,
		opts:    opts,
		state:   StateIdle,
		onState: onState,
	}
}

// State returns the current state.
func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) transition(s State) {
	p.state = s
	util.Debug("pipeline transition", "state", string(s))
	if p.onState != nil {
		p.onState(s)
	}
}

// fail marks the run Failed and passes the classified error through. It is
// only called for genuine step failures; absent content never lands here.
func (p *Pipeline) fail(err error) error {
	p.transition(StateFailed)
	return err
}

// Run resolves a free-text query end to end. Movies skip the season and
// episode states. Empty search results and empty server lists surface as
// ErrNoResults and ErrNoServers without entering the Failed state.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	p.transition(StateSearching)
	results, err := p.site.Search(ctx, query)
	if err != nil {
		return nil, p.fail(err)
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	p.transition(StateAwaitingTitleChoice)
	media, err := p.chooser.ChooseTitle(ctx, results)
	if err != nil {
		return nil, err
	}

	result := &Result{Media: media}
	if media.IsSeries() {
		if err := p.resolveEpisode(ctx, result); err != nil {
			return nil, err
		}
	}
	if err := p.resolveStream(ctx, result); err != nil {
		return nil, err
	}

	p.transition(StateResolved)
	return result, nil
}

// Resume re-enters the pipeline at server resolution for a media item and
// episode already known from history, skipping search and all choices
// before it.
func (p *Pipeline) Resume(ctx context.Context, media models.Media, season *models.Season, episode *models.Episode) (*Result, error) {
	result := &Result{Media: media, Season: season, Episode: episode}
	if err := p.resolveStream(ctx, result); err != nil {
		return nil, err
	}
	p.transition(StateResolved)
	return result, nil
}

func (p *Pipeline) resolveEpisode(ctx context.Context, result *Result) error {
	seasons, err := p.site.Seasons(ctx, result.Media.ID)
	if err != nil {
		return p.fail(err)
	}
	if len(seasons) == 0 {
		return ErrNoResults
	}

	season := seasons[0]
	if len(seasons) > 1 {
		p.transition(StateAwaitingSeasonChoice)
		season, err = p.chooser.ChooseSeason(ctx, seasons)
		if err != nil {
			return err
		}
	}
	result.Season = &season

	episodes, err := p.site.Episodes(ctx, season.ID)
	if err != nil {
		return p.fail(err)
	}
	if len(episodes) == 0 {
		return ErrNoResults
	}

	episode := episodes[0]
	if len(episodes) > 1 {
		p.transition(StateAwaitingEpisodeChoice)
		episode, err = p.chooser.ChooseEpisode(ctx, episodes)
		if err != nil {
			return err
		}
	}
	result.Episode = &episode
	return nil
}

func (p *Pipeline) resolveStream(ctx context.Context, result *Result) error {
	p.transition(StateResolvingServers)

	var servers []models.Server
	var err error
	if result.Episode != nil {
		servers, err = p.site.EpisodeServers(ctx, result.Episode.DataID)
	} else {
		servers, err = p.site.MovieServers(ctx, result.Media.ID)
	}
	if err != nil {
		return p.fail(err)
	}
	if len(servers) == 0 {
		return ErrNoServers
	}

	if p.opts.Provider == "" && len(servers) > 1 {
		p.transition(StateAwaitingServerChoice)
	}
	server, err := SelectServer(ctx, servers, p.opts.Provider, p.chooser.ChooseServer)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			return p.fail(err)
		}
		return err
	}
	result.Server = server

	embed, err := p.site.EmbedLink(ctx, server.ID)
	if err != nil {
		return p.fail(err)
	}

	p.transition(StateDecrypting)
	payload, err := p.site.Decrypt(ctx, embed)
	if err != nil {
		return p.fail(err)
	}

	stream := models.Stream{
		URL:     payload.StreamURL(p.opts.Quality),
		Title:   result.Media.Title,
		Quality: p.opts.Quality,
		Raw:     payload.Raw,
	}
	if !p.opts.NoSubs {
		stream.Subtitles = payload.Subtitles(p.opts.SubsLanguage)
	}
	result.Stream = stream
	return nil
}
