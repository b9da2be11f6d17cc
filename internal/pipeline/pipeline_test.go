package pipeline

import (
	"context"
	"net/http"
	"testing"

	"github.com/nautilus-cli/nautilus/internal/flixhq"
	"github.com/nautilus-cli/nautilus/internal/models"
	"github.com/nautilus-cli/nautilus/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSite struct {
	results  []models.Media
	seasons  []models.Season
	episodes []models.Episode
	servers  []models.Server
	embed    string
	payload  *flixhq.DecryptPayload

	searchErr  error
	serversErr error
}

func (f *fakeSite) Search(ctx context.Context, query string) ([]models.Media, error) {
	return f.results, f.searchErr
}

func (f *fakeSite) Seasons(ctx context.Context, mediaID string) ([]models.Season, error) {
	return f.seasons, nil
}

func (f *fakeSite) Episodes(ctx context.Context, seasonID string) ([]models.Episode, error) {
	return f.episodes, nil
}

func (f *fakeSite) EpisodeServers(ctx context.Context, dataID string) ([]models.Server, error) {
	return f.servers, f.serversErr
}

func (f *fakeSite) MovieServers(ctx context.Context, mediaID string) ([]models.Server, error) {
	return f.servers, f.serversErr
}

func (f *fakeSite) EmbedLink(ctx context.Context, serverID string) (string, error) {
	return f.embed, nil
}

func (f *fakeSite) Decrypt(ctx context.Context, embedLink string) (*flixhq.DecryptPayload, error) {
	return f.payload, nil
}

// firstChooser always picks the first option.
type firstChooser struct{}

func (firstChooser) ChooseTitle(ctx context.Context, results []models.Media) (models.Media, error) {
	return results[0], nil
}

func (firstChooser) ChooseSeason(ctx context.Context, seasons []models.Season) (models.Season, error) {
	return seasons[0], nil
}

func (firstChooser) ChooseEpisode(ctx context.Context, episodes []models.Episode) (models.Episode, error) {
	return episodes[0], nil
}

func (firstChooser) ChooseServer(ctx context.Context, servers []models.Server) (models.Server, error) {
	return servers[0], nil
}

func moviePayload() *flixhq.DecryptPayload {
	return &flixhq.DecryptPayload{File: "https://cdn.example/playlist.m3u8"}
}

func movieSite() *fakeSite {
	return &fakeSite{
		results: []models.Media{{ID: "19789", Title: "Interstellar", Type: models.MediaTypeMovie}},
		servers: []models.Server{
			{Provider: "UpCloud", ID: "5339541"},
			{Provider: "Vidcloud", ID: "5339542"},
		},
		embed:   "https://embed.example/e/abc",
		payload: moviePayload(),
	}
}

func seriesSite() *fakeSite {
	s := movieSite()
	s.results = []models.Media{{ID: "39506", Title: "Breaking Bad", Type: models.MediaTypeTV}}
	s.seasons = []models.Season{{ID: "1101", Number: 1, Title: "Season 1"}, {ID: "1102", Number: 2, Title: "Season 2"}}
	s.episodes = []models.Episode{{DataID: "9001", Number: 1, Title: "Pilot", SeasonID: "1101"}, {DataID: "9002", Number: 2, SeasonID: "1101"}}
	return s
}

func runPipeline(t *testing.T, site Site, opts Options, query string) (*Result, []State, error) {
	t.Helper()
	var states []State
	p := New(site, firstChooser{}, opts, func(s State) { states = append(states, s) })
	result, err := p.Run(context.Background(), query)
	return result, states, err
}

func TestRunMovieSkipsSeasonAndEpisodeStates(t *testing.T) {
	result, states, err := runPipeline(t, movieSite(), Options{Quality: "1080"}, "interstellar")
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateSearching,
		StateAwaitingTitleChoice,
		StateResolvingServers,
		StateAwaitingServerChoice,
		StateDecrypting,
		StateResolved,
	}, states)

	assert.Nil(t, result.Season)
	assert.Nil(t, result.Episode)
	assert.Equal(t, "UpCloud", result.Server.Provider)
	assert.Equal(t, "https://cdn.example/1080/index.m3u8", result.Stream.URL)
}

func TestRunSeriesWalksSeasonAndEpisodeStates(t *testing.T) {
	result, states, err := runPipeline(t, seriesSite(), Options{}, "breaking bad")
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateSearching,
		StateAwaitingTitleChoice,
		StateAwaitingSeasonChoice,
		StateAwaitingEpisodeChoice,
		StateResolvingServers,
		StateAwaitingServerChoice,
		StateDecrypting,
		StateResolved,
	}, states)

	require.NotNil(t, result.Season)
	require.NotNil(t, result.Episode)
	assert.Equal(t, "1101", result.Season.ID)
	assert.Equal(t, "9001", result.Episode.DataID)
}

func TestRunEmptySearchIsAbsentNotFailed(t *testing.T) {
	site := movieSite()
	site.results = nil

	p := New(site, firstChooser{}, Options{}, nil)
	_, err := p.Run(context.Background(), "zzzz")

	require.ErrorIs(t, err, ErrNoResults)
	assert.NotEqual(t, StateFailed, p.State())
}

func TestRunEmptyServerListIsAbsentNotFailed(t *testing.T) {
	site := movieSite()
	site.servers = nil

	p := New(site, firstChooser{}, Options{}, nil)
	_, err := p.Run(context.Background(), "interstellar")

	require.ErrorIs(t, err, ErrNoServers)
	assert.NotEqual(t, StateFailed, p.State())
}

func TestRunUnmatchedConfiguredProvider(t *testing.T) {
	p := New(movieSite(), firstChooser{}, Options{Provider: "Ghost"}, nil)
	_, err := p.Run(context.Background(), "interstellar")

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "Ghost", cfgErr.Provider)
	assert.Equal(t, []string{"UpCloud", "Vidcloud"}, cfgErr.Available)
	assert.Equal(t, StateFailed, p.State(), "a configuration mismatch is a terminal failure")
}

func TestRunConfiguredProviderSkipsServerChoice(t *testing.T) {
	result, states, err := runPipeline(t, movieSite(), Options{Provider: "Vidcloud"}, "interstellar")
	require.NoError(t, err)

	assert.NotContains(t, states, StateAwaitingServerChoice)
	assert.Equal(t, "5339542", result.Server.ID)
}

func TestRunSearchFailureEntersFailed(t *testing.T) {
	site := movieSite()
	site.searchErr = retry.Server(http.StatusBadGateway)

	p := New(site, firstChooser{}, Options{}, nil)
	_, err := p.Run(context.Background(), "interstellar")

	var cerr *retry.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, retry.ServerError, cerr.Class)
	assert.Equal(t, StateFailed, p.State())
}

func TestResumeSkipsSearchAndChoices(t *testing.T) {
	site := seriesSite()
	var states []State
	p := New(site, firstChooser{}, Options{Provider: "UpCloud"}, func(s State) { states = append(states, s) })

	media := models.Media{ID: "39506", Title: "Breaking Bad", Type: models.MediaTypeTV}
	season := &models.Season{ID: "1101", Number: 1}
	episode := &models.Episode{DataID: "9001", Number: 1, SeasonID: "1101"}

	result, err := p.Resume(context.Background(), media, season, episode)
	require.NoError(t, err)

	assert.Equal(t, []State{StateResolvingServers, StateDecrypting, StateResolved}, states)
	assert.Equal(t, "9001", result.Episode.DataID)
	assert.Equal(t, "UpCloud", result.Server.Provider)
}

func TestSelectServerSingleServerNeedsNoChoice(t *testing.T) {
	servers := []models.Server{{Provider: "UpCloud", ID: "1"}}
	chosen, err := SelectServer(context.Background(), servers, "", func(context.Context, []models.Server) (models.Server, error) {
		t.Fatal("chooser must not run for a single server")
		return models.Server{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1", chosen.ID)
}

func TestSelectServerMatchIsCaseSensitive(t *testing.T) {
	servers := []models.Server{{Provider: "UpCloud", ID: "1"}, {Provider: "upcloud", ID: "2"}}

	chosen, err := SelectServer(context.Background(), servers, "upcloud", nil)
	require.NoError(t, err)
	assert.Equal(t, "2", chosen.ID)
}

func TestSelectServerFirstMatchWins(t *testing.T) {
	servers := []models.Server{
		{Provider: "Vidcloud", ID: "1"},
		{Provider: "Vidcloud", ID: "2"},
	}

	chosen, err := SelectServer(context.Background(), servers, "Vidcloud", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", chosen.ID)
}
