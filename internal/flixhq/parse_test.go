package flixhq

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/nautilus-cli/nautilus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const searchPage = `
<div class="film_list-wrap">
  <div class="flw-item">
    <div class="film-detail">
      <h2 class="film-name"><a href="/movie/watch-interstellar-19789" title="Interstellar">Interstellar</a></h2>
      <div class="fd-infor"><span class="fdi-item">2014</span></div>
    </div>
  </div>
  <div class="flw-item">
    <div class="film-detail">
      <h2 class="film-name"><a href="/tv/watch-breaking-bad-39506">Breaking Bad</a></h2>
      <div class="fd-infor"><span class="fdi-item">SS 5</span></div>
    </div>
  </div>
  <div class="flw-item">
    <div class="film-detail">
      <h2 class="film-name"><a href="/person/some-actor">Not media</a></h2>
    </div>
  </div>
</div>`

func TestParseSearchResults(t *testing.T) {
	results := parseSearchResults(docFromHTML(t, searchPage), "https://flixhq.to")

	require.Len(t, results, 2, "non-media links must be skipped")

	assert.Equal(t, "19789", results[0].ID)
	assert.Equal(t, "Interstellar", results[0].Title)
	assert.Equal(t, models.MediaTypeMovie, results[0].Type)
	assert.Equal(t, "2014", results[0].Year)
	assert.Equal(t, "https://flixhq.to/movie/watch-interstellar-19789", results[0].URL)

	assert.Equal(t, "39506", results[1].ID)
	assert.Equal(t, models.MediaTypeTV, results[1].Type)
	assert.False(t, results[0].IsSeries())
	assert.True(t, results[1].IsSeries())
}

func TestParseSearchResultsEmptyPage(t *testing.T) {
	results := parseSearchResults(docFromHTML(t, `<div class="film_list-wrap"></div>`), "https://flixhq.to")
	assert.Empty(t, results, "an empty result list is a valid outcome")
}

const seasonsPage = `
<div class="dropdown-menu">
  <a class="dropdown-item" data-id="1101">Season 1</a>
  <a class="dropdown-item" data-id="1102">Season 2</a>
  <a class="dropdown-item">Specials without id</a>
</div>`

func TestParseSeasons(t *testing.T) {
	seasons := parseSeasons(docFromHTML(t, seasonsPage))

	require.Len(t, seasons, 2)
	assert.Equal(t, "1101", seasons[0].ID)
	assert.Equal(t, 1, seasons[0].Number)
	assert.Equal(t, "Season 1", seasons[0].Title)
	assert.Equal(t, 2, seasons[1].Number)
}

const episodesPage = `
<ul>
  <li class="nav-item"><a data-id="9001" title="Eps 1: Pilot">Eps 1</a></li>
  <li class="nav-item"><a data-id="9002">Eps 2</a></li>
</ul>`

func TestParseEpisodes(t *testing.T) {
	episodes := parseEpisodes(docFromHTML(t, episodesPage), "1101")

	require.Len(t, episodes, 2)
	assert.Equal(t, "9001", episodes[0].DataID)
	assert.Equal(t, 1, episodes[0].Number)
	assert.Equal(t, "Eps 1: Pilot", episodes[0].Title)
	assert.Equal(t, "1101", episodes[0].SeasonID)
	assert.Equal(t, "Eps 2", episodes[1].Title)
}

const episodeServersPage = `
<ul>
  <li class="nav-item"><a data-id="7001" title="Server UpCloud">UpCloud</a></li>
  <li class="nav-item"><a data-id="7002" title="Server Vidcloud">Vidcloud</a></li>
</ul>`

func TestParseEpisodeServers(t *testing.T) {
	servers := parseEpisodeServers(docFromHTML(t, episodeServersPage))

	require.Len(t, servers, 2)
	assert.Equal(t, models.Server{Provider: "UpCloud", ID: "7001"}, servers[0])
	assert.Equal(t, models.Server{Provider: "Vidcloud", ID: "7002"}, servers[1])
}

const movieServersPage = `
<div>
  <a title="Server UpCloud" href="/watch-movie/watch-interstellar-19789.5339541">UpCloud</a>
  <a title="Vidcloud" href="/watch-movie/watch-interstellar-19789.5339542">Vidcloud</a>
  <a title="Broken" href="/watch-movie/no-id-here">Broken</a>
</div>`

func TestParseMovieServers(t *testing.T) {
	servers := parseMovieServers(docFromHTML(t, movieServersPage))

	require.Len(t, servers, 2)
	assert.Equal(t, models.Server{Provider: "UpCloud", ID: "5339541"}, servers[0])
	assert.Equal(t, models.Server{Provider: "Vidcloud", ID: "5339542"}, servers[1])
}

func TestIsChallengePage(t *testing.T) {
	challenge := docFromHTML(t, `<html><head><title>Just a moment...</title></head></html>`)
	normal := docFromHTML(t, `<html><head><title>FlixHQ</title></head></html>`)

	assert.True(t, isChallengePage(challenge))
	assert.False(t, isChallengePage(normal))
}
