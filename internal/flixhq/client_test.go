package flixhq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nautilus-cli/nautilus/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    3,
		BaseDelay:      time.Millisecond,
		Multiplier:     2.0,
		AttemptTimeout: time.Second,
	}
}

func testClient(t *testing.T, base string, onEvent func(retry.Event)) *Client {
	t.Helper()
	return New(Options{
		BaseURL:       base,
		DecryptAPI:    base,
		Engine:        retry.NewEngine(onEvent),
		ListPolicy:    fastPolicy(),
		DecryptPolicy: fastPolicy(),
	})
}

func TestSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/breaking-bad", r.URL.Path)
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	results, err := c.Search(context.Background(), "  Breaking Bad ")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Interstellar", results[0].Title)
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(searchPage))
	}))
	defer srv.Close()

	var events []retry.Event
	c := testClient(t, srv.URL, func(e retry.Event) { events = append(events, e) })

	results, err := c.Search(context.Background(), "interstellar")
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.EqualValues(t, 3, calls.Load())

	require.Len(t, events, 2)
	assert.Equal(t, StageSearch, events[0].Stage)
	assert.Equal(t, retry.ServerError, events[0].Class)
}

func TestSearchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var events []retry.Event
	c := testClient(t, srv.URL, func(e retry.Event) { events = append(events, e) })

	_, err := c.Search(context.Background(), "nothing")
	require.Error(t, err)

	var cerr *retry.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, retry.ClientError, cerr.Class)
	assert.Equal(t, http.StatusNotFound, cerr.Status)
	assert.EqualValues(t, 1, calls.Load())
	assert.Empty(t, events)
}

func TestChallengePageIsRetriedAsServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`<html><head><title>Just a moment...</title></head></html>`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	_, err := c.Search(context.Background(), "anything")
	require.Error(t, err)

	var cerr *retry.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, retry.ServerError, cerr.Class)
	assert.Equal(t, http.StatusServiceUnavailable, cerr.Status)
	assert.EqualValues(t, 3, calls.Load(), "challenge pages are transient and exhaust the attempts")
}

func TestEmbedLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ajax/episode/sources/7002", r.URL.Path)
		_, _ = w.Write([]byte(`{"type": "iframe", "link": "https://embed.example/e/abc"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	link, err := c.EmbedLink(context.Background(), "7002")
	require.NoError(t, err)
	assert.Equal(t, "https://embed.example/e/abc", link)
}

func TestEmbedLinkMissingIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type": "iframe"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	_, err := c.EmbedLink(context.Background(), "7002")

	var cerr *retry.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, retry.MalformedResponse, cerr.Class)
}

func TestDecrypt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://embed.example/e/abc", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte(`{"file": "https://cdn.example/playlist.m3u8", "tracks": []}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	payload, err := c.Decrypt(context.Background(), "https://embed.example/e/abc")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/playlist.m3u8", payload.File)
}

func TestSeasonsAndEpisodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ajax/v2/tv/seasons/39506":
			_, _ = w.Write([]byte(seasonsPage))
		case "/ajax/v2/season/episodes/1101":
			_, _ = w.Write([]byte(episodesPage))
		case "/ajax/v2/episode/servers/9001":
			_, _ = w.Write([]byte(episodeServersPage))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	ctx := context.Background()

	seasons, err := c.Seasons(ctx, "39506")
	require.NoError(t, err)
	require.Len(t, seasons, 2)

	episodes, err := c.Episodes(ctx, seasons[0].ID)
	require.NoError(t, err)
	require.Len(t, episodes, 2)

	servers, err := c.EpisodeServers(ctx, episodes[0].DataID)
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Equal(t, "Vidcloud", servers[1].Provider)
}
