// Package flixhq implements the site client: one request builder and one
// response interpreter per resolution step, all executed through the retry
// engine.
package flixhq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nautilus-cli/nautilus/internal/models"
	"github.com/nautilus-cli/nautilus/internal/retry"
	"github.com/nautilus-cli/nautilus/internal/util"
	"github.com/pkg/errors"
)

const (
	DefaultBase      = "https://flixhq.to"
	DefaultAPI       = "https://dec.eatmynerds.live"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0"
)

// Stage names carried on retry progress events.
const (
	StageSearch   = "search"
	StageSeasons  = "seasons"
	StageEpisodes = "episodes"
	StageServers  = "servers"
	StageSources  = "sources"
	StageDecrypt  = "decrypt"
)

// Options configures a Client. Zero values pick defaults.
type Options struct {
	BaseURL    string
	DecryptAPI string
	UserAgent  string
	HTTPClient *http.Client
	Engine     *retry.Engine
	// ListPolicy drives search and listing steps; DecryptPolicy drives the
	// decrypt call, which gets a longer per-attempt timeout since stream-key
	// derivation is slower on the far side.
	ListPolicy    retry.Policy
	DecryptPolicy retry.Policy
}

// Client handles interactions with FlixHQ and the stream decrypt service.
// It holds no per-resolution state; a single Client is safe for concurrent
// pipelines.
type Client struct {
	http          *http.Client
	baseURL       string
	apiURL        string
	userAgent     string
	engine        *retry.Engine
	listPolicy    retry.Policy
	decryptPolicy retry.Policy
}

// New creates a Client, filling unset options with defaults.
func New(opts Options) *Client {
	c := &Client{
		http:          opts.HTTPClient,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		apiURL:        strings.TrimRight(opts.DecryptAPI, "/"),
		userAgent:     opts.UserAgent,
		engine:        opts.Engine,
		listPolicy:    opts.ListPolicy,
		decryptPolicy: opts.DecryptPolicy,
	}
	if c.http == nil {
		c.http = util.GetSharedClient()
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBase
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPI
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.engine == nil {
		c.engine = retry.NewEngine(nil)
	}
	if c.listPolicy.MaxAttempts == 0 {
		c.listPolicy = retry.DefaultPolicy()
	}
	if c.decryptPolicy.MaxAttempts == 0 {
		c.decryptPolicy = retry.DefaultPolicy()
		c.decryptPolicy.AttemptTimeout = 45 * time.Second
	}
	return c
}

// Search queries the site for movies and TV shows matching the free-text
// query. An empty result list is a valid outcome, not an error.
func (c *Client) Search(ctx context.Context, query string) ([]models.Media, error) {
	slug := strings.Trim(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(query)), " ", "-"), "-")
	searchURL := fmt.Sprintf("%s/search/%s", c.baseURL, url.PathEscape(slug))

	util.Debug("FlixHQ search", "query", query, "url", searchURL)

	var results []models.Media
	err := c.engine.Do(ctx, StageSearch, c.listPolicy, func(ctx context.Context) error {
		return c.getHTML(ctx, searchURL, func(doc *goquery.Document) error {
			results = parseSearchResults(doc, c.baseURL)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Seasons lists the seasons of a series.
func (c *Client) Seasons(ctx context.Context, mediaID string) ([]models.Season, error) {
	seasonsURL := fmt.Sprintf("%s/ajax/v2/tv/seasons/%s", c.baseURL, mediaID)

	var seasons []models.Season
	err := c.engine.Do(ctx, StageSeasons, c.listPolicy, func(ctx context.Context) error {
		return c.getHTML(ctx, seasonsURL, func(doc *goquery.Document) error {
			seasons = parseSeasons(doc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return seasons, nil
}

// Episodes lists the episodes of a season.
func (c *Client) Episodes(ctx context.Context, seasonID string) ([]models.Episode, error) {
	episodesURL := fmt.Sprintf("%s/ajax/v2/season/episodes/%s", c.baseURL, seasonID)

	var episodes []models.Episode
	err := c.engine.Do(ctx, StageEpisodes, c.listPolicy, func(ctx context.Context) error {
		return c.getHTML(ctx, episodesURL, func(doc *goquery.Document) error {
			episodes = parseEpisodes(doc, seasonID)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return episodes, nil
}

// EpisodeServers lists the streaming servers the site offers for an
// episode. An empty list is a valid outcome ("no servers available").
func (c *Client) EpisodeServers(ctx context.Context, dataID string) ([]models.Server, error) {
	serversURL := fmt.Sprintf("%s/ajax/v2/episode/servers/%s", c.baseURL, dataID)

	var servers []models.Server
	err := c.engine.Do(ctx, StageServers, c.listPolicy, func(ctx context.Context) error {
		return c.getHTML(ctx, serversURL, func(doc *goquery.Document) error {
			servers = parseEpisodeServers(doc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return servers, nil
}

// MovieServers lists the streaming servers for a movie.
func (c *Client) MovieServers(ctx context.Context, mediaID string) ([]models.Server, error) {
	movieURL := fmt.Sprintf("%s/ajax/movie/episodes/%s", c.baseURL, mediaID)

	var servers []models.Server
	err := c.engine.Do(ctx, StageServers, c.listPolicy, func(ctx context.Context) error {
		return c.getHTML(ctx, movieURL, func(doc *goquery.Document) error {
			servers = parseMovieServers(doc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return servers, nil
}

// EmbedLink resolves the embed URL for a chosen server.
func (c *Client) EmbedLink(ctx context.Context, serverID string) (string, error) {
	sourcesURL := fmt.Sprintf("%s/ajax/episode/sources/%s", c.baseURL, serverID)

	var link string
	err := c.engine.Do(ctx, StageSources, c.listPolicy, func(ctx context.Context) error {
		return c.get(ctx, sourcesURL, func(resp *http.Response) error {
			var result struct {
				Link string `json:"link"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return retry.Malformed(errors.Wrap(err, "decoding sources response"))
			}
			if result.Link == "" {
				return retry.Malformed(errors.New("no embed link in sources response"))
			}
			link = result.Link
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return link, nil
}

// Decrypt asks the decrypt service to resolve the embed URL into stream
// sources and subtitle tracks.
func (c *Client) Decrypt(ctx context.Context, embedLink string) (*DecryptPayload, error) {
	apiURL := fmt.Sprintf("%s/?url=%s", c.apiURL, url.QueryEscape(embedLink))

	var payload *DecryptPayload
	err := c.engine.Do(ctx, StageDecrypt, c.decryptPolicy, func(ctx context.Context) error {
		return c.get(ctx, apiURL, func(resp *http.Response) error {
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return retry.Wrap(err)
			}
			p, perr := parseDecryptPayload(body)
			if perr != nil {
				return perr
			}
			payload = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// get performs one attempt of a GET request and hands a classified-success
// response to the interpreter. Status classification happens here so every
// step shares the same taxonomy.
func (c *Client) get(ctx context.Context, rawURL string, interpret func(*http.Response) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return retry.Malformed(errors.Wrap(err, "building request"))
	}
	c.decorateRequest(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return retry.Wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if cerr := retry.FromStatus(resp.StatusCode); cerr != nil {
		return cerr
	}
	return interpret(resp)
}

// getHTML is get with a goquery document interpreter on top.
func (c *Client) getHTML(ctx context.Context, rawURL string, interpret func(*goquery.Document) error) error {
	return c.get(ctx, rawURL, func(resp *http.Response) error {
		doc, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return retry.Malformed(errors.Wrap(err, "parsing HTML"))
		}
		// Cloudflare interstitials come back with a success status; treat
		// them as a transient upstream failure so the engine retries.
		if isChallengePage(doc) {
			return retry.Server(http.StatusServiceUnavailable)
		}
		return interpret(doc)
	})
}

func (c *Client) decorateRequest(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", c.baseURL+"/")
}
