// Package appflow ties the pipeline to the surrounding machinery: history,
// playback, downloads and presence. It is the layer main talks to.
package appflow

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/nautilus-cli/nautilus/internal/config"
	"github.com/nautilus-cli/nautilus/internal/flixhq"
	"github.com/nautilus-cli/nautilus/internal/history"
	"github.com/nautilus-cli/nautilus/internal/models"
	"github.com/nautilus-cli/nautilus/internal/pipeline"
	"github.com/nautilus-cli/nautilus/internal/retry"
	"github.com/nautilus-cli/nautilus/internal/ui"
	"github.com/nautilus-cli/nautilus/internal/util"
)

// Mode selects what happens with a resolved stream.
type Mode int

const (
	// ModePlay hands the stream to the player. The default.
	ModePlay Mode = iota
	// ModeLink prints the stream URL and exits.
	ModeLink
	// ModeJSON prints the raw decrypt payload and exits.
	ModeJSON
	// ModeDownload saves the stream to disk.
	ModeDownload
)

// App is one configured client session.
type App struct {
	cfg   *config.Settings
	site  *flixhq.Client
	store *history.Store
	mode  Mode
}

// New wires a session from settings. History store failures degrade to a
// session without resume support.
func New(cfg *config.Settings, mode Mode) *App {
	site := flixhq.New(flixhq.Options{
		BaseURL:    cfg.BaseURL,
		DecryptAPI: cfg.DecryptAPI,
		UserAgent:  cfg.UserAgent,
		Engine:     retry.NewEngine(ui.PrintEvent),
	})

	app := &App{cfg: cfg, site: site, mode: mode}
	if cfg.History {
		dbPath, err := config.HistoryDBPath(cfg.HistoryDB)
		if err == nil {
			var store *history.Store
			store, err = history.Open(dbPath)
			if err == nil {
				app.store = store
			}
		}
		if err != nil {
			util.Warn("history unavailable", "error", err)
		}
	}
	return app
}

// Close releases the history store.
func (a *App) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func (a *App) newPipeline() *pipeline.Pipeline {
	return pipeline.New(newSpinSite(a.site), ui.Prompter{}, pipeline.Options{
		Provider:     a.cfg.Provider,
		Quality:      a.cfg.Quality,
		SubsLanguage: a.cfg.SubsLanguage,
		NoSubs:       a.cfg.NoSubs,
	}, nil)
}

// Run resolves a query and dispatches the result according to the mode.
// Absent content and user aborts finish quietly.
func (a *App) Run(ctx context.Context, query string) error {
	result, err := a.newPipeline().Run(ctx, query)
	if proceed, err := resolveOutcome(err); !proceed {
		return err
	}
	return a.dispatch(ctx, result)
}

// Continue picks a watch history entry and resumes it at server
// resolution, skipping search and every choice before it.
func (a *App) Continue(ctx context.Context) error {
	if a.store == nil {
		return errors.New("history is disabled, nothing to continue")
	}
	entries, err := a.store.List(15)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println(ui.Info("No watch history yet."))
		return nil
	}

	choice := 0
	if len(entries) > 1 {
		labels := make([]string, len(entries))
		for i, e := range entries {
			labels[i] = e.String()
		}
		choice, err = ui.Select("Continue watching", labels)
		if err != nil {
			if errors.Is(err, pipeline.ErrAborted) {
				return nil
			}
			return err
		}
	}
	return a.resume(ctx, entries[choice])
}

// RecentHint prints the most recently watched entry as a nudge toward -c.
// Silent when history is disabled or empty.
func (a *App) RecentHint() {
	if a.store == nil {
		return
	}
	entry, err := a.store.Recent()
	if err != nil || entry == nil {
		return
	}
	fmt.Println(ui.Subtle("Last watched: " + entry.String() + "  (-c to continue)"))
}

func (a *App) resume(ctx context.Context, entry history.Entry) error {
	fmt.Println(ui.Info("Continuing " + entry.String()))

	media := entry.Media()
	var season *models.Season
	var episode *models.Episode
	if media.IsSeries() {
		season = &models.Season{ID: entry.SeasonID, Number: entry.SeasonNumber}
		episode = &models.Episode{
			DataID:   entry.EpisodeID,
			Number:   entry.EpisodeNumber,
			Title:    entry.EpisodeTitle,
			SeasonID: entry.SeasonID,
		}
	}

	result, err := a.newPipeline().Resume(ctx, media, season, episode)
	if proceed, err := resolveOutcome(err); !proceed {
		return err
	}
	return a.dispatch(ctx, result)
}

// resolveOutcome folds benign pipeline endings into a quiet exit. It
// reports whether a usable result came back.
func resolveOutcome(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, pipeline.ErrNoResults):
		fmt.Println(ui.Info("No results found."))
		return false, nil
	case errors.Is(err, pipeline.ErrNoServers):
		fmt.Println(ui.Info("No servers available for this title."))
		return false, nil
	case errors.Is(err, pipeline.ErrAborted), errors.Is(err, context.Canceled):
		return false, nil
	default:
		return false, err
	}
}

func (a *App) dispatch(ctx context.Context, result *pipeline.Result) error {
	switch a.mode {
	case ModeLink:
		return printLink(result)
	case ModeJSON:
		return printJSON(result)
	case ModeDownload:
		return a.download(ctx, result)
	default:
		return a.play(ctx, result)
	}
}

func printLink(result *pipeline.Result) error {
	fmt.Println(result.Stream.URL)
	for _, sub := range result.Stream.SubtitleURLs() {
		fmt.Println(sub)
	}
	return nil
}

func printJSON(result *pipeline.Result) error {
	if len(result.Stream.Raw) == 0 {
		return errors.New("no raw payload to print")
	}
	fmt.Println(string(result.Stream.Raw))
	return nil
}

// saveProgress records the playback position. History failures never fail
// the session.
func (a *App) saveProgress(result *pipeline.Result, position string) {
	if a.store == nil {
		return
	}
	entry := history.Entry{
		MediaID:   result.Media.ID,
		MediaType: result.Media.Type,
		Title:     result.Media.Title,
		Position:  position,
	}
	if result.Season != nil {
		entry.SeasonID = result.Season.ID
		entry.SeasonNumber = result.Season.Number
	}
	if result.Episode != nil {
		entry.EpisodeID = result.Episode.DataID
		entry.EpisodeNumber = result.Episode.Number
		entry.EpisodeTitle = result.Episode.Title
	}
	if err := a.store.Save(entry); err != nil {
		util.Warn("failed to save watch progress", "error", err)
	}
}
