package appflow

import (
	"context"
	"fmt"

	"github.com/nautilus-cli/nautilus/internal/discord"
	"github.com/nautilus-cli/nautilus/internal/downloader"
	"github.com/nautilus-cli/nautilus/internal/models"
	"github.com/nautilus-cli/nautilus/internal/pipeline"
	"github.com/nautilus-cli/nautilus/internal/player"
	"github.com/nautilus-cli/nautilus/internal/ui"
	"github.com/nautilus-cli/nautilus/internal/util"
)

// play runs playback sessions until the user declines the next episode or
// the media has none.
func (a *App) play(ctx context.Context, result *pipeline.Result) error {
	for {
		position, err := a.playOnce(ctx, result)
		if err != nil {
			return err
		}
		a.saveProgress(result, position)
		if ctx.Err() != nil {
			return nil
		}

		next, ok := a.offerNextEpisode(ctx, result)
		if !ok {
			return nil
		}
		result = next
	}
}

func (a *App) playOnce(ctx context.Context, result *pipeline.Result) (string, error) {
	opts := player.Options{
		Binary:    a.cfg.Player,
		Title:     displayTitle(result),
		StartAt:   a.resumePosition(result),
		Subtitles: result.Stream.SubtitleURLs(),
	}
	if a.cfg.WatchLaterDir != "" {
		opts.ExtraArgs = append(opts.ExtraArgs,
			"--watch-later-dir="+a.cfg.WatchLaterDir,
			"--save-position-on-quit",
		)
	}

	session, err := player.Launch(result.Stream, opts)
	if err != nil {
		return "", err
	}
	util.Debug("mpv session started", "socket", session.SocketPath())

	if a.cfg.Discord {
		detail := "Watching a movie"
		if result.Season != nil && result.Episode != nil {
			detail = discord.EpisodeDetail(result.Season.Number, result.Episode.Number)
		}
		if presence, err := discord.New(result.Media.Title, detail, session); err != nil {
			util.Debug("discord presence unavailable", "error", err)
		} else {
			presence.Start()
			defer presence.Stop()
		}
	}

	position, err := session.Wait(ctx)
	if err != nil && ctx.Err() == nil {
		return position, err
	}
	return position, nil
}

// resumePosition returns the stored position for this exact episode or
// movie, empty when starting fresh.
func (a *App) resumePosition(result *pipeline.Result) string {
	if a.store == nil {
		return ""
	}
	seasonID, episodeID := "", ""
	if result.Season != nil {
		seasonID = result.Season.ID
	}
	if result.Episode != nil {
		episodeID = result.Episode.DataID
	}
	entry, err := a.store.Get(result.Media.ID, seasonID, episodeID)
	if err != nil || entry == nil {
		return ""
	}
	return validStart(entry.Position)
}

// validStart filters stored positions so mpv never receives a malformed
// --start value. Zero and unparsable positions mean a fresh start.
func validStart(pos string) string {
	if pos == "" || pos == "00:00:00" {
		return ""
	}
	if _, err := player.ParsePosition(pos); err != nil {
		return ""
	}
	return pos
}

// offerNextEpisode figures out the following episode, asks, and resolves
// it. Any failure along the way ends the session quietly; the finished
// playback already succeeded.
func (a *App) offerNextEpisode(ctx context.Context, result *pipeline.Result) (*pipeline.Result, bool) {
	if !result.Media.IsSeries() || result.Episode == nil || result.Season == nil {
		return nil, false
	}

	var (
		episode *models.Episode
		season  *models.Season
		err     error
	)
	ui.WithSpinner("Finding next episode", func() { episode, season, err = a.findNext(ctx, result) })
	if err != nil {
		util.Debug("next episode lookup failed", "error", err)
		return nil, false
	}
	if episode == nil {
		fmt.Println(ui.Info("No more episodes."))
		return nil, false
	}

	label := episode.Title
	if label == "" {
		label = fmt.Sprintf("Episode %d", episode.Number)
	}
	ok, err := ui.Confirm(fmt.Sprintf("Play next: %s?", label))
	if err != nil || !ok {
		return nil, false
	}

	next, err := a.newPipeline().Resume(ctx, result.Media, season, episode)
	if proceed, err := resolveOutcome(err); !proceed {
		if err != nil {
			util.Error("failed to resolve next episode", "error", err)
		}
		return nil, false
	}
	return next, true
}

// findNext returns the episode after the current one, rolling into the
// next season when the current one is exhausted. A nil episode with nil
// error means the series is over.
func (a *App) findNext(ctx context.Context, result *pipeline.Result) (*models.Episode, *models.Season, error) {
	episodes, err := a.site.Episodes(ctx, result.Season.ID)
	if err != nil {
		return nil, nil, err
	}
	if next, ok := NextEpisode(episodes, result.Episode.DataID); ok {
		return &next, result.Season, nil
	}

	seasons, err := a.site.Seasons(ctx, result.Media.ID)
	if err != nil {
		return nil, nil, err
	}
	next, ok := NextSeason(seasons, result.Season.ID)
	if !ok {
		return nil, nil, nil
	}
	episodes, err = a.site.Episodes(ctx, next.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(episodes) == 0 {
		return nil, nil, nil
	}
	return &episodes[0], &next, nil
}

// NextEpisode finds the episode following the one with the given data id.
func NextEpisode(episodes []models.Episode, currentDataID string) (models.Episode, bool) {
	for i, ep := range episodes {
		if ep.DataID == currentDataID && i+1 < len(episodes) {
			return episodes[i+1], true
		}
	}
	return models.Episode{}, false
}

// NextSeason finds the season following the one with the given id.
func NextSeason(seasons []models.Season, currentID string) (models.Season, bool) {
	for i, s := range seasons {
		if s.ID == currentID && i+1 < len(seasons) {
			return seasons[i+1], true
		}
	}
	return models.Season{}, false
}

func (a *App) download(ctx context.Context, result *pipeline.Result) error {
	dl := downloader.New(downloader.Options{
		OutputDir: a.cfg.DownloadDir,
		Filename:  downloader.SanitizeFilename(displayTitle(result)),
		Referer:   a.cfg.BaseURL,
		UserAgent: a.cfg.UserAgent,
	})

	path, err := dl.Download(ctx, result.Stream)
	if err != nil {
		return err
	}
	fmt.Println(ui.Info("Saved to " + path))
	return nil
}

func displayTitle(result *pipeline.Result) string {
	if result.Season != nil && result.Episode != nil {
		return fmt.Sprintf("%s S%02dE%02d", result.Media.Title, result.Season.Number, result.Episode.Number)
	}
	return result.Media.Title
}
