package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/pkg/errors"

	"github.com/nautilus-cli/nautilus/internal/models"
	"github.com/nautilus-cli/nautilus/internal/pipeline"
)

// Prompter implements pipeline.Chooser on top of the interactive terminal.
type Prompter struct{}

// ChooseTitle runs the fuzzy finder over the search results.
func (Prompter) ChooseTitle(ctx context.Context, results []models.Media) (models.Media, error) {
	if err := ctx.Err(); err != nil {
		return models.Media{}, err
	}

	idx, err := fuzzyfinder.Find(
		results,
		func(i int) string {
			return results[i].String()
		},
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return models.Media{}, pipeline.ErrAborted
		}
		return models.Media{}, errors.Wrap(err, "title selection")
	}
	return results[idx], nil
}

// ChooseSeason presents the season menu.
func (Prompter) ChooseSeason(ctx context.Context, seasons []models.Season) (models.Season, error) {
	if err := ctx.Err(); err != nil {
		return models.Season{}, err
	}

	options := make([]huh.Option[int], len(seasons))
	for i, season := range seasons {
		options[i] = huh.NewOption(season.Title, i)
	}

	var choice int
	menu := huh.NewSelect[int]().
		Title("Select a season").
		Options(options...).
		Value(&choice)
	if err := menu.Run(); err != nil {
		return models.Season{}, abortOr(err, "season selection")
	}
	return seasons[choice], nil
}

// ChooseEpisode presents the episode menu.
func (Prompter) ChooseEpisode(ctx context.Context, episodes []models.Episode) (models.Episode, error) {
	if err := ctx.Err(); err != nil {
		return models.Episode{}, err
	}

	options := make([]huh.Option[int], len(episodes))
	for i, episode := range episodes {
		label := episode.Title
		if label == "" {
			label = fmt.Sprintf("Episode %d", episode.Number)
		}
		options[i] = huh.NewOption(label, i)
	}

	var choice int
	menu := huh.NewSelect[int]().
		Title("Select an episode").
		Options(options...).
		Value(&choice)
	if err := menu.Run(); err != nil {
		return models.Episode{}, abortOr(err, "episode selection")
	}
	return episodes[choice], nil
}

// ChooseServer presents the server menu.
func (Prompter) ChooseServer(ctx context.Context, servers []models.Server) (models.Server, error) {
	if err := ctx.Err(); err != nil {
		return models.Server{}, err
	}

	options := make([]huh.Option[int], len(servers))
	for i, server := range servers {
		options[i] = huh.NewOption(server.Provider, i)
	}

	var choice int
	menu := huh.NewSelect[int]().
		Title("Select a server").
		Options(options...).
		Value(&choice)
	if err := menu.Run(); err != nil {
		return models.Server{}, abortOr(err, "server selection")
	}
	return servers[choice], nil
}

func abortOr(err error, what string) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return pipeline.ErrAborted
	}
	return errors.Wrap(err, what)
}

// Select presents a plain labeled menu and returns the chosen index.
func Select(title string, labels []string) (int, error) {
	options := make([]huh.Option[int], len(labels))
	for i, label := range labels {
		options[i] = huh.NewOption(label, i)
	}

	var choice int
	menu := huh.NewSelect[int]().
		Title(title).
		Options(options...).
		Value(&choice)
	if err := menu.Run(); err != nil {
		return 0, abortOr(err, "menu selection")
	}
	return choice, nil
}

// Confirm asks a yes/no question, defaulting to yes.
func Confirm(title string) (bool, error) {
	confirmed := true
	prompt := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)
	if err := prompt.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}
