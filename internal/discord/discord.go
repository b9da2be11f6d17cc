// Package discord mirrors the current playback into Discord Rich Presence.
// Everything here is best effort: a missing or closed Discord never blocks
// playback.
package discord

import (
	"fmt"
	"sync"
	"time"

	"github.com/tr1xem/go-discordrpc/client"

	"github.com/nautilus-cli/nautilus/internal/util"
)

const clientID = "1340416679726415963"

const updateEvery = 15 * time.Second

// PositionSource reports the current and total playback time. The player
// session satisfies it.
type PositionSource interface {
	Position() (time.Duration, error)
	Duration() (time.Duration, error)
}

// Presence manages the Rich Presence connection for one playback.
type Presence struct {
	client *client.Client
	title  string
	detail string
	source PositionSource

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New connects to Discord and returns a Presence for the given title. A
// connection failure returns an error the caller logs and forgets.
func New(title, detail string, source PositionSource) (*Presence, error) {
	c := client.NewClient(clientID)
	if err := c.Login(); err != nil {
		return nil, err
	}
	return &Presence{
		client: c,
		title:  title,
		detail: detail,
		source: source,
		done:   make(chan struct{}),
	}, nil
}

// Start begins periodic activity updates until Stop is called.
func (p *Presence) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.update()

		ticker := time.NewTicker(updateEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.update()
			case <-p.done:
				return
			}
		}
	}()
}

// Stop ends the updates and clears the activity.
func (p *Presence) Stop() {
	p.once.Do(func() {
		close(p.done)
		p.wg.Wait()
		_ = p.client.Logout()
	})
}

func (p *Presence) update() {
	now := time.Now()

	var timestamps *client.Timestamps
	if position, err := p.source.Position(); err == nil {
		start := now.Add(-position)
		timestamps = &client.Timestamps{Start: &start}
		if total, err := p.source.Duration(); err == nil && total > position {
			end := now.Add(total - position)
			timestamps.End = &end
		}
	}

	activity := client.Activity{
		Type:       3, // Watching
		Name:       p.title,
		Details:    p.title,
		State:      p.detail,
		LargeText:  p.title,
		Timestamps: timestamps,
	}
	if err := p.client.SetActivity(activity); err != nil {
		util.Debug("presence update failed", "error", err)
	}
}

// EpisodeDetail formats the state line for a series playback.
func EpisodeDetail(seasonNumber, episodeNumber int) string {
	return fmt.Sprintf("S%02dE%02d", seasonNumber, episodeNumber)
}
