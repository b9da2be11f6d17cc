// Package models contains the data structures shared by the resolution
// pipeline, the site client and the playback layer.
package models

import (
	"encoding/json"
	"fmt"
)

// MediaType represents the type of media content
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Media is one search result: a movie or a TV show as the site addresses it.
type Media struct {
	ID    string
	Title string
	Type  MediaType
	Year  string
	URL   string
}

// IsSeries reports whether the media has seasons and episodes.
func (m *Media) IsSeries() bool {
	return m.Type == MediaTypeTV
}

func (m *Media) String() string {
	if m.Year != "" {
		return fmt.Sprintf("%s (%s, %s)", m.Title, m.Type, m.Year)
	}
	return fmt.Sprintf("%s (%s)", m.Title, m.Type)
}

// Season identifies one season of a series.
type Season struct {
	ID     string
	Number int
	Title  string
}

// Episode identifies one episode, always scoped to the season it was
// listed under.
type Episode struct {
	DataID   string
	Number   int
	Title    string
	SeasonID string
}

// Server is one (provider, server id) pair the site offers for a given
// movie or episode. Provider names are matched against configuration
// exactly, case included.
type Server struct {
	Provider string
	ID       string
}

// Subtitle is one subtitle track attached to a resolved stream.
type Subtitle struct {
	URL      string
	Label    string
	Language string
}

// Stream is the final resolved artifact handed to playback or download.
// It is immutable once produced.
type Stream struct {
	URL       string
	Title     string
	Quality   string
	Subtitles []Subtitle
	// Raw carries the untouched decrypt payload for -json output.
	Raw json.RawMessage
}

// SubtitleURLs returns the subtitle file URLs in track order.
func (s *Stream) SubtitleURLs() []string {
	urls := make([]string, 0, len(s.Subtitles))
	for _, sub := range s.Subtitles {
		if sub.URL != "" {
			urls = append(urls, sub.URL)
		}
	}
	return urls
}
