package flixhq

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/nautilus-cli/nautilus/internal/models"
	"github.com/nautilus-cli/nautilus/internal/retry"
	"github.com/pkg/errors"
)

// DecryptPayload is the interpreted response of the decrypt service.
type DecryptPayload struct {
	File    string `json:"file"`
	Sources []struct {
		File    string `json:"file"`
		Type    string `json:"type"`
		Quality string `json:"quality"`
	} `json:"sources"`
	Tracks []struct {
		File    string `json:"file"`
		Label   string `json:"label"`
		Kind    string `json:"kind"`
		Default bool   `json:"default"`
	} `json:"tracks"`

	// Raw is the untouched response body, kept for -json output.
	Raw json.RawMessage `json:"-"`
}

// parseDecryptPayload interprets the decrypt response body. Well-formed
// JSON without a stream URL is a distinct, non-retryable failure: repeating
// the request will not conjure the missing field.
func parseDecryptPayload(body []byte) (*DecryptPayload, *retry.Error) {
	var payload DecryptPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, retry.Malformed(errors.Wrap(err, "decoding decrypt response"))
	}
	if payload.File == "" && len(payload.Sources) == 0 {
		return nil, retry.Malformed(errors.New("failed to decrypt stream: response lacks a stream URL"))
	}
	payload.Raw = json.RawMessage(append([]byte(nil), body...))
	return &payload, nil
}

// StreamURL picks the stream source, honoring the preferred quality when
// the payload carries distinct per-quality sources.
func (p *DecryptPayload) StreamURL(quality string) string {
	if p.File != "" {
		return ApplyQuality(p.File, quality)
	}
	for _, source := range p.Sources {
		if quality != "" && source.Quality == quality {
			return source.File
		}
	}
	return ApplyQuality(p.Sources[0].File, quality)
}

// Subtitles returns the subtitle tracks matching the configured language.
// Matching is a case-insensitive contains on the track label; an empty
// language keeps every track.
func (p *DecryptPayload) Subtitles(language string) []models.Subtitle {
	language = strings.ToLower(strings.TrimSpace(language))

	var subs []models.Subtitle
	for _, track := range p.Tracks {
		if track.File == "" {
			continue
		}
		if track.Kind != "" && track.Kind != "captions" && track.Kind != "subtitles" {
			continue
		}
		label := strings.ToLower(track.Label)
		if language != "" && !strings.Contains(label, language) {
			continue
		}
		subs = append(subs, models.Subtitle{
			URL:      track.File,
			Label:    track.Label,
			Language: language,
		})
	}
	return subs
}

var playlistRe = regexp.MustCompile(`(?i)/playlist\.m3u8\b`)

// ApplyQuality rewrites an HLS master playlist URL to the variant playlist
// for the requested quality.
func ApplyQuality(streamURL, quality string) string {
	if streamURL == "" || quality == "" || quality == "auto" {
		return streamURL
	}
	return playlistRe.ReplaceAllString(streamURL, "/"+quality+"/index.m3u8")
}
