// Package config loads the immutable settings object consumed at startup.
// Settings live in a JSON file at the platform config dir; a missing or
// unreadable file falls back to defaults.
package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Settings is the full user configuration. It is read once at startup and
// treated as immutable afterwards; CLI flags overlay single fields before
// the first use.
type Settings struct {
	BaseURL       string `json:"base_url"`
	DecryptAPI    string `json:"decrypt_api"`
	Player        string `json:"player"`
	HistoryDB     string `json:"history_db"`
	UserAgent     string `json:"user_agent"`
	WatchLaterDir string `json:"watchlater_dir"`
	Provider      string `json:"provider"`
	SubsLanguage  string `json:"subs_language"`
	Quality       string `json:"quality"`
	NoSubs        bool   `json:"no_subs"`
	History       bool   `json:"history"`
	DownloadDir   string `json:"download_dir"`
	Discord       bool   `json:"discord_presence"`
}

// Defaults returns the baseline configuration.
func Defaults() Settings {
	return Settings{
		BaseURL:       "https://flixhq.to",
		DecryptAPI:    "https://dec.eatmynerds.live",
		Player:        "mpv",
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0",
		WatchLaterDir: WatchLaterDir(),
		Provider:      "Vidcloud",
		SubsLanguage:  "english",
		Quality:       "1080",
		History:       true,
		DownloadDir:   ".",
	}
}

// Load reads the config file, overlaying it onto defaults. A missing file
// is not an error.
func Load() (Settings, error) {
	settings := Defaults()

	path, err := FilePath()
	if err != nil {
		return settings, errors.Wrap(err, "resolving config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings.normalized(), nil
		}
		return settings, errors.Wrap(err, "reading config file")
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		// A malformed config falls back to defaults rather than aborting.
		return Defaults().normalized(), errors.Wrap(err, "parsing config file")
	}
	return settings.normalized(), nil
}

func (s Settings) normalized() Settings {
	s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
	if s.BaseURL != "" && !strings.HasPrefix(s.BaseURL, "http") {
		s.BaseURL = "https://" + s.BaseURL
	}
	s.DecryptAPI = strings.TrimRight(strings.TrimSpace(s.DecryptAPI), "/")
	s.Provider = strings.TrimSpace(s.Provider)
	s.SubsLanguage = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s.SubsLanguage)), ".")
	return s
}

// WriteDefault creates the config file with defaults if it does not exist
// and returns its path. Used by the -edit flag.
func WriteDefault() (string, error) {
	path, err := FilePath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	data, err := json.MarshalIndent(Defaults(), "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", errors.Wrap(err, "writing default config")
	}
	return path, nil
}
