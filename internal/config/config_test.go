package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("NAUTILUS_CONFIG", path)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("NAUTILUS_CONFIG", filepath.Join(t.TempDir(), "nope.json"))

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://flixhq.to", settings.BaseURL)
	assert.Equal(t, "mpv", settings.Player)
	assert.True(t, settings.History)
}

func TestLoadOverlaysFileOntoDefaults(t *testing.T) {
	writeConfig(t, `{"provider": "UpCloud", "quality": "720"}`)

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "UpCloud", settings.Provider)
	assert.Equal(t, "720", settings.Quality)
	assert.Equal(t, "https://flixhq.to", settings.BaseURL, "unset fields keep defaults")
}

func TestLoadMalformedFileFallsBackToDefaults(t *testing.T) {
	writeConfig(t, `{not json`)

	settings, err := Load()
	require.Error(t, err)
	assert.Equal(t, Defaults().normalized().BaseURL, settings.BaseURL)
}

func TestNormalizedPrefixesScheme(t *testing.T) {
	writeConfig(t, `{"base_url": "flixhq.to/ "}`)

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://flixhq.to", settings.BaseURL)
}

func TestNormalizedLowercasesSubsLanguage(t *testing.T) {
	writeConfig(t, `{"subs_language": " English"}`)

	settings, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "english", settings.SubsLanguage)
}

func TestWriteDefaultDoesNotClobber(t *testing.T) {
	writeConfig(t, `{"provider": "UpCloud"}`)

	path, err := WriteDefault()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "UpCloud", "existing file must stay untouched")
}
