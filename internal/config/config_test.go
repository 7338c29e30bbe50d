package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "config.json")

	cfg := Load(path)

	assert.True(t, cfg.Confirmation.ConfirmationRequired)
	assert.Equal(t, 10, cfg.Confirmation.TimeoutSeconds)
	assert.Contains(t, cfg.Confirmation.SubmitKeywords, "submit")

	_, err := os.Stat(path)
	require.NoError(t, err, "defaults should be written back for editing")
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"confirmation": {
			"confirmation_required": false,
			"timeout_seconds": 5,
			"submit_keywords": ["go"],
			"cancel_keywords": ["halt"]
		},
		"external_apis": {"default_city": "Oslo"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg := Load(path)

	assert.False(t, cfg.Confirmation.ConfirmationRequired)
	assert.Equal(t, 5, cfg.Confirmation.TimeoutSeconds)
	assert.Equal(t, []string{"go"}, cfg.Confirmation.SubmitKeywords)
	assert.Equal(t, "Oslo", cfg.ExternalAPIs.DefaultCity)
	// untouched sections keep defaults
	assert.Equal(t, "auto", cfg.LLM.Provider)
}

func TestLoadBrokenJSONFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	cfg := Load(path)
	assert.Equal(t, Default().Confirmation, cfg.Confirmation)
}

func TestAPIKeysFromEnv(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "owm-key")
	t.Setenv("NEWS_API_KEY", "news-key")

	cfg := Load(filepath.Join(t.TempDir(), "config.json"))
	assert.Equal(t, "owm-key", cfg.ExternalAPIs.OpenWeatherAPIKey)
	assert.Equal(t, "news-key", cfg.ExternalAPIs.NewsAPIKey)
}
