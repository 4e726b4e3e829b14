package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.Server.BaseURL)
	assert.Equal(t, 10, cfg.Server.TimeoutSeconds)
	assert.Equal(t, 100, cfg.Channel.EventBufferSize)
	assert.False(t, cfg.Location.Enabled)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"server":{"base_url":"https://chat.example.com"},"location":{"enabled":true,"latitude":1.5,"longitude":-2.25}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 10, cfg.Server.TimeoutSeconds)
	assert.True(t, cfg.Location.Enabled)
	assert.InDelta(t, 1.5, cfg.Location.Latitude, 1e-9)
	assert.InDelta(t, -2.25, cfg.Location.Longitude, 1e-9)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"base_url":"http://a:8081"}}`), 0o600))

	t.Setenv("ALARMCHAT_SERVER_BASE_URL", "http://b:9000")
	t.Setenv("ALARMCHAT_LOCATION_ENABLED", "true")
	t.Setenv("ALARMCHAT_LOCATION_LATITUDE", "48.85")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://b:9000", cfg.Server.BaseURL)
	assert.True(t, cfg.Location.Enabled)
	assert.InDelta(t, 48.85, cfg.Location.Latitude, 1e-9)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate_RejectsBadSchemes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.BaseURL = "ftp://host"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Channel.URL = "http://host/ws/alarm"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.RateLimit = -1
	assert.Error(t, cfg.Validate())
}

func TestChannelURL(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		channel string
		want    string
	}{
		{"derived http", "http://localhost:8081", "", "ws://localhost:8081/ws/alarm"},
		{"derived https", "https://chat.example.com/", "", "wss://chat.example.com/ws/alarm"},
		{"explicit", "http://localhost:8081", "ws://other:1/ws/alarm", "ws://other:1/ws/alarm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Server.BaseURL = tt.base
			cfg.Channel.URL = tt.channel
			assert.Equal(t, tt.want, cfg.ChannelURL())
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.Relay.SlackWebhookURL = "https://hooks.slack.com/services/T/B/X"

	require.NoError(t, SaveConfig(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Relay.SlackWebhookURL, loaded.Relay.SlackWebhookURL)
}
