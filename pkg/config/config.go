package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultBaseURL     = "http://localhost:8081"
	DefaultChannelPath = "/ws/alarm"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Channel  ChannelConfig  `json:"channel"`
	Location LocationConfig `json:"location,omitzero"`
	Relay    RelayConfig    `json:"relay,omitzero"`
	Log      LogConfig      `json:"log,omitzero"`
}

type ServerConfig struct {
	BaseURL        string  `env:"ALARMCHAT_SERVER_BASE_URL"        json:"base_url"`
	TimeoutSeconds int     `env:"ALARMCHAT_SERVER_TIMEOUT_SECONDS" json:"timeout_seconds"`
	RateLimit      float64 `env:"ALARMCHAT_SERVER_RATE_LIMIT"      json:"rate_limit,omitempty"` // requests per second, 0 = unlimited
}

type ChannelConfig struct {
	URL                  string `env:"ALARMCHAT_CHANNEL_URL"                    json:"url,omitempty"` // derived from server.base_url when empty
	HandshakeTimeoutSecs int    `env:"ALARMCHAT_CHANNEL_HANDSHAKE_TIMEOUT_SECS" json:"handshake_timeout_secs"`
	LocationTimeoutSecs  int    `env:"ALARMCHAT_CHANNEL_LOCATION_TIMEOUT_SECS"  json:"location_timeout_secs,omitempty"` // 0 = wait indefinitely
	EventBufferSize      int    `env:"ALARMCHAT_CHANNEL_EVENT_BUFFER_SIZE"      json:"event_buffer_size"`
}

// LocationConfig describes the device position reported in reply to
// location requests. Without Enabled the device has no position to report.
type LocationConfig struct {
	Enabled   bool    `env:"ALARMCHAT_LOCATION_ENABLED"   json:"enabled"`
	Latitude  float64 `env:"ALARMCHAT_LOCATION_LATITUDE"  json:"latitude"`
	Longitude float64 `env:"ALARMCHAT_LOCATION_LONGITUDE" json:"longitude"`
}

type RelayConfig struct {
	SlackWebhookURL string `env:"ALARMCHAT_RELAY_SLACK_WEBHOOK_URL" json:"slack_webhook_url,omitempty"`
}

type LogConfig struct {
	File  string `env:"ALARMCHAT_LOG_FILE"  json:"file,omitempty"`
	Debug bool   `env:"ALARMCHAT_LOG_DEBUG" json:"debug,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL:        DefaultBaseURL,
			TimeoutSeconds: 10,
		},
		Channel: ChannelConfig{
			HandshakeTimeoutSecs: 10,
			EventBufferSize:      100,
		},
	}
}

// LoadConfig reads the JSON config at path and overlays environment
// variables. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the configured URLs parse and use supported schemes.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url: unsupported scheme %q", u.Scheme)
	}
	if c.Channel.URL != "" {
		cu, err := url.Parse(c.Channel.URL)
		if err != nil {
			return fmt.Errorf("channel.url: %w", err)
		}
		if cu.Scheme != "ws" && cu.Scheme != "wss" {
			return fmt.Errorf("channel.url: unsupported scheme %q", cu.Scheme)
		}
	}
	if c.Server.RateLimit < 0 {
		return errors.New("server.rate_limit must not be negative")
	}
	return nil
}

// ChannelURL returns the live channel endpoint. When not configured it is
// derived from the server base URL: http becomes ws, https becomes wss.
func (c *Config) ChannelURL() string {
	if c.Channel.URL != "" {
		return c.Channel.URL
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + DefaultChannelPath
	u.RawQuery = ""
	return u.String()
}
