package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/tinyland-inc/alarmchat/pkg/auth"
	"github.com/tinyland-inc/alarmchat/pkg/config"
	"github.com/tinyland-inc/alarmchat/pkg/directory"
	"github.com/tinyland-inc/alarmchat/pkg/geo"
	"github.com/tinyland-inc/alarmchat/pkg/logger"
	"github.com/tinyland-inc/alarmchat/pkg/relay"
)

const Logo = "🚨"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// ErrNotLoggedIn is returned by commands that need stored credentials.
var ErrNotLoggedIn = errors.New("not logged in, run: alarmchat login")

func GetAlarmchatHome() string {
	if home := os.Getenv("ALARMCHAT_HOME"); home != "" {
		return home
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".alarmchat")
}

func GetConfigPath() string {
	return filepath.Join(GetAlarmchatHome(), "config.json")
}

func GetCredentialsPath() string {
	return filepath.Join(GetAlarmchatHome(), "credentials.json")
}

// LoadConfig loads the config and applies its logging settings. debug forces
// debug logging on.
func LoadConfig(debug bool) (*config.Config, error) {
	cfg, err := config.LoadConfig(GetConfigPath())
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	if debug || cfg.Log.Debug {
		logger.SetLevel(logger.DEBUG)
	}
	if cfg.Log.File != "" {
		if err := logger.EnableFileLogging(cfg.Log.File); err != nil {
			return nil, fmt.Errorf("error enabling file logging: %w", err)
		}
	}
	return cfg, nil
}

func CredentialStore() *auth.FileStore {
	return auth.NewFileStore(GetCredentialsPath())
}

// RequireCredentials returns the stored credentials, or ErrNotLoggedIn.
func RequireCredentials(store *auth.FileStore) (auth.Credentials, error) {
	creds, err := store.Credentials()
	if err != nil {
		return auth.Credentials{}, err
	}
	if !creds.Complete() {
		return auth.Credentials{}, ErrNotLoggedIn
	}
	return creds, nil
}

func NewDirectoryClient(cfg *config.Config, creds auth.CredentialProvider) (*directory.Client, error) {
	var opts []directory.Option
	if cfg.Server.RateLimit > 0 {
		opts = append(opts, directory.WithRateLimit(cfg.Server.RateLimit, 1))
	}
	return directory.NewClient(directory.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}, creds, opts...)
}

// NewLocator returns the configured device position, or a locator that never
// has one.
func NewLocator(cfg *config.Config) geo.Locator {
	if !cfg.Location.Enabled {
		return geo.Unavailable{}
	}
	return geo.Static{Latitude: cfg.Location.Latitude, Longitude: cfg.Location.Longitude}
}

// NewAlertSink returns nil when no relay is configured.
func NewAlertSink(cfg *config.Config) relay.Sink {
	if cfg.Relay.SlackWebhookURL == "" {
		return nil
	}
	return relay.NewSlackWebhook(cfg.Relay.SlackWebhookURL)
}

// ConsoleNotifier prints screen notices to a terminal.
type ConsoleNotifier struct {
	Out io.Writer
}

func (n ConsoleNotifier) Notice(msg string) {
	fmt.Fprintf(n.Out, "%s %s\n", Logo, msg)
}

func (n ConsoleNotifier) RequireLogin() {
	fmt.Fprintln(n.Out, "Authentication required. Run: alarmchat login")
}

// FormatVersion returns the version string with optional git commit
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}

// FormatBuildInfo returns build time and go version info
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

func GetVersion() string {
	return version
}
