package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	defaultSessionKeyFile = ".session_key"
	xdgConfigPath         = "lovesync/config.toml"
)

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Subsonic SubsonicConfig `toml:"subsonic"`
	LastFM   LastFMConfig   `toml:"lastfm"`
	Sync     SyncConfig     `toml:"sync"`
	Session  SessionConfig  `toml:"session"`
	Database DatabaseConfig `toml:"database"`
}

// SubsonicConfig contains the media server connection.
type SubsonicConfig struct {
	URL        string `toml:"url"`
	Port       string `toml:"port"`
	Version    string `toml:"version"`
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	LegacyAuth bool   `toml:"legacy_auth"`
}

// LastFMConfig contains the scrobble service connection.
type LastFMConfig struct {
	APIKey         string `toml:"api_key"`
	APISecret      string `toml:"api_secret"`
	Username       string `toml:"username"`
	SessionKey     string `toml:"session_key"`
	SessionKeyFile string `toml:"session_key_file"`
	DelaySeconds   int    `toml:"delay_seconds"`
}

// SyncConfig tunes the reconciliation run.
type SyncConfig struct {
	CollisionPolicy    string `toml:"collision_policy"`
	RetryLocalFetch    bool   `toml:"retry_local_fetch"`
	CallTimeoutSeconds int    `toml:"call_timeout_seconds"`
}

// SessionConfig selects where the scrobble session key is cached.
type SessionConfig struct {
	Store string `toml:"store"`
}

// DatabaseConfig contains database connection settings for the sqlite session store.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// BaseURL joins the server URL and the optional port.
func (s SubsonicConfig) BaseURL() string {
	base := strings.TrimRight(s.URL, "/")
	if s.Port == "" {
		return base
	}
	return base + ":" + s.Port
}

// Delay is the pause between remote calls and between retries.
func (l LastFMConfig) Delay() time.Duration {
	if l.DelaySeconds < 0 {
		return 0
	}
	return time.Duration(l.DelaySeconds) * time.Second
}

// SessionKeyPath returns the session cache file, expanding a leading "~".
//
// Defaults to ~/.session_key.
func (l LastFMConfig) SessionKeyPath() string {
	path := l.SessionKeyFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return defaultSessionKeyFile
		}
		return filepath.Join(home, defaultSessionKeyFile)
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}

// CallTimeout bounds a single remote call. Zero disables the bound.
func (s SyncConfig) CallTimeout() time.Duration {
	if s.CallTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(s.CallTimeoutSeconds) * time.Second
}

// Validate reports every missing required setting.
//
// Errors wrap [ErrMissingCredentials] or [ErrInvalidConfig] and are fatal at startup.
func (c *Config) Validate() error {
	var missing []string
	for _, field := range []struct{ name, value string }{
		{"subsonic.url", c.Subsonic.URL},
		{"subsonic.username", c.Subsonic.Username},
		{"subsonic.password", c.Subsonic.Password},
		{"lastfm.api_key", c.LastFM.APIKey},
		{"lastfm.api_secret", c.LastFM.APISecret},
		{"lastfm.username", c.LastFM.Username},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", ")))
	}

	switch c.Session.Store {
	case "", "file", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("%w: session.store must be file or sqlite, got %q", ErrInvalidConfig, c.Session.Store))
	}

	if c.LastFM.DelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("%w: lastfm.delay_seconds must not be negative", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys absent from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// FindConfigFile resolves the config file to load.
//
// An explicit path wins. Otherwise ./config.toml, then $XDG_CONFIG_HOME/lovesync/config.toml.
// Returns "" when nothing exists, in which case defaults and the environment are used.
func FindConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %s", ErrMissingConfig, explicit)
		}
		return explicit, nil
	}

	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml", nil
	}

	if path, err := xdg.SearchConfigFile(xdgConfigPath); err == nil {
		return path, nil
	}

	return "", nil
}

// DefaultConfigPath is where `setup config` writes when no path is given.
func DefaultConfigPath() (string, error) {
	return xdg.ConfigFile(xdgConfigPath)
}

// Load resolves, reads, and applies environment overrides to the configuration.
//
// It does not validate; callers that need credentials call [Config.Validate].
func Load(explicit string) (*Config, string, error) {
	path, err := FindConfigFile(explicit)
	if err != nil {
		return nil, "", err
	}

	config := DefaultConfig()
	if path != "" {
		if config, err = LoadConfig(path); err != nil {
			return nil, path, err
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, path, err
	}

	return config, path, nil
}
