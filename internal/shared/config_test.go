package shared

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./lovesync.db" {
			t.Errorf("expected database path ./lovesync.db, got %s", config.Database.Path)
		}
		if config.LastFM.DelaySeconds != 1 {
			t.Errorf("expected delay 1, got %d", config.LastFM.DelaySeconds)
		}
		if config.Sync.CollisionPolicy != "keep-last" {
			t.Errorf("expected keep-last policy, got %s", config.Sync.CollisionPolicy)
		}
		if !config.Sync.RetryLocalFetch {
			t.Error("expected local fetch retry to default on")
		}
		if config.Session.Store != "file" {
			t.Errorf("expected file session store, got %s", config.Session.Store)
		}
		if config.Subsonic.Version != "1.16.1" {
			t.Errorf("expected subsonic version 1.16.1, got %s", config.Subsonic.Version)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "nested", "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[subsonic]
url = "https://music.example.com/"
port = "4533"
username = "navi"
password = "secret"
legacy_auth = true

[lastfm]
api_key = "key"
api_secret = "shh"
username = "lover"
delay_seconds = 3

[sync]
collision_policy = "keep-first"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if got := config.Subsonic.BaseURL(); got != "https://music.example.com:4533" {
			t.Errorf("expected joined base URL, got %s", got)
		}
		if !config.Subsonic.LegacyAuth {
			t.Error("expected legacy auth")
		}
		if config.LastFM.Delay() != 3*time.Second {
			t.Errorf("expected 3s delay, got %v", config.LastFM.Delay())
		}
		if config.Sync.CollisionPolicy != "keep-first" {
			t.Errorf("expected keep-first, got %s", config.Sync.CollisionPolicy)
		}
		if config.Sync.CallTimeoutSeconds != 30 {
			t.Errorf("expected default call timeout to survive, got %d", config.Sync.CallTimeoutSeconds)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("LoadConfig With Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[subsonic\nurl ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		config := DefaultConfig()
		err := config.Validate()
		if !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
		for _, field := range []string{"subsonic.url", "lastfm.api_key", "lastfm.username"} {
			if !strings.Contains(err.Error(), field) {
				t.Errorf("expected %s in error, got %v", field, err)
			}
		}

		config.Subsonic.URL = "http://localhost"
		config.Subsonic.Username = "u"
		config.Subsonic.Password = "p"
		config.LastFM.APIKey = "k"
		config.LastFM.APISecret = "s"
		config.LastFM.Username = "l"
		config.Session.Store = "redis"

		err = config.Validate()
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig for unknown store, got %v", err)
		}
		if errors.Is(err, ErrMissingCredentials) {
			t.Errorf("did not expect missing credentials, got %v", err)
		}
	})

	t.Run("SessionKeyPath", func(t *testing.T) {
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skip("no home directory")
		}

		l := LastFMConfig{}
		if got := l.SessionKeyPath(); got != filepath.Join(home, ".session_key") {
			t.Errorf("expected default in home, got %s", got)
		}

		l.SessionKeyFile = "~/keys/lastfm"
		if got := l.SessionKeyPath(); got != filepath.Join(home, "keys", "lastfm") {
			t.Errorf("expected expanded path, got %s", got)
		}

		l.SessionKeyFile = "/tmp/../tmp/key"
		if got := l.SessionKeyPath(); got != "/tmp/key" {
			t.Errorf("expected cleaned path, got %s", got)
		}
	})

	t.Run("CallTimeout", func(t *testing.T) {
		if got := (SyncConfig{CallTimeoutSeconds: 0}).CallTimeout(); got != 0 {
			t.Errorf("expected no timeout, got %v", got)
		}
		if got := (SyncConfig{CallTimeoutSeconds: 5}).CallTimeout(); got != 5*time.Second {
			t.Errorf("expected 5s, got %v", got)
		}
	})

	t.Run("FindConfigFile", func(t *testing.T) {
		if _, err := FindConfigFile("/does/not/exist.toml"); !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}

		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config: %v", err)
		}

		got, err := FindConfigFile(configPath)
		if err != nil || got != configPath {
			t.Errorf("expected %s, got %s (%v)", configPath, got, err)
		}
	})
}
