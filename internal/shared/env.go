package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvOverrides are the environment variables that take precedence over the config file.
//
// Every field is a string so that an unset variable can be told apart from a zero value.
type EnvOverrides struct {
	SubsonicURL        string `envconfig:"SUBSONIC_URL"`
	SubsonicPort       string `envconfig:"SUBSONIC_PORT"`
	SubsonicVersion    string `envconfig:"SUBSONIC_VERSION"`
	SubsonicUsername   string `envconfig:"SUBSONIC_USERNAME"`
	SubsonicPassword   string `envconfig:"SUBSONIC_PASSWORD"`
	SubsonicLegacyAuth string `envconfig:"SUBSONIC_LEGACY_AUTH"`

	LastFMAPIKey     string `envconfig:"LASTFM_API_KEY"`
	LastFMAPISecret  string `envconfig:"LASTFM_API_SECRET"`
	LastFMUsername   string `envconfig:"LASTFM_USERNAME"`
	LastFMSessionKey string `envconfig:"LASTFM_SESSION_KEY"`
	LastFMLoveDelay  string `envconfig:"LASTFM_LOVE_DELAY"`
	SessionKeyFile   string `envconfig:"SESSION_KEY_FILE"`
}

// LoadDotEnv loads variables from .env files without overriding ones already set.
//
// Missing files are ignored. With no arguments ./.env is read.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ApplyEnv copies every set variable from [EnvOverrides] onto config.
func ApplyEnv(config *Config) error {
	var env EnvOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return env.Apply(config)
}

// Apply overwrites config with every non-empty override.
func (e EnvOverrides) Apply(config *Config) error {
	setString(&config.Subsonic.URL, e.SubsonicURL)
	setString(&config.Subsonic.Port, e.SubsonicPort)
	setString(&config.Subsonic.Version, e.SubsonicVersion)
	setString(&config.Subsonic.Username, e.SubsonicUsername)
	setString(&config.Subsonic.Password, e.SubsonicPassword)
	if e.SubsonicLegacyAuth != "" {
		config.Subsonic.LegacyAuth = ParseTruthy(e.SubsonicLegacyAuth)
	}

	setString(&config.LastFM.APIKey, e.LastFMAPIKey)
	setString(&config.LastFM.APISecret, e.LastFMAPISecret)
	setString(&config.LastFM.Username, e.LastFMUsername)
	setString(&config.LastFM.SessionKey, e.LastFMSessionKey)
	setString(&config.LastFM.SessionKeyFile, e.SessionKeyFile)

	if e.LastFMLoveDelay != "" {
		delay, err := strconv.Atoi(strings.TrimSpace(e.LastFMLoveDelay))
		if err != nil {
			return fmt.Errorf("%w: LASTFM_LOVE_DELAY must be a whole number of seconds: %v", ErrInvalidConfig, err)
		}
		config.LastFM.DelaySeconds = delay
	}

	return nil
}

// ParseTruthy accepts true, 1, t, yes and y in any case.
func ParseTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "t", "yes", "y":
		return true
	default:
		return false
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
