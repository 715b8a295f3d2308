package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds the runtime knobs that may be overridden by file, env or flags.
type Settings struct {
	APIURL          string
	Debounce        time.Duration
	AlertDuration   time.Duration
	RefreshInterval time.Duration
	FeedPort        string
	Debug           bool
}

// NewViper returns a viper instance carrying the defaults and env bindings.
// Flags can be bound onto it by the caller before LoadSettings is invoked.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyDebounce, DefaultDebounce)
	v.SetDefault(KeyAlertDuration, DefaultAlertDuration)
	v.SetDefault(KeyRefreshInterval, DefaultRefreshInterval)
	v.SetDefault(KeyFeedPort, DefaultFeedPort)
	v.SetDefault(KeyDebug, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(SettingsFileName)
	v.SetConfigType(SettingsFileType)
	if dir, err := AppConfigDir(); err == nil {
		v.AddConfigPath(dir)
	}
	return v
}

// LoadSettings reads the optional config file and resolves every key.
// A missing config file is not an error.
func LoadSettings(v *viper.Viper) (Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("%s: %w", ErrSettingsRead, err)
		}
	}

	s := Settings{
		APIURL:          strings.TrimRight(v.GetString(KeyAPIURL), "/"),
		Debounce:        v.GetDuration(KeyDebounce),
		AlertDuration:   v.GetDuration(KeyAlertDuration),
		RefreshInterval: v.GetDuration(KeyRefreshInterval),
		FeedPort:        v.GetString(KeyFeedPort),
		Debug:           v.GetBool(KeyDebug),
	}

	// Non-positive durations fall back to defaults rather than disabling timers.
	if s.Debounce <= 0 {
		s.Debounce = DefaultDebounce
	}
	if s.AlertDuration <= 0 {
		s.AlertDuration = DefaultAlertDuration
	}
	if s.RefreshInterval <= 0 {
		s.RefreshInterval = DefaultRefreshInterval
	}
	if s.APIURL == "" {
		s.APIURL = DefaultAPIURL
	}
	return s, nil
}

// AppConfigDir returns the per-user config directory for the app, creating it if needed.
func AppConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return ensureDir(filepath.Join(base, AppID))
}

// AppCacheDir returns the per-user cache directory for the app, creating it if needed.
func AppCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrCacheDir, err)
	}
	return ensureDir(filepath.Join(base, AppID))
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", ErrCreateDir, err)
	}
	return dir, nil
}
