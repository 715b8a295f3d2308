package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
)

// TestConstants_Integrity ensures critical constants are not empty or malformed.
func TestConstants_Integrity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"AppName", config.AppName},
		{"AppID", config.AppID},
		{"Version", config.Version},
		{"UserAgent", config.UserAgent},
		{"HeaderUserID", config.HeaderUserID},
		{"NotificationTag", config.NotificationTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value, "Critical constant %s should not be empty", tt.name)
		})
	}
}

// TestDefaults_Sanity checks that default values make sense logically.
func TestDefaults_Sanity(t *testing.T) {
	assert.Equal(t, 600*time.Millisecond, config.DefaultDebounce)
	assert.Greater(t, config.DefaultAlertDuration, time.Duration(0))
	assert.Equal(t, 999, config.UnknownDays)
	assert.Equal(t, []string{"GGO", "SAO", "ALO", "SLF", "UNIT"}, config.IdentityPrefixes)
	assert.Less(t, config.IdentityNumberMin, config.IdentityNumberMax)
}

// TestUserAgent_Format ensures the UA string follows the standard format.
func TestUserAgent_Format(t *testing.T) {
	assert.True(t, strings.HasPrefix(config.UserAgent, "Waifu-Birthday/"))
}

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	v := config.NewViper()

	s, err := config.LoadSettings(v)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultAPIURL, s.APIURL)
	assert.Equal(t, config.DefaultDebounce, s.Debounce)
	assert.Equal(t, config.DefaultAlertDuration, s.AlertDuration)
	assert.Equal(t, config.DefaultFeedPort, s.FeedPort)
	assert.False(t, s.Debug)
}

func TestLoadSettings_EnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("WAIFU_API_URL", "https://waifu.example.com/")
	t.Setenv("WAIFU_DEBOUNCE", "250ms")

	s, err := config.LoadSettings(config.NewViper())
	require.NoError(t, err)

	// Trailing slash is trimmed so routes can be appended verbatim.
	assert.Equal(t, "https://waifu.example.com", s.APIURL)
	assert.Equal(t, 250*time.Millisecond, s.Debounce)
}

func TestLoadSettings_NonPositiveFallsBack(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	v := config.NewViper()
	v.Set(config.KeyAlertDuration, "0s")

	s, err := config.LoadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAlertDuration, s.AlertDuration)
}
