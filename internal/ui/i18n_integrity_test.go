package ui_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
)

// TestI18nIntegrity ensures that every translation key defined in config.go
// exists in every locale file.
func TestI18nIntegrity(t *testing.T) {
	keysToCheck := []string{
		config.TKeyWinTitle,
		config.TKeySearchPlaceholder,
		config.TKeySearchTitle,
		config.TKeyCollectionTitle,
		config.TKeyWakingUp,
		config.TKeyNoData,
		config.TKeyLoading,
		config.TKeyBtnAdd,
		config.TKeyBtnDelete,
		config.TKeyBtnConfirm,
		config.TKeyBtnCancel,
		config.TKeyBtnBack,
		config.TKeyMenu,
		config.TKeyMenuSearch,
		config.TKeyMenuCollection,
		config.TKeyMenuSettings,
		config.TKeyMenuOpen,
		config.TKeyMenuRefresh,
		config.TKeyTrayStatus,
		config.TKeyTrayStatusZero,
		config.TKeyColName,
		config.TKeyColStatus,
		config.TKeyColAction,
		config.TKeyEnableNotif,
		config.TKeyNotifEnabled,
		config.TKeyPermGranted,
		config.TKeyPermDenied,
		config.TKeyPermDefault,
		config.TKeyLblLanguage,
		config.TKeyHelpLanguage,
		config.TKeyLblIdentity,
		config.TKeyHelpIdentity,
		config.TKeyLblFeed,
		config.TKeyHelpFeed,
		config.TKeyLblNotif,
		config.TKeyLblFooter,
		config.TKeyAddTitle,
		config.TKeyLblMonth,
		config.TKeyLblDay,
		config.TKeyHelpManualDate,
		config.TKeyHelpDetected,
		config.TKeyScore,
		config.TKeyEvtSummary,
		config.TKeyNotifTodayTitle,
		config.TKeyNotifTodayBody,
		config.TKeyNotifSoonTitle,
		config.TKeyNotifSoonBody,
		config.TKeyNotifOnlineTitle,
		config.TKeyNotifOnlineBody,
		config.TKeyPermissionPrompt,
		config.TKeyErrPermission,
		config.TKeyErrUnsupported,
		config.TKeyErrAdd,
		config.TKeyErrDelete,
		config.TKeyErrDate,
	}
	definedKeys := make(map[string]bool, len(keysToCheck))
	for _, k := range keysToCheck {
		definedKeys[k] = true
	}

	for _, lang := range config.SupportedLanguages {
		t.Run(lang, func(t *testing.T) {
			path := filepath.Join("locales", "active."+lang+".json")
			content, err := os.ReadFile(path)
			require.NoError(t, err, "Must load %s", path)

			var jsonMap map[string]any
			require.NoError(t, json.Unmarshal(content, &jsonMap), "JSON must be valid")

			for key := range definedKeys {
				_, exists := jsonMap[key]
				assert.Truef(t, exists, "Key '%s' defined in config.go is missing in %s", key, path)
			}

			for jsonKey := range jsonMap {
				if strings.HasPrefix(jsonKey, "_") {
					continue
				}
				assert.Truef(t, definedKeys[jsonKey], "Key '%s' in %s has no constant in config.go", jsonKey, path)
			}
		})
	}
}
