package ui

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/notify"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// SetupI18n initializes the translation bundle and detects available languages.
func (app *WaifuApp) SetupI18n() {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		slog.Error(config.ErrLocalesAccess,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyError, err,
		)
		return
	}

	var detectedLangs []string

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "active.") || !strings.HasSuffix(name, ".json") {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, "active."), ".json")
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+name); err != nil {
			slog.Error(config.ErrLocaleLoad,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
				config.LogKeyError, err,
			)
			continue
		}
		detectedLangs = append(detectedLangs, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
		)
	}

	app.SupportedLanguages = detectedLangs
	app.I18nBundle = bundle
	app.UpdateLocalizer()
}

// UpdateLocalizer refreshes the translator based on the user's language preference.
func (app *WaifuApp) UpdateLocalizer() {
	if app.I18nBundle == nil {
		return
	}
	lang := app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage)
	app.Localizer = i18n.NewLocalizer(app.I18nBundle, lang)
}

// GetMsg translates a key, returning the key itself when it is unknown.
func (app *WaifuApp) GetMsg(key string) string {
	return app.GetMsgWith(key, nil)
}

// GetMsgWith translates a templated key.
func (app *WaifuApp) GetMsgWith(key string, data map[string]any) string {
	if app.Localizer == nil {
		return key
	}
	msg, err := app.Localizer.Localize(&i18n.LocalizeConfig{MessageID: key, TemplateData: data})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}

// translated returns the localized message or the fallback when the key is missing.
func (app *WaifuApp) translated(key string, data map[string]any, fallback string) string {
	if msg := app.GetMsgWith(key, data); msg != key && msg != "" {
		return msg
	}
	return fallback
}

// buildSummaryFormatter returns a closure that localizes the calendar event summary.
func (app *WaifuApp) buildSummaryFormatter() func(name string) string {
	return func(name string) string {
		return app.translated(config.TKeyEvtSummary,
			map[string]any{"Name": name},
			fmt.Sprintf(config.FallbackSummary, name))
	}
}

// alertFormatter renders notification texts in the current UI language.
type alertFormatter struct {
	app      *WaifuApp
	fallback notify.DefaultFormatter
}

func (f alertFormatter) Title(kind notify.Kind, name string) string {
	data := map[string]any{"Name": name}
	fb := f.fallback.Title(kind, name)
	switch kind {
	case notify.KindToday:
		return f.app.translated(config.TKeyNotifTodayTitle, data, fb)
	case notify.KindTomorrow:
		return f.app.translated(config.TKeyNotifSoonTitle, data, fb)
	default:
		return f.app.translated(config.TKeyNotifOnlineTitle, data, fb)
	}
}

func (f alertFormatter) Body(kind notify.Kind, name string) string {
	data := map[string]any{"Name": name}
	fb := f.fallback.Body(kind, name)
	switch kind {
	case notify.KindToday:
		return f.app.translated(config.TKeyNotifTodayBody, data, fb)
	case notify.KindTomorrow:
		return f.app.translated(config.TKeyNotifSoonBody, data, fb)
	default:
		return f.app.translated(config.TKeyNotifOnlineBody, data, fb)
	}
}
