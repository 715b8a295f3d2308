package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-waifu-birthday/internal/collection"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
	"github.com/tartampluch/go-waifu-birthday/internal/notify"
	"github.com/tartampluch/go-waifu-birthday/internal/search"
	"github.com/tartampluch/go-waifu-birthday/internal/server"
)

//go:embed Icon.png
var appIconData []byte

// Backend is the remote store used by the desktop app.
type Backend interface {
	engine.Searcher
	engine.CollectionClient
}

// WaifuApp encapsulates the UI state, preferences, and background logic.
type WaifuApp struct {
	App         fyne.App
	Window      fyne.Window
	Preferences fyne.Preferences
	I18nBundle  *i18n.Bundle
	Localizer   *i18n.Localizer
	Ctx         context.Context

	Settings config.Settings
	Identity string
	Server   *server.FeedServer

	Model    *collection.Model
	Search   *search.Coordinator
	Notifier *notify.Engine
	Alerts   *AlertStack
	OS       *OSNotifier

	Tray desktop.App
	Menu *fyne.Menu

	TrayStatusItem   *fyne.MenuItem
	TrayOpenItem     *fyne.MenuItem
	TrayRefreshItem  *fyne.MenuItem
	TraySettingsItem *fyne.MenuItem

	SupportedLanguages []string
	configChan         chan string

	resultsMu sync.RWMutex
	results   []engine.SearchResult

	view *mainView
}

// NewWaifuApp constructs the application and wires dependencies.
func NewWaifuApp(a fyne.App, ctx context.Context, settings config.Settings, backend Backend, identity string, srv *server.FeedServer) *WaifuApp {
	a.SetIcon(fyne.NewStaticResource(config.IconFile, appIconData))

	app := &WaifuApp{
		App:                a,
		Preferences:        a.Preferences(),
		Ctx:                ctx,
		Settings:           settings,
		Identity:           identity,
		Server:             srv,
		SupportedLanguages: config.SupportedLanguages,
		configChan:         make(chan string, config.ChannelBufferSize),
	}

	app.Alerts = NewAlertStack(settings.AlertDuration)
	app.OS = &OSNotifier{App: a, Preferences: app.Preferences, Prompt: app.confirmPermission}
	app.Notifier = notify.NewEngine(app.Alerts, app.OS)
	app.Notifier.Formatter = alertFormatter{app: app}

	app.Model = collection.New(backend, identity, app.Notifier)
	app.Search = search.NewCoordinator(ctx, backend, settings.Debounce, app.onResults)
	app.Model.Search = app.Search
	app.Model.OnChange(app.onModelChange)

	if srv != nil && srv.Exporter != nil {
		srv.Exporter.FormatSummary = app.buildSummaryFormatter()
	}
	return app
}

// Run launches the application services and the main UI loop.
func (app *WaifuApp) Run() {
	app.SetupI18n()

	if app.Server != nil {
		go func() {
			if err := app.Server.Start(app.Ctx); err != nil {
				slog.Error(config.ErrServerStartup,
					config.LogKeyError, err,
					config.LogKeyComponent, config.CompUI)

				app.App.SendNotification(fyne.NewNotification(
					config.TitleStartupError,
					fmt.Sprintf(config.MsgPortBusy, app.Server.Port)))
			}
		}()
	}

	if desk, ok := app.App.(desktop.App); ok {
		app.Tray = desk
		app.Tray.SetSystemTrayIcon(app.App.Icon())
		app.setupTrayMenu()
	} else {
		slog.Warn(config.ErrTrayNotSupported,
			config.LogKeyComponent, config.CompUI)
	}

	app.FocusOrOpen()

	go app.backgroundWorker()
	app.App.Run()
	app.Search.Close()
}

// relabel re-applies translations to the tray and the main window.
func (app *WaifuApp) relabel() {
	app.RefreshTrayMenu()
	if app.Window != nil {
		app.Window.SetTitle(app.GetMsg(config.TKeyWinTitle))
		app.Window.SetContent(app.buildMainContent())
		app.render(app.Model.Snapshot())
	}
}

// setupTrayMenu constructs the system tray menu.
func (app *WaifuApp) setupTrayMenu() {
	app.TrayStatusItem = fyne.NewMenuItem(config.FallbackTrayLabel, app.FocusOrOpen)
	app.TrayOpenItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuOpen), app.FocusOrOpen)
	app.TrayRefreshItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuRefresh), app.RequestRefresh)
	app.TraySettingsItem = fyne.NewMenuItem(app.GetMsg(config.TKeyMenuSettings), func() {
		app.FocusOrOpen()
		app.Model.ShowMenuView(collection.MenuSettings)
	})

	app.Menu = fyne.NewMenu(config.AppName,
		app.TrayStatusItem,
		fyne.NewMenuItemSeparator(),
		app.TrayOpenItem,
		app.TrayRefreshItem,
		app.TraySettingsItem,
	)

	if app.Tray != nil {
		app.Tray.SetSystemTrayMenu(app.Menu)
	}
}

// RefreshTrayMenu updates localized labels in the tray menu.
func (app *WaifuApp) RefreshTrayMenu() {
	if app.Menu == nil {
		return
	}
	app.TrayOpenItem.Label = app.GetMsg(config.TKeyMenuOpen)
	app.TrayRefreshItem.Label = app.GetMsg(config.TKeyMenuRefresh)
	app.TraySettingsItem.Label = app.GetMsg(config.TKeyMenuSettings)
	app.Menu.Refresh()
}

// RequestRefresh asks the background worker for an immediate sync.
// Requests arriving while one is pending are coalesced.
func (app *WaifuApp) RequestRefresh() {
	select {
	case app.configChan <- config.LogKeyManual:
	default:
	}
}

// backgroundWorker syncs on startup, on every tick and on request.
func (app *WaifuApp) backgroundWorker() {
	log := slog.With(config.LogKeyComponent, config.CompWorker)

	_ = app.performSync(false)

	interval := app.Settings.RefreshInterval
	if interval <= 0 {
		interval = config.DefaultRefreshInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info(config.MsgWorkerStart, config.LogKeyInterval, interval)

	for {
		select {
		case <-app.Ctx.Done():
			log.Info(config.MsgWorkerStop)
			return

		case <-app.configChan:
			_ = app.performSync(true)

		case <-ticker.C:
			_ = app.performSync(false)
		}
	}
}

// performSync fetches the collection (which runs the notification pass) and
// republishes the feeds.
func (app *WaifuApp) performSync(manual bool) error {
	slog.Info(config.MsgSyncReq,
		config.LogKeyComponent, config.CompUI,
		config.LogKeyManual, manual)

	if err := app.Model.Refresh(app.Ctx); err != nil {
		app.updateTrayStatus(-1)
		return err
	}
	app.publish()
	return nil
}

// publish pushes the current collection to the feed server and the tray.
func (app *WaifuApp) publish() {
	entries := app.Model.Entries()
	if app.Server != nil {
		if err := app.Server.Publish(entries); err != nil {
			slog.Error(config.ErrICalEncode,
				config.LogKeyComponent, config.CompUI,
				config.LogKeyError, err)
		}
	}
	app.updateTrayStatus(len(engine.Today(entries)))
}

// updateTrayStatus shows how many birthdays are today, or an error marker
// when count is negative.
func (app *WaifuApp) updateTrayStatus(count int) {
	if app.Menu == nil || app.TrayStatusItem == nil {
		return
	}
	label := app.trayLabel(count)
	fyne.Do(func() {
		app.TrayStatusItem.Label = label
		app.Menu.Refresh()
	})
}

func (app *WaifuApp) trayLabel(count int) string {
	switch {
	case count < 0:
		return config.FallbackTrayError
	case count == 0:
		return app.translated(config.TKeyTrayStatusZero, nil, fmt.Sprintf(config.FallbackTrayDefault, 0))
	}

	if app.Localizer != nil {
		msg, err := app.Localizer.Localize(&i18n.LocalizeConfig{
			MessageID:    config.TKeyTrayStatus,
			TemplateData: map[string]any{"Count": count},
			PluralCount:  count,
		})
		if err == nil {
			return msg
		}
	}
	return fmt.Sprintf(config.FallbackTrayDefault, count)
}

// onResults receives coordinator output. It runs under the coordinator lock
// and therefore only stores and schedules a redraw.
func (app *WaifuApp) onResults(results []engine.SearchResult) {
	app.resultsMu.Lock()
	app.results = results
	app.resultsMu.Unlock()

	fyne.Do(func() {
		if app.view != nil {
			app.view.results.Refresh()
		}
	})
}

// Results returns the displayed search results.
func (app *WaifuApp) Results() []engine.SearchResult {
	app.resultsMu.RLock()
	defer app.resultsMu.RUnlock()
	return append([]engine.SearchResult(nil), app.results...)
}

func (app *WaifuApp) onModelChange(snap collection.Snapshot) {
	fyne.Do(func() { app.render(snap) })
}
