package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-waifu-birthday/internal/collection"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
	"github.com/tartampluch/go-waifu-birthday/internal/notify"
)

// buildSettingsView constructs the settings page of the side menu.
func (app *WaifuApp) buildSettingsView(v *mainView) fyne.CanvasObject {
	back := widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnBack), theme.NavigateBackIcon(), func() {
		app.Model.ShowMenuView(collection.MenuMain)
	})

	// --- General ---
	langSelect := widget.NewSelect(app.SupportedLanguages, nil)
	langSelect.SetSelected(app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage))
	langSelect.OnChanged = app.saveLanguage

	itemLang := widget.NewFormItem(app.GetMsg(config.TKeyLblLanguage), langSelect)
	itemLang.HintText = app.GetMsg(config.TKeyHelpLanguage)

	identity := widget.NewLabelWithStyle(app.Identity, fyne.TextAlignLeading, fyne.TextStyle{Monospace: true})
	identity.Selectable = true
	itemIdentity := widget.NewFormItem(app.GetMsg(config.TKeyLblIdentity), identity)
	itemIdentity.HintText = app.GetMsg(config.TKeyHelpIdentity)

	items := []*widget.FormItem{itemLang, itemIdentity}
	if app.Server != nil {
		feed := widget.NewLabel(app.feedURL())
		feed.Selectable = true
		feed.Wrapping = fyne.TextWrapBreak
		itemFeed := widget.NewFormItem(app.GetMsg(config.TKeyLblFeed), feed)
		itemFeed.HintText = app.GetMsg(config.TKeyHelpFeed)
		items = append(items, itemFeed)
	}
	generalCard := widget.NewCard(app.GetMsg(config.TKeyMenuSettings), "", widget.NewForm(items...))

	// --- Notifications ---
	v.permLabel = widget.NewLabel(app.permissionText())
	v.permLabel.Wrapping = fyne.TextWrapWord
	btnNotif := widget.NewButtonWithIcon(app.GetMsg(config.TKeyEnableNotif), theme.MailComposeIcon(), func() {
		go func() { _ = app.EnableNotifications(app.Ctx) }()
	})
	btnNotif.Importance = widget.HighImportance
	notifCard := widget.NewCard(app.GetMsg(config.TKeyLblNotif), "", container.NewVBox(v.permLabel, btnNotif))

	// --- Footer ---
	footer := widget.NewLabel(app.GetMsgWith(config.TKeyLblFooter, map[string]any{"Version": config.Version}))
	footer.Alignment = fyne.TextAlignCenter
	footer.TextStyle = fyne.TextStyle{Italic: true}

	return container.NewVBox(back, generalCard, notifCard, footer)
}

// saveLanguage persists the language and relabels the whole UI.
func (app *WaifuApp) saveLanguage(lang string) {
	if lang == "" || lang == app.Preferences.StringWithFallback(config.PrefLanguage, config.DefaultLanguage) {
		return
	}
	slog.Info(config.LogMsgLangSave,
		config.LogKeyComponent, config.CompUISet,
		config.LogKeyLang, lang)

	app.Preferences.SetString(config.PrefLanguage, lang)
	app.UpdateLocalizer()
	fyne.Do(app.relabel)
}

func (app *WaifuApp) feedURL() string {
	return fmt.Sprintf(config.FormatFeedURL, config.LocalhostBindAddr, app.Server.Port, config.RouteCalendar)
}

func (app *WaifuApp) permissionText() string {
	if !app.OS.Supported() {
		return app.GetMsg(config.TKeyErrUnsupported)
	}
	switch app.OS.Permission() {
	case notify.PermissionGranted:
		return app.GetMsg(config.TKeyPermGranted)
	case notify.PermissionDenied:
		return app.GetMsg(config.TKeyPermDenied)
	default:
		return app.GetMsg(config.TKeyPermDefault)
	}
}

func (app *WaifuApp) refreshPermissionLabel() {
	if app.view != nil && app.view.permLabel != nil {
		app.view.permLabel.SetText(app.permissionText())
	}
}

// EnableNotifications runs the user-initiated permission flow and reports
// the outcome through the model message. It blocks until the user answers.
func (app *WaifuApp) EnableNotifications(ctx context.Context) error {
	_, err := app.Notifier.RequestPermission(ctx)
	app.Model.SetMessage(app.permissionMessage(err))
	fyne.Do(app.refreshPermissionLabel)
	return err
}

func (app *WaifuApp) permissionMessage(err error) string {
	switch {
	case err == nil:
		return app.GetMsg(config.TKeyNotifEnabled)
	case errors.Is(err, engine.ErrUnsupportedEnvironment):
		return app.GetMsg(config.TKeyErrUnsupported)
	case errors.Is(err, engine.ErrPermissionDenied):
		return app.GetMsg(config.TKeyErrPermission)
	default:
		return err.Error()
	}
}

// confirmPermission is the default OSNotifier prompt: a confirm dialog on
// the main window. It must be called off the UI goroutine.
func (app *WaifuApp) confirmPermission(ctx context.Context) (bool, error) {
	answer := make(chan bool, 1)
	fyne.Do(func() {
		app.FocusOrOpen()
		dialog.ShowConfirm(
			app.GetMsg(config.TKeyEnableNotif),
			app.GetMsg(config.TKeyPermissionPrompt),
			func(ok bool) { answer <- ok },
			app.Window)
	})

	select {
	case ok := <-answer:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
