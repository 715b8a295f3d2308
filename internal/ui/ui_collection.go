package ui

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-waifu-birthday/internal/collection"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
)

// mainView holds the widgets of the main window that render() updates.
type mainView struct {
	searchEntry *widget.Entry
	results     *widget.List
	table       *widget.Table
	status      *widget.Label
	progress    *widget.ProgressBarInfinite
	message     *widget.Label
	messageBar  *fyne.Container

	menu         *fyne.Container
	menuMain     *fyne.Container
	menuSettings *fyne.Container
	permLabel    *widget.Label

	// entries is the sorted copy displayed by the table.
	entries []engine.CollectionEntry
	sortCol int
	sortAsc bool
}

// FocusOrOpen focuses the main window, creating it if it was closed.
// It is the target of the tray items and of notification clicks.
func (app *WaifuApp) FocusOrOpen() {
	if app.Window != nil {
		slog.Debug(config.MsgFocusWindow, config.LogKeyComponent, config.CompUI)
		app.Window.Show()
		app.Window.RequestFocus()
		return
	}

	slog.Info(config.LogMsgOpenWin, config.LogKeyComponent, config.CompUI)
	w := app.App.NewWindow(app.GetMsg(config.TKeyWinTitle))
	app.Window = w
	w.Resize(fyne.NewSize(config.MainWinWidth, config.MainWinHeight))
	w.SetContent(app.buildMainContent())
	app.render(app.Model.Snapshot())

	w.SetOnClosed(func() {
		app.Window = nil
		app.view = nil
	})
	w.Show()
}

// buildMainContent assembles the window layout and replaces app.view.
func (app *WaifuApp) buildMainContent() fyne.CanvasObject {
	v := &mainView{sortCol: config.ColIDStatus, sortAsc: true}
	if old := app.view; old != nil {
		v.sortCol, v.sortAsc = old.sortCol, old.sortAsc
	}
	app.view = v

	// --- Search ---
	v.searchEntry = widget.NewEntry()
	v.searchEntry.SetPlaceHolder(app.GetMsg(config.TKeySearchPlaceholder))
	v.searchEntry.SetText(app.Model.Snapshot().UI.Query)
	v.searchEntry.OnChanged = app.Model.SetQuery

	v.results = widget.NewList(
		func() int { return len(app.Results()) },
		func() fyne.CanvasObject {
			return container.NewHBox(
				widget.NewLabel(config.TablePlaceholder),
				layout.NewSpacer(),
				widget.NewLabel(""),
				widget.NewButtonWithIcon(app.GetMsg(config.TKeyBtnAdd), theme.ContentAddIcon(), nil),
			)
		},
		func(id widget.ListItemID, o fyne.CanvasObject) {
			results := app.Results()
			if id >= len(results) {
				return
			}
			r := results[id]
			row := o.(*fyne.Container)
			row.Objects[0].(*widget.Label).SetText(r.Name)
			row.Objects[2].(*widget.Label).SetText(app.scoreText(r.Score))
			row.Objects[3].(*widget.Button).OnTapped = func() { app.openAddDialog(r) }
		},
	)
	searchCard := widget.NewCard(app.GetMsg(config.TKeySearchTitle), "", v.results)

	// --- Collection ---
	v.table = app.buildCollectionTable(v)
	v.status = widget.NewLabel("")
	v.status.Alignment = fyne.TextAlignCenter
	v.status.TextStyle = fyne.TextStyle{Bold: true}
	v.progress = widget.NewProgressBarInfinite()
	v.progress.Hide()

	collectionHeader := container.NewVBox(
		widget.NewLabelWithStyle(app.GetMsg(config.TKeyCollectionTitle), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		v.progress,
		v.status,
	)
	collectionPane := container.NewBorder(collectionHeader, nil, nil, nil, v.table)

	split := container.NewVSplit(searchCard, collectionPane)
	split.Offset = 0.35

	// --- Message bar ---
	v.message = widget.NewLabel("")
	v.message.Wrapping = fyne.TextWrapWord
	v.messageBar = container.NewBorder(nil, nil, nil,
		widget.NewButtonWithIcon("", theme.CancelIcon(), app.Model.ClearMessage),
		v.message)
	v.messageBar.Hide()

	// --- Side menu ---
	v.menuMain = container.NewVBox(
		widget.NewLabelWithStyle(app.GetMsg(config.TKeyMenu), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewButtonWithIcon(app.GetMsg(config.TKeyMenuSearch), theme.SearchIcon(), func() {
			app.Model.CloseMenu()
			app.Window.Canvas().Focus(v.searchEntry)
		}),
		widget.NewButtonWithIcon(app.GetMsg(config.TKeyMenuCollection), theme.ListIcon(), app.Model.CloseMenu),
		widget.NewButtonWithIcon(app.GetMsg(config.TKeyMenuSettings), theme.SettingsIcon(), func() {
			app.Model.ShowMenuView(collection.MenuSettings)
		}),
	)
	v.menuSettings = container.NewVBox(app.buildSettingsView(v))
	v.menu = container.NewStack(v.menuMain, v.menuSettings)
	v.menu.Hide()

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.MenuIcon(), app.Model.ToggleMenu),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), app.RequestRefresh),
	)

	top := container.NewVBox(toolbar, v.searchEntry)
	return container.NewBorder(top, v.messageBar, container.NewVScroll(v.menu), app.Alerts.Box, split)
}

// buildCollectionTable creates the sortable collection table. Sorting is
// driven by the header buttons.
func (app *WaifuApp) buildCollectionTable(v *mainView) *widget.Table {
	table := widget.NewTable(
		func() (int, int) {
			return len(v.entries), config.ColCount
		},
		func() fyne.CanvasObject {
			btn := widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
			btn.Importance = widget.DangerImportance
			return container.NewStack(widget.NewLabel(config.TablePlaceholder), btn)
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			cell := o.(*fyne.Container)
			label := cell.Objects[0].(*widget.Label)
			btn := cell.Objects[1].(*widget.Button)
			if id.Row >= len(v.entries) {
				return
			}
			e := v.entries[id.Row]

			if id.Col == config.ColIDAction {
				label.Hide()
				btn.SetText(app.GetMsg(config.TKeyBtnDelete))
				btn.OnTapped = func() { app.deleteEntry(e) }
				btn.Show()
				return
			}

			btn.Hide()
			label.Show()
			if id.Col == config.ColIDName {
				label.SetText(e.Name)
			} else {
				label.SetText(e.Status)
			}
		},
	)

	table.ShowHeaderRow = true
	table.CreateHeader = func() fyne.CanvasObject {
		return widget.NewButton("Header", func() {})
	}
	table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		btn := o.(*widget.Button)

		var titleKey string
		switch id.Col {
		case config.ColIDName:
			titleKey = config.TKeyColName
		case config.ColIDStatus:
			titleKey = config.TKeyColStatus
		default:
			titleKey = config.TKeyColAction
		}

		text := app.GetMsg(titleKey)
		if id.Col == v.sortCol {
			if v.sortAsc {
				text += config.SortIconAsc
			} else {
				text += config.SortIconDesc
			}
		}
		btn.SetText(text)

		btn.OnTapped = func() {
			if id.Col == config.ColIDAction {
				return
			}
			if v.sortCol == id.Col {
				v.sortAsc = !v.sortAsc
			} else {
				v.sortCol = id.Col
				v.sortAsc = true
			}
			v.entries = sortEntries(v.entries, v.sortCol, v.sortAsc)
			table.Refresh()
		}
	}

	table.SetColumnWidth(config.ColIDName, config.ColWidthName)
	table.SetColumnWidth(config.ColIDStatus, config.ColWidthStatus)
	table.SetColumnWidth(config.ColIDAction, config.ColWidthAction)
	return table
}

// sortEntries returns a sorted copy. The status column orders by days until
// the next birthday, so unknown dates sink to the bottom.
func sortEntries(entries []engine.CollectionEntry, col int, asc bool) []engine.CollectionEntry {
	out := append([]engine.CollectionEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var less bool
		switch col {
		case config.ColIDName:
			less = strings.ToLower(a.Name) < strings.ToLower(b.Name)
		default:
			if a.DaysUntil == b.DaysUntil {
				less = a.Name < b.Name
			} else {
				less = a.DaysUntil < b.DaysUntil
			}
		}
		if !asc {
			return !less
		}
		return less
	})

	slog.Debug(config.LogMsgSorted,
		config.LogKeyComponent, config.CompUI,
		config.LogKeySortCol, col,
		config.LogKeySortAsc, asc)
	return out
}

// render applies a model snapshot to the widgets. It must run on the UI goroutine.
func (app *WaifuApp) render(snap collection.Snapshot) {
	v := app.view
	if v == nil {
		return
	}

	v.entries = sortEntries(snap.Entries, v.sortCol, v.sortAsc)
	v.table.Refresh()

	switch {
	case snap.WakingUp:
		v.status.SetText(app.translated(config.TKeyWakingUp, nil, config.FallbackWakingUp))
		v.status.Show()
	case snap.Refreshing:
		v.status.SetText(app.GetMsg(config.TKeyLoading))
		v.status.Show()
	case snap.Empty():
		v.status.SetText(app.translated(config.TKeyNoData, nil, config.FallbackNoData))
		v.status.Show()
	default:
		v.status.Hide()
	}

	if snap.Refreshing {
		v.progress.Show()
		v.progress.Start()
	} else {
		v.progress.Stop()
		v.progress.Hide()
	}

	if snap.Message != "" {
		v.message.SetText(snap.Message)
		v.messageBar.Show()
	} else {
		v.messageBar.Hide()
	}

	if v.searchEntry.Text != snap.UI.Query {
		onChanged := v.searchEntry.OnChanged
		v.searchEntry.OnChanged = nil
		v.searchEntry.SetText(snap.UI.Query)
		v.searchEntry.OnChanged = onChanged
	}

	if snap.UI.MenuOpen {
		v.menu.Show()
	} else {
		v.menu.Hide()
	}
	if snap.UI.MenuView == collection.MenuSettings {
		v.menuMain.Hide()
		v.menuSettings.Show()
		app.refreshPermissionLabel()
	} else {
		v.menuSettings.Hide()
		v.menuMain.Show()
	}
}

func (app *WaifuApp) scoreText(score float64) string {
	s := fmt.Sprintf(config.FormatScore, score)
	return app.translated(config.TKeyScore, map[string]any{"Score": s}, s)
}

// openAddDialog selects r in the model and shows the add form.
func (app *WaifuApp) openAddDialog(r engine.SearchResult) {
	app.Model.OpenAddModal(r)
	app.presentAddDialog()
}

// presentAddDialog shows the add form from the model state, so a failed
// submission reopens it with the values the user typed.
func (app *WaifuApp) presentAddDialog() {
	ui := app.Model.Snapshot().UI
	if !ui.AddOpen || ui.Selected == nil || app.Window == nil {
		return
	}

	errMsg := app.GetMsg(config.TKeyErrDate)
	month := NewBoundedEntry(config.MinMonth, config.MaxMonth, errMsg)
	day := NewBoundedEntry(config.MinDay, config.MaxDay, errMsg)
	month.SetText(ui.ManualMonth)
	day.SetText(ui.ManualDay)

	itemMonth := widget.NewFormItem(app.GetMsg(config.TKeyLblMonth), month)
	itemMonth.HintText = app.GetMsg(config.TKeyHelpManualDate)
	itemDay := widget.NewFormItem(app.GetMsg(config.TKeyLblDay), day)

	if ui.DetectedMonth > 0 && ui.DetectedDay > 0 {
		month.SetPlaceHolder(strconv.Itoa(ui.DetectedMonth))
		day.SetPlaceHolder(strconv.Itoa(ui.DetectedDay))
		itemDay.HintText = app.GetMsgWith(config.TKeyHelpDetected,
			map[string]any{"Month": ui.DetectedMonth, "Day": ui.DetectedDay})
	}

	d := dialog.NewForm(
		app.GetMsgWith(config.TKeyAddTitle, map[string]any{"Name": ui.Selected.Name}),
		app.GetMsg(config.TKeyBtnConfirm),
		app.GetMsg(config.TKeyBtnCancel),
		[]*widget.FormItem{itemMonth, itemDay},
		func(ok bool) {
			if !ok {
				app.Model.CloseAddModal()
				return
			}
			app.Model.SetManualDate(month.Text, day.Text)
			go app.confirmAdd()
		},
		app.Window,
	)
	d.Show()
}

// confirmAdd submits the dialog. On failure the model keeps the dialog state
// and the form is shown again.
func (app *WaifuApp) confirmAdd() {
	if _, err := app.Model.ConfirmAdd(app.Ctx); err != nil {
		fyne.Do(func() {
			app.presentAddDialog()
			if !collection.IsValidation(err) {
				app.showError(config.TKeyErrAdd, err)
			}
		})
		return
	}
	app.publish()
}

func (app *WaifuApp) deleteEntry(e engine.CollectionEntry) {
	go func() {
		if err := app.Model.Delete(app.Ctx, e.ID); err != nil {
			fyne.Do(func() { app.showError(config.TKeyErrDelete, err) })
			return
		}
		app.publish()
	}()
}

func (app *WaifuApp) showError(key string, err error) {
	if app.Window == nil {
		return
	}
	dialog.ShowError(fmt.Errorf("%s: %w", app.GetMsg(key), err), app.Window)
}
