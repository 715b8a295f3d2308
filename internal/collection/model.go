// Package collection is the view model of the user's collection. The entry
// list is only ever replaced by an authoritative fetch; mutations go to the
// backend and are followed by a re-fetch.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
	"github.com/tartampluch/go-waifu-birthday/internal/notify"
)

// Dispatcher runs one notification pass over a fetched collection.
type Dispatcher interface {
	Dispatch(ctx context.Context, entries []engine.CollectionEntry) notify.Report
}

// QueryInput receives query edits, typically a search.Coordinator.
type QueryInput interface {
	Input(query string)
}

// Model holds the last fetched collection and the UI state.
type Model struct {
	Client     engine.CollectionClient
	Identity   string
	Dispatcher Dispatcher
	Search     QueryInput

	// syncMu serialises fetches and mutation+fetch sequences.
	syncMu sync.Mutex

	mu         sync.Mutex
	entries    []engine.CollectionEntry
	wakingUp   bool
	refreshing bool
	loaded     bool
	message    string
	lastErr    error
	ui         UIState
	listeners  []func(Snapshot)
}

// New returns a Model in the waking-up state.
func New(client engine.CollectionClient, identity string, dispatcher Dispatcher) *Model {
	return &Model{
		Client:     client,
		Identity:   identity,
		Dispatcher: dispatcher,
		wakingUp:   true,
		entries:    []engine.CollectionEntry{},
	}
}

// OnChange registers a listener called after every state change.
func (m *Model) OnChange(f func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, f)
}

// Snapshot returns a copy of the current state.
func (m *Model) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Entries returns a copy of the last fetched collection.
func (m *Model) Entries() []engine.CollectionEntry {
	return m.Snapshot().Entries
}

// Empty reports whether a completed fetch returned nothing.
func (m *Model) Empty() bool {
	return m.Snapshot().Empty()
}

// Refresh fetches the collection, replaces the list wholesale and runs the
// notification pass. The waking-up state ends on the first completion,
// whether it succeeded or not.
func (m *Model) Refresh(ctx context.Context) error {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	return m.refreshLocked(ctx)
}

func (m *Model) refreshLocked(ctx context.Context) error {
	log := slog.With(config.LogKeyComponent, config.CompCollection)

	m.update(func() { m.refreshing = true })

	entries, err := m.Client.FetchCollection(ctx, m.Identity)
	if err != nil {
		log.Error(config.MsgRefreshFailed, config.LogKeyError, err)
		m.update(func() {
			m.refreshing = false
			m.wakingUp = false
			m.lastErr = err
		})
		return err
	}
	if entries == nil {
		entries = []engine.CollectionEntry{}
	}

	log.Info(config.MsgRefreshDone, config.LogKeyCount, len(entries))
	m.update(func() {
		m.entries = entries
		m.refreshing = false
		m.wakingUp = false
		m.loaded = true
		m.lastErr = nil
	})

	if m.Dispatcher != nil {
		m.Dispatcher.Dispatch(ctx, entries)
	}
	return nil
}

// SetQuery records the search text and forwards it to the search input.
func (m *Model) SetQuery(q string) {
	m.update(func() { m.ui.Query = q })
	if m.Search != nil {
		m.Search.Input(q)
	}
}

// ToggleMenu opens or closes the side menu. Closing resets it to the main view.
func (m *Model) ToggleMenu() {
	m.update(func() {
		m.ui.MenuOpen = !m.ui.MenuOpen
		if !m.ui.MenuOpen {
			m.ui.MenuView = MenuMain
		}
	})
}

// ShowMenuView switches the page displayed inside the menu.
func (m *Model) ShowMenuView(v MenuView) {
	m.update(func() {
		m.ui.MenuOpen = true
		m.ui.MenuView = v
	})
}

// CloseMenu closes the side menu.
func (m *Model) CloseMenu() {
	m.update(func() {
		m.ui.MenuOpen = false
		m.ui.MenuView = MenuMain
	})
}

// OpenAddModal selects r and opens the add dialog with empty manual fields.
func (m *Model) OpenAddModal(r engine.SearchResult) {
	month, day, _ := engine.ExtractBirthday(r.About)
	m.update(func() {
		sel := r
		m.ui.AddOpen = true
		m.ui.Selected = &sel
		m.ui.ManualMonth = ""
		m.ui.ManualDay = ""
		m.ui.DetectedMonth = month
		m.ui.DetectedDay = day
	})
}

// SetManualDate records the raw month/day text of the add dialog.
func (m *Model) SetManualDate(month, day string) {
	m.update(func() {
		m.ui.ManualMonth = month
		m.ui.ManualDay = day
	})
}

// CloseAddModal discards the dialog state.
func (m *Model) CloseAddModal() {
	m.update(func() {
		m.ui.AddOpen = false
		m.ui.Selected = nil
		m.ui.ManualMonth = ""
		m.ui.ManualDay = ""
		m.ui.DetectedMonth = 0
		m.ui.DetectedDay = 0
	})
}

// ConfirmAdd submits the selected result. On success the dialog closes, the
// query is cleared and the collection is re-fetched; on failure the dialog
// stays open and the message explains why.
func (m *Model) ConfirmAdd(ctx context.Context) (string, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	ui := m.Snapshot().UI
	if ui.Selected == nil {
		return "", nil
	}

	month, day, err := ParseManualDate(ui.ManualMonth, ui.ManualDay)
	if err != nil {
		m.update(func() { m.message = err.Error() })
		return "", err
	}

	payload := engine.FromResult(*ui.Selected)
	payload.ManualMonth, payload.ManualDay = month, day

	msg, err := m.Client.AddEntry(ctx, m.Identity, payload)
	if err != nil {
		slog.Error(config.MsgAddFailed,
			config.LogKeyComponent, config.CompCollection,
			config.LogKeyName, payload.Name,
			config.LogKeyError, err)
		m.update(func() { m.message = err.Error() })
		return "", err
	}

	slog.Info(config.MsgAddDone,
		config.LogKeyComponent, config.CompCollection,
		config.LogKeyName, payload.Name)

	m.update(func() {
		m.message = msg
		m.ui.AddOpen = false
		m.ui.Selected = nil
		m.ui.ManualMonth = ""
		m.ui.ManualDay = ""
		m.ui.DetectedMonth = 0
		m.ui.DetectedDay = 0
		m.ui.Query = ""
	})
	if m.Search != nil {
		m.Search.Input("")
	}

	// The mutation already succeeded; a failed re-fetch is reported through
	// the snapshot, not as an add failure.
	_ = m.refreshLocked(ctx)
	return msg, nil
}

// Delete removes the entry on the backend and re-fetches. On failure the
// displayed collection is left untouched and the message is set.
func (m *Model) Delete(ctx context.Context, entryID int) error {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	if err := m.Client.DeleteEntry(ctx, m.Identity, entryID); err != nil {
		slog.Error(config.MsgDeleteFailed,
			config.LogKeyComponent, config.CompCollection,
			config.LogKeyEntryID, entryID,
			config.LogKeyError, err)
		m.update(func() { m.message = err.Error() })
		return err
	}

	_ = m.refreshLocked(ctx)
	return nil
}

// SetMessage replaces the user-visible message.
func (m *Model) SetMessage(msg string) {
	m.update(func() { m.message = msg })
}

// ClearMessage dismisses the user-visible message.
func (m *Model) ClearMessage() {
	m.SetMessage("")
}

// ParseManualDate converts the dialog text into the nullable numbers sent to
// the backend. Empty text maps to nil.
func ParseManualDate(monthText, dayText string) (*int, *int, error) {
	month, err := parseOptional(monthText)
	if err != nil {
		return nil, nil, err
	}
	day, err := parseOptional(dayText)
	if err != nil {
		return nil, nil, err
	}

	probe := engine.NewEntry{Name: "-", ManualMonth: month, ManualDay: day}
	if err := probe.Validate(); err != nil {
		return nil, nil, err
	}
	return month, day, nil
}

func parseOptional(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", engine.ErrValidation, config.ErrNotNumber)
	}
	return &n, nil
}

// IsValidation reports whether err was caused by the user's input.
func IsValidation(err error) bool {
	return errors.Is(err, engine.ErrValidation)
}

func (m *Model) update(f func()) {
	m.mu.Lock()
	f()
	snap := m.snapshotLocked()
	listeners := append(([]func(Snapshot))(nil), m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (m *Model) snapshotLocked() Snapshot {
	ui := m.ui
	if ui.Selected != nil {
		sel := *ui.Selected
		ui.Selected = &sel
	}
	return Snapshot{
		Entries:    append([]engine.CollectionEntry{}, m.entries...),
		WakingUp:   m.wakingUp,
		Refreshing: m.refreshing,
		Loaded:     m.loaded,
		Message:    m.message,
		LastError:  m.lastErr,
		UI:         ui,
	}
}
