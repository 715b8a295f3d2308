// Package notify decides which collection entries warrant a reminder and
// dispatches it through the in-app and OS channels, at most once per entry,
// day and kind.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
)

// Permission mirrors the OS notification permission states.
type Permission int

const (
	PermissionDefault Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "default"
	}
}

// ParsePermission is the inverse of Permission.String. Unknown values map to Default.
func ParsePermission(s string) Permission {
	switch s {
	case "granted":
		return PermissionGranted
	case "denied":
		return PermissionDenied
	default:
		return PermissionDefault
	}
}

// Kind identifies the reason for a reminder.
type Kind string

const (
	KindToday    Kind = "today"
	KindTomorrow Kind = "tomorrow"
	KindOnline   Kind = "online"
)

// KindFor applies the reminder policy to a days_until value.
func KindFor(daysUntil int) (Kind, bool) {
	switch daysUntil {
	case 0:
		return KindToday, true
	case 1:
		return KindTomorrow, true
	}
	return "", false
}

// Alert is one reminder as handed to a channel.
type Alert struct {
	EntryID  int
	Kind     Kind
	Name     string
	Image    string
	Title    string
	Body     string
	Tag      string
	Renotify bool
}

// InApp is the transient in-app channel. It is always available.
type InApp interface {
	Show(a Alert)
}

// OS is the persistent OS-level channel.
type OS interface {
	// Supported reports whether the running environment can show OS alerts.
	Supported() bool
	Permission() Permission
	// RequestPermission prompts the user and returns the resulting state.
	RequestPermission(ctx context.Context) (Permission, error)
	Notify(a Alert) error
}

// Report summarises one dispatch pass.
type Report struct {
	PassID     string
	Day        string
	Alerts     []Alert
	InApp      int
	OS         int
	Suppressed int
	OSSkipped  bool
}

// Engine runs notification passes. Passes are serialised.
type Engine struct {
	InApp     InApp
	OS        OS
	Ledger    Ledger
	Formatter Formatter
	Clock     engine.Clock

	mu sync.Mutex
}

// NewEngine returns an Engine with an in-memory ledger and the fallback texts.
func NewEngine(inApp InApp, osChannel OS) *Engine {
	return &Engine{
		InApp:     inApp,
		OS:        osChannel,
		Ledger:    NewMemoryLedger(),
		Formatter: DefaultFormatter{},
		Clock:     engine.RealClock{},
	}
}

// Dispatch evaluates entries and fires every due reminder that has not been
// dispatched yet for the current local day. Channel failures are logged and
// never returned.
func (e *Engine) Dispatch(ctx context.Context, entries []engine.CollectionEntry) Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	report := Report{
		PassID: uuid.NewString(),
		Day:    DayKey(e.Clock.Now()),
	}
	log := slog.With(
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyPass, report.PassID)
	log.Debug(config.MsgPassStarted, config.LogKeyCount, len(entries))

	osReady := e.osReady()
	report.OSSkipped = !osReady
	if !osReady {
		log.Debug(config.MsgOSSkipped)
	}

	seen := make(map[int]struct{}, len(entries))
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}

		kind, due := KindFor(entry.DaysUntil)
		if !due {
			continue
		}
		if _, dup := seen[entry.ID]; dup {
			continue
		}
		seen[entry.ID] = struct{}{}

		key := Key{EntryID: entry.ID, Day: report.Day, Kind: kind}
		if e.alreadySent(log, key) {
			report.Suppressed++
			log.Debug(config.MsgAlreadyNotified,
				config.LogKeyEntryID, entry.ID,
				config.LogKeyKind, kind)
			continue
		}

		alert := e.build(entry, kind)
		if e.InApp != nil {
			e.InApp.Show(alert)
			report.InApp++
		}
		if osReady {
			if err := e.OS.Notify(alert); err != nil {
				log.Warn(config.MsgOSFailed,
					config.LogKeyEntryID, entry.ID,
					config.LogKeyError, err)
			} else {
				report.OS++
			}
		}
		report.Alerts = append(report.Alerts, alert)

		if e.Ledger != nil {
			if err := e.Ledger.Mark(key); err != nil {
				log.Warn(config.MsgLedgerFailed, config.LogKeyError, err)
			}
		}
	}

	log.Info(config.MsgPassDone,
		config.LogKeyFired, len(report.Alerts),
		slog.Group(config.LogKeyStats,
			slog.Int("in_app", report.InApp),
			slog.Int("os", report.OS),
			slog.Int("suppressed", report.Suppressed),
		),
		config.LogKeyDuration, time.Since(start).Milliseconds())
	return report
}

// RequestPermission is the user-initiated permission flow. On grant it sends
// one confirmation alert through the OS channel.
func (e *Engine) RequestPermission(ctx context.Context) (Permission, error) {
	if e.OS == nil || !e.OS.Supported() {
		return PermissionDefault, engine.ErrUnsupportedEnvironment
	}

	perm, err := e.OS.RequestPermission(ctx)
	if err != nil {
		return perm, err
	}
	slog.Info(config.MsgPermission,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyPerm, perm.String())

	if perm != PermissionGranted {
		return perm, engine.ErrPermissionDenied
	}

	f := e.formatter()
	alert := Alert{
		Kind:     KindOnline,
		Title:    f.Title(KindOnline, ""),
		Body:     f.Body(KindOnline, ""),
		Tag:      config.NotificationTag,
		Renotify: config.NotificationRenotify,
	}
	if err := e.OS.Notify(alert); err != nil {
		slog.Warn(config.MsgOSFailed,
			config.LogKeyComponent, config.CompNotify,
			config.LogKeyError, err)
	}
	return perm, nil
}

func (e *Engine) osReady() bool {
	return e.OS != nil && e.OS.Supported() && e.OS.Permission() == PermissionGranted
}

func (e *Engine) alreadySent(log *slog.Logger, key Key) bool {
	if e.Ledger == nil {
		return false
	}
	sent, err := e.Ledger.Seen(key)
	if err != nil {
		// An unreadable ledger must not swallow a reminder.
		log.Warn(config.MsgLedgerFailed, config.LogKeyError, err)
		return false
	}
	return sent
}

func (e *Engine) build(entry engine.CollectionEntry, kind Kind) Alert {
	f := e.formatter()
	return Alert{
		EntryID:  entry.ID,
		Kind:     kind,
		Name:     entry.Name,
		Image:    entry.Image,
		Title:    f.Title(kind, entry.Name),
		Body:     f.Body(kind, entry.Name),
		Tag:      config.NotificationTag,
		Renotify: config.NotificationRenotify,
	}
}

func (e *Engine) formatter() Formatter {
	if e.Formatter == nil {
		return DefaultFormatter{}
	}
	return e.Formatter
}

// IsUserFacing reports whether err belongs to the permission error classes
// that the UI explains to the user instead of logging.
func IsUserFacing(err error) bool {
	return errors.Is(err, engine.ErrPermissionDenied) || errors.Is(err, engine.ErrUnsupportedEnvironment)
}
