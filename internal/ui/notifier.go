package ui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/notify"
)

// AlertStack is the in-app channel: a vertical stack of cards, each removed
// after Duration.
type AlertStack struct {
	Box      *fyne.Container
	Duration time.Duration

	mu sync.Mutex
}

// NewAlertStack returns an empty stack.
func NewAlertStack(d time.Duration) *AlertStack {
	if d <= 0 {
		d = config.DefaultAlertDuration
	}
	return &AlertStack{Box: container.NewVBox(), Duration: d}
}

// Show implements notify.InApp. It is safe to call from any goroutine.
func (s *AlertStack) Show(a notify.Alert) {
	card := widget.NewCard(a.Title, a.Body, nil)

	fyne.Do(func() {
		s.mu.Lock()
		s.Box.Add(card)
		s.mu.Unlock()
	})

	time.AfterFunc(s.Duration, func() {
		fyne.Do(func() {
			s.mu.Lock()
			s.Box.Remove(card)
			s.mu.Unlock()
		})
	})
}

// Len returns the number of alerts currently displayed.
func (s *AlertStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Box.Objects)
}

// OSNotifier is the OS channel backed by fyne's native notifications. The
// permission state is kept in the app preferences.
type OSNotifier struct {
	App         fyne.App
	Preferences fyne.Preferences

	// Prompt asks the user for consent. It must not block the UI goroutine.
	Prompt func(ctx context.Context) (bool, error)
}

// Supported reports whether a fyne driver is available.
func (n *OSNotifier) Supported() bool {
	return n.App != nil && n.App.Driver() != nil
}

// Permission returns the persisted permission.
func (n *OSNotifier) Permission() notify.Permission {
	return notify.ParsePermission(n.Preferences.String(config.PrefPermission))
}

// RequestPermission is only reached from the user's "Enable notifications"
// action, so it prompts unless permission is already granted. A recorded
// denial is asked again; fyne has no OS settings page to send the user to.
func (n *OSNotifier) RequestPermission(ctx context.Context) (notify.Permission, error) {
	if n.Permission() == notify.PermissionGranted {
		return notify.PermissionGranted, nil
	}
	if n.Prompt == nil {
		return notify.PermissionDefault, nil
	}

	slog.Debug(config.MsgPromptPermission, config.LogKeyComponent, config.CompUI)
	ok, err := n.Prompt(ctx)
	if err != nil {
		return notify.PermissionDefault, err
	}

	perm := notify.PermissionDenied
	if ok {
		perm = notify.PermissionGranted
	}
	n.Preferences.SetString(config.PrefPermission, perm.String())
	return perm, nil
}

// Notify sends a native notification. Tag and Renotify have no fyne
// equivalent; each alert is delivered individually.
func (n *OSNotifier) Notify(a notify.Alert) error {
	n.App.SendNotification(fyne.NewNotification(a.Title, a.Body))
	return nil
}
