package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/notify"
)

func TestAlertStack_AutoDismiss(t *testing.T) {
	test.NewApp()
	stack := NewAlertStack(30 * time.Millisecond)

	stack.Show(notify.Alert{Title: "🎉 It's Asuna's Birthday!", Body: "Don't forget to celebrate today!"})
	stack.Show(notify.Alert{Title: "⏰ Heads up!", Body: "Sinon's birthday is tomorrow!"})

	assert.Equal(t, 2, stack.Len())
	assert.Eventually(t, func() bool { return stack.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestAlertStack_DefaultDuration(t *testing.T) {
	assert.Equal(t, config.DefaultAlertDuration, NewAlertStack(0).Duration)
}

func newOSNotifier() (*OSNotifier, *notificationSpy) {
	a := test.NewApp()
	spy := &notificationSpy{App: a}
	return &OSNotifier{App: spy, Preferences: a.Preferences()}, spy
}

func TestOSNotifier_PermissionPersisted(t *testing.T) {
	n, _ := newOSNotifier()
	assert.Equal(t, notify.PermissionDefault, n.Permission())

	n.Prompt = func(context.Context) (bool, error) { return true, nil }
	perm, err := n.RequestPermission(context.Background())

	require.NoError(t, err)
	assert.Equal(t, notify.PermissionGranted, perm)
	assert.Equal(t, "granted", n.Preferences.String(config.PrefPermission))
	assert.Equal(t, notify.PermissionGranted, n.Permission())
}

func TestOSNotifier_DeniedCanBeAskedAgain(t *testing.T) {
	n, _ := newOSNotifier()
	answer := false
	prompts := 0
	n.Prompt = func(context.Context) (bool, error) {
		prompts++
		return answer, nil
	}

	perm, err := n.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notify.PermissionDenied, perm)
	assert.Equal(t, "denied", n.Preferences.String(config.PrefPermission))

	answer = true
	perm, err = n.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, prompts)
	assert.Equal(t, notify.PermissionGranted, perm)
	assert.Equal(t, notify.PermissionGranted, n.Permission())
}

func TestOSNotifier_GrantedIsNotAskedAgain(t *testing.T) {
	n, _ := newOSNotifier()
	n.Preferences.SetString(config.PrefPermission, notify.PermissionGranted.String())
	n.Prompt = func(context.Context) (bool, error) {
		t.Fatal("prompted although permission is granted")
		return false, nil
	}

	perm, err := n.RequestPermission(context.Background())

	require.NoError(t, err)
	assert.Equal(t, notify.PermissionGranted, perm)
}

func TestOSNotifier_PromptError(t *testing.T) {
	n, _ := newOSNotifier()
	n.Prompt = func(context.Context) (bool, error) { return false, context.Canceled }

	perm, err := n.RequestPermission(context.Background())

	require.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, notify.PermissionDefault, perm)
	assert.Empty(t, n.Preferences.String(config.PrefPermission), "A cancelled prompt records nothing")
}

func TestOSNotifier_NoPrompt(t *testing.T) {
	n, _ := newOSNotifier()

	perm, err := n.RequestPermission(context.Background())

	require.NoError(t, err)
	assert.Equal(t, notify.PermissionDefault, perm)
}

func TestOSNotifier_Notify(t *testing.T) {
	n, spy := newOSNotifier()
	assert.True(t, n.Supported())

	require.NoError(t, n.Notify(notify.Alert{Title: "System Online", Body: "Notifications are now active!"}))

	require.Len(t, spy.sent, 1)
	assert.Equal(t, "System Online", spy.sent[0].Title)
	assert.Equal(t, "Notifications are now active!", spy.sent[0].Content)
}
