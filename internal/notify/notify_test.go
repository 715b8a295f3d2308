package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

type recordingInApp struct {
	mu     sync.Mutex
	alerts []Alert
}

func (r *recordingInApp) Show(a Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
}

type fakeOS struct {
	supported bool
	perm      Permission
	grant     Permission
	notifyErr error
	alerts    []Alert
}

func (f *fakeOS) Supported() bool        { return f.supported }
func (f *fakeOS) Permission() Permission { return f.perm }
func (f *fakeOS) RequestPermission(context.Context) (Permission, error) {
	f.perm = f.grant
	return f.perm, nil
}
func (f *fakeOS) Notify(a Alert) error {
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.alerts = append(f.alerts, a)
	return nil
}

func newTestEngine(perm Permission) (*Engine, *recordingInApp, *fakeOS, *fixedClock) {
	inApp := &recordingInApp{}
	osCh := &fakeOS{supported: true, perm: perm, grant: PermissionGranted}
	clock := &fixedClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)}
	e := NewEngine(inApp, osCh)
	e.Clock = clock
	return e, inApp, osCh, clock
}

func entry(id, days int) engine.CollectionEntry {
	return engine.CollectionEntry{ID: id, Name: "Entry", DaysUntil: days, Status: engine.StatusLabel(days)}
}

// -----------------------------------------------------------------------------
// Policy
// -----------------------------------------------------------------------------

func TestKindFor(t *testing.T) {
	k, ok := KindFor(0)
	assert.True(t, ok)
	assert.Equal(t, KindToday, k)

	k, ok = KindFor(1)
	assert.True(t, ok)
	assert.Equal(t, KindTomorrow, k)

	for _, d := range []int{2, 30, 364, config.UnknownDays} {
		_, ok := KindFor(d)
		assert.False(t, ok, "days_until=%d", d)
	}
}

// -----------------------------------------------------------------------------
// Dispatch
// -----------------------------------------------------------------------------

func TestDispatch_TodayFiresBothChannelsOnce(t *testing.T) {
	e, inApp, osCh, _ := newTestEngine(PermissionGranted)
	entries := []engine.CollectionEntry{{ID: 7, Name: "Asuna Yuuki", DaysUntil: 0}}

	r := e.Dispatch(context.Background(), entries)

	require.Len(t, inApp.alerts, 1)
	require.Len(t, osCh.alerts, 1)
	assert.Equal(t, 1, r.InApp)
	assert.Equal(t, 1, r.OS)

	a := osCh.alerts[0]
	assert.Equal(t, "🎉 It's Asuna Yuuki's Birthday!", a.Title)
	assert.Equal(t, config.NotificationTag, a.Tag)
	assert.True(t, a.Renotify)

	_, err := uuid.Parse(r.PassID)
	assert.NoError(t, err, "Every pass carries a UUID")
}

func TestDispatch_TomorrowUsesHeadsUp(t *testing.T) {
	e, inApp, _, _ := newTestEngine(PermissionDefault)

	e.Dispatch(context.Background(), []engine.CollectionEntry{{ID: 3, Name: "Sinon", DaysUntil: 1}})

	require.Len(t, inApp.alerts, 1)
	assert.Equal(t, config.FallbackSoonTitle, inApp.alerts[0].Title)
	assert.Equal(t, "Sinon's birthday is tomorrow!", inApp.alerts[0].Body)
}

func TestDispatch_FarEntriesFireNothing(t *testing.T) {
	e, inApp, osCh, _ := newTestEngine(PermissionGranted)

	r := e.Dispatch(context.Background(), []engine.CollectionEntry{entry(1, 2), entry(2, config.UnknownDays)})

	assert.Empty(t, inApp.alerts)
	assert.Empty(t, osCh.alerts)
	assert.Empty(t, r.Alerts)
}

func TestDispatch_RepeatedPassDoesNotRefire(t *testing.T) {
	e, inApp, osCh, _ := newTestEngine(PermissionGranted)
	entries := []engine.CollectionEntry{entry(1, 0), entry(2, 1)}

	first := e.Dispatch(context.Background(), entries)
	second := e.Dispatch(context.Background(), entries)

	assert.Len(t, first.Alerts, 2)
	assert.Empty(t, second.Alerts)
	assert.Equal(t, 2, second.Suppressed)
	assert.Len(t, inApp.alerts, 2)
	assert.Len(t, osCh.alerts, 2)
	assert.NotEqual(t, first.PassID, second.PassID)
}

func TestDispatch_DuplicateEntryInOnePass(t *testing.T) {
	e, inApp, _, _ := newTestEngine(PermissionDefault)
	e.Ledger = nil

	e.Dispatch(context.Background(), []engine.CollectionEntry{entry(5, 0), entry(5, 0)})

	assert.Len(t, inApp.alerts, 1)
}

func TestDispatch_NextDayFiresAgain(t *testing.T) {
	e, inApp, _, clock := newTestEngine(PermissionDefault)

	e.Dispatch(context.Background(), []engine.CollectionEntry{entry(1, 1)})
	clock.t = clock.t.AddDate(0, 0, 1)
	e.Dispatch(context.Background(), []engine.CollectionEntry{entry(1, 0)})

	require.Len(t, inApp.alerts, 2)
	assert.Equal(t, KindTomorrow, inApp.alerts[0].Kind)
	assert.Equal(t, KindToday, inApp.alerts[1].Kind)
}

func TestDispatch_OSChannelGating(t *testing.T) {
	tests := []struct {
		name string
		os   OS
	}{
		{"PermissionDefault", &fakeOS{supported: true, perm: PermissionDefault}},
		{"PermissionDenied", &fakeOS{supported: true, perm: PermissionDenied}},
		{"Unsupported", &fakeOS{supported: false, perm: PermissionGranted}},
		{"Absent", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inApp := &recordingInApp{}
			e := NewEngine(inApp, tt.os)

			r := e.Dispatch(context.Background(), []engine.CollectionEntry{entry(1, 0)})

			assert.Len(t, inApp.alerts, 1, "The in-app channel always fires")
			assert.Zero(t, r.OS)
			assert.True(t, r.OSSkipped)
			if f, ok := tt.os.(*fakeOS); ok {
				assert.Empty(t, f.alerts)
			}
		})
	}
}

func TestDispatch_OSFailureIsSwallowed(t *testing.T) {
	e, inApp, osCh, _ := newTestEngine(PermissionGranted)
	osCh.notifyErr = errors.New("dbus: connection refused")

	r := e.Dispatch(context.Background(), []engine.CollectionEntry{entry(1, 0)})

	assert.Len(t, inApp.alerts, 1)
	assert.Zero(t, r.OS)
	assert.Len(t, r.Alerts, 1)
}

type brokenLedger struct{}

func (brokenLedger) Seen(Key) (bool, error) { return false, errors.New("disk gone") }
func (brokenLedger) Mark(Key) error         { return errors.New("disk gone") }

func TestDispatch_BrokenLedgerStillAlerts(t *testing.T) {
	e, inApp, _, _ := newTestEngine(PermissionDefault)
	e.Ledger = brokenLedger{}

	e.Dispatch(context.Background(), []engine.CollectionEntry{entry(1, 0)})

	assert.Len(t, inApp.alerts, 1)
}

func TestDispatch_PassesAreSerialised(t *testing.T) {
	e, inApp, _, _ := newTestEngine(PermissionDefault)
	entries := []engine.CollectionEntry{entry(1, 0), entry(2, 0), entry(3, 1)}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Dispatch(context.Background(), entries)
		}()
	}
	wg.Wait()

	assert.Len(t, inApp.alerts, 3, "Concurrent passes must not double-fire")
}

// -----------------------------------------------------------------------------
// Permission
// -----------------------------------------------------------------------------

func TestRequestPermission_Granted(t *testing.T) {
	e, inApp, osCh, _ := newTestEngine(PermissionDefault)

	perm, err := e.RequestPermission(context.Background())

	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, perm)
	require.Len(t, osCh.alerts, 1)
	assert.Equal(t, KindOnline, osCh.alerts[0].Kind)
	assert.Equal(t, config.FallbackOnlineTitle, osCh.alerts[0].Title)
	assert.Empty(t, inApp.alerts, "The confirmation only uses the OS channel")
}

func TestRequestPermission_Denied(t *testing.T) {
	e, _, osCh, _ := newTestEngine(PermissionDefault)
	osCh.grant = PermissionDenied

	perm, err := e.RequestPermission(context.Background())

	assert.ErrorIs(t, err, engine.ErrPermissionDenied)
	assert.True(t, IsUserFacing(err))
	assert.Equal(t, PermissionDenied, perm)
	assert.Empty(t, osCh.alerts)
}

func TestRequestPermission_Unsupported(t *testing.T) {
	e := NewEngine(&recordingInApp{}, &fakeOS{supported: false})

	_, err := e.RequestPermission(context.Background())
	assert.ErrorIs(t, err, engine.ErrUnsupportedEnvironment)

	_, err = NewEngine(&recordingInApp{}, nil).RequestPermission(context.Background())
	assert.ErrorIs(t, err, engine.ErrUnsupportedEnvironment)
}

func TestParsePermission(t *testing.T) {
	for _, p := range []Permission{PermissionDefault, PermissionGranted, PermissionDenied} {
		assert.Equal(t, p, ParsePermission(p.String()))
	}
	assert.Equal(t, PermissionDefault, ParsePermission("garbage"))
}
