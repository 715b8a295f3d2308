package collection_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-waifu-birthday/internal/collection"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
	"github.com/tartampluch/go-waifu-birthday/internal/identity"
	"github.com/tartampluch/go-waifu-birthday/internal/notify"
	"github.com/tartampluch/go-waifu-birthday/internal/search"
	"github.com/tartampluch/go-waifu-birthday/internal/testutil"
	"github.com/zalando/go-keyring"
)

var today = time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)

type inAppSpy struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (s *inAppSpy) Show(a notify.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
}

type osSpy struct {
	perm   notify.Permission
	alerts []notify.Alert
}

func (s *osSpy) Supported() bool               { return true }
func (s *osSpy) Permission() notify.Permission { return s.perm }
func (s *osSpy) RequestPermission(context.Context) (notify.Permission, error) {
	return s.perm, nil
}
func (s *osSpy) Notify(a notify.Alert) error {
	s.alerts = append(s.alerts, a)
	return nil
}

type queryRecorder struct{ queries []string }

func (q *queryRecorder) Input(s string) { q.queries = append(q.queries, s) }

type harness struct {
	backend *testutil.Backend
	client  *engine.StoreClient
	model   *collection.Model
	inApp   *inAppSpy
	os      *osSpy
}

func newHarness(t *testing.T, id string, perm notify.Permission) *harness {
	t.Helper()
	clock := testutil.FixedClock{T: today}
	b := testutil.NewBackend(engine.CalendarResolver{Clock: clock})
	t.Cleanup(b.Close)

	c, err := engine.NewStoreClient(b.URL())
	require.NoError(t, err)

	inApp, osCh := &inAppSpy{}, &osSpy{perm: perm}
	n := notify.NewEngine(inApp, osCh)
	n.Clock = clock

	return &harness{backend: b, client: c, model: collection.New(c, id, n), inApp: inApp, os: osCh}
}

func TestModel_ScenarioA_FreshInstallShowsNoData(t *testing.T) {
	keyring.MockInit()
	id, err := identity.NewProvider(identity.NewKeyringStore()).GetOrCreate()
	require.NoError(t, err)
	assert.Regexp(t, `^(GGO|SAO|ALO|SLF|UNIT)-\d{4}$`, id)

	h := newHarness(t, id, notify.PermissionDefault)
	assert.True(t, h.model.Snapshot().WakingUp)
	assert.False(t, h.model.Empty(), "Nothing is known before the first fetch")

	require.NoError(t, h.model.Refresh(context.Background()))

	snap := h.model.Snapshot()
	assert.False(t, snap.WakingUp)
	assert.True(t, snap.Empty())
	assert.Equal(t, id, h.backend.Requests()[0].Identity)
}

func TestModel_ScenarioB_SearchThenAddWithoutDate(t *testing.T) {
	h := newHarness(t, "SAO-1234", notify.PermissionDefault)
	h.backend.SetResults("Asuna", []engine.SearchResult{{ID: 36828, Name: "Asuna Yuuki", Image: "img", About: "Sub-leader", Score: 95}})

	sched := &testutil.ManualScheduler{}
	var mu sync.Mutex
	var results []engine.SearchResult
	coord := search.NewCoordinator(context.Background(), h.client, 0, func(r []engine.SearchResult) {
		mu.Lock()
		defer mu.Unlock()
		results = r
	})
	coord.Scheduler = sched
	defer coord.Close()
	h.model.Search = coord

	h.model.SetQuery("Asuna")
	require.True(t, sched.FireLast())
	require.Eventually(t, func() bool { return coord.State() == search.Settled }, time.Second, time.Millisecond)

	mu.Lock()
	require.Len(t, results, 1)
	picked := results[0]
	mu.Unlock()
	assert.Equal(t, float64(95), picked.Score)

	h.model.OpenAddModal(picked)
	msg, err := h.model.ConfirmAdd(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "Asuna Yuuki")

	var add testutil.Request
	for _, r := range h.backend.Requests() {
		if r.Path == config.RouteAdd {
			add = r
		}
	}
	require.Contains(t, add.Body, "manual_month")
	assert.Nil(t, add.Body["manual_month"])
	assert.Nil(t, add.Body["manual_day"])

	snap := h.model.Snapshot()
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "Asuna Yuuki", snap.Entries[0].Name)
	assert.False(t, snap.UI.AddOpen)
	assert.Empty(t, snap.UI.Query)
	assert.Empty(t, coord.Results(), "The query is cleared after adding")
}

func TestModel_ScenarioC_ManualDateIsNumeric(t *testing.T) {
	h := newHarness(t, "GGO-4821", notify.PermissionDefault)

	h.model.OpenAddModal(engine.SearchResult{ID: 1, Name: "Sinon"})
	h.model.SetManualDate("5", "12")
	_, err := h.model.ConfirmAdd(context.Background())
	require.NoError(t, err)

	body := h.backend.Requests()[0].Body
	assert.Equal(t, float64(5), body["manual_month"])
	assert.Equal(t, float64(12), body["manual_day"])

	entries := h.model.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "in 345 days", entries[0].Status)
}

func TestModel_ScenarioD_TodayFiresBothChannelsOnce(t *testing.T) {
	h := newHarness(t, "ALO-7777", notify.PermissionGranted)
	h.backend.Seed("ALO-7777", "Asuna Yuuki", 6, 1)
	h.backend.Seed("ALO-7777", "Sinon", 6, 3)

	require.NoError(t, h.model.Refresh(context.Background()))
	require.NoError(t, h.model.Refresh(context.Background()))

	require.Len(t, h.inApp.alerts, 1)
	require.Len(t, h.os.alerts, 1)
	assert.Equal(t, notify.KindToday, h.os.alerts[0].Kind)
	assert.Equal(t, "Asuna Yuuki", h.os.alerts[0].Name)
}

func TestModel_DeleteNonexistentKeepsEntries(t *testing.T) {
	h := newHarness(t, "SLF-1000", notify.PermissionDefault)
	h.backend.Seed("SLF-1000", "Kirito", 10, 7)
	require.NoError(t, h.model.Refresh(context.Background()))
	before := h.model.Entries()

	err := h.model.Delete(context.Background(), 999)

	require.ErrorIs(t, err, engine.ErrServer)
	snap := h.model.Snapshot()
	assert.Equal(t, before, snap.Entries)
	assert.Contains(t, snap.Message, "not found")
	assert.Equal(t, 1, h.backend.Count("GET", config.RouteDashboard), "A failed delete must not re-fetch")
}

func TestModel_DeleteRefetches(t *testing.T) {
	h := newHarness(t, "SLF-1000", notify.PermissionDefault)
	id := h.backend.Seed("SLF-1000", "Kirito", 10, 7)
	require.NoError(t, h.model.Refresh(context.Background()))

	require.NoError(t, h.model.Delete(context.Background(), id))

	assert.True(t, h.model.Empty())
	assert.Equal(t, 2, h.backend.Count("GET", config.RouteDashboard))
}

func TestModel_FirstFetchFailureEndsWakingUp(t *testing.T) {
	h := newHarness(t, "UNIT-2222", notify.PermissionDefault)
	h.backend.FailNext(config.RouteDashboard, 1)

	err := h.model.Refresh(context.Background())

	require.ErrorIs(t, err, engine.ErrServer)
	snap := h.model.Snapshot()
	assert.False(t, snap.WakingUp)
	assert.False(t, snap.Refreshing)
	assert.Error(t, snap.LastError)
	assert.False(t, snap.Empty(), "A failed fetch is not an empty collection")
	assert.Equal(t, 1, h.backend.Count("GET", config.RouteDashboard), "No automatic retry")
}

func TestModel_InvalidManualDateKeepsDialogOpen(t *testing.T) {
	h := newHarness(t, "SAO-1234", notify.PermissionDefault)
	h.model.OpenAddModal(engine.SearchResult{ID: 1, Name: "Yuna"})

	for _, tc := range [][2]string{{"abc", "1"}, {"13", "1"}, {"2", "30"}, {"5", ""}} {
		h.model.SetManualDate(tc[0], tc[1])
		_, err := h.model.ConfirmAdd(context.Background())
		assert.True(t, collection.IsValidation(err), "month=%q day=%q", tc[0], tc[1])
	}

	assert.True(t, h.model.Snapshot().UI.AddOpen)
	assert.NotEmpty(t, h.model.Snapshot().Message)
	assert.Empty(t, h.backend.Requests())
}

func TestModel_OpenAddModalDetectsBioDate(t *testing.T) {
	h := newHarness(t, "SAO-1234", notify.PermissionDefault)

	h.model.OpenAddModal(engine.SearchResult{ID: 1, Name: "Asuna", About: "Birthday: September 30"})

	ui := h.model.Snapshot().UI
	assert.Equal(t, 9, ui.DetectedMonth)
	assert.Equal(t, 30, ui.DetectedDay)
	assert.Empty(t, ui.ManualMonth, "Detected dates are hints only")
}

func TestModel_MenuState(t *testing.T) {
	m := collection.New(nil, "", nil)

	m.ToggleMenu()
	assert.True(t, m.Snapshot().UI.MenuOpen)

	m.ShowMenuView(collection.MenuSettings)
	assert.Equal(t, collection.MenuSettings, m.Snapshot().UI.MenuView)

	m.ToggleMenu()
	ui := m.Snapshot().UI
	assert.False(t, ui.MenuOpen)
	assert.Equal(t, collection.MenuMain, ui.MenuView)
}

func TestModel_ListenersSeeEveryChange(t *testing.T) {
	h := newHarness(t, "SAO-1234", notify.PermissionDefault)
	var snaps []collection.Snapshot
	h.model.OnChange(func(s collection.Snapshot) { snaps = append(snaps, s) })

	require.NoError(t, h.model.Refresh(context.Background()))

	require.Len(t, snaps, 2)
	assert.True(t, snaps[0].Refreshing)
	assert.True(t, snaps[0].WakingUp)
	assert.False(t, snaps[1].Refreshing)
	assert.False(t, snaps[1].WakingUp)
}

func TestModel_SetQueryForwards(t *testing.T) {
	q := &queryRecorder{}
	m := collection.New(nil, "", nil)
	m.Search = q

	m.SetQuery("Kir")
	m.SetQuery("")

	assert.Equal(t, []string{"Kir", ""}, q.queries)
}

func TestParseManualDate(t *testing.T) {
	m, d, err := collection.ParseManualDate("", " ")
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Nil(t, d)

	m, d, err = collection.ParseManualDate(" 2", "29")
	require.NoError(t, err)
	assert.Equal(t, 2, *m)
	assert.Equal(t, 29, *d)
}
