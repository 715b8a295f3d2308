package engine_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-vcard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
	"github.com/tartampluch/go-waifu-birthday/internal/engine"
	"github.com/tartampluch/go-waifu-birthday/internal/testutil"
)

var exportNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func sampleEntries() []engine.CollectionEntry {
	return []engine.CollectionEntry{
		{ID: 1, Name: "Asuna Yuuki", Image: "https://img/asuna.jpg", DaysUntil: 0, Status: config.StatusToday},
		{ID: 2, Name: "Sinon", DaysUntil: 10, Status: "in 10 days"},
		{ID: 3, Name: "Mystery", DaysUntil: config.UnknownDays, Status: config.StatusUnknownDate},
	}
}

func TestExporter_Calendar(t *testing.T) {
	x := &engine.Exporter{Clock: testutil.FixedClock{T: exportNow}}

	data, err := x.Calendar(sampleEntries())
	require.NoError(t, err)

	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2, "Entries with unknown dates have no event")

	starts := map[string]time.Time{}
	for _, e := range events {
		summary, err := e.Props.Text(config.PropSummary)
		require.NoError(t, err)
		start, err := e.DateTimeStart(time.UTC)
		require.NoError(t, err)
		starts[summary] = start
		assert.Len(t, e.Children, 1, "Each event carries one alarm")
	}

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), starts["Birthday: Asuna Yuuki"])
	assert.Equal(t, time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC), starts["Birthday: Sinon"])
}

func TestExporter_Calendar_Empty(t *testing.T) {
	x := &engine.Exporter{Clock: testutil.FixedClock{T: exportNow}}

	data, err := x.Calendar(nil)

	require.NoError(t, err)
	assert.Equal(t, config.StubVCalendar, string(data))
}

func TestExporter_Calendar_LocalizedSummary(t *testing.T) {
	x := &engine.Exporter{
		Clock:         testutil.FixedClock{T: exportNow},
		FormatSummary: func(name string) string { return "Anniversaire : " + name },
	}

	data, err := x.Calendar(sampleEntries()[:1])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Anniversaire : Asuna Yuuki")
}

func TestExporter_VCards(t *testing.T) {
	x := &engine.Exporter{Clock: testutil.FixedClock{T: exportNow}}

	data, err := x.VCards(sampleEntries())
	require.NoError(t, err)

	dec := vcard.NewDecoder(bytes.NewReader(data))
	var cards []vcard.Card
	for {
		card, err := dec.Decode()
		if err != nil {
			break
		}
		cards = append(cards, card)
	}
	require.Len(t, cards, 3)

	assert.Equal(t, "Asuna Yuuki", cards[0].PreferredValue(vcard.FieldFormattedName))
	assert.Equal(t, "--0601", cards[0].PreferredValue(vcard.FieldBirthday))
	assert.Equal(t, "--0611", cards[1].PreferredValue(vcard.FieldBirthday))
	assert.Empty(t, cards[2].PreferredValue(vcard.FieldBirthday), "Unknown dates have no BDAY")
}

func eventsBySummary(t *testing.T, data []byte) (map[string]string, map[string]time.Time) {
	t.Helper()
	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	require.NoError(t, err)

	rules := map[string]string{}
	starts := map[string]time.Time{}
	for _, e := range cal.Events() {
		summary, err := e.Props.Text(config.PropSummary)
		require.NoError(t, err)
		rules[summary] = e.Props.Get(config.PropRRule).Value
		start, err := e.DateTimeStart(time.UTC)
		require.NoError(t, err)
		starts[summary] = start
	}
	return rules, starts
}

func TestExporter_Calendar_LeapDay(t *testing.T) {
	// 2026 is not a leap year: a Feb 29 birthday and a Mar 1 birthday share
	// the same projection, only the stored month/day tells them apart.
	x := &engine.Exporter{Clock: testutil.FixedClock{T: exportNow}}
	entries := []engine.CollectionEntry{
		{ID: 4, Name: "Leap", Month: ptr(2), Day: ptr(29), DaysUntil: 273},
		{ID: 5, Name: "March", Month: ptr(3), Day: ptr(1), DaysUntil: 273},
	}

	data, err := x.Calendar(entries)
	require.NoError(t, err)
	rules, starts := eventsBySummary(t, data)

	assert.Equal(t, config.ICalRRuleLeapDay, rules["Birthday: Leap"])
	assert.Equal(t, config.ICalRRule, rules["Birthday: March"])
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), starts["Birthday: Leap"])

	cards, err := x.VCards(entries)
	require.NoError(t, err)
	assert.Contains(t, string(cards), "BDAY:--0229")
	assert.Contains(t, string(cards), "BDAY:--0301")
}

func TestExporter_Calendar_LeapDayProjected(t *testing.T) {
	x := &engine.Exporter{Clock: testutil.FixedClock{T: time.Date(2027, 6, 1, 10, 0, 0, 0, time.UTC)}}

	data, err := x.Calendar([]engine.CollectionEntry{{ID: 4, Name: "Leap", DaysUntil: 273}})
	require.NoError(t, err)
	rules, starts := eventsBySummary(t, data)

	assert.Equal(t, time.Date(2028, 2, 29, 0, 0, 0, 0, time.UTC), starts["Birthday: Leap"])
	assert.Equal(t, config.ICalRRuleLeapDay, rules["Birthday: Leap"])
}

func TestToday(t *testing.T) {
	today := engine.Today(sampleEntries())
	require.Len(t, today, 1)
	assert.Equal(t, 1, today[0].ID)
}
