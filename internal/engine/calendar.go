package engine

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-vcard"
	"github.com/tartampluch/go-waifu-birthday/internal/config"
)

// Exporter renders a fetched collection into interoperable formats.
// Dates are projected from days_until, so only the backend's resolution is trusted.
type Exporter struct {
	Clock Clock

	// FormatSummary allows the UI to inject localized strings into the event title.
	FormatSummary func(name string) string
}

// Calendar renders the collection as an iCalendar feed with one yearly event per
// entry whose date is known, each carrying a DISPLAY alarm the day before.
func (x *Exporter) Calendar(entries []CollectionEntry) ([]byte, error) {
	now := x.Clock.Now()

	cal := ical.NewCalendar()
	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	dtStamp := ical.NewProp(config.PropDTStamp)
	dtStamp.SetDateTime(now.UTC())

	for _, e := range entries {
		next, ok := e.NextOccurrence(now)
		if !ok {
			continue
		}

		summary := fmt.Sprintf(config.FallbackSummary, e.Name)
		if x.FormatSummary != nil {
			summary = x.FormatSummary(e.Name)
		}

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, fmt.Sprintf(config.FormatUID, e.ID, config.ICalDomain))
		event.Props.SetText(config.PropSummary, summary)
		event.Props.Set(dtStamp)

		start := ical.NewProp(config.PropDTStart)
		start.SetDate(next)
		event.Props.Set(start)

		rrule := ical.NewProp(config.PropRRule)
		rrule.Value = config.ICalRRule
		if isLeapDay(e, next) {
			rrule.Value = config.ICalRRuleLeapDay
		}
		event.Props.Set(rrule)

		addAlarm(event, config.ICalTrigger, summary)
		cal.Children = append(cal.Children, event.Component)
	}

	if len(cal.Children) == 0 {
		// A valid empty VCALENDAR keeps subscribed clients from flagging the feed.
		return []byte(config.StubVCalendar), nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// isLeapDay reports whether the entry is born on Feb 29. Without a stored
// month/day only a projection landing on Feb 29 proves it; in other years
// such an entry projects to Mar 1 like any Mar 1 birthday.
func isLeapDay(e CollectionEntry, next time.Time) bool {
	if e.Month != nil && e.Day != nil {
		return *e.Month == int(time.February) && *e.Day == config.LeapDay
	}
	return next.Month() == time.February && next.Day() == config.LeapDay
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set trigger manually to avoid "VALUE=TEXT" param
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

// VCards renders every entry as a vCard 4.0. BDAY uses the truncated --MMDD
// form because the collection never tracks birth years.
func (x *Exporter) VCards(entries []CollectionEntry) ([]byte, error) {
	now := x.Clock.Now()

	var buf bytes.Buffer
	enc := vcard.NewEncoder(&buf)
	for _, e := range entries {
		card := make(vcard.Card)
		card.SetValue(vcard.FieldVersion, config.VCardVersion)
		card.SetValue(vcard.FieldUID, fmt.Sprintf(config.FormatUID, e.ID, config.ICalDomain))
		card.SetValue(vcard.FieldFormattedName, e.Name)
		if e.Image != "" {
			card.SetValue(vcard.FieldPhoto, e.Image)
		}
		if e.About != "" {
			card.SetValue(vcard.FieldNote, e.About)
		}
		if next, ok := e.NextOccurrence(now); ok {
			month, day := int(next.Month()), next.Day()
			if isLeapDay(e, next) {
				month, day = int(time.February), config.LeapDay
			}
			card.SetValue(vcard.FieldBirthday, fmt.Sprintf(config.FormatVBday, month, day))
		}

		if err := enc.Encode(card); err != nil {
			return nil, fmt.Errorf("%s: %w", config.ErrVCardEncode, err)
		}
	}

	slog.Debug(config.MsgVCardRendered,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyCount, len(entries),
		config.LogKeySizeBytes, buf.Len())
	return buf.Bytes(), nil
}

// Today filters the entries the backend resolved to days_until 0.
func Today(entries []CollectionEntry) []CollectionEntry {
	var out []CollectionEntry
	for _, e := range entries {
		if e.DaysUntil == 0 {
			out = append(out, e)
		}
	}
	return out
}
