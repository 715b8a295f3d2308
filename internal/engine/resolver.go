package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tartampluch/go-waifu-birthday/internal/config"
)

// Resolver is the date-status contract the backend fulfils for every entry on
// fetch. Given a month/day (0 when unknown) it yields days until the next
// occurrence (0 = today, wrapping annually) and a display status.
// Manual month/day always win over dates inferred from the source record.
type Resolver interface {
	Resolve(month, day int) (daysUntil int, status string)
}

// CalendarResolver is the reference Resolver at local-day granularity.
type CalendarResolver struct {
	Clock Clock
}

// Resolve implements Resolver.
func (r CalendarResolver) Resolve(month, day int) (int, string) {
	if month == 0 || day == 0 {
		return config.UnknownDays, config.StatusUnknownDate
	}
	days := DaysUntil(r.Clock.Now(), month, day)
	return days, StatusLabel(days)
}

// DaysUntil counts whole local days from now to the next month/day.
// Feb 29 falls on Mar 1 in non-leap years.
func DaysUntil(now time.Time, month, day int) int {
	today := StartOfDay(now)
	loc := today.Location()

	candidate := time.Date(today.Year(), time.Month(month), day, 0, 0, 0, 0, loc)
	if candidate.Before(today) {
		candidate = time.Date(today.Year()+1, time.Month(month), day, 0, 0, 0, 0, loc)
	}

	// Count calendar days rather than dividing durations, which drift across DST.
	y1, m1, d1 := today.Date()
	y2, m2, d2 := candidate.Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// StatusLabel renders the backend's status string for a days_until value.
func StatusLabel(days int) string {
	switch days {
	case config.UnknownDays:
		return config.StatusUnknownDate
	case 0:
		return config.StatusToday
	default:
		return fmt.Sprintf(config.FormatStatusDays, days)
	}
}

var monthIndex = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	bdayMonthFirst = regexp.MustCompile(`birth(?:day|date):?\s*([a-z]{3})[a-z]*\s+(\d{1,2})`)
	bdayDayFirst   = regexp.MustCompile(`birth(?:day|date):?\s*(\d{1,2})\s+([a-z]{3})`)
)

// ExtractBirthday finds "Birthday: August 21" or "Birthday: 21 August" in a bio.
func ExtractBirthday(about string) (month, day int, ok bool) {
	text := strings.ToLower(about)

	if m := bdayMonthFirst.FindStringSubmatch(text); m != nil {
		month, day = monthIndex[m[1]], atoi(m[2])
	} else if m := bdayDayFirst.FindStringSubmatch(text); m != nil {
		day, month = atoi(m[1]), monthIndex[m[2]]
	} else {
		return 0, 0, false
	}

	if ValidateMonthDay(month, day) != nil {
		return 0, 0, false
	}
	return month, day, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
