package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/go-waifu-birthday/internal/config"
)

// SearchResult is one candidate returned by the character lookup.
// It only lives for the duration of one search response.
type SearchResult struct {
	ID        int     `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Image     string  `json:"image" yaml:"image"`
	About     string  `json:"about" yaml:"about"`
	Nicknames string  `json:"nicknames,omitempty" yaml:"nicknames,omitempty"`
	Score     float64 `json:"score" yaml:"score"`
}

// UnmarshalJSON accepts both "id" and the lookup backend's "mal_id".
func (r *SearchResult) UnmarshalJSON(data []byte) error {
	type plain SearchResult
	aux := struct {
		*plain
		MalID *int `json:"mal_id"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.MalID != nil && r.ID == 0 {
		r.ID = *aux.MalID
	}
	return nil
}

// CollectionEntry is a persisted member of the user's collection.
// DaysUntil and Status are computed by the backend on every fetch.
type CollectionEntry struct {
	ID        int    `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Image     string `json:"image" yaml:"image"`
	About     string `json:"about,omitempty" yaml:"about,omitempty"`
	Month     *int   `json:"month,omitempty" yaml:"month,omitempty"`
	Day       *int   `json:"day,omitempty" yaml:"day,omitempty"`
	DaysUntil int    `json:"days_until" yaml:"days_until"`
	Status    string `json:"status" yaml:"status"`
}

// DateKnown reports whether the backend resolved a birthday for the entry.
func (e CollectionEntry) DateKnown() bool {
	return e.DaysUntil >= 0 && e.DaysUntil != config.UnknownDays
}

// NextOccurrence projects DaysUntil onto the calendar relative to now.
func (e CollectionEntry) NextOccurrence(now time.Time) (time.Time, bool) {
	if !e.DateKnown() {
		return time.Time{}, false
	}
	return StartOfDay(now).AddDate(0, 0, e.DaysUntil), true
}

// NewEntry is the payload of an add mutation.
// Nil manual fields are sent as JSON null.
type NewEntry struct {
	Name        string `json:"name"`
	Image       string `json:"image"`
	About       string `json:"about"`
	ManualMonth *int   `json:"manual_month"`
	ManualDay   *int   `json:"manual_day"`
}

// FromResult builds an add payload from a search candidate.
func FromResult(r SearchResult) NewEntry {
	return NewEntry{Name: r.Name, Image: r.Image, About: r.About}
}

// Validate checks the payload before it leaves the client.
func (n NewEntry) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: %s", ErrValidation, config.ErrNameRequired)
	}
	if (n.ManualMonth == nil) != (n.ManualDay == nil) {
		return fmt.Errorf("%w: %s", ErrValidation, config.ErrDatePartial)
	}
	if n.ManualMonth != nil {
		return ValidateMonthDay(*n.ManualMonth, *n.ManualDay)
	}
	return nil
}

// ValidateMonthDay rejects pairs that never occur on a calendar (Feb 29 is allowed).
func ValidateMonthDay(month, day int) error {
	if month < config.MinMonth || month > config.MaxMonth {
		return fmt.Errorf("%w: %s", ErrValidation, config.ErrMonthRange)
	}
	if day < config.MinDay || day > config.MaxDay {
		return fmt.Errorf("%w: %s", ErrValidation, config.ErrDayRange)
	}
	d := time.Date(config.DefaultLeapYear, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day {
		return fmt.Errorf("%w: %s", ErrValidation, config.ErrDateInvalid)
	}
	return nil
}

// AddResponse is the confirmation returned by the add route.
type AddResponse struct {
	Message string `json:"message"`
}

// errorBody mirrors the backend's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}
