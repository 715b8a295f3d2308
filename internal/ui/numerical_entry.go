package ui

import (
	"errors"
	"strconv"
	"strings"

	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"
)

// NumericalEntry is an Entry that only accepts digits from the keyboard.
type NumericalEntry struct {
	widget.Entry
}

// NewNumericalEntry creates a new instance of NumericalEntry.
func NewNumericalEntry() *NumericalEntry {
	entry := &NumericalEntry{}
	entry.ExtendBaseWidget(entry)
	return entry
}

// NewBoundedEntry returns a NumericalEntry whose validator accepts an empty
// value or an integer within [lo, hi]. msg is the error shown otherwise.
func NewBoundedEntry(lo, hi int, msg string) *NumericalEntry {
	entry := NewNumericalEntry()
	entry.Validator = boundedValidator(lo, hi, msg)
	return entry
}

func boundedValidator(lo, hi int, msg string) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < lo || n > hi {
			return errors.New(msg)
		}
		return nil
	}
}

// TypedRune filters keystrokes to digits. Pasted text bypasses this filter
// and is caught by the Validator.
func (e *NumericalEntry) TypedRune(r rune) {
	if r >= '0' && r <= '9' {
		e.Entry.TypedRune(r)
	}
}

// Keyboard requests a numeric keypad on mobile devices.
func (e *NumericalEntry) Keyboard() mobile.KeyboardType {
	return mobile.NumberKeyboard
}
