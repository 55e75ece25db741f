// Package month normalizes human-entered month text into canonical YYYY-MM keys.
//
// Accepted inputs, tried in this order:
//
//	Jan 2024       abbreviated month name and year
//	January 2024   full month name and year
//	2024-01        year, dash, month (one or two digits)
//	2024/01        year, slash, month (one or two digits)
//
// Month names are matched case-insensitively. Anything else is rejected rather
// than guessed.
package month

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical key layout.
const Layout = "2006-01"

// layouts lists the accepted input layouts in priority order.
var layouts = []string{
	"Jan 2006",
	"January 2006",
	"2006-1",
	"2006/1",
}

// Key is a canonical month key such as "2024-03".
type Key string

// FormatError is returned when text matches none of the accepted layouts.
type FormatError struct {
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unrecognised month format: %q", e.Text)
}

// Parse normalizes text into a Key.
func Parse(text string) (Key, error) {
	trimmed := strings.TrimSpace(text)
	for _, layout := range layouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return FromTime(t), nil
		}
	}
	return "", &FormatError{Text: text}
}

// MustParse is like Parse but panics on error. Use only in tests.
func MustParse(text string) Key {
	k, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return k
}

// FromTime returns the key of the month containing t.
func FromTime(t time.Time) Key {
	return Key(t.Format(Layout))
}

// Valid reports whether k is in canonical form.
func (k Key) Valid() bool {
	t, err := time.Parse(Layout, string(k))
	return err == nil && FromTime(t) == k
}

// Time returns midnight UTC on the first day of the month.
// The zero time is returned for a malformed key.
func (k Key) Time() time.Time {
	t, err := time.Parse(Layout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Next returns the following month.
func (k Key) Next() Key {
	return FromTime(k.Time().AddDate(0, 1, 0))
}

// Prev returns the preceding month.
func (k Key) Prev() Key {
	return FromTime(k.Time().AddDate(0, -1, 0))
}

func (k Key) String() string {
	return string(k)
}
