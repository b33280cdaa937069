// Package week normalizes timestamps to Monday-start calendar weeks and does
// week-distance arithmetic on calendar days rather than elapsed durations.
package week

import (
	"errors"
	"fmt"
	"time"
)

// KeyLayout is the date layout of a week key (the Monday of the week).
const KeyLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Range is a displayable Monday to Sunday window.
type Range struct {
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	FromLabel string    `json:"from_label"`
	ToLabel   string    `json:"to_label"`
}

// Validate rejects times that cannot identify a calendar week.
func Validate(t time.Time) error {
	if t.IsZero() || t.Year() < 1 {
		return fmt.Errorf("%w: %v", ErrInvalidDate, t)
	}
	return nil
}

// StartOfMonday returns 00:00 on the Monday of the week containing t, in t's location.
// Sunday belongs to the week that started six days earlier.
func StartOfMonday(t time.Time) time.Time {
	wd := int(t.Weekday())
	offset := wd - 1
	if wd == 0 {
		offset = 6
	}
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

// EndOfSunday returns 23:59:59.999 on the Sunday closing the week containing t.
func EndOfSunday(t time.Time) time.Time {
	m := StartOfMonday(t)
	return time.Date(m.Year(), m.Month(), m.Day()+6, 23, 59, 59, int(999*time.Millisecond), m.Location())
}

// Between returns the signed number of whole weeks from a's week to b's week.
// Both are reduced to their Monday's year/month/day before subtracting, so DST
// transitions between them do not matter.
func Between(a, b time.Time) int {
	days := epochDay(StartOfMonday(b)) - epochDay(StartOfMonday(a))
	return floorDiv(days, 7)
}

// FormatRange labels the week starting at monday, e.g. "Jan 5" to "Jan 11".
func FormatRange(monday time.Time) Range {
	from := StartOfMonday(monday)
	to := EndOfSunday(from)
	return Range{
		From:      from,
		To:        to,
		FromLabel: from.Format("Jan 2"),
		ToLabel:   to.Format("Jan 2"),
	}
}

// Month returns every Monday whose week overlaps the given month, in order.
func Month(year int, month time.Month, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}
	first := StartOfMonday(time.Date(year, month, 1, 0, 0, 0, 0, loc))
	last := StartOfMonday(time.Date(year, month+1, 0, 0, 0, 0, 0, loc))

	var mondays []time.Time
	for m := first; !m.After(last); m = m.AddDate(0, 0, 7) {
		mondays = append(mondays, m)
	}
	return mondays
}

// Key renders the week key of t.
func Key(t time.Time) string {
	return StartOfMonday(t).Format(KeyLayout)
}

// ParseKey parses a YYYY-MM-DD date in loc and returns the Monday of its week.
func ParseKey(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(KeyLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return StartOfMonday(t), nil
}

func epochDay(t time.Time) int {
	u := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(u.Unix() / 86400)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
