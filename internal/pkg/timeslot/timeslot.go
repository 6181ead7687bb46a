// Package timeslot owns the bookable slot enumeration and the canonical
// "h:mm AM/PM" label format used to store and compare booking times.
package timeslot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"

	firstSlotMinutes = 10 * 60
	lastSlotMinutes  = 18*60 + 30
	stepMinutes      = 30
)

var (
	ErrMalformedTime = errors.New("malformed time")
	ErrNotOffered    = errors.New("time is not a bookable slot")
	ErrMalformedDate = errors.New("malformed date")

	timePattern = regexp.MustCompile(`^(\d{1,2})\s*:\s*(\d{2})\s*(?:([AaPp])\.?\s*[Mm]\.?)?$`)

	slots   = buildSlots()
	offered = func() map[string]int {
		m := make(map[string]int, len(slots))
		for i, s := range slots {
			m[s] = i
		}
		return m
	}()
)

func buildSlots() []string {
	out := make([]string, 0, (lastSlotMinutes-firstSlotMinutes)/stepMinutes+1)
	for m := firstSlotMinutes; m <= lastSlotMinutes; m += stepMinutes {
		out = append(out, Label(m/60, m%60))
	}
	return out
}

// Slots returns the bookable labels in day order.
func Slots() []string {
	out := make([]string, len(slots))
	copy(out, slots)
	return out
}

// Label formats a 24h clock time as a canonical label.
func Label(hour, minute int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, minute, period)
}

// Canonicalize parses "H:MM" followed by an optional AM/PM marker and
// returns the canonical label. Without a marker the input is read as a
// 24-hour clock.
func Canonicalize(raw string) (string, error) {
	hour, minute, err := parse(raw)
	if err != nil {
		return "", err
	}
	return Label(hour, minute), nil
}

// CanonicalSlot canonicalizes raw and requires the result to be offered.
func CanonicalSlot(raw string) (string, error) {
	label, err := Canonicalize(raw)
	if err != nil {
		return "", err
	}
	if !IsOffered(label) {
		return "", fmt.Errorf("%w: %s", ErrNotOffered, label)
	}
	return label, nil
}

func IsOffered(label string) bool {
	_, ok := offered[label]
	return ok
}

// Index is the position of label in Slots, or -1.
func Index(label string) int {
	if i, ok := offered[label]; ok {
		return i
	}
	return -1
}

func parse(raw string) (hour, minute int, err error) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
	}

	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
	}

	switch strings.ToUpper(m[3]) {
	case "":
		if hour > 23 {
			return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
		}
	case "A":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
		}
		hour %= 12
	case "P":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("%w: %q", ErrMalformedTime, raw)
		}
		hour = hour%12 + 12
	}
	return hour, minute, nil
}

// NormalizeDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date in loc as YYYY-MM-DD.
func NormalizeDate(raw string, loc *time.Location) (string, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.UTC
	}

	if d, err := time.ParseInLocation(DateLayout, raw, loc); err == nil {
		return d.Format(DateLayout), nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.In(loc).Format(DateLayout), nil
	}
	return "", fmt.Errorf("%w: %q", ErrMalformedDate, raw)
}

// ScheduledAt combines a stored date and label into a moment in loc.
func ScheduledAt(date, label string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, date)
	}
	hour, minute, err := parse(label)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}
