// Package format converts between identifier components and their canonical
// strings. Everything here is pure: no storage, no clock, no shared state.
//
// User identifiers are 14 characters:
//
//	a 00001 MH 03 2025
//	│ │     │  │  └ year
//	│ │     │  └ month
//	│ │     └ region code
//	│ └ sequence
//	└ category
//
// Event identifiers are 21 characters: EVT-0001-CR-MH-150325 (sequence, sport,
// region, ddmmyy).
package format

import (
	"fmt"
	"time"

	"sportsuid/internal/uid/models"
)

const (
	UserLength  = 14
	EventLength = 21

	eventPrefix = "EVT-"

	minYear = 2020
	maxYear = 2100
)

// FormatUser renders user identifier components.
func FormatUser(c models.Components) (string, error) {
	if !c.Category.IsRole() {
		return "", models.Malformed("category is not a user role")
	}
	if err := checkSequence(c.Sequence, models.UserCapacity); err != nil {
		return "", err
	}
	if !isUpperCode(c.Region) {
		return "", models.Malformed("region must be two uppercase letters")
	}
	if err := checkPeriod(c.Month, c.Year); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d%s%02d%04d", c.Category, c.Sequence, c.Region, c.Month, c.Year), nil
}

// FormatEvent renders event identifier components. Day, Month, and Year are
// the event date.
func FormatEvent(c models.Components) (string, error) {
	if err := checkSequence(c.Sequence, models.EventCapacity); err != nil {
		return "", err
	}
	if !isUpperCode(c.Sport) {
		return "", models.Malformed("sport must be two uppercase letters")
	}
	if !isUpperCode(c.Region) {
		return "", models.Malformed("region must be two uppercase letters")
	}
	if err := checkPeriod(c.Month, c.Year); err != nil {
		return "", err
	}
	if c.Year > 2099 {
		return "", models.Malformed("event year does not fit two digits")
	}
	if !validDay(c.Day, c.Month, c.Year) {
		return "", models.Malformed("day is not in month")
	}
	return fmt.Sprintf("%s%04d-%s-%s-%02d%02d%02d",
		eventPrefix, c.Sequence, c.Sport, c.Region, c.Day, c.Month, c.Year%100), nil
}

// Format renders c with the grammar of its kind.
func Format(c models.Components) (string, error) {
	switch c.Kind {
	case models.KindUser:
		return FormatUser(c)
	case models.KindEvent:
		return FormatEvent(c)
	default:
		return "", models.Malformed(fmt.Sprintf("kind %q has no sequence grammar", c.Kind))
	}
}

func checkSequence(seq, capacity int) error {
	if seq < 1 || seq > capacity {
		return models.Malformed(fmt.Sprintf("sequence must be in [1, %d]", capacity))
	}
	return nil
}

// CheckDate reports whether an identifier of kind can carry date t. Callers
// check before allocating so an out-of-range date never consumes a sequence.
func CheckDate(kind models.Kind, t time.Time) error {
	if err := checkPeriod(int(t.Month()), t.Year()); err != nil {
		return err
	}
	if kind == models.KindEvent && t.Year() > 2099 {
		return models.Malformed("event year does not fit two digits")
	}
	return nil
}

func checkPeriod(month, year int) error {
	if month < 1 || month > 12 {
		return models.Malformed("month out of range")
	}
	if year < minYear || year > maxYear {
		return models.Malformed("year out of range")
	}
	return nil
}

func isUpperCode(s string) bool {
	return len(s) == 2 && isUpper(s[0]) && isUpper(s[1])
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
