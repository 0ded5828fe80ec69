package format

import (
	"strings"
	"time"

	"sportsuid/internal/uid/models"
)

// Validate checks id against the user and event grammars and range-checks
// its date fields. It never panics and reports failure only through the
// result.
func Validate(id string) models.ValidationResult {
	c, err := Parse(id)
	if err != nil {
		return models.ValidationResult{Valid: false, Err: err}
	}
	return models.ValidationResult{Valid: true, Components: &c}
}

// Parse decomposes a canonical user or event identifier. Failures wrap
// models.ErrMalformedIdentifier.
func Parse(id string) (models.Components, error) {
	if strings.HasPrefix(id, eventPrefix) {
		return parseEvent(id)
	}
	return parseUser(id)
}

func parseUser(id string) (models.Components, error) {
	if len(id) != UserLength {
		return models.Components{}, models.Malformed("user identifier must be 14 characters")
	}
	cat := models.Category(id[:1])
	if !cat.IsRole() {
		return models.Components{}, models.Malformed("unknown category")
	}
	seq, ok := digits(id[1:6])
	if !ok {
		return models.Components{}, models.Malformed("sequence must be 5 digits")
	}
	region := id[6:8]
	if !isUpperCode(region) {
		return models.Components{}, models.Malformed("region must be two uppercase letters")
	}
	month, ok := digits(id[8:10])
	if !ok {
		return models.Components{}, models.Malformed("month must be 2 digits")
	}
	year, ok := digits(id[10:14])
	if !ok {
		return models.Components{}, models.Malformed("year must be 4 digits")
	}
	if seq < 1 {
		return models.Components{}, models.Malformed("sequence must be at least 1")
	}
	if err := checkPeriod(month, year); err != nil {
		return models.Components{}, err
	}
	return models.Components{
		Kind:     models.KindUser,
		Category: cat,
		Sequence: seq,
		Region:   region,
		Month:    month,
		Year:     year,
	}, nil
}

func parseEvent(id string) (models.Components, error) {
	if len(id) != EventLength {
		return models.Components{}, models.Malformed("event identifier must be 21 characters")
	}
	if id[8] != '-' || id[11] != '-' || id[14] != '-' {
		return models.Components{}, models.Malformed("event identifier separators misplaced")
	}
	seq, ok := digits(id[4:8])
	if !ok || seq < 1 {
		return models.Components{}, models.Malformed("sequence must be 4 digits and at least 1")
	}
	sport, region := id[9:11], id[12:14]
	if !isUpperCode(sport) || !isUpperCode(region) {
		return models.Components{}, models.Malformed("sport and region must be two uppercase letters")
	}
	day, ok1 := digits(id[15:17])
	month, ok2 := digits(id[17:19])
	yy, ok3 := digits(id[19:21])
	if !ok1 || !ok2 || !ok3 {
		return models.Components{}, models.Malformed("date must be ddmmyy digits")
	}
	year := 2000 + yy
	if err := checkPeriod(month, year); err != nil {
		return models.Components{}, err
	}
	if !validDay(day, month, year) {
		return models.Components{}, models.Malformed("day is not in month")
	}
	return models.Components{
		Kind:     models.KindEvent,
		Category: models.CategoryEvent,
		Sequence: seq,
		Sport:    sport,
		Region:   region,
		Day:      day,
		Month:    month,
		Year:     year,
	}, nil
}

// digits parses an all-ASCII-digit string. strconv.Atoi would accept signs.
func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, true
}

func validDay(day, month, year int) bool {
	if day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day && int(t.Month()) == month
}
