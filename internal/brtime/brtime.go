// Package brtime converts between UTC instants and Brasília civil time.
//
// Brasília time is modelled as a fixed UTC-3 offset. The region stopped observing
// daylight saving in 2019, so no DST transitions are applied in either direction.
package brtime

import (
	"fmt"
	"strings"
	"time"
)

// Offset is the fixed distance between Brasília civil time and UTC.
const Offset = -3 * time.Hour

// InvalidDate is rendered in place of values that cannot be parsed.
const InvalidDate = "Data inválida"

// Location is the fixed-offset zone used for display.
var Location = time.FixedZone("BRT", int(Offset/time.Second))

const (
	civilLayout   = "2006-01-02T15:04:05"
	dateLayout    = "2006-01-02"
	displayDate   = "02/01/2006"
	displayMinute = "02/01/2006 15:04"
)

// Civil holds the wall-clock components of an instant in Brasília time.
type Civil struct {
	Year    int
	Month   time.Month
	Day     int
	Hour    int
	Minute  int
	Second  int
	Weekday time.Weekday
}

// Clock supplies "now". A nil Clock means the system clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// UTCToCivil returns the Brasília wall-clock components of t.
func UTCToCivil(t time.Time) Civil {
	shifted := t.UTC().Add(Offset)
	return Civil{
		Year:    shifted.Year(),
		Month:   shifted.Month(),
		Day:     shifted.Day(),
		Hour:    shifted.Hour(),
		Minute:  shifted.Minute(),
		Second:  shifted.Second(),
		Weekday: shifted.Weekday(),
	}
}

// UTC returns the instant the civil time refers to.
func (c Civil) UTC() time.Time {
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, 0, time.UTC).Add(-Offset)
}

// String renders the civil time as YYYY-MM-DDTHH:MM:SS without an offset suffix.
func (c Civil) String() string {
	return c.naive().Format(civilLayout)
}

// Date renders the civil calendar date as YYYY-MM-DD.
func (c Civil) Date() string {
	return c.naive().Format(dateLayout)
}

func (c Civil) naive() time.Time {
	return time.Date(c.Year, c.Month, c.Day, c.Hour, c.Minute, c.Second, 0, time.UTC)
}

// ParseCivil parses "YYYY-MM-DD[THH:MM[:SS]]" (a space may replace the T) as a
// Brasília wall-clock value.
func ParseCivil(value string) (Civil, error) {
	naive, err := parseNaive(value)
	if err != nil {
		return Civil{}, err
	}
	return Civil{
		Year:    naive.Year(),
		Month:   naive.Month(),
		Day:     naive.Day(),
		Hour:    naive.Hour(),
		Minute:  naive.Minute(),
		Second:  naive.Second(),
		Weekday: naive.Weekday(),
	}, nil
}

// CivilToUTC converts a Brasília wall-clock string to the UTC instant it denotes.
func CivilToUTC(value string) (time.Time, error) {
	civil, err := ParseCivil(value)
	if err != nil {
		return time.Time{}, err
	}
	return civil.UTC(), nil
}

// CurrentCivil returns the current Brasília civil time.
func CurrentCivil(clock Clock) Civil {
	if clock == nil {
		clock = SystemClock{}
	}
	return UTCToCivil(clock.Now())
}

// CurrentCivilDate returns today's Brasília date as YYYY-MM-DD.
func CurrentCivilDate(clock Clock) string {
	return CurrentCivil(clock).Date()
}

// CurrentCivilHour returns the current Brasília hour (0-23).
func CurrentCivilHour(clock Clock) int {
	return CurrentCivil(clock).Hour
}

// CurrentCivilWeekday returns the current Brasília weekday (Sunday = 0).
func CurrentCivilWeekday(clock Clock) time.Weekday {
	return CurrentCivil(clock).Weekday
}

// APIWeekdayFromCivilWeekday remaps Sunday=0..Saturday=6 to the pricing API's
// Monday=0..Sunday=6 convention.
func APIWeekdayFromCivilWeekday(w time.Weekday) int {
	if w == time.Sunday {
		return 6
	}
	return int(w) - 1
}

// UTCDateToCivilDate returns the Brasília date of midnight UTC on the given day.
func UTCDateToCivilDate(date string) (string, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return UTCToCivil(day).Date(), nil
}

// CivilDateToUTCDate returns the UTC date of midnight Brasília time on the given day.
func CivilDateToUTCDate(date string) (string, error) {
	civil, err := ParseCivil(date)
	if err != nil {
		return "", err
	}
	return civil.UTC().Format(dateLayout), nil
}

// DayBoundsUTC returns the half-open UTC range [start, end) covering the given
// Brasília calendar day.
func DayBoundsUTC(date string) (time.Time, time.Time, error) {
	day, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	start := day.Add(-Offset)
	return start, start.AddDate(0, 0, 1), nil
}

// ParseInstant parses an API timestamp. Values without an offset are UTC.
func ParseInstant(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), nil
		}
	}
	naive, err := parseNaive(trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return naive, nil
}

// FormatForDisplay renders an API timestamp in Brasília time using pt-BR
// conventions. Date-only values are calendar dates and are rendered unshifted.
// Unparsable input yields InvalidDate.
func FormatForDisplay(value string, includeTime bool) string {
	trimmed := strings.TrimSpace(value)
	// Not read as UTC midnight: shifting that to UTC-3 would show the day before.
	if day, err := time.Parse(dateLayout, trimmed); err == nil {
		return day.Format(displayDate)
	}
	t, err := ParseInstant(trimmed)
	if err != nil {
		return InvalidDate
	}
	return FormatTime(t, includeTime)
}

// FormatTime renders t in Brasília time. The zero time yields InvalidDate.
func FormatTime(t time.Time, includeTime bool) string {
	if t.IsZero() {
		return InvalidDate
	}
	local := t.In(Location)
	if includeTime {
		return local.Format(displayMinute)
	}
	return local.Format(displayDate)
}

func parseNaive(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		dateLayout,
	} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse civil time %q: unsupported format", value)
}
