// Package dates canonicalizes calendar days and wall-clock values.
//
// A Key identifies a calendar day in local time. No timezone is stored with a
// Key: "today" is derived from the caller's clock at the moment of use, so a
// change of process clock or locale shifts which day is current.
package dates

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical YYYY-MM-DD layout of a Key.
const Layout = "2006-01-02"

// maxClockLen caps sanitized clock input at "HH:MM".
const maxClockLen = 5

var (
	ErrMalformedKey   = errors.New("malformed date key")
	ErrMalformedClock = errors.New("malformed clock value")
)

// Key is a canonical YYYY-MM-DD calendar day.
type Key string

// KeyOf returns the calendar day of t in t's own location.
func KeyOf(t time.Time) Key {
	return Key(t.Format(Layout))
}

// Today returns the current calendar day according to now.
func Today(now func() time.Time) Key {
	if now == nil {
		now = time.Now
	}
	return KeyOf(now())
}

// ParseKey validates s and returns it as a Key.
func ParseKey(s string) (Key, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	return KeyOf(t), nil
}

// Valid reports whether k is a well-formed calendar day.
func (k Key) Valid() bool {
	_, err := time.Parse(Layout, string(k))
	return err == nil
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return string(k)
}

// Time returns local midnight of k. The zero time is returned for an
// invalid key.
func (k Key) Time() time.Time {
	t, err := time.ParseInLocation(Layout, string(k), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the day n days after k (n may be negative).
func (k Key) AddDays(n int) Key {
	t, err := time.Parse(Layout, string(k))
	if err != nil {
		return k
	}
	return KeyOf(t.AddDate(0, 0, n))
}

// Before reports whether k is an earlier day than other.
func (k Key) Before(other Key) bool {
	return k < other
}

// After reports whether k is a later day than other.
func (k Key) After(other Key) bool {
	return k > other
}

// DaysBetween returns the signed number of whole days from a to b.
// Both keys are anchored at UTC midnight so daylight-saving transitions
// never produce a fractional day. Invalid keys yield 0.
func DaysBetween(a, b Key) int {
	ta, errA := time.Parse(Layout, string(a))
	tb, errB := time.Parse(Layout, string(b))
	if errA != nil || errB != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// Latest returns the later of the non-empty keys.
func Latest(keys ...Key) Key {
	var out Key
	for _, k := range keys {
		if k != "" && k > out {
			out = k
		}
	}
	return out
}

// SanitizeClock keeps only digits and ':' and caps the result at five
// characters. It is applied on every keystroke so a partial edit such as
// "2" or "23:" survives.
func SanitizeClock(s string) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= maxClockLen {
			break
		}
		if r == ':' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ParseClock converts an H:MM or HH:MM value to minutes since midnight.
func ParseClock(hhmm string) (int, error) {
	s := SanitizeClock(hhmm)
	h, m, ok := strings.Cut(s, ":")
	if !ok || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, hhmm)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, hhmm)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, hhmm)
	}
	return hours*60 + minutes, nil
}

// ValidClock reports whether s parses as a clock value.
func ValidClock(s string) bool {
	_, err := ParseClock(s)
	return err == nil
}

// DurationBetweenClocks returns the hours from start to end rounded to one
// decimal. When end is not after start the interval is taken to cross
// midnight, so the result is never negative.
func DurationBetweenClocks(start, end string) (float64, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		e += 24 * 60
	}
	return math.Round(float64(e-s)/60*10) / 10, nil
}
