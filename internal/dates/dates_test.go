package dates

import (
	"errors"
	"testing"
	"time"
)

func TestKeyOf_ZeroPadded(t *testing.T) {
	got := KeyOf(time.Date(2024, time.March, 5, 23, 59, 0, 0, time.Local))
	if got != "2024-03-05" {
		t.Errorf("KeyOf = %q, want 2024-03-05", got)
	}
}

func TestToday_UsesInjectedClock(t *testing.T) {
	now := func() time.Time { return time.Date(2024, time.January, 10, 8, 0, 0, 0, time.Local) }
	if got := Today(now); got != "2024-01-10" {
		t.Errorf("Today = %q, want 2024-01-10", got)
	}
}

func TestParseKey(t *testing.T) {
	if _, err := ParseKey("2024-02-30"); !errors.Is(err, ErrMalformedKey) {
		t.Errorf("expected ErrMalformedKey for impossible date, got %v", err)
	}
	if _, err := ParseKey("2024-1-5"); !errors.Is(err, ErrMalformedKey) {
		t.Errorf("expected ErrMalformedKey for unpadded date, got %v", err)
	}
	k, err := ParseKey("2024-12-31")
	if err != nil {
		t.Fatal(err)
	}
	if k != "2024-12-31" {
		t.Errorf("ParseKey = %q", k)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b Key
		want int
	}{
		{"2024-01-10", "2024-01-12", 2},
		{"2024-01-12", "2024-01-10", -2},
		{"2024-01-10", "2024-01-10", 0},
		{"2023-12-31", "2024-01-01", 1},
		{"2024-02-28", "2024-03-01", 2}, // leap year
		{"2024-03-09", "2024-03-12", 3}, // spans a DST change in many zones
		{"bogus", "2024-01-01", 0},
	}
	for _, tt := range tests {
		if got := DaysBetween(tt.a, tt.b); got != tt.want {
			t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestKey_AddDays(t *testing.T) {
	if got := Key("2024-03-01").AddDays(-1); got != "2024-02-29" {
		t.Errorf("AddDays(-1) = %q, want 2024-02-29", got)
	}
	if got := Key("2024-12-31").AddDays(1); got != "2025-01-01" {
		t.Errorf("AddDays(1) = %q, want 2025-01-01", got)
	}
}

func TestLatest(t *testing.T) {
	if got := Latest("", "2024-01-02", "2024-01-01"); got != "2024-01-02" {
		t.Errorf("Latest = %q", got)
	}
	if got := Latest("", ""); got != "" {
		t.Errorf("Latest of empties = %q", got)
	}
}

func TestSanitizeClock(t *testing.T) {
	tests := map[string]string{
		"23:00":    "23:00",
		"2a3:0b0":  "23:00",
		"23:000":   "23:00",
		"07:30 pm": "07:30",
		"":         "",
		"2":        "2",
	}
	for in, want := range tests {
		if got := SanitizeClock(in); got != want {
			t.Errorf("SanitizeClock(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"7:05", 425, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"12", 0, true},
		{"12:5", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrMalformedClock) {
				t.Errorf("ParseClock(%q) error = %v, want ErrMalformedClock", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDurationBetweenClocks(t *testing.T) {
	tests := []struct {
		start, end string
		want       float64
	}{
		{"23:00", "07:00", 8.0},
		{"06:00", "07:30", 1.5},
		{"22:20", "06:00", 7.7},
		{"08:00", "08:00", 24.0},
	}
	for _, tt := range tests {
		got, err := DurationBetweenClocks(tt.start, tt.end)
		if err != nil {
			t.Fatalf("DurationBetweenClocks(%s, %s): %v", tt.start, tt.end, err)
		}
		if got != tt.want {
			t.Errorf("DurationBetweenClocks(%s, %s) = %v, want %v", tt.start, tt.end, got, tt.want)
		}
		if got < 0 {
			t.Errorf("negative duration for %s -> %s", tt.start, tt.end)
		}
	}

	if _, err := DurationBetweenClocks("xx", "07:00"); !errors.Is(err, ErrMalformedClock) {
		t.Errorf("expected ErrMalformedClock, got %v", err)
	}
}
