package types

import (
	"strings"
	"unicode/utf8"
)

// Field limits shared by the mutation constructors and state validation.
const (
	MaxIDLength    = 128
	MaxNameLength  = 200
	MaxTextLength  = 2000
	MaxPercent     = 100
	MaxSleepHours  = 24
	MaxUrgeLevel   = 10
	MaxGoalDays    = 3650
	MaxQuranPages  = 604
	MaxWorkoutMins = 24 * 60
	MaxDailyCount  = 1000
	MaxStreakDays  = 1 << 20
)

// CleanText drops invalid UTF-8 and null bytes, trims surrounding space and
// truncates s to limit characters.
func CleanText(s string, limit int) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:limit]))
}

// ValidID reports whether id can key an entry.
func ValidID(id string) bool {
	return strings.TrimSpace(id) != "" &&
		utf8.ValidString(id) &&
		!strings.Contains(id, "\x00") &&
		utf8.RuneCountInString(id) <= MaxIDLength
}
