package metrics

import (
	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/types"
)

// MaxProgramWeek is the zero-phase week of the reduction program.
const MaxProgramWeek = 4

// PhaseLimits maps a program week to its daily allowance.
var PhaseLimits = map[int]int{1: 6, 2: 4, 3: 2, 4: 1}

// LimitStatus classifies a day's count against its allowance.
type LimitStatus string

const (
	LimitNone   LimitStatus = "none"
	LimitClean  LimitStatus = "clean"
	LimitWithin LimitStatus = "within-limit"
	LimitOver   LimitStatus = "over-limit"
)

// ProgramWeek is floor(daysSinceStart/7)+1 clamped to [1, MaxProgramWeek].
// A missing or malformed start is treated as week one.
func ProgramWeek(start, today dates.Key) int {
	if !start.Valid() || !today.Valid() {
		return 1
	}
	days := dates.DaysBetween(start, today)
	if days < 0 {
		return 1
	}
	return min(days/7+1, MaxProgramWeek)
}

// DailyLimit is the allowance for the program week containing today.
func DailyLimit(start, today dates.Key) int {
	return PhaseLimits[ProgramWeek(start, today)]
}

// InZeroPhase reports whether the program has reached its final week.
func InZeroPhase(start, today dates.Key) bool {
	return ProgramWeek(start, today) >= MaxProgramWeek
}

// Classify compares a count to its limit.
func Classify(count, limit int) LimitStatus {
	switch {
	case count <= 0:
		return LimitClean
	case count <= limit:
		return LimitWithin
	default:
		return LimitOver
	}
}

// HashishDayStatus classifies a logged day against the limit of the week the
// day fell in. Days without a log are LimitNone.
func HashishDayStatus(h types.HashishState, day dates.Key) LimitStatus {
	l, ok := h.DayLogs.Find(string(day))
	if !ok {
		return LimitNone
	}
	return Classify(l.Count, DailyLimit(h.StartDate, day))
}

// ResetProtocolRequired reports a non-zero count today during the zero
// phase. It starts the reset workflow rather than flagging an overrun.
func ResetProtocolRequired(h types.HashishState, today dates.Key) bool {
	if !InZeroPhase(h.StartDate, today) {
		return false
	}
	l, ok := h.DayLogs.Find(string(today))
	return ok && l.Count > 0
}

// HashishCleanDays counts days since the later of the clean start and the
// last non-zero day before today. It is zero without a clean start or when
// today's count is non-zero.
func HashishCleanDays(h types.HashishState, today dates.Key) int {
	if h.CleanStartDate == nil || *h.CleanStartDate == "" {
		return 0
	}
	if l, ok := h.DayLogs.Find(string(today)); ok && l.Count > 0 {
		return 0
	}

	from := *h.CleanStartDate
	for _, l := range h.DayLogs.All() {
		if l.Count > 0 && l.Date.Before(today) && l.Date.After(from) {
			from = l.Date
		}
	}
	return max(0, dates.DaysBetween(from, today))
}

// WorkSmokingDays counts days flagged as smoked during work.
func WorkSmokingDays(h types.HashishState) int {
	return h.DayLogs.Count(func(l types.HashishDayLog) bool { return l.SmokedDuringWork })
}

// HashishStats is the read-time view of the reduction program.
type HashishStats struct {
	Week                  int         `json:"week"`
	DailyLimit            int         `json:"dailyLimit"`
	TodayCount            int         `json:"todayCount"`
	TodayStatus           LimitStatus `json:"todayStatus"`
	CleanDays             int         `json:"cleanDays"`
	LongestStreak         int         `json:"longestStreak"`
	GoalPercent           int         `json:"goalPercent"`
	InZeroPhase           bool        `json:"inZeroPhase"`
	ResetProtocol         bool        `json:"resetProtocol"`
	SmokedDuringWorkToday bool        `json:"smokedDuringWorkToday"`
	WorkSmokingDays       int         `json:"workSmokingDays"`
	AttacksToday          int         `json:"attacksToday"`
	AttacksResisted       int         `json:"attacksResisted"`
}

// Hashish derives the reduction program view for today.
func Hashish(h types.HashishState, today dates.Key) HashishStats {
	clean := HashishCleanDays(h, today)
	st := HashishStats{
		Week:            ProgramWeek(h.StartDate, today),
		DailyLimit:      DailyLimit(h.StartDate, today),
		TodayStatus:     HashishDayStatus(h, today),
		CleanDays:       clean,
		LongestStreak:   h.LongestStreak,
		GoalPercent:     GoalPercent(clean, h.CurrentGoal),
		InZeroPhase:     InZeroPhase(h.StartDate, today),
		ResetProtocol:   ResetProtocolRequired(h, today),
		WorkSmokingDays: WorkSmokingDays(h),
	}
	for _, l := range h.DayLogs.All() {
		st.AttacksResisted += l.Attacks.Count(func(a types.HashishAttack) bool {
			return a.Result == types.AttackResisted
		})
	}
	if l, ok := h.DayLogs.Find(string(today)); ok {
		st.TodayCount = l.Count
		st.SmokedDuringWorkToday = l.SmokedDuringWork
		st.AttacksToday = l.Attacks.Len()
	}
	return st
}
