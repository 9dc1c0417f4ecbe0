package metrics

import (
	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/logstore"
	"github.com/hyperengineering/hasad/internal/types"
)

// HabitDays qualifies the days a habit was completed.
func HabitDays(h types.Habit) Classifier {
	done := make(map[dates.Key]bool, len(h.CompletedDates))
	for _, d := range h.CompletedDates {
		done[d] = true
	}
	return func(day dates.Key) DayStatus {
		if done[day] {
			return Qualified
		}
		return Missing
	}
}

// HabitStreak recomputes the cached streak of a habit.
func HabitStreak(h types.Habit, today dates.Key) int {
	return CurrentStreak(today, HabitDays(h), StreakOptions{})
}

// WorkoutDays qualifies any day with a logged workout.
func WorkoutDays(logs logstore.Collection[types.WorkoutLog]) Classifier {
	return func(day dates.Key) DayStatus {
		if logs.Has(string(day)) {
			return Qualified
		}
		return Missing
	}
}

// QuranDays qualifies days with at least one page read.
func QuranDays(logs logstore.Collection[types.QuranLog]) Classifier {
	return func(day dates.Key) DayStatus {
		if l, ok := logs.Find(string(day)); ok && l.PagesRead > 0 {
			return Qualified
		}
		return Missing
	}
}

// QuranStreak recomputes the cached reading streak.
func QuranStreak(q types.QuranState, today dates.Key) int {
	return CurrentStreak(today, QuranDays(q.Logs), StreakOptions{})
}

// PrayerDays qualifies days on which all five prayers were offered.
func PrayerDays(logs logstore.Collection[types.PrayerLog]) Classifier {
	return func(day dates.Key) DayStatus {
		l, ok := logs.Find(string(day))
		if !ok {
			return Missing
		}
		for _, p := range types.AllPrayers {
			if !l.Has(p) {
				return Missing
			}
		}
		return Qualified
	}
}

// RecoveryDays qualifies logged clean days. A relapse is a failure.
func RecoveryDays(logs logstore.Collection[types.RecoveryLog]) Classifier {
	return func(day dates.Key) DayStatus {
		l, ok := logs.Find(string(day))
		switch {
		case !ok:
			return Missing
		case l.IsClean:
			return Qualified
		default:
			return Failed
		}
	}
}

// HashishDays qualifies logged days with a zero count.
func HashishDays(logs logstore.Collection[types.HashishDayLog]) Classifier {
	return func(day dates.Key) DayStatus {
		l, ok := logs.Find(string(day))
		switch {
		case !ok:
			return Missing
		case l.Count == 0:
			return Qualified
		default:
			return Failed
		}
	}
}

// LastRelapse returns the most recent relapse on or before today.
func LastRelapse(r types.RecoveryState, today dates.Key) (dates.Key, bool) {
	var last dates.Key
	for _, l := range r.Logs.All() {
		if !l.IsClean && !l.Date.After(today) && l.Date.After(last) {
			last = l.Date
		}
	}
	return last, last != ""
}

// RecoverySoberDays counts days since the effective clean start: the
// explicit clean start, else the last relapse, else the program start.
// A relapse today yields zero.
func RecoverySoberDays(r types.RecoveryState, today dates.Key) int {
	last, relapsed := LastRelapse(r, today)
	if relapsed && last == today {
		return 0
	}

	start := r.StartDate
	switch {
	case r.CleanStartDate != nil && *r.CleanStartDate != "":
		start = *r.CleanStartDate
	case relapsed:
		start = last
	}
	if start == "" {
		return 0
	}
	return max(0, dates.DaysBetween(start, today))
}

// RecoveryStats is the read-time view of the recovery program.
type RecoveryStats struct {
	SoberDays     int  `json:"soberDays"`
	LongestStreak int  `json:"longestStreak"`
	CleanStreak   int  `json:"cleanStreak"`
	RelapsedToday bool `json:"relapsedToday"`
	GoalPercent   int  `json:"goalPercent"`
	UrgesToday    int  `json:"urgesToday"`
}

// Recovery derives the recovery program view for today.
func Recovery(r types.RecoveryState, today dates.Key) RecoveryStats {
	sober := RecoverySoberDays(r, today)
	last, relapsed := LastRelapse(r, today)
	st := RecoveryStats{
		SoberDays:     sober,
		LongestStreak: KeepLongest(r.LongestStreak, sober),
		CleanStreak:   CurrentStreak(today, RecoveryDays(r.Logs), StreakOptions{Since: r.StartDate}),
		RelapsedToday: relapsed && last == today,
		GoalPercent:   GoalPercent(sober, r.CurrentGoal),
	}
	if l, ok := r.Logs.Find(string(today)); ok {
		st.UrgesToday = l.Urges.Len()
	}
	return st
}

// GoalPercent is days/goal as a percentage capped at 100.
func GoalPercent(days, goal int) int {
	if goal <= 0 {
		return 0
	}
	return min(100, Progress(days, goal))
}
