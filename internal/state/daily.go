package state

import (
	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/types"
)

// toggleMember returns a copy of set with v added or removed.
func toggleMember[T comparable](set []T, v T) []T {
	out := make([]T, 0, len(set)+1)
	found := false
	for _, x := range set {
		if x == v {
			found = true
			continue
		}
		out = append(out, x)
	}
	if !found {
		out = append(out, v)
	}
	return out
}

// TogglePrayer flips one prayer on date, creating the day's log if needed.
func TogglePrayer(date dates.Key, name types.PrayerName) Mutation {
	return func(s types.State) types.State {
		if !date.Valid() || !name.IsValid() {
			return s
		}
		s.PrayerLogs = s.PrayerLogs.Update(string(date), func(l types.PrayerLog, found bool) types.PrayerLog {
			if !found {
				l = types.PrayerLog{Date: date}
			}
			l.Completed = toggleMember(l.Completed, name)
			return l
		})
		return s
	}
}

// MarkAllPrayed marks every prayer on date as offered.
func MarkAllPrayed(date dates.Key) Mutation {
	return func(s types.State) types.State {
		if !date.Valid() {
			return s
		}
		all := make([]types.PrayerName, len(types.AllPrayers))
		copy(all, types.AllPrayers)
		s.PrayerLogs = s.PrayerLogs.Upsert(types.PrayerLog{Date: date, Completed: all})
		return s
	}
}

// SaveWorkout records the workout of log.Date, replacing any existing one.
func SaveWorkout(log types.WorkoutLog) Mutation {
	return func(s types.State) types.State {
		if !log.Date.Valid() || !log.Type.IsValid() || !log.Intensity.IsValid() ||
			log.Duration < 0 || log.Duration > types.MaxWorkoutMins {
			return s
		}
		s.WorkoutLogs = s.WorkoutLogs.Upsert(log)
		return s
	}
}

// DeleteWorkout removes the workout on date.
func DeleteWorkout(date dates.Key) Mutation {
	return func(s types.State) types.State {
		s.WorkoutLogs = s.WorkoutLogs.Remove(string(date))
		return s
	}
}

// SaveSleep records a night ending on date. The clock values are sanitized
// and the duration derived from them; an unparseable clock leaves the state
// unchanged.
func SaveSleep(date dates.Key, sleepTime, wakeTime string) Mutation {
	return func(s types.State) types.State {
		if !date.Valid() {
			return s
		}
		sleepTime, wakeTime := dates.SanitizeClock(sleepTime), dates.SanitizeClock(wakeTime)
		hours, err := dates.DurationBetweenClocks(sleepTime, wakeTime)
		if err != nil {
			return s
		}
		s.SleepLogs = s.SleepLogs.Upsert(types.SleepLog{
			Date:      date,
			SleepTime: sleepTime,
			WakeTime:  wakeTime,
			Duration:  hours,
		})
		return s
	}
}

// DeleteSleep removes the night ending on date.
func DeleteSleep(date dates.Key) Mutation {
	return func(s types.State) types.State {
		s.SleepLogs = s.SleepLogs.Remove(string(date))
		return s
	}
}

// SaveAthkarLog replaces the athkar log of log.Date.
func SaveAthkarLog(log types.AthkarLog) Mutation {
	return func(s types.State) types.State {
		if !log.Date.Valid() {
			return s
		}
		counts := make(map[string]int, len(log.Counts))
		for id, n := range log.Counts {
			if types.ValidID(id) {
				counts[id] = max(0, n)
			}
		}
		saved := log
		saved.Counts = counts
		s.AthkarLogs = s.AthkarLogs.Upsert(saved)
		return s
	}
}

func newAthkarLog(date dates.Key) types.AthkarLog {
	return types.AthkarLog{Date: date, Counts: map[string]int{}}
}

// SetAthkarSession marks the morning or evening session of date.
func SetAthkarSession(date dates.Key, session types.AthkarSession, done bool) Mutation {
	return func(s types.State) types.State {
		if !date.Valid() || !session.IsValid() {
			return s
		}
		s.AthkarLogs = s.AthkarLogs.Update(string(date), func(l types.AthkarLog, found bool) types.AthkarLog {
			if !found {
				l = newAthkarLog(date)
			}
			if session == types.SessionMorning {
				l.MorningCompleted = done
			} else {
				l.EveningCompleted = done
			}
			return l
		})
		return s
	}
}

// AdjustThikrCount adds delta to a thikr counter on date, clamped at zero.
func AdjustThikrCount(date dates.Key, thikrID string, delta int) Mutation {
	return func(s types.State) types.State {
		if !date.Valid() || !types.ValidID(thikrID) {
			return s
		}
		s.AthkarLogs = s.AthkarLogs.Update(string(date), func(l types.AthkarLog, found bool) types.AthkarLog {
			if !found {
				l = newAthkarLog(date)
			}
			counts := make(map[string]int, len(l.Counts)+1)
			for id, n := range l.Counts {
				counts[id] = n
			}
			counts[thikrID] = max(0, counts[thikrID]+delta)
			l.Counts = counts
			return l
		})
		return s
	}
}
