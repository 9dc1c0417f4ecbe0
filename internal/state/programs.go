package state

import (
	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/metrics"
	"github.com/hyperengineering/hasad/internal/types"
)

// MaxUrgeIntensity is the top of the urge intensity scale.
const MaxUrgeIntensity = types.MaxUrgeLevel

func newHashishDay(date dates.Key) types.HashishDayLog {
	return types.HashishDayLog{Date: date}
}

// ChangeHashishCount adds delta to the count of date, clamped to
// [0, types.MaxDailyCount]. An
// increase on today ends the clean run: the run is folded into the longest
// streak and the clean start is cleared.
func ChangeHashishCount(date dates.Key, delta int, today dates.Key) Mutation {
	return func(s types.State) types.State {
		if !date.Valid() || delta == 0 {
			return s
		}
		h := s.HashishState
		if delta > 0 && date == today && h.CleanStartDate != nil {
			h.LongestStreak = metrics.KeepLongest(h.LongestStreak, metrics.HashishCleanDays(h, today))
			h.CleanStartDate = nil
		}
		h.DayLogs = h.DayLogs.Update(string(date), func(l types.HashishDayLog, found bool) types.HashishDayLog {
			if !found {
				l = newHashishDay(date)
			}
			l.Count = min(types.MaxDailyCount, max(0, l.Count+delta))
			return l
		})
		s.HashishState = h
		return s
	}
}

// SetWorkSmoking flags whether smoking on date happened during work.
func SetWorkSmoking(date dates.Key, value bool) Mutation {
	return func(s types.State) types.State {
		if !date.Valid() {
			return s
		}
		s.HashishState.DayLogs = s.HashishState.DayLogs.Update(string(date), func(l types.HashishDayLog, found bool) types.HashishDayLog {
			if !found {
				l = newHashishDay(date)
			}
			l.SmokedDuringWork = value
			return l
		})
		return s
	}
}

// AddAttack appends a craving episode to the day log of date.
func AddAttack(date dates.Key, attack types.HashishAttack) Mutation {
	return func(s types.State) types.State {
		a := attack
		a.Time = dates.SanitizeClock(a.Time)
		a.Activity = types.CleanText(a.Activity, types.MaxNameLength)
		a.Reason = types.CleanText(a.Reason, types.MaxTextLength)
		if !date.Valid() || !types.ValidID(a.ID) || a.Activity == "" || a.Reason == "" ||
			!dates.ValidClock(a.Time) || !a.Result.IsValid() {
			return s
		}
		s.HashishState.DayLogs = s.HashishState.DayLogs.Update(string(date), func(l types.HashishDayLog, found bool) types.HashishDayLog {
			if !found {
				l = newHashishDay(date)
			}
			if !l.Attacks.Has(a.ID) {
				l.Attacks = l.Attacks.Upsert(a)
			}
			return l
		})
		return s
	}
}

// DeleteAttack removes an attack from the day log of date.
func DeleteAttack(date dates.Key, id string) Mutation {
	return func(s types.State) types.State {
		l, ok := s.HashishState.DayLogs.Find(string(date))
		if !ok || !l.Attacks.Has(id) {
			return s
		}
		l.Attacks = l.Attacks.Remove(id)
		s.HashishState.DayLogs = s.HashishState.DayLogs.Upsert(l)
		return s
	}
}

// MarkHashishCleanDay confirms today as clean. Without a clean start, today
// becomes the clean start; otherwise the confirmed run is folded into the
// longest streak. A day with a non-zero count cannot be confirmed.
func MarkHashishCleanDay(today dates.Key) Mutation {
	return func(s types.State) types.State {
		if !today.Valid() {
			return s
		}
		h := s.HashishState
		if l, ok := h.DayLogs.Find(string(today)); ok && l.Count > 0 {
			return s
		}
		if h.CleanStartDate == nil {
			h.CleanStartDate = types.KeyPtr(today)
			h.LongestStreak = metrics.KeepLongest(h.LongestStreak, 1)
		} else {
			h.LongestStreak = metrics.KeepLongest(h.LongestStreak, metrics.HashishCleanDays(h, today))
		}
		if !h.DayLogs.Has(string(today)) {
			h.DayLogs = h.DayLogs.Upsert(newHashishDay(today))
		}
		s.HashishState = h
		return s
	}
}

// HashishSettings carries editable reduction program settings. Zero fields
// are left unchanged.
type HashishSettings struct {
	StartDate      dates.Key
	CleanStartDate dates.Key
	CurrentGoal    int
}

// UpdateHashishSettings applies the non-zero fields of settings.
func UpdateHashishSettings(settings HashishSettings) Mutation {
	return func(s types.State) types.State {
		if (settings.StartDate != "" && !settings.StartDate.Valid()) ||
			(settings.CleanStartDate != "" && !settings.CleanStartDate.Valid()) ||
			settings.CurrentGoal < 0 || settings.CurrentGoal > types.MaxGoalDays {
			return s
		}
		if settings.StartDate != "" {
			s.HashishState.StartDate = settings.StartDate
		}
		if settings.CleanStartDate != "" {
			s.HashishState.CleanStartDate = types.KeyPtr(settings.CleanStartDate)
		}
		if settings.CurrentGoal > 0 {
			s.HashishState.CurrentGoal = settings.CurrentGoal
		}
		return s
	}
}

// SaveQuranReading records the pages read on date, replacing that day's
// log and any log already carrying id. The streak cache is recomputed.
func SaveQuranReading(id string, date dates.Key, pages int, today dates.Key) Mutation {
	return func(s types.State) types.State {
		if !types.ValidID(id) || !date.Valid() || pages < 1 || pages > types.MaxQuranPages {
			return s
		}
		q := s.QuranState
		if prev, ok := q.Logs.FindBy(func(l types.QuranLog) bool { return l.ID == id }); ok && prev.Date != date {
			q.Logs = q.Logs.Remove(prev.Key())
		}
		q.Logs = q.Logs.Upsert(types.QuranLog{ID: id, Date: date, PagesRead: pages})
		q.Streak = metrics.QuranStreak(q, today)
		s.QuranState = q
		return s
	}
}

// DeleteQuranLog removes the reading log with id.
func DeleteQuranLog(id string, today dates.Key) Mutation {
	return func(s types.State) types.State {
		q := s.QuranState
		l, ok := q.Logs.FindBy(func(l types.QuranLog) bool { return l.ID == id })
		if !ok {
			return s
		}
		q.Logs = q.Logs.Remove(l.Key())
		q.Streak = metrics.QuranStreak(q, today)
		s.QuranState = q
		return s
	}
}

// UpdateQuranSettings sets the khatma start and length. Zero values are
// left unchanged.
func UpdateQuranSettings(startDate dates.Key, goalDays int, today dates.Key) Mutation {
	return func(s types.State) types.State {
		if (startDate != "" && !startDate.Valid()) || goalDays < 0 || goalDays > types.MaxGoalDays {
			return s
		}
		if startDate != "" {
			s.QuranState.KhatmaStartDate = startDate
		}
		if goalDays > 0 {
			s.QuranState.KhatmaGoalDays = goalDays
		}
		s.QuranState.Streak = metrics.QuranStreak(s.QuranState, today)
		return s
	}
}

func recoveryLogID(date dates.Key) string {
	return "recovery-" + string(date)
}

func newRecoveryLog(id string, date dates.Key) types.RecoveryLog {
	if id == "" {
		id = recoveryLogID(date)
	}
	return types.RecoveryLog{ID: id, Date: date, PressureLevel: types.LevelLow, IsClean: true}
}

// SetPressure records the pressure level of date. A new day log is clean.
func SetPressure(id string, date dates.Key, level types.Level) Mutation {
	return func(s types.State) types.State {
		if !date.Valid() || !level.IsValid() {
			return s
		}
		s.RecoveryState.Logs = s.RecoveryState.Logs.Update(string(date), func(l types.RecoveryLog, found bool) types.RecoveryLog {
			if !found {
				l = newRecoveryLog(id, date)
			}
			l.PressureLevel = level
			return l
		})
		return s
	}
}

// MarkRelapse records a relapse on date. A relapse after the current clean
// start ends the clean run: the run is folded into the longest streak and
// the clean start moves to the relapse day. Relapsing an already relapsed
// day is a no-op; CorrectRelapse undoes a relapse.
func MarkRelapse(id string, date, today dates.Key) Mutation {
	return func(s types.State) types.State {
		if !date.Valid() || date.After(today) {
			return s
		}
		r := s.RecoveryState
		if l, ok := r.Logs.Find(string(date)); ok && !l.IsClean {
			return s
		}

		effective := r.StartDate
		if last, ok := metrics.LastRelapse(r, today); ok {
			effective = last
		}
		if r.CleanStartDate != nil {
			effective = *r.CleanStartDate
		}
		if !date.Before(effective) {
			r.LongestStreak = metrics.KeepLongest(r.LongestStreak, max(0, dates.DaysBetween(effective, date)))
			r.CleanStartDate = types.KeyPtr(date)
		}

		r.Logs = r.Logs.Update(string(date), func(l types.RecoveryLog, found bool) types.RecoveryLog {
			if !found {
				l = newRecoveryLog(id, date)
			}
			l.IsClean = false
			return l
		})
		s.RecoveryState = r
		return s
	}
}

// CorrectRelapse marks a relapsed day clean again. It neither restores the
// clean run the relapse ended nor touches the longest streak.
func CorrectRelapse(date dates.Key) Mutation {
	return func(s types.State) types.State {
		l, ok := s.RecoveryState.Logs.Find(string(date))
		if !ok || l.IsClean {
			return s
		}
		l.IsClean = true
		s.RecoveryState.Logs = s.RecoveryState.Logs.Upsert(l)
		return s
	}
}

// AddUrge appends an urge to the recovery day log of urge.Date.
func AddUrge(urge types.RecoveryUrge) Mutation {
	return func(s types.State) types.State {
		u := urge
		u.Time = dates.SanitizeClock(u.Time)
		u.Reason = types.CleanText(u.Reason, types.MaxTextLength)
		u.AlternativeUsed = types.CleanText(u.AlternativeUsed, types.MaxTextLength)
		if !types.ValidID(u.ID) || !u.Date.Valid() || !dates.ValidClock(u.Time) ||
			u.Intensity < 1 || u.Intensity > MaxUrgeIntensity {
			return s
		}
		s.RecoveryState.Logs = s.RecoveryState.Logs.Update(string(u.Date), func(l types.RecoveryLog, found bool) types.RecoveryLog {
			if !found {
				l = newRecoveryLog("", u.Date)
			}
			if !l.Urges.Has(u.ID) {
				l.Urges = l.Urges.Upsert(u)
			}
			return l
		})
		return s
	}
}

// DeleteUrge removes an urge from the recovery day log of date.
func DeleteUrge(date dates.Key, id string) Mutation {
	return func(s types.State) types.State {
		l, ok := s.RecoveryState.Logs.Find(string(date))
		if !ok || !l.Urges.Has(id) {
			return s
		}
		l.Urges = l.Urges.Remove(id)
		s.RecoveryState.Logs = s.RecoveryState.Logs.Upsert(l)
		return s
	}
}

// RecoverySettings carries editable recovery program settings. Zero fields
// are left unchanged; ClearCleanStart resets the clean start.
type RecoverySettings struct {
	StartDate       dates.Key
	CleanStartDate  dates.Key
	ClearCleanStart bool
	CurrentGoal     int
}

// UpdateRecoverySettings applies settings.
func UpdateRecoverySettings(settings RecoverySettings) Mutation {
	return func(s types.State) types.State {
		if (settings.StartDate != "" && !settings.StartDate.Valid()) ||
			(settings.CleanStartDate != "" && !settings.CleanStartDate.Valid()) ||
			settings.CurrentGoal < 0 || settings.CurrentGoal > types.MaxGoalDays {
			return s
		}
		if settings.StartDate != "" {
			s.RecoveryState.StartDate = settings.StartDate
		}
		switch {
		case settings.ClearCleanStart:
			s.RecoveryState.CleanStartDate = nil
		case settings.CleanStartDate != "":
			s.RecoveryState.CleanStartDate = types.KeyPtr(settings.CleanStartDate)
		}
		if settings.CurrentGoal > 0 {
			s.RecoveryState.CurrentGoal = settings.CurrentGoal
		}
		return s
	}
}
