package validation

import (
	"fmt"

	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/types"
)

// Field limits for submitted aggregates. Mutations enforce the same limits.
const (
	MaxIDLength    = types.MaxIDLength
	MaxNameLength  = types.MaxNameLength
	MaxTextLength  = types.MaxTextLength
	MaxPercent     = types.MaxPercent
	MaxSleepHours  = types.MaxSleepHours
	MaxUrgeLevel   = types.MaxUrgeLevel
	MaxGoalDays    = types.MaxGoalDays
	MaxQuranPages  = types.MaxQuranPages
	MaxWorkoutMins = types.MaxWorkoutMins
)

func enumValues[T ~string](vs ...T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

var (
	frequencies   = enumValues(types.FrequencyDaily, types.FrequencyWeekly)
	prayerNames   = enumValues(types.AllPrayers...)
	workoutTypes  = enumValues(types.WorkoutGym, types.WorkoutRunning, types.WorkoutHome)
	levels        = enumValues(types.LevelLow, types.LevelMedium, types.LevelHigh)
	attackResults = enumValues(types.AttackResisted, types.AttackFell)
)

// ValidateState checks every field of a submitted aggregate and returns all
// failures. Field names are JSON paths such as "habits[2].name".
func ValidateState(s types.State) []ValidationError {
	c := &Collector{}

	for i, h := range s.Habits.All() {
		f := fmt.Sprintf("habits[%d]", i)
		ValidateText(c, f+".id", h.ID, MaxIDLength, true)
		ValidateText(c, f+".name", h.Name, MaxNameLength, true)
		ValidateText(c, f+".category", h.Category, MaxNameLength, false)
		c.Add(ValidateEnum(f+".frequency", string(h.Frequency), frequencies))
		for j, d := range h.CompletedDates {
			c.Add(ValidateDate(fmt.Sprintf("%s.completedDates[%d]", f, j), d))
		}
		c.Add(ValidateIntRange(f+".streak", h.Streak, 0, len(h.CompletedDates)))
	}

	for i, g := range s.Goals.All() {
		f := fmt.Sprintf("goals[%d]", i)
		ValidateText(c, f+".id", g.ID, MaxIDLength, true)
		ValidateText(c, f+".title", g.Title, MaxNameLength, true)
		ValidateText(c, f+".description", g.Description, MaxTextLength, false)
		ValidateText(c, f+".category", g.Category, MaxNameLength, false)
		c.Add(ValidateIntRange(f+".progress", g.Progress, 0, MaxPercent))
		for j, t := range g.Tasks.All() {
			tf := fmt.Sprintf("%s.tasks[%d]", f, j)
			ValidateText(c, tf+".id", t.ID, MaxIDLength, true)
			ValidateText(c, tf+".title", t.Title, MaxNameLength, true)
		}
	}

	for i, l := range s.PrayerLogs.All() {
		f := fmt.Sprintf("prayerLogs[%d]", i)
		c.Add(ValidateDate(f+".date", l.Date))
		for j, p := range l.Completed {
			c.Add(ValidateEnum(fmt.Sprintf("%s.completed[%d]", f, j), string(p), prayerNames))
		}
	}

	for i, w := range s.WorkoutLogs.All() {
		f := fmt.Sprintf("workoutLogs[%d]", i)
		c.Add(ValidateDate(f+".date", w.Date))
		c.Add(ValidateEnum(f+".type", string(w.Type), workoutTypes))
		c.Add(ValidateEnum(f+".intensity", string(w.Intensity), levels))
		c.Add(ValidateIntRange(f+".duration", w.Duration, 0, MaxWorkoutMins))
	}

	for i, l := range s.SleepLogs.All() {
		f := fmt.Sprintf("sleepLogs[%d]", i)
		c.Add(ValidateDate(f+".date", l.Date))
		c.Add(ValidateClock(f+".sleepTime", l.SleepTime))
		c.Add(ValidateClock(f+".wakeTime", l.WakeTime))
		c.Add(ValidateRange(f+".duration", l.Duration, 0, MaxSleepHours))
	}

	validateHashish(c, s.HashishState)
	validateQuran(c, s.QuranState)

	for i, p := range s.Projects.All() {
		f := fmt.Sprintf("projects[%d]", i)
		ValidateText(c, f+".id", p.ID, MaxIDLength, true)
		ValidateText(c, f+".name", p.Name, MaxNameLength, true)
		ValidateText(c, f+".status", string(p.Status), MaxNameLength, true)
		c.Add(ValidateIntRange(f+".progress", p.Progress, 0, MaxPercent))
		ValidateText(c, f+".targetGoal", p.TargetGoal, MaxTextLength, false)
		ValidateText(c, f+".currentStage", p.CurrentStage, MaxNameLength, false)
		for j, t := range p.Tasks.All() {
			tf := fmt.Sprintf("%s.tasks[%d]", f, j)
			ValidateText(c, tf+".id", t.ID, MaxIDLength, true)
			ValidateText(c, tf+".title", t.Title, MaxNameLength, true)
		}
		if tops := p.Tasks.Count(func(t types.ProjectTask) bool { return t.IsTopTask }); tops > 1 {
			c.Add(&ValidationError{Field: f + ".tasks", Message: "must have at most one top task"})
		}
	}

	validateRecovery(c, s.RecoveryState)

	for i, l := range s.AthkarLogs.All() {
		f := fmt.Sprintf("athkarLogs[%d]", i)
		c.Add(ValidateDate(f+".date", l.Date))
		for id, n := range l.Counts {
			if n < 0 {
				c.Add(&ValidationError{Field: fmt.Sprintf("%s.counts.%s", f, id), Message: "must not be negative"})
			}
		}
	}

	return c.Errors()
}

// validateOptionalDate accepts an empty value, which is synthesized on read.
func validateOptionalDate(c *Collector, field string, d dates.Key) {
	if d != "" {
		c.Add(ValidateDate(field, d))
	}
}

func validateHashish(c *Collector, h types.HashishState) {
	validateOptionalDate(c, "hashishState.startDate", h.StartDate)
	if h.CleanStartDate != nil {
		c.Add(ValidateDate("hashishState.cleanStartDate", *h.CleanStartDate))
	}
	c.Add(ValidateIntRange("hashishState.longestStreak", h.LongestStreak, 0, types.MaxStreakDays))
	c.Add(ValidateIntRange("hashishState.currentGoal", h.CurrentGoal, 0, MaxGoalDays))
	for i, d := range h.DayLogs.All() {
		f := fmt.Sprintf("hashishState.dayLogs[%d]", i)
		c.Add(ValidateDate(f+".date", d.Date))
		c.Add(ValidateIntRange(f+".count", d.Count, 0, types.MaxDailyCount))
		for j, a := range d.Attacks.All() {
			af := fmt.Sprintf("%s.attacks[%d]", f, j)
			ValidateText(c, af+".id", a.ID, MaxIDLength, true)
			c.Add(ValidateClock(af+".time", a.Time))
			ValidateText(c, af+".activity", a.Activity, MaxNameLength, true)
			ValidateText(c, af+".reason", a.Reason, MaxTextLength, true)
			c.Add(ValidateEnum(af+".result", string(a.Result), attackResults))
		}
	}
}

func validateQuran(c *Collector, q types.QuranState) {
	validateOptionalDate(c, "quranState.khatmaStartDate", q.KhatmaStartDate)
	c.Add(ValidateIntRange("quranState.khatmaGoalDays", q.KhatmaGoalDays, 0, MaxGoalDays))
	c.Add(ValidateIntRange("quranState.streak", q.Streak, 0, types.MaxStreakDays))
	for i, l := range q.Logs.All() {
		f := fmt.Sprintf("quranState.logs[%d]", i)
		c.Add(ValidateDate(f+".date", l.Date))
		c.Add(ValidateIntRange(f+".pagesRead", l.PagesRead, 0, MaxQuranPages))
	}
}

func validateRecovery(c *Collector, r types.RecoveryState) {
	validateOptionalDate(c, "recoveryState.startDate", r.StartDate)
	if r.CleanStartDate != nil {
		c.Add(ValidateDate("recoveryState.cleanStartDate", *r.CleanStartDate))
	}
	c.Add(ValidateIntRange("recoveryState.longestStreak", r.LongestStreak, 0, types.MaxStreakDays))
	c.Add(ValidateIntRange("recoveryState.currentGoal", r.CurrentGoal, 0, MaxGoalDays))
	for i, l := range r.Logs.All() {
		f := fmt.Sprintf("recoveryState.logs[%d]", i)
		c.Add(ValidateDate(f+".date", l.Date))
		c.Add(ValidateEnum(f+".pressureLevel", string(l.PressureLevel), levels))
		for j, u := range l.Urges.All() {
			uf := fmt.Sprintf("%s.urges[%d]", f, j)
			ValidateText(c, uf+".id", u.ID, MaxIDLength, true)
			c.Add(ValidateClock(uf+".time", u.Time))
			ValidateText(c, uf+".reason", u.Reason, MaxTextLength, false)
			c.Add(ValidateIntRange(uf+".intensity", u.Intensity, 1, MaxUrgeLevel))
		}
	}
}
