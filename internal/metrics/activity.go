package metrics

import (
	"math"
	"time"

	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/logstore"
	"github.com/hyperengineering/hasad/internal/types"
)

// Sleep duration thresholds in hours.
const (
	GoodSleepHours = 7.0
	OkSleepHours   = 6.0
)

// WeekStartDay is the first day of the tracking week.
const WeekStartDay = time.Saturday

// Level is a rung on the workout-streak ladder.
type Level struct {
	Min  int    `json:"min"`
	Name string `json:"name"`
	Next int    `json:"next"`
}

// Levels is ordered by Min.
var Levels = []Level{
	{Min: 0, Name: "beginning", Next: 3},
	{Min: 3, Name: "disciplined", Next: 7},
	{Min: 7, Name: "promising", Next: 14},
	{Min: 14, Name: "fitness-beast", Next: 30},
	{Min: 30, Name: "legend", Next: 100},
}

// LevelFor returns the highest level whose minimum streak is reached.
func LevelFor(streak int) Level {
	lvl := Levels[0]
	for _, l := range Levels {
		if streak >= l.Min {
			lvl = l
		}
	}
	return lvl
}

// WeekStart returns the first day of the week containing day.
func WeekStart(day dates.Key) dates.Key {
	t, err := time.Parse(dates.Layout, string(day))
	if err != nil {
		return day
	}
	back := (int(t.Weekday()) - int(WeekStartDay) + 7) % 7
	return day.AddDays(-back)
}

// SportsStats is the read-time view of the workout log.
type SportsStats struct {
	CurrentStreak          int   `json:"currentStreak"`
	LongestStreak          int   `json:"longestStreak"`
	ThisWeekCount          int   `json:"thisWeekCount"`
	WeeklyCommitment       int   `json:"weeklyCommitment"`
	ConsecutiveMissWarning bool  `json:"consecutiveMissWarning"`
	HasToday               bool  `json:"hasToday"`
	Level                  Level `json:"level"`
	LevelProgress          int   `json:"levelProgress"`
	TotalMinutes           int   `json:"totalMinutes"`
}

// Sports derives workout statistics for today.
func Sports(logs logstore.Collection[types.WorkoutLog], today dates.Key) SportsStats {
	classify := WorkoutDays(logs)
	streak := CurrentStreak(today, classify, StreakOptions{})

	days := make([]dates.Key, 0, logs.Len())
	for _, l := range logs.All() {
		days = append(days, l.Date)
	}

	weekStart := WeekStart(today)
	weekEnd := weekStart.AddDays(6)
	thisWeek := logs.Count(func(l types.WorkoutLog) bool {
		return !l.Date.Before(weekStart) && !l.Date.After(weekEnd)
	})

	st := SportsStats{
		CurrentStreak:          streak,
		LongestStreak:          LongestRun(days, classify),
		ThisWeekCount:          thisWeek,
		WeeklyCommitment:       Progress(thisWeek, 7),
		HasToday:               logs.Has(string(today)),
		ConsecutiveMissWarning: !logs.Has(string(today)) && !logs.Has(string(today.AddDays(-1))),
		Level:                  LevelFor(streak),
	}
	st.LevelProgress = min(100, Progress(streak, st.Level.Next))
	for _, l := range logs.All() {
		st.TotalMinutes += max(0, l.Duration)
	}
	return st
}

// SleepQuality buckets a night's duration.
type SleepQuality string

const (
	SleepGood  SleepQuality = "good"
	SleepOk    SleepQuality = "ok"
	SleepShort SleepQuality = "short"
)

// QualityOf buckets hours: good >= 7, ok in [6, 7), short < 6.
func QualityOf(hours float64) SleepQuality {
	switch {
	case hours >= GoodSleepHours:
		return SleepGood
	case hours >= OkSleepHours:
		return SleepOk
	default:
		return SleepShort
	}
}

// SleepStats summarizes the sleep log.
type SleepStats struct {
	Nights       int             `json:"nights"`
	AverageHours float64         `json:"averageHours"`
	GoodNights   int             `json:"goodNights"`
	OkNights     int             `json:"okNights"`
	ShortNights  int             `json:"shortNights"`
	Last         *types.SleepLog `json:"last,omitempty"`
}

// Sleep derives sleep statistics. The average is rounded to one decimal.
func Sleep(logs logstore.Collection[types.SleepLog]) SleepStats {
	st := SleepStats{Nights: logs.Len()}
	if st.Nights == 0 {
		return st
	}

	total := 0.0
	for _, l := range logs.All() {
		total += l.Duration
		switch QualityOf(l.Duration) {
		case SleepGood:
			st.GoodNights++
		case SleepOk:
			st.OkNights++
		default:
			st.ShortNights++
		}
	}
	st.AverageHours = math.Round(total/float64(st.Nights)*10) / 10

	sorted := logs.SortedByKey()
	last := sorted[len(sorted)-1]
	st.Last = &last
	return st
}
