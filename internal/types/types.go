// Package types defines the tracked domain entities and the aggregate State
// exchanged between the client engine and the backend.
package types

import (
	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/logstore"
)

// Defaults applied to synthesized program settings.
const (
	DefaultCleanGoalDays  = 7
	DefaultKhatmaGoalDays = 300
)

// Frequency is how often a habit is expected to be completed.
type Frequency string

const (
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly:
		return true
	default:
		return false
	}
}

// PrayerName identifies one of the five daily prayers.
type PrayerName string

const (
	PrayerFajr    PrayerName = "fajr"
	PrayerDhuhr   PrayerName = "dhuhr"
	PrayerAsr     PrayerName = "asr"
	PrayerMaghrib PrayerName = "maghrib"
	PrayerIsha    PrayerName = "isha"
)

// AllPrayers lists the daily prayers in order.
var AllPrayers = []PrayerName{PrayerFajr, PrayerDhuhr, PrayerAsr, PrayerMaghrib, PrayerIsha}

func (p PrayerName) IsValid() bool {
	for _, name := range AllPrayers {
		if p == name {
			return true
		}
	}
	return false
}

// WorkoutType classifies a workout session.
type WorkoutType string

const (
	WorkoutGym     WorkoutType = "gym"
	WorkoutRunning WorkoutType = "running"
	WorkoutHome    WorkoutType = "home"
)

func (w WorkoutType) IsValid() bool {
	switch w {
	case WorkoutGym, WorkoutRunning, WorkoutHome:
		return true
	default:
		return false
	}
}

// Level is a low/medium/high rating used for workout intensity and
// recovery pressure.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

func (l Level) IsValid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	default:
		return false
	}
}

// AttackResult is the outcome of a craving episode.
type AttackResult string

const (
	AttackResisted AttackResult = "resisted"
	AttackFell     AttackResult = "fell"
)

func (r AttackResult) IsValid() bool {
	return r == AttackResisted || r == AttackFell
}

// ProjectStatus is free-form; these are the values the dashboard knows.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectPaused    ProjectStatus = "paused"
)

// AthkarSession is the morning or evening remembrance session.
type AthkarSession string

const (
	SessionMorning AthkarSession = "morning"
	SessionEvening AthkarSession = "evening"
)

func (s AthkarSession) IsValid() bool {
	return s == SessionMorning || s == SessionEvening
}

// Habit is a recurring activity tracked by completion date.
type Habit struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Category       string      `json:"category"`
	Frequency      Frequency   `json:"frequency"`
	CompletedDates []dates.Key `json:"completedDates"`
	Streak         int         `json:"streak"`
}

func (h Habit) Key() string { return h.ID }

// CompletedOn reports whether the habit was completed on day.
func (h Habit) CompletedOn(day dates.Key) bool {
	for _, d := range h.CompletedDates {
		if d == day {
			return true
		}
	}
	return false
}

// Task belongs to exactly one Goal.
type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

func (t Task) Key() string { return t.ID }

// Goal carries a denormalized progress percentage derived from its tasks.
type Goal struct {
	ID          string                    `json:"id"`
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Category    string                    `json:"category"`
	Deadline    string                    `json:"deadline"`
	Progress    int                       `json:"progress"`
	Tasks       logstore.Collection[Task] `json:"tasks"`
}

func (g Goal) Key() string { return g.ID }

// PrayerLog records which prayers were offered on a day.
type PrayerLog struct {
	Date      dates.Key    `json:"date"`
	Completed []PrayerName `json:"completed"`
}

func (p PrayerLog) Key() string { return string(p.Date) }

// Has reports whether name was offered.
func (p PrayerLog) Has(name PrayerName) bool {
	for _, n := range p.Completed {
		if n == name {
			return true
		}
	}
	return false
}

// WorkoutLog is at most one workout per day.
type WorkoutLog struct {
	Date      dates.Key   `json:"date"`
	Type      WorkoutType `json:"type"`
	Duration  int         `json:"duration"`
	Intensity Level       `json:"intensity"`
}

func (w WorkoutLog) Key() string { return string(w.Date) }

// HashishAttack is a craving episode recorded on a hashish day log.
type HashishAttack struct {
	ID       string       `json:"id"`
	Time     string       `json:"time"`
	Activity string       `json:"activity"`
	Reason   string       `json:"reason"`
	Result   AttackResult `json:"result"`
}

func (a HashishAttack) Key() string { return a.ID }

// HashishDayLog is one day of the reduction program.
type HashishDayLog struct {
	Date             dates.Key                          `json:"date"`
	Count            int                                `json:"count"`
	Attacks          logstore.Collection[HashishAttack] `json:"attacks"`
	SmokedDuringWork bool                               `json:"smokedDuringWork"`
}

func (d HashishDayLog) Key() string { return string(d.Date) }

// HashishState holds the reduction program settings and its day logs.
type HashishState struct {
	StartDate      dates.Key                          `json:"startDate"`
	CleanStartDate *dates.Key                         `json:"cleanStartDate"`
	LongestStreak  int                                `json:"longestStreak"`
	CurrentGoal    int                                `json:"currentGoal"`
	DayLogs        logstore.Collection[HashishDayLog] `json:"dayLogs"`
}

// SleepLog is keyed by the day the user woke up.
type SleepLog struct {
	Date      dates.Key `json:"date"`
	SleepTime string    `json:"sleepTime"`
	WakeTime  string    `json:"wakeTime"`
	Duration  float64   `json:"duration"`
}

func (s SleepLog) Key() string { return string(s.Date) }

// QuranLog records pages read on one day. At most one log exists per day.
type QuranLog struct {
	ID        string    `json:"id"`
	Date      dates.Key `json:"date"`
	PagesRead int       `json:"pagesRead"`
}

func (q QuranLog) Key() string { return string(q.Date) }

// QuranState holds the khatma settings and reading logs. Streak is a cache
// of the reading streak at the time of the last log change.
type QuranState struct {
	KhatmaStartDate dates.Key                     `json:"khatmaStartDate"`
	KhatmaGoalDays  int                           `json:"khatmaGoalDays"`
	Streak          int                           `json:"streak"`
	Logs            logstore.Collection[QuranLog] `json:"logs"`
}

// ProjectTask belongs to exactly one Project. At most one open task per
// project is the top task.
type ProjectTask struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	IsTopTask bool   `json:"isTopTask"`
}

func (t ProjectTask) Key() string { return t.ID }

type Project struct {
	ID           string                           `json:"id"`
	Name         string                           `json:"name"`
	Status       ProjectStatus                    `json:"status"`
	Progress     int                              `json:"progress"`
	LastActivity string                           `json:"lastActivity"`
	TargetGoal   string                           `json:"targetGoal,omitempty"`
	CurrentStage string                           `json:"currentStage,omitempty"`
	Tasks        logstore.Collection[ProjectTask] `json:"tasks"`
}

func (p Project) Key() string { return p.ID }

// ProjectPatch carries the editable project fields. Nil fields are left
// unchanged.
type ProjectPatch struct {
	Name         *string        `json:"name,omitempty"`
	Status       *ProjectStatus `json:"status,omitempty"`
	TargetGoal   *string        `json:"targetGoal,omitempty"`
	CurrentStage *string        `json:"currentStage,omitempty"`
}

// RecoveryUrge is an urge recorded on a recovery day log.
type RecoveryUrge struct {
	ID              string    `json:"id"`
	Date            dates.Key `json:"date"`
	Time            string    `json:"time"`
	Reason          string    `json:"reason"`
	Intensity       int       `json:"intensity"`
	AlternativeUsed string    `json:"alternativeUsed,omitempty"`
}

func (u RecoveryUrge) Key() string { return u.ID }

// RecoveryLog is one day of the recovery program. A day without a log is
// considered clean.
type RecoveryLog struct {
	ID            string                            `json:"id"`
	Date          dates.Key                         `json:"date"`
	PressureLevel Level                             `json:"pressureLevel"`
	IsClean       bool                              `json:"isClean"`
	Urges         logstore.Collection[RecoveryUrge] `json:"urges"`
}

func (r RecoveryLog) Key() string { return string(r.Date) }

// RecoveryState holds the recovery program settings and its day logs.
type RecoveryState struct {
	StartDate      dates.Key                        `json:"startDate"`
	CleanStartDate *dates.Key                       `json:"cleanStartDate"`
	LongestStreak  int                              `json:"longestStreak"`
	CurrentGoal    int                              `json:"currentGoal"`
	Logs           logstore.Collection[RecoveryLog] `json:"logs"`
}

// AthkarLog records the remembrance sessions and per-thikr counters of a day.
type AthkarLog struct {
	Date             dates.Key      `json:"date"`
	MorningCompleted bool           `json:"morningCompleted"`
	EveningCompleted bool           `json:"eveningCompleted"`
	Counts           map[string]int `json:"counts"`
}

func (a AthkarLog) Key() string { return string(a.Date) }

// State is the aggregate of every tracked domain for one user.
type State struct {
	Habits        logstore.Collection[Habit]      `json:"habits"`
	Goals         logstore.Collection[Goal]       `json:"goals"`
	PrayerLogs    logstore.Collection[PrayerLog]  `json:"prayerLogs"`
	WorkoutLogs   logstore.Collection[WorkoutLog] `json:"workoutLogs"`
	HashishState  HashishState                    `json:"hashishState"`
	SleepLogs     logstore.Collection[SleepLog]   `json:"sleepLogs"`
	QuranState    QuranState                      `json:"quranState"`
	Projects      logstore.Collection[Project]    `json:"projects"`
	RecoveryState RecoveryState                   `json:"recoveryState"`
	AthkarLogs    logstore.Collection[AthkarLog]  `json:"athkarLogs"`
}

// NewState returns an empty aggregate whose program settings start today.
func NewState(today dates.Key) State {
	return State{
		HashishState:  DefaultHashishState(today),
		QuranState:    DefaultQuranState(today),
		RecoveryState: DefaultRecoveryState(today),
	}
}

func DefaultHashishState(today dates.Key) HashishState {
	return HashishState{StartDate: today, CurrentGoal: DefaultCleanGoalDays}
}

func DefaultQuranState(today dates.Key) QuranState {
	return QuranState{KhatmaStartDate: today, KhatmaGoalDays: DefaultKhatmaGoalDays}
}

func DefaultRecoveryState(today dates.Key) RecoveryState {
	return RecoveryState{StartDate: today, CurrentGoal: DefaultCleanGoalDays}
}

// FillDefaults synthesizes any program settings missing from s.
func (s State) FillDefaults(today dates.Key) State {
	if s.HashishState.StartDate == "" {
		s.HashishState.StartDate = today
	}
	if s.HashishState.CurrentGoal <= 0 {
		s.HashishState.CurrentGoal = DefaultCleanGoalDays
	}
	if s.QuranState.KhatmaStartDate == "" {
		s.QuranState.KhatmaStartDate = today
	}
	if s.QuranState.KhatmaGoalDays <= 0 {
		s.QuranState.KhatmaGoalDays = DefaultKhatmaGoalDays
	}
	if s.RecoveryState.StartDate == "" {
		s.RecoveryState.StartDate = today
	}
	if s.RecoveryState.CurrentGoal <= 0 {
		s.RecoveryState.CurrentGoal = DefaultCleanGoalDays
	}
	return s
}

// KeyPtr returns a pointer to k, for the nullable clean-start fields.
func KeyPtr(k dates.Key) *dates.Key {
	return &k
}
