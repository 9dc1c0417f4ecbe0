package state

import (
	"fmt"

	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/metrics"
	"github.com/hyperengineering/hasad/internal/types"
)

// AthkarSummary is today's remembrance progress.
type AthkarSummary struct {
	MorningCompleted bool `json:"morningCompleted"`
	EveningCompleted bool `json:"eveningCompleted"`
	TotalCount       int  `json:"totalCount"`
}

// Summary holds the cross-domain dashboard values. It is computed at read
// time and never persisted.
type Summary struct {
	Date                   dates.Key             `json:"date"`
	HabitsTotal            int                   `json:"habitsTotal"`
	HabitsDoneToday        int                   `json:"habitsDoneToday"`
	HabitPercent           int                   `json:"habitPercent"`
	BestHabitStreak        int                   `json:"bestHabitStreak"`
	PrayersToday           int                   `json:"prayersToday"`
	PrayerPercent          int                   `json:"prayerPercent"`
	PrayerStreak           int                   `json:"prayerStreak"`
	GoalsTotal             int                   `json:"goalsTotal"`
	ActiveProjects         int                   `json:"activeProjects"`
	AverageProjectProgress int                   `json:"averageProjectProgress"`
	Sports                 metrics.SportsStats   `json:"sports"`
	Sleep                  metrics.SleepStats    `json:"sleep"`
	Hashish                metrics.HashishStats  `json:"hashish"`
	Quran                  metrics.Pacing        `json:"quran"`
	Recovery               metrics.RecoveryStats `json:"recovery"`
	Athkar                 AthkarSummary         `json:"athkar"`
}

// Summarize derives the dashboard for today.
func Summarize(s types.State, today dates.Key) Summary {
	sum := Summary{
		Date:         today,
		HabitsTotal:  s.Habits.Len(),
		GoalsTotal:   s.Goals.Len(),
		PrayerStreak: metrics.CurrentStreak(today, metrics.PrayerDays(s.PrayerLogs), metrics.StreakOptions{}),
		Sports:       metrics.Sports(s.WorkoutLogs, today),
		Sleep:        metrics.Sleep(s.SleepLogs),
		Hashish:      metrics.Hashish(s.HashishState, today),
		Quran:        metrics.QuranPacing(s.QuranState, today),
		Recovery:     metrics.Recovery(s.RecoveryState, today),
	}

	for _, h := range s.Habits.All() {
		if h.CompletedOn(today) {
			sum.HabitsDoneToday++
		}
		sum.BestHabitStreak = max(sum.BestHabitStreak, metrics.HabitStreak(h, today))
	}
	sum.HabitPercent = metrics.Progress(sum.HabitsDoneToday, sum.HabitsTotal)

	if l, ok := s.PrayerLogs.Find(string(today)); ok {
		sum.PrayersToday = len(l.Completed)
	}
	sum.PrayerPercent = metrics.Progress(sum.PrayersToday, len(types.AllPrayers))

	active := s.Projects.Filter(func(p types.Project) bool { return p.Status == types.ProjectActive })
	sum.ActiveProjects = active.Len()
	if sum.ActiveProjects > 0 {
		total := 0
		for _, p := range active.All() {
			total += p.Progress
		}
		sum.AverageProjectProgress = metrics.Progress(total, sum.ActiveProjects*100)
	}

	if l, ok := s.AthkarLogs.Find(string(today)); ok {
		sum.Athkar.MorningCompleted = l.MorningCompleted
		sum.Athkar.EveningCompleted = l.EveningCompleted
		for _, n := range l.Counts {
			sum.Athkar.TotalCount += n
		}
	}
	return sum
}

// VerifyDerived recomputes every denormalized cache in s as of today and
// describes each one that disagrees with its stored value.
func VerifyDerived(s types.State, today dates.Key) []string {
	var drift []string
	for _, g := range s.Goals.All() {
		if want := metrics.GoalProgress(g.Tasks); g.Progress != want {
			drift = append(drift, fmt.Sprintf("goal %s: progress %d, want %d", g.ID, g.Progress, want))
		}
	}
	for _, p := range s.Projects.All() {
		if want := metrics.ProjectProgress(p.Tasks); p.Progress != want {
			drift = append(drift, fmt.Sprintf("project %s: progress %d, want %d", p.ID, p.Progress, want))
		}
		tops := p.Tasks.Count(func(t types.ProjectTask) bool { return t.IsTopTask })
		if tops > 1 {
			drift = append(drift, fmt.Sprintf("project %s: %d top tasks", p.ID, tops))
		}
	}
	for _, h := range s.Habits.All() {
		if want := metrics.HabitStreak(h, today); h.Streak != want {
			drift = append(drift, fmt.Sprintf("habit %s: streak %d, want %d", h.ID, h.Streak, want))
		}
	}
	if want := metrics.QuranStreak(s.QuranState, today); s.QuranState.Streak != want {
		drift = append(drift, fmt.Sprintf("quran: streak %d, want %d", s.QuranState.Streak, want))
	}
	return drift
}
