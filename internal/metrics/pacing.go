package metrics

import (
	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/types"
)

// QuranPages is the page count of a complete reading.
const QuranPages = types.MaxQuranPages

// Pacing is the khatma progress as of one day. It is recomputed on every
// read and never cached.
type Pacing struct {
	PagesRead         int `json:"pagesRead"`
	PagesRemaining    int `json:"pagesRemaining"`
	Percent           int `json:"percent"`
	DaysElapsed       int `json:"daysElapsed"`
	DaysRemaining     int `json:"daysRemaining"`
	BaseDailyTarget   int `json:"baseDailyTarget"`
	RequiredDailyPace int `json:"requiredDailyPace"`
	PagesToday        int `json:"pagesToday"`
	Streak            int `json:"streak"`
}

// QuranPacing derives pacing targets for today.
func QuranPacing(q types.QuranState, today dates.Key) Pacing {
	read := 0
	for _, l := range q.Logs.All() {
		read += max(0, l.PagesRead)
	}

	p := Pacing{
		PagesRead:       read,
		PagesRemaining:  max(0, QuranPages-read),
		Percent:         min(100, Progress(read, QuranPages)),
		BaseDailyTarget: BaseDailyTarget(q.KhatmaGoalDays),
		Streak:          QuranStreak(q, today),
	}
	if q.KhatmaStartDate.Valid() {
		p.DaysElapsed = dates.DaysBetween(q.KhatmaStartDate, today)
	}
	p.DaysRemaining = max(0, q.KhatmaGoalDays-p.DaysElapsed)
	p.RequiredDailyPace = RequiredDailyPace(p.PagesRemaining, p.DaysRemaining)
	if l, ok := q.Logs.Find(string(today)); ok {
		p.PagesToday = l.PagesRead
	}
	return p
}

// BaseDailyTarget is ceil(QuranPages/goalDays). A non-positive goal reads
// the whole text in one day.
func BaseDailyTarget(goalDays int) int {
	if goalDays <= 0 {
		return QuranPages
	}
	return ceilDiv(QuranPages, goalDays)
}

// RequiredDailyPace is ceil(remaining/daysRemaining), or the full remainder
// once no days are left.
func RequiredDailyPace(remaining, daysRemaining int) int {
	if remaining <= 0 {
		return 0
	}
	if daysRemaining <= 0 {
		return remaining
	}
	return ceilDiv(remaining, daysRemaining)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
