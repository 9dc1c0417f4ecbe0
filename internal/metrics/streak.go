// Package metrics derives the values that are never trusted from storage:
// streaks, phase limits, pacing targets and progress percentages.
//
// Every function is pure and total. Empty or missing inputs resolve to the
// base value of the metric instead of an error.
package metrics

import (
	"sort"

	"github.com/hyperengineering/hasad/internal/dates"
)

// maxWalkDays bounds a backward walk for classifiers that qualify days
// without a backing log.
const maxWalkDays = 100 * 366

// DayStatus is how a single day counts toward a streak.
type DayStatus int

const (
	// Missing means nothing qualifying was logged. It ends a walk but does
	// not disqualify today on its own.
	Missing DayStatus = iota
	Qualified
	// Failed is an explicit failure entry. It breaks the streak even when it
	// falls on today.
	Failed
)

// Classifier reports the status of a day for one domain.
type Classifier func(day dates.Key) DayStatus

// StreakOptions tunes CurrentStreak.
type StreakOptions struct {
	// Since is the program-start boundary. Days before it never count.
	Since dates.Key
}

// CurrentStreak counts consecutive qualifying days ending today, or ending
// yesterday when nothing has been logged today yet.
func CurrentStreak(today dates.Key, classify Classifier, opts StreakOptions) int {
	if classify == nil || !today.Valid() {
		return 0
	}

	day := today
	switch classify(today) {
	case Failed:
		return 0
	case Missing:
		day = today.AddDays(-1)
		if classify(day) != Qualified {
			return 0
		}
	}

	streak := 0
	for streak < maxWalkDays {
		if opts.Since != "" && day.Before(opts.Since) {
			break
		}
		if classify(day) != Qualified {
			break
		}
		streak++
		day = day.AddDays(-1)
	}
	return streak
}

// LongestRun returns the longest run of consecutive qualifying days among
// days, which may be unsorted and contain duplicates.
func LongestRun(days []dates.Key, classify Classifier) int {
	if classify == nil || len(days) == 0 {
		return 0
	}

	sorted := make([]dates.Key, 0, len(days))
	seen := make(map[dates.Key]bool, len(days))
	for _, d := range days {
		if !d.Valid() || seen[d] {
			continue
		}
		seen[d] = true
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	longest, run := 0, 0
	var prev dates.Key
	for _, d := range sorted {
		if classify(d) != Qualified {
			run = 0
			prev = ""
			continue
		}
		if prev != "" && dates.DaysBetween(prev, d) == 1 {
			run++
		} else {
			run = 1
		}
		prev = d
		longest = max(longest, run)
	}
	return longest
}

// KeepLongest is the monotonic longest-streak update. It never decreases.
func KeepLongest(longest, justEnded int) int {
	return max(longest, justEnded)
}
