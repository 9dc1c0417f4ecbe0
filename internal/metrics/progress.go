package metrics

import (
	"math"

	"github.com/hyperengineering/hasad/internal/logstore"
	"github.com/hyperengineering/hasad/internal/types"
)

// Progress is round(completed/total*100), or 0 when total is zero.
func Progress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// GoalProgress recomputes a goal's progress from its tasks.
func GoalProgress(tasks logstore.Collection[types.Task]) int {
	done := tasks.Count(func(t types.Task) bool { return t.Completed })
	return Progress(done, tasks.Len())
}

// ProjectProgress recomputes a project's progress from its tasks.
func ProjectProgress(tasks logstore.Collection[types.ProjectTask]) int {
	done := tasks.Count(func(t types.ProjectTask) bool { return t.Completed })
	return Progress(done, tasks.Len())
}
