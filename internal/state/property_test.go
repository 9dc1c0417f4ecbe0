package state

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/metrics"
	"github.com/hyperengineering/hasad/internal/types"
)

// genMutation draws one mutation over a small id and date space so that
// sequences collide on the same keys often.
func genMutation(today dates.Key) *rapid.Generator[Mutation] {
	return rapid.Custom(func(t *rapid.T) Mutation {
		id := fmt.Sprintf("id%d", rapid.IntRange(0, 3).Draw(t, "id"))
		child := fmt.Sprintf("c%d", rapid.IntRange(0, 3).Draw(t, "child"))
		date := today.AddDays(-rapid.IntRange(0, 6).Draw(t, "offset"))
		n := rapid.IntRange(-3, 8).Draw(t, "n")

		switch rapid.IntRange(0, 17).Draw(t, "op") {
		case 0:
			return AddHabit(id, "habit "+id, "", types.FrequencyDaily)
		case 1:
			return ToggleHabit(id, today)
		case 2:
			return DeleteHabit(id)
		case 3:
			return AddGoal(types.Goal{ID: id, Title: "goal " + id})
		case 4:
			return AddGoalTask(id, types.Task{ID: child, Title: "task"})
		case 5:
			return ToggleGoalTask(id, child)
		case 6:
			return DeleteGoalTask(id, child)
		case 7:
			return AddProject(types.Project{ID: id, Name: "project " + id}, today)
		case 8:
			return AddProjectTask(id, types.ProjectTask{ID: child, Title: "task"}, today)
		case 9:
			return ToggleProjectTask(id, child, today)
		case 10:
			return DeleteProjectTask(id, child, today)
		case 11:
			return SaveQuranReading(id, date, n, today)
		case 12:
			return DeleteQuranLog(id, today)
		case 13:
			return ChangeHashishCount(date, n, today)
		case 14:
			return MarkHashishCleanDay(today)
		case 15:
			return MarkRelapse(id, date, today)
		case 16:
			return CorrectRelapse(date)
		default:
			return AdjustThikrCount(date, child, n)
		}
	})
}

func TestProperty_CachesNeverDiverge(t *testing.T) {
	const today dates.Key = "2024-01-12"

	rapid.Check(t, func(t *rapid.T) {
		muts := rapid.SliceOfN(genMutation(today), 1, 60).Draw(t, "mutations")

		c := NewContainer(types.NewState("2024-01-01"))
		for _, m := range muts {
			c.Apply(m)
			if drift := VerifyDerived(c.State(), today); len(drift) > 0 {
				t.Fatalf("derived caches diverged: %v", drift)
			}
		}
	})
}

func TestProperty_CountsNeverNegative(t *testing.T) {
	const today dates.Key = "2024-01-12"

	rapid.Check(t, func(t *rapid.T) {
		muts := rapid.SliceOfN(genMutation(today), 1, 60).Draw(t, "mutations")

		s := types.NewState("2024-01-01")
		longest := 0
		for _, m := range muts {
			s = m(s)
			if s.HashishState.LongestStreak < longest {
				t.Fatalf("longest streak decreased from %d to %d", longest, s.HashishState.LongestStreak)
			}
			longest = s.HashishState.LongestStreak
		}
		for _, l := range s.HashishState.DayLogs.All() {
			if l.Count < 0 {
				t.Fatalf("negative count on %s: %d", l.Date, l.Count)
			}
		}
		for _, l := range s.AthkarLogs.All() {
			for id, n := range l.Counts {
				if n < 0 {
					t.Fatalf("negative thikr count %s on %s: %d", id, l.Date, n)
				}
			}
		}
		if metrics.HashishCleanDays(s.HashishState, today) < 0 {
			t.Fatal("negative clean days")
		}
	})
}
