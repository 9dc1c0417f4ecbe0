package state

import (
	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/logstore"
	"github.com/hyperengineering/hasad/internal/metrics"
	"github.com/hyperengineering/hasad/internal/types"
)

// AddHabit inserts a new habit at the front of the list.
func AddHabit(id, name, category string, frequency types.Frequency) Mutation {
	return func(s types.State) types.State {
		name := types.CleanText(name, types.MaxNameLength)
		if !types.ValidID(id) || name == "" || s.Habits.Has(id) {
			return s
		}
		frequency := frequency
		if frequency == "" {
			frequency = types.FrequencyDaily
		}
		if !frequency.IsValid() {
			return s
		}
		s.Habits = s.Habits.Prepend(types.Habit{
			ID:        id,
			Name:      name,
			Category:  types.CleanText(category, types.MaxNameLength),
			Frequency: frequency,
		})
		return s
	}
}

// ToggleHabit flips today's completion of a habit and recomputes its
// cached streak.
func ToggleHabit(id string, today dates.Key) Mutation {
	return func(s types.State) types.State {
		h, ok := s.Habits.Find(id)
		if !ok || !today.Valid() {
			return s
		}
		h.CompletedDates = toggleMember(h.CompletedDates, today)
		h.Streak = metrics.HabitStreak(h, today)
		s.Habits = s.Habits.Upsert(h)
		return s
	}
}

// DeleteHabit removes a habit.
func DeleteHabit(id string) Mutation {
	return func(s types.State) types.State {
		s.Habits = s.Habits.Remove(id)
		return s
	}
}

// RefreshStreaks recomputes every cached streak as of today. Caches only
// change on edits, so a client refreshes them once the calendar moves on.
func RefreshStreaks(today dates.Key) Mutation {
	return func(s types.State) types.State {
		if !today.Valid() {
			return s
		}
		s.Habits = s.Habits.Map(func(h types.Habit) types.Habit {
			h.Streak = metrics.HabitStreak(h, today)
			return h
		})
		s.QuranState.Streak = metrics.QuranStreak(s.QuranState, today)
		return s
	}
}

// AddGoal inserts a goal at the front of the list with no tasks.
func AddGoal(g types.Goal) Mutation {
	return func(s types.State) types.State {
		g := g
		g.Title = types.CleanText(g.Title, types.MaxNameLength)
		if !types.ValidID(g.ID) || g.Title == "" || s.Goals.Has(g.ID) {
			return s
		}
		g.Description = types.CleanText(g.Description, types.MaxTextLength)
		g.Category = types.CleanText(g.Category, types.MaxNameLength)
		g.Tasks = logstore.Collection[types.Task]{}
		g.Progress = 0
		s.Goals = s.Goals.Prepend(g)
		return s
	}
}

// DeleteGoal removes a goal and its tasks.
func DeleteGoal(id string) Mutation {
	return func(s types.State) types.State {
		s.Goals = s.Goals.Remove(id)
		return s
	}
}

// updateGoalTasks applies fn to a goal's tasks and recomputes progress.
func updateGoalTasks(s types.State, goalID string, fn func(logstore.Collection[types.Task]) logstore.Collection[types.Task]) types.State {
	g, ok := s.Goals.Find(goalID)
	if !ok {
		return s
	}
	g.Tasks = fn(g.Tasks)
	g.Progress = metrics.GoalProgress(g.Tasks)
	s.Goals = s.Goals.Upsert(g)
	return s
}

// AddGoalTask appends a task to a goal.
func AddGoalTask(goalID string, task types.Task) Mutation {
	return func(s types.State) types.State {
		task := task
		task.Title = types.CleanText(task.Title, types.MaxNameLength)
		if !types.ValidID(task.ID) || task.Title == "" {
			return s
		}
		return updateGoalTasks(s, goalID, func(tasks logstore.Collection[types.Task]) logstore.Collection[types.Task] {
			if tasks.Has(task.ID) {
				return tasks
			}
			return tasks.Upsert(task)
		})
	}
}

// ToggleGoalTask flips a task's completion.
func ToggleGoalTask(goalID, taskID string) Mutation {
	return func(s types.State) types.State {
		return updateGoalTasks(s, goalID, func(tasks logstore.Collection[types.Task]) logstore.Collection[types.Task] {
			t, ok := tasks.Find(taskID)
			if !ok {
				return tasks
			}
			t.Completed = !t.Completed
			return tasks.Upsert(t)
		})
	}
}

// DeleteGoalTask removes a task from a goal.
func DeleteGoalTask(goalID, taskID string) Mutation {
	return func(s types.State) types.State {
		return updateGoalTasks(s, goalID, func(tasks logstore.Collection[types.Task]) logstore.Collection[types.Task] {
			return tasks.Remove(taskID)
		})
	}
}

// AddProject appends a project. Its progress is derived from the tasks it
// arrives with, and the top-task marker is normalized.
func AddProject(p types.Project, today dates.Key) Mutation {
	return func(s types.State) types.State {
		p := p
		p.Name = types.CleanText(p.Name, types.MaxNameLength)
		if !types.ValidID(p.ID) || p.Name == "" || s.Projects.Has(p.ID) {
			return s
		}
		p.Status = types.ProjectStatus(types.CleanText(string(p.Status), types.MaxNameLength))
		if p.Status == "" {
			p.Status = types.ProjectActive
		}
		p.TargetGoal = types.CleanText(p.TargetGoal, types.MaxTextLength)
		p.CurrentStage = types.CleanText(p.CurrentStage, types.MaxNameLength)
		if p.LastActivity == "" {
			p.LastActivity = string(today)
		}
		p.Tasks = p.Tasks.Filter(func(t types.ProjectTask) bool {
			return types.ValidID(t.ID) && types.CleanText(t.Title, types.MaxNameLength) != ""
		}).Map(func(t types.ProjectTask) types.ProjectTask {
			t.ProjectID = p.ID
			t.Title = types.CleanText(t.Title, types.MaxNameLength)
			return t
		})
		p.Tasks = normalizeTopTask(p.Tasks)
		p.Progress = metrics.ProjectProgress(p.Tasks)
		s.Projects = s.Projects.Upsert(p)
		return s
	}
}

// UpdateProject applies the non-nil fields of patch.
func UpdateProject(id string, patch types.ProjectPatch, today dates.Key) Mutation {
	return func(s types.State) types.State {
		p, ok := s.Projects.Find(id)
		if !ok {
			return s
		}
		if patch.Name != nil {
			name := types.CleanText(*patch.Name, types.MaxNameLength)
			if name == "" {
				return s
			}
			p.Name = name
		}
		if patch.Status != nil {
			if status := types.CleanText(string(*patch.Status), types.MaxNameLength); status != "" {
				p.Status = types.ProjectStatus(status)
			}
		}
		if patch.TargetGoal != nil {
			p.TargetGoal = types.CleanText(*patch.TargetGoal, types.MaxTextLength)
		}
		if patch.CurrentStage != nil {
			p.CurrentStage = types.CleanText(*patch.CurrentStage, types.MaxNameLength)
		}
		p.LastActivity = string(today)
		s.Projects = s.Projects.Upsert(p)
		return s
	}
}

// DeleteProject removes a project and its tasks.
func DeleteProject(id string) Mutation {
	return func(s types.State) types.State {
		s.Projects = s.Projects.Remove(id)
		return s
	}
}

// normalizeTopTask keeps at most one top task and makes sure an open task
// holds the marker whenever one exists.
func normalizeTopTask(tasks logstore.Collection[types.ProjectTask]) logstore.Collection[types.ProjectTask] {
	top, hasTop := tasks.FindBy(func(t types.ProjectTask) bool { return t.IsTopTask && !t.Completed })
	next, hasOpen := tasks.FindBy(func(t types.ProjectTask) bool { return !t.Completed })
	keep := ""
	switch {
	case hasTop:
		keep = top.ID
	case hasOpen:
		keep = next.ID
	}
	return tasks.Map(func(t types.ProjectTask) types.ProjectTask {
		t.IsTopTask = t.ID == keep
		return t
	})
}

func updateProjectTasks(s types.State, projectID, taskID string, today dates.Key, fn func(logstore.Collection[types.ProjectTask]) logstore.Collection[types.ProjectTask]) types.State {
	p, ok := s.Projects.Find(projectID)
	if !ok || (taskID != "" && !p.Tasks.Has(taskID)) {
		return s
	}
	p.Tasks = normalizeTopTask(fn(p.Tasks))
	p.Progress = metrics.ProjectProgress(p.Tasks)
	p.LastActivity = string(today)
	s.Projects = s.Projects.Upsert(p)
	return s
}

// AddProjectTask appends a task. The first open task becomes the top task.
func AddProjectTask(projectID string, task types.ProjectTask, today dates.Key) Mutation {
	return func(s types.State) types.State {
		task := task
		task.Title = types.CleanText(task.Title, types.MaxNameLength)
		if !types.ValidID(task.ID) || task.Title == "" {
			return s
		}
		task.ProjectID = projectID
		task.IsTopTask = false
		if p, ok := s.Projects.Find(projectID); !ok || p.Tasks.Has(task.ID) {
			return s
		}
		return updateProjectTasks(s, projectID, "", today, func(tasks logstore.Collection[types.ProjectTask]) logstore.Collection[types.ProjectTask] {
			return tasks.Upsert(task)
		})
	}
}

// ToggleProjectTask flips a task's completion. Completing the top task
// hands the marker to the next open task.
func ToggleProjectTask(projectID, taskID string, today dates.Key) Mutation {
	return func(s types.State) types.State {
		return updateProjectTasks(s, projectID, taskID, today, func(tasks logstore.Collection[types.ProjectTask]) logstore.Collection[types.ProjectTask] {
			t, _ := tasks.Find(taskID)
			t.Completed = !t.Completed
			if t.Completed {
				t.IsTopTask = false
			}
			return tasks.Upsert(t)
		})
	}
}

// DeleteProjectTask removes a task, promoting the next open task when the
// top task is deleted.
func DeleteProjectTask(projectID, taskID string, today dates.Key) Mutation {
	return func(s types.State) types.State {
		return updateProjectTasks(s, projectID, taskID, today, func(tasks logstore.Collection[types.ProjectTask]) logstore.Collection[types.ProjectTask] {
			return tasks.Remove(taskID)
		})
	}
}
