package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/hasad/internal/state"
	"github.com/hyperengineering/hasad/internal/store"
)

var stateShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Show the dashboard summary for a user",
	Long:  "Loads a user's state and prints the derived dashboard for the evaluated day.",
	Args:  cobra.ExactArgs(1),
	RunE:  runStateShow,
}

func runStateShow(cmd *cobra.Command, args []string) error {
	userID := args[0]
	ctx := context.Background()

	if err := store.ValidateUserID(userID); err != nil {
		return err
	}
	today, err := resolveToday(stateDateOverride)
	if err != nil {
		return err
	}

	s, err := resolveStore()
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.GetState(ctx, userID, today)
	if err != nil {
		return fmt.Errorf("load state for %q: %w", userID, err)
	}
	sum := state.Summarize(*st, today)

	if stateJSONOutput {
		return printJSON(cmd.OutOrStdout(), sum)
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintf(w, "User:\t%s\n", userID)
	fmt.Fprintf(w, "Date:\t%s\n", sum.Date)
	fmt.Fprintf(w, "Habits:\t%d/%d done (%d%%), best streak %d\n",
		sum.HabitsDoneToday, sum.HabitsTotal, sum.HabitPercent, sum.BestHabitStreak)
	fmt.Fprintf(w, "Prayers:\t%d today (%d%%), streak %d\n",
		sum.PrayersToday, sum.PrayerPercent, sum.PrayerStreak)
	fmt.Fprintf(w, "Goals:\t%d\n", sum.GoalsTotal)
	fmt.Fprintf(w, "Projects:\t%d active, %d%% average progress\n",
		sum.ActiveProjects, sum.AverageProjectProgress)
	fmt.Fprintf(w, "Sports:\t%d this week of %d, streak %d, level %s\n",
		sum.Sports.ThisWeekCount, sum.Sports.WeeklyCommitment, sum.Sports.CurrentStreak, sum.Sports.Level.Name)
	fmt.Fprintf(w, "Sleep:\t%d nights, %.1fh average\n", sum.Sleep.Nights, sum.Sleep.AverageHours)
	fmt.Fprintf(w, "Hashish:\tweek %d, %d/%d today, %d clean days\n",
		sum.Hashish.Week, sum.Hashish.TodayCount, sum.Hashish.DailyLimit, sum.Hashish.CleanDays)
	fmt.Fprintf(w, "Quran:\t%d pages read (%d%%), %d/day required\n",
		sum.Quran.PagesRead, sum.Quran.Percent, sum.Quran.RequiredDailyPace)
	fmt.Fprintf(w, "Recovery:\t%d sober days, clean streak %d, %d urges today\n",
		sum.Recovery.SoberDays, sum.Recovery.CleanStreak, sum.Recovery.UrgesToday)
	fmt.Fprintf(w, "Athkar:\tmorning %t, evening %t, %d counted\n",
		sum.Athkar.MorningCompleted, sum.Athkar.EveningCompleted, sum.Athkar.TotalCount)
	return w.Flush()
}
