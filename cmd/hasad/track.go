package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/hasad/internal/config"
	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/state"
	"github.com/hyperengineering/hasad/internal/types"
	"github.com/hyperengineering/hasad/pkg/hasad"
)

var (
	trackServer string
	trackUser   string
	trackAPIKey string
	trackDate   string

	workoutType      string
	workoutDuration  int
	workoutIntensity string

	urgeIntensity int
	urgeReason    string
	urgeTime      string
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record entries against a running server",
	Long:  "Applies a single change to a user's state through the client library and writes it to the server before exiting.",
}

func init() {
	trackCmd.PersistentFlags().StringVar(&trackServer, "server", "",
		"Server URL (overrides config and HASAD_SERVER_URL)")
	trackCmd.PersistentFlags().StringVar(&trackUser, "user", "",
		"User whose state is changed (required)")
	trackCmd.PersistentFlags().StringVar(&trackAPIKey, "api-key", "",
		"API key (overrides HASAD_API_KEY)")
	trackCmd.PersistentFlags().StringVar(&trackDate, "date", "",
		"Day the entry is recorded for (YYYY-MM-DD, default today)")

	trackWorkoutCmd.Flags().StringVar(&workoutType, "type", string(types.WorkoutGym),
		"Workout type: gym, running, or home")
	trackWorkoutCmd.Flags().IntVar(&workoutDuration, "duration", 0,
		"Duration in minutes")
	trackWorkoutCmd.Flags().StringVar(&workoutIntensity, "intensity", string(types.LevelMedium),
		"Intensity: low, medium, or high")

	trackUrgeCmd.Flags().IntVar(&urgeIntensity, "intensity", 5,
		"Urge intensity from 1 to 10")
	trackUrgeCmd.Flags().StringVar(&urgeReason, "reason", "",
		"What triggered the urge")
	trackUrgeCmd.Flags().StringVar(&urgeTime, "time", "",
		"Clock time HH:MM (default now)")

	trackCmd.AddCommand(trackPrayerCmd)
	trackCmd.AddCommand(trackHabitCmd)
	trackCmd.AddCommand(trackWorkoutCmd)
	trackCmd.AddCommand(trackSleepCmd)
	trackCmd.AddCommand(trackQuranCmd)
	trackCmd.AddCommand(trackHashishCmd)
	trackCmd.AddCommand(trackCleanDayCmd)
	trackCmd.AddCommand(trackUrgeCmd)
	trackCmd.AddCommand(trackThikrCmd)
}

// trackDay carries the day an entry is recorded for and the real calendar
// day used for derived fields.
type trackDay struct {
	date  dates.Key
	today dates.Key
}

// runTrack builds the mutation, applies it through a client and flushes the
// write before returning.
func runTrack(cmd *cobra.Command, build func(d trackDay) (state.Mutation, error)) error {
	if trackUser == "" {
		return fmt.Errorf("--user is required")
	}

	d := trackDay{today: dates.Today(time.Now)}
	d.date = d.today
	if trackDate != "" {
		k, err := dates.ParseKey(trackDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		d.date = k
	}

	m, err := build(d)
	if err != nil {
		return err
	}

	cfg, err := config.LoadLocal()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	serverURL := cfg.Sync.ServerURL
	if trackServer != "" {
		serverURL = trackServer
	}
	apiKey := cfg.Auth.APIKey
	if trackAPIKey != "" {
		apiKey = trackAPIKey
	}

	client, err := hasad.New(hasad.Config{
		BaseURL:        serverURL,
		APIKey:         apiKey,
		UserID:         trackUser,
		DebounceWindow: time.Duration(cfg.Sync.Debounce),
		RequestTimeout: time.Duration(cfg.Sync.RequestTimeout),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Duration(cfg.Sync.RequestTimeout))
	defer cancel()

	// Initialize falls back to defaults on a failed fetch, which would then
	// overwrite the stored state. Refuse to write without a reachable server.
	if _, err := client.Ping(ctx); err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	if err := client.Initialize(ctx); err != nil {
		return err
	}
	if _, err := client.Apply(m); err != nil {
		return err
	}
	if err := client.Shutdown(ctx); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s for %q on %s\n", cmd.Name(), trackUser, d.date)
	return nil
}

var trackPrayerCmd = &cobra.Command{
	Use:   "prayer <name|all>",
	Short: "Toggle a prayer, or mark all five prayed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrack(cmd, func(d trackDay) (state.Mutation, error) {
			if args[0] == "all" {
				return state.MarkAllPrayed(d.date), nil
			}
			name := types.PrayerName(args[0])
			if !name.IsValid() {
				return nil, fmt.Errorf("unknown prayer %q", args[0])
			}
			return state.TogglePrayer(d.date, name), nil
		})
	},
}

var trackHabitCmd = &cobra.Command{
	Use:   "habit <habit-id>",
	Short: "Toggle a habit's completion for the day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrack(cmd, func(d trackDay) (state.Mutation, error) {
			return state.ToggleHabit(args[0], d.date), nil
		})
	},
}

var trackWorkoutCmd = &cobra.Command{
	Use:   "workout",
	Short: "Record the day's workout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrack(cmd, func(d trackDay) (state.Mutation, error) {
			if workoutDuration <= 0 {
				return nil, fmt.Errorf("--duration must be positive")
			}
			return state.SaveWorkout(types.WorkoutLog{
				Date:      d.date,
				Type:      types.WorkoutType(workoutType),
				Duration:  workoutDuration,
				Intensity: types.Level(workoutIntensity),
			}), nil
		})
	},
}

var trackSleepCmd = &cobra.Command{
	Use:   "sleep <sleep-time> <wake-time>",
	Short: "Record the night's sleep as HH:MM times",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrack(cmd, func(d trackDay) (state.Mutation, error) {
			for _, c := range args {
				if !dates.ValidClock(c) {
					return nil, fmt.Errorf("invalid clock time %q", c)
				}
			}
			return state.SaveSleep(d.date, args[0], args[1]), nil
		})
	},
}

var trackQuranCmd = &cobra.Command{
	Use:   "quran <pages>",
	Short: "Record pages read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrack(cmd, func(d trackDay) (state.Mutation, error) {
			pages, err := strconv.Atoi(args[0])
			if err != nil || pages < 0 {
				return nil, fmt.Errorf("invalid page count %q", args[0])
			}
			return state.SaveQuranReading(state.NewID(), d.date, pages, d.today), nil
		})
	},
}

var trackHashishCmd = &cobra.Command{
	Use:   "hashish <delta>",
	Short: "Adjust the day's hashish count by a signed delta",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrack(cmd, func(d trackDay) (state.Mutation, error) {
			delta, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("invalid delta %q", args[0])
			}
			return state.ChangeHashishCount(d.date, delta, d.today), nil
		})
	},
}

var trackCleanDayCmd = &cobra.Command{
	Use:   "clean-day",
	Short: "Mark today clean in the reduction program",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrack(cmd, func(d trackDay) (state.Mutation, error) {
			return state.MarkHashishCleanDay(d.today), nil
		})
	},
}

var trackUrgeCmd = &cobra.Command{
	Use:   "urge",
	Short: "Record a recovery urge",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrack(cmd, func(d trackDay) (state.Mutation, error) {
			if urgeIntensity < 1 || urgeIntensity > state.MaxUrgeIntensity {
				return nil, fmt.Errorf("--intensity must be between 1 and %d", state.MaxUrgeIntensity)
			}
			at := urgeTime
			if at == "" {
				at = time.Now().Format("15:04")
			}
			if !dates.ValidClock(at) {
				return nil, fmt.Errorf("invalid --time %q", at)
			}
			return state.AddUrge(types.RecoveryUrge{
				ID:        state.NewID(),
				Date:      d.date,
				Time:      at,
				Reason:    urgeReason,
				Intensity: urgeIntensity,
			}), nil
		})
	},
}

var trackThikrCmd = &cobra.Command{
	Use:   "thikr <thikr-id> [delta]",
	Short: "Adjust a thikr counter (default +1)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrack(cmd, func(d trackDay) (state.Mutation, error) {
			delta := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil {
					return nil, fmt.Errorf("invalid delta %q", args[1])
				}
				delta = n
			}
			return state.AdjustThikrCount(d.date, args[0], delta), nil
		})
	},
}
