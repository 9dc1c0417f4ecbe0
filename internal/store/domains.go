package store

import (
	"encoding/json"
	"fmt"

	"github.com/hyperengineering/hasad/internal/logstore"
	"github.com/hyperengineering/hasad/internal/types"
)

// Collection domains. Each keyed entry is one entries row.
const (
	DomainHabits       = "habits"
	DomainGoals        = "goals"
	DomainPrayerLogs   = "prayer_logs"
	DomainWorkoutLogs  = "workout_logs"
	DomainSleepLogs    = "sleep_logs"
	DomainProjects     = "projects"
	DomainAthkarLogs   = "athkar_logs"
	DomainHashishDays  = "hashish_day_logs"
	DomainQuranLogs    = "quran_logs"
	DomainRecoveryLogs = "recovery_logs"
)

// Program singletons. Each is one program_settings row holding the
// program's settings without its day logs.
const (
	ProgramHashish  = "hashish"
	ProgramQuran    = "quran"
	ProgramRecovery = "recovery"
)

type row struct {
	key  string
	data []byte
}

type domainCodec struct {
	name   string
	encode func(s *types.State) ([]row, error)
	decode func(s *types.State, rows []row) error
}

func codec[T logstore.Keyed](name string, field func(*types.State) *logstore.Collection[T]) domainCodec {
	return domainCodec{
		name: name,
		encode: func(s *types.State) ([]row, error) {
			return encodeRows(*field(s))
		},
		decode: func(s *types.State, rows []row) error {
			c, err := decodeRows[T](rows)
			if err != nil {
				return err
			}
			*field(s) = c
			return nil
		},
	}
}

var domains = []domainCodec{
	codec(DomainHabits, func(s *types.State) *logstore.Collection[types.Habit] { return &s.Habits }),
	codec(DomainGoals, func(s *types.State) *logstore.Collection[types.Goal] { return &s.Goals }),
	codec(DomainPrayerLogs, func(s *types.State) *logstore.Collection[types.PrayerLog] { return &s.PrayerLogs }),
	codec(DomainWorkoutLogs, func(s *types.State) *logstore.Collection[types.WorkoutLog] { return &s.WorkoutLogs }),
	codec(DomainSleepLogs, func(s *types.State) *logstore.Collection[types.SleepLog] { return &s.SleepLogs }),
	codec(DomainProjects, func(s *types.State) *logstore.Collection[types.Project] { return &s.Projects }),
	codec(DomainAthkarLogs, func(s *types.State) *logstore.Collection[types.AthkarLog] { return &s.AthkarLogs }),
	codec(DomainHashishDays, func(s *types.State) *logstore.Collection[types.HashishDayLog] { return &s.HashishState.DayLogs }),
	codec(DomainQuranLogs, func(s *types.State) *logstore.Collection[types.QuranLog] { return &s.QuranState.Logs }),
	codec(DomainRecoveryLogs, func(s *types.State) *logstore.Collection[types.RecoveryLog] { return &s.RecoveryState.Logs }),
}

// Domains lists every collection domain in reconciliation order.
func Domains() []string {
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = d.name
	}
	return names
}

type programCodec struct {
	name   string
	encode func(s types.State) ([]byte, error)
	decode func(s *types.State, data []byte) error
}

// Program settings are stored with their log collections emptied; the logs
// live in entries and are decoded after the settings.
var programs = []programCodec{
	{
		name: ProgramHashish,
		encode: func(s types.State) ([]byte, error) {
			p := s.HashishState
			p.DayLogs = logstore.Collection[types.HashishDayLog]{}
			return json.Marshal(p)
		},
		decode: func(s *types.State, data []byte) error {
			return json.Unmarshal(data, &s.HashishState)
		},
	},
	{
		name: ProgramQuran,
		encode: func(s types.State) ([]byte, error) {
			p := s.QuranState
			p.Logs = logstore.Collection[types.QuranLog]{}
			return json.Marshal(p)
		},
		decode: func(s *types.State, data []byte) error {
			return json.Unmarshal(data, &s.QuranState)
		},
	},
	{
		name: ProgramRecovery,
		encode: func(s types.State) ([]byte, error) {
			p := s.RecoveryState
			p.Logs = logstore.Collection[types.RecoveryLog]{}
			return json.Marshal(p)
		},
		decode: func(s *types.State, data []byte) error {
			return json.Unmarshal(data, &s.RecoveryState)
		},
	},
}

func encodeRows[T logstore.Keyed](c logstore.Collection[T]) ([]row, error) {
	rows := make([]row, 0, c.Len())
	for _, e := range c.All() {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode entry %q: %w", e.Key(), err)
		}
		rows = append(rows, row{key: e.Key(), data: data})
	}
	return rows, nil
}

func decodeRows[T logstore.Keyed](rows []row) (logstore.Collection[T], error) {
	entries := make([]T, 0, len(rows))
	for _, r := range rows {
		var e T
		if err := json.Unmarshal(r.data, &e); err != nil {
			return logstore.Collection[T]{}, fmt.Errorf("decode entry %q: %w", r.key, err)
		}
		entries = append(entries, e)
	}
	return logstore.FromSlice(entries), nil
}
