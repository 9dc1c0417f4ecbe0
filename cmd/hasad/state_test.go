package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/state"
	"github.com/hyperengineering/hasad/internal/store"
	"github.com/hyperengineering/hasad/internal/types"
)

const testDay dates.Key = "2024-01-12"

// resetCmdFlags restores package-level flag variables to their defaults.
// Cobra parses into these variables, so stale values from previous tests
// would leak if not reset.
func resetCmdFlags() {
	stateDBOverride = ""
	stateJSONOutput = false
	stateDateOverride = ""
	exportOutPath = ""
	importUserOverride = ""
	deleteForce = false

	trackServer = ""
	trackUser = ""
	trackAPIKey = ""
	trackDate = ""
	workoutType = string(types.WorkoutGym)
	workoutDuration = 0
	workoutIntensity = string(types.LevelMedium)
	urgeIntensity = 5
	urgeReason = ""
	urgeTime = ""
}

// executeCmd runs rootCmd with args and captured output.
func executeCmd(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("HASAD_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	resetCmdFlags()

	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)

	rootCmd.SetOut(outBuf)
	rootCmd.SetErr(errBuf)
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))

	err = rootCmd.Execute()

	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)
	rootCmd.SetIn(nil)

	return outBuf.String(), errBuf.String(), err
}

// executeStateCmd runs a state subcommand against the database at dbPath.
func executeStateCmd(t *testing.T, dbPath, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	fullArgs := append([]string{"state"}, args...)
	fullArgs = append(fullArgs, "--db", dbPath)
	return executeCmd(t, stdin, fullArgs...)
}

func seedState() types.State {
	return state.Compose(
		state.AddHabit("h1", "Read", "mind", types.FrequencyDaily),
		state.AddHabit("h2", "Walk", "body", types.FrequencyDaily),
		state.ToggleHabit("h1", testDay),
		state.MarkAllPrayed(testDay),
		state.SaveQuranReading("q1", testDay, 10, testDay),
	)(types.NewState("2024-01-01"))
}

// seedDB writes the given users' state into a fresh database file.
func seedDB(t *testing.T, users map[string]types.State) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "hasad.db")

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	for id, st := range users {
		if _, err := s.ReplaceState(context.Background(), id, st); err != nil {
			t.Fatal(err)
		}
	}
	return dbPath
}

func loadUser(t *testing.T, dbPath, userID string) (*types.State, error) {
	t.Helper()
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	return s.GetState(context.Background(), userID, testDay)
}

func TestStateList_Empty(t *testing.T) {
	dbPath := seedDB(t, nil)

	out, _, err := executeStateCmd(t, dbPath, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No users found.") {
		t.Errorf("expected empty message, got %q", out)
	}
}

func TestStateList_Table(t *testing.T) {
	dbPath := seedDB(t, map[string]types.State{
		"alice": seedState(),
		"bob":   types.NewState(testDay),
	})

	out, _, err := executeStateCmd(t, dbPath, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"ID", "ENTRIES", "alice", "bob"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestStateList_JSON(t *testing.T) {
	dbPath := seedDB(t, map[string]types.State{
		"alice": seedState(),
		"bob":   types.NewState(testDay),
	})

	out, _, err := executeStateCmd(t, dbPath, "", "list", "--json")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	var users []map[string]any
	if err := json.Unmarshal([]byte(out), &users); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(users) != 2 || users[0]["id"] != "alice" {
		t.Errorf("unexpected users: %v", users)
	}
}

func TestStateShow_JSON(t *testing.T) {
	dbPath := seedDB(t, map[string]types.State{"alice": seedState()})

	out, _, err := executeStateCmd(t, dbPath, "", "show", "alice", "--json", "--date", string(testDay))
	if err != nil {
		t.Fatalf("show: %v", err)
	}

	var sum state.Summary
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if sum.Date != testDay || sum.HabitsTotal != 2 || sum.HabitsDoneToday != 1 {
		t.Errorf("unexpected habits summary: %+v", sum)
	}
	if sum.PrayersToday != 5 {
		t.Errorf("expected 5 prayers, got %d", sum.PrayersToday)
	}
	if sum.Quran.PagesRead != 10 {
		t.Errorf("expected 10 pages read, got %d", sum.Quran.PagesRead)
	}
}

func TestStateShow_Text(t *testing.T) {
	dbPath := seedDB(t, map[string]types.State{"alice": seedState()})

	out, _, err := executeStateCmd(t, dbPath, "", "show", "alice", "--date", string(testDay))
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, want := range []string{"User:", "alice", "Habits:", "1/2 done", "Prayers:"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestStateShow_UnknownUser(t *testing.T) {
	dbPath := seedDB(t, nil)

	_, _, err := executeStateCmd(t, dbPath, "", "show", "nobody")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStateShow_InvalidDate(t *testing.T) {
	dbPath := seedDB(t, map[string]types.State{"alice": seedState()})

	_, _, err := executeStateCmd(t, dbPath, "", "show", "alice", "--date", "2024-02-30")
	if err == nil || !strings.Contains(err.Error(), "invalid --date") {
		t.Errorf("expected invalid date error, got %v", err)
	}
}

func TestStateCmd_InvalidUserID(t *testing.T) {
	dbPath := seedDB(t, nil)

	for _, args := range [][]string{
		{"show", "bad id"},
		{"export", "bad id"},
		{"delete", "bad id", "--force"},
		{"import", "--user", "bad id"},
	} {
		stdin := `{"version":1,"userId":"alice","state":{}}`
		_, _, err := executeStateCmd(t, dbPath, stdin, args...)
		if !errors.Is(err, store.ErrInvalidUser) {
			t.Errorf("%s: expected ErrInvalidUser, got %v", args[0], err)
		}
	}
}

func TestStateExportImport_RoundTrip(t *testing.T) {
	dbPath := seedDB(t, map[string]types.State{"alice": seedState()})

	exported, _, err := executeStateCmd(t, dbPath, "", "export", "alice", "--date", string(testDay))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(exported, `"userId": "alice"`) {
		t.Fatalf("export missing user id:\n%s", exported)
	}

	out, _, err := executeStateCmd(t, dbPath, exported, "import", "--user", "bob")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, `Imported "bob"`) {
		t.Errorf("unexpected import output: %q", out)
	}

	bob, err := loadUser(t, dbPath, "bob")
	if err != nil {
		t.Fatalf("load bob: %v", err)
	}
	keys := bob.Habits.Keys()
	if len(keys) != 2 || keys[0] != "h2" || keys[1] != "h1" {
		t.Errorf("expected habits [h2 h1], got %v", keys)
	}
	if bob.QuranState.Logs.Len() != 1 {
		t.Errorf("expected 1 quran log, got %d", bob.QuranState.Logs.Len())
	}
}

func TestStateExport_ToFile(t *testing.T) {
	dbPath := seedDB(t, map[string]types.State{"alice": seedState()})
	outPath := filepath.Join(t.TempDir(), "alice.json")

	_, errOut, err := executeStateCmd(t, dbPath, "", "export", "alice", "--out", outPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(errOut, outPath) {
		t.Errorf("expected path in stderr, got %q", errOut)
	}

	// Importing the file back over alice keeps every entry.
	out, _, err := executeStateCmd(t, dbPath, "", "import", outPath, "--json")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	var res map[string]any
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if res["id"] != "alice" || res["deleted"] != float64(0) {
		t.Errorf("expected import into alice without deletions, got %v", res)
	}
}

func TestStateImport_RejectsInvalidState(t *testing.T) {
	dbPath := seedDB(t, nil)
	doc := `{"version":1,"userId":"alice","state":{"habits":[{"id":"h1","name":"","frequency":"daily"}]}}`

	_, _, err := executeStateCmd(t, dbPath, doc, "import")
	if err == nil || !strings.Contains(err.Error(), "habits[0].name") {
		t.Fatalf("expected validation error for habits[0].name, got %v", err)
	}
	if _, err := loadUser(t, dbPath, "alice"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("invalid import must not create the user, got %v", err)
	}
}

func TestStateImport_RejectsNewerVersion(t *testing.T) {
	dbPath := seedDB(t, nil)

	_, _, err := executeStateCmd(t, dbPath, `{"version":99,"userId":"alice","state":{}}`, "import")
	if err == nil || !strings.Contains(err.Error(), "unsupported export version") {
		t.Errorf("expected version error, got %v", err)
	}
}

func TestStateImport_MissingFile(t *testing.T) {
	dbPath := seedDB(t, nil)

	_, _, err := executeStateCmd(t, dbPath, "", "import", filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestStateDelete_Force(t *testing.T) {
	dbPath := seedDB(t, map[string]types.State{"alice": seedState()})

	out, _, err := executeStateCmd(t, dbPath, "", "delete", "alice", "--force")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out, `Deleted user "alice"`) {
		t.Errorf("unexpected output: %q", out)
	}
	if _, err := loadUser(t, dbPath, "alice"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected alice deleted, got %v", err)
	}
}

func TestStateDelete_ConfirmationMismatchAborts(t *testing.T) {
	dbPath := seedDB(t, map[string]types.State{"alice": seedState()})

	_, errOut, err := executeStateCmd(t, dbPath, "bob\n", "delete", "alice")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(errOut, "Aborted") {
		t.Errorf("expected abort message, got %q", errOut)
	}
	if _, err := loadUser(t, dbPath, "alice"); err != nil {
		t.Errorf("alice should survive aborted delete: %v", err)
	}
}

func TestStateDelete_ConfirmationMatchDeletes(t *testing.T) {
	dbPath := seedDB(t, map[string]types.State{"alice": seedState()})

	out, _, err := executeStateCmd(t, dbPath, "alice\n", "delete", "alice", "--json")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	var res map[string]any
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if res["deleted"] != true {
		t.Errorf("expected deleted=true, got %v", res)
	}
}

func TestStateDelete_UnknownUser(t *testing.T) {
	dbPath := seedDB(t, nil)

	_, _, err := executeStateCmd(t, dbPath, "", "delete", "nobody", "--force")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
