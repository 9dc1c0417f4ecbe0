package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/hasad/internal/config"
	"github.com/hyperengineering/hasad/internal/dates"
	"github.com/hyperengineering/hasad/internal/store"
)

var (
	stateDBOverride   string
	stateJSONOutput   bool
	stateDateOverride string
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage stored user state",
	Long:  "List, inspect, export, import, and delete user state directly in the database without running the server.",
}

func init() {
	stateCmd.PersistentFlags().StringVar(&stateDBOverride, "db", "",
		"Database path (overrides config and HASAD_DB_PATH)")
	stateCmd.PersistentFlags().BoolVar(&stateJSONOutput, "json", false,
		"Output in JSON format")
	stateCmd.PersistentFlags().StringVar(&stateDateOverride, "date", "",
		"Day to evaluate as today (YYYY-MM-DD)")

	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateExportCmd)
	stateCmd.AddCommand(stateImportCmd)
	stateCmd.AddCommand(stateDeleteCmd)
}

// resolveStore opens the SQLite store from config with optional --db override.
func resolveStore() (*store.SQLiteStore, error) {
	dbPath := stateDBOverride
	if dbPath == "" {
		cfg, err := config.LoadLocal()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		dbPath = cfg.Database.Path
	}

	return store.NewSQLiteStore(dbPath)
}

// resolveToday returns the --date override or the local calendar day.
func resolveToday(override string) (dates.Key, error) {
	if override == "" {
		return dates.Today(time.Now), nil
	}
	k, err := dates.ParseKey(override)
	if err != nil {
		return "", fmt.Errorf("invalid --date: %w", err)
	}
	return k, nil
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
