package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/hasad/internal/snapshot"
	"github.com/hyperengineering/hasad/internal/store"
)

var exportOutPath string

var stateExportCmd = &cobra.Command{
	Use:   "export <user-id>",
	Short: "Export a user's state as a portable document",
	Long:  "Writes a versioned export document to stdout, or to --out when given.",
	Args:  cobra.ExactArgs(1),
	RunE:  runStateExport,
}

func init() {
	stateExportCmd.Flags().StringVarP(&exportOutPath, "out", "o", "",
		"Write the export to this file instead of stdout")
}

func runStateExport(cmd *cobra.Command, args []string) error {
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
	exp := snapshot.NewExport(userID, *st, time.Now())

	if exportOutPath == "" {
		return exp.Encode(cmd.OutOrStdout())
	}
	if err := snapshot.WriteFile(exportOutPath, exp); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %q to %s\n", userID, exportOutPath)
	return nil
}
