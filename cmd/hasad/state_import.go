package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/hasad/internal/snapshot"
	"github.com/hyperengineering/hasad/internal/store"
	"github.com/hyperengineering/hasad/internal/validation"
)

var importUserOverride string

var stateImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace a user's state from an export document",
	Long:  "Reads an export document from a file, or stdin when no file is given, validates it, and replaces the stored state of its user.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStateImport,
}

func init() {
	stateImportCmd.Flags().StringVar(&importUserOverride, "user", "",
		"Import into this user instead of the one recorded in the document")
}

func runStateImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open export: %w", err)
		}
		defer f.Close()
		in = f
	}

	exp, err := snapshot.DecodeExport(in)
	if err != nil {
		return err
	}

	userID := exp.UserID
	if importUserOverride != "" {
		userID = importUserOverride
	}
	if err := store.ValidateUserID(userID); err != nil {
		return err
	}

	if errs := validation.ValidateState(exp.State); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Field + ": " + e.Message
		}
		return fmt.Errorf("export failed validation:\n  %s", strings.Join(msgs, "\n  "))
	}

	s, err := resolveStore()
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.ReplaceState(ctx, userID, exp.State)
	if err != nil {
		return err
	}

	if stateJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":       userID,
			"upserted": res.Upserted,
			"deleted":  res.Deleted,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %q: %d entries written, %d removed\n",
		userID, res.Upserted, res.Deleted)
	return nil
}
