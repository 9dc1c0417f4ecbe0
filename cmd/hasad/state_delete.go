package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/hasad/internal/store"
)

var deleteForce bool

var stateDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Delete a user and all their state",
	Long:  "Permanently delete a user's settings and entries. Requires --force or interactive confirmation.",
	Args:  cobra.ExactArgs(1),
	RunE:  runStateDelete,
}

func init() {
	stateDeleteCmd.Flags().BoolVar(&deleteForce, "force", false,
		"Skip confirmation prompt")
}

func runStateDelete(cmd *cobra.Command, args []string) error {
	userID := args[0]
	ctx := context.Background()

	if err := store.ValidateUserID(userID); err != nil {
		return err
	}

	s, err := resolveStore()
	if err != nil {
		return err
	}
	defer s.Close()

	// Interactive confirmation unless --force
	if !deleteForce {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintf(errOut, "WARNING: This will permanently delete user %q and all their data.\n", userID)
		fmt.Fprint(errOut, "Type the user ID to confirm: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}

		if strings.TrimSpace(input) != userID {
			fmt.Fprintln(errOut, "Aborted. User ID did not match.")
			return nil
		}
	}

	if err := s.DeleteUser(ctx, userID); err != nil {
		return err
	}

	if stateJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":      userID,
			"deleted": true,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %q\n", userID)
	return nil
}
