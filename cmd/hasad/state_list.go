package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users with stored state",
	Args:  cobra.NoArgs,
	RunE:  runStateList,
}

func runStateList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := resolveStore()
	if err != nil {
		return err
	}
	defer s.Close()

	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}

	if stateJSONOutput {
		out := make([]map[string]any, 0, len(users))
		for _, u := range users {
			out = append(out, map[string]any{
				"id":         u.ID,
				"entries":    u.Entries,
				"created_at": u.CreatedAt.Format(time.RFC3339),
				"updated_at": u.UpdatedAt.Format(time.RFC3339),
			})
		}
		return printJSON(cmd.OutOrStdout(), out)
	}

	if len(users) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No users found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tENTRIES\tCREATED\tUPDATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", u.ID, u.Entries,
			u.CreatedAt.Format("2006-01-02 15:04"), u.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
