package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute registration counts from the events table",
		Long: `Rewrites the registration counts table so every event's count equals its
number of registrations, dropping counts for events that no longer exist.

Run this after a crash between the two table writes or after editing the
events table by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			changed, err := a.service.Reconcile(cmd.Context())
			if err != nil {
				return fmt.Errorf("reconcile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reconciled registration counts: %d changed.\n", changed)
			return nil
		},
	}
}
