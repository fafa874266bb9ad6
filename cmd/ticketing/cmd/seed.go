package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ticketing/internal/domain"
)

// demoEvents are the events shown on the demo page before anything is created.
var demoEvents = []string{"Tech Conference 2024", "Music Festival 2024", "Art Expo 2024"}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [event name...]",
		Short: "Create demo events",
		Long: `Creates the given events, or the three demo events when no names are given.
Events that already exist are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = demoEvents
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			for _, name := range names {
				err := a.service.CreateEvent(cmd.Context(), name)
				switch {
				case err == nil:
					fmt.Fprintf(out, "created %q\n", name)
				case errors.Is(err, domain.ErrConflict):
					fmt.Fprintf(out, "skipped %q (exists)\n", name)
				default:
					return fmt.Errorf("seed %q: %w", name, err)
				}
			}
			return nil
		},
	}
}
