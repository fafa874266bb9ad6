package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	storeBackend string
	logLevel     string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = newRootCmd()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ticketing",
		Short: "Event ticketing backend",
		Long: `Event ticketing backend: create events, register attendees and read
per-event registration counts over a JSON HTTP API.

State lives in two tables (events and registration counts) kept in JSON files,
PostgreSQL or a bbolt database, selected with STORE_BACKEND.`,
		SilenceUsage: true,
		// Run the serve command by default if no subcommand is specified
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd)
		},
	}

	root.PersistentFlags().StringVar(&storeBackend, "store", "", "store backend: file, postgres, bolt, memory (default: $STORE_BACKEND or file)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error) (default: $LOG_LEVEL or info)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newReconcileCmd())
	root.AddCommand(newSeedCmd())
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
