// Package cli implements the compliancectl operator command line.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/efilo/compliance/pkg/database"
)

var (
	// Version info (set via ldflags)
	Version   = "dev"
	BuildDate = "unknown"

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "compliancectl",
	Short: "Operator CLI for the efilo compliance engine",
	Long: `compliancectl is the operator command line for the efilo compliance
engine. It applies schema migrations, recomputes project scores,
writes score snapshots, lists and adds project holidays, and shows
recent audit entries.

All commands read DATABASE_URL from the environment.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(holidaysCmd)
	rootCmd.AddCommand(auditCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("compliancectl %s (built %s)\n", Version, BuildDate)
	},
}

// connect opens the database pool for a CLI command
func connect(ctx context.Context) (*database.Pool, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return database.NewPool(ctx, database.DefaultPostgresConfig(url))
}

// newLogger builds the CLI logger
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
