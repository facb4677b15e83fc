package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "bookrental",
	Short: "Book rental API",
	Long: `Book rental API: a catalog of books with stock counts and a rental
ledger. Configuration comes from the environment (DATABASE_URL, JWT_SECRET,
RENTAL_PERIOD, ...).

Commands:
  serve    - Run the HTTP server
  migrate  - Apply pending schema migrations
  seed     - Create the admin account and sample books`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
