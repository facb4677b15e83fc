package cmd

import (
	"fmt"

	"bookrental/config"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Long: `Apply the embedded SQL migrations that have not run yet. Each version is
recorded in schema_migrations and applied at most once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		db, err := connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := db.Migrate(cmd.Context())
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		}
		for _, v := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
		}
		return nil
	},
}
