package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trainingcrm/internal/repositories"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the opportunity table if it does not exist (postgres, sqlite)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Table.Driver == "rest" {
			return fmt.Errorf("the rest driver has no schema to migrate; create the table in the hosted project")
		}
		cfg.Table.EnsureSchema = false
		table, closeFn, err := openTable(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		sqlTable, ok := table.(*repositories.SQLTable)
		if !ok {
			return fmt.Errorf("driver %s does not support migrations", cfg.Table.Driver)
		}
		if err := sqlTable.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "table %q ready (%s)\n", cfg.Table.Name, cfg.Table.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
