package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/suteetoe/ekklesia/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Apply the schema for users, sessions, churches, metric definitions and
settings to the configured database. Existing rows are kept.

EXAMPLES:

  ekklesia migrate
  DB_DRIVER=sqlite DB_SQLITE_PATH=./data/ekklesia.db ekklesia migrate`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.InitDB(&conf.DB)
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.MigrateModels(db); err != nil {
			return err
		}

		color.Green("✓ Schema migrated (%s)", conf.DB.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
