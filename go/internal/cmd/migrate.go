package main

import (
	"github.com/mcdev12/powermatch/go/internal/config"
	"github.com/mcdev12/powermatch/go/internal/scores"
	"github.com/spf13/cobra"
)

func newMigrateCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schema",
		Long: `Apply the score table schema to the database configured by DATABASE_URL
or DB_*. The SQLite store creates its schema on open and needs no migration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if cfg.StoreDriver != config.StorePostgres {
				cmd.Println("STORE_DRIVER is not postgres; nothing to migrate")
				return nil
			}
			return scores.Migrate(cmd.Context(), cfg.Database.DSN())
		},
	}
}
