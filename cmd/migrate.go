package cmd

import (
	"github.com/spf13/cobra"

	config "todo-service.com/todo-service/internal/configs"
	repository "todo-service.com/todo-service/internal/repositories"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}

		db, err := config.NewDatabaseClient(cfg.DatabaseDSN, logger)
		if err != nil {
			return err
		}
		if err := repository.Migrate(db); err != nil {
			return err
		}

		logger.Info("schema migrated", "dsn", cfg.DatabaseDSN)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
