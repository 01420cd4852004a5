package main

import (
	"fmt"

	"github.com/fjod/easycart/internal/repository"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		log := newLogger(cfg)

		creds := credentials(cfg)
		repo, err := repository.NewRepository(creds, log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer repo.Close()

		if err := repo.RunMigrations(creds); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database migrations completed", "driver", creds.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
