package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/UkralStul/postit/internal/config"
	"github.com/UkralStul/postit/internal/storage/postgres"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the postgres tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL must be set")
			}

			store, err := postgres.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to postgres: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			newLogger(cfg).Info("migrations applied")
			return nil
		},
	}
}
