package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk/internal/persistence"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  `Apply the embedded goose migrations to the database named by POSTGRES_DSN.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			if rt.pg.PoolHandle() == nil {
				return errors.New("POSTGRES_DSN is required to run migrations")
			}
			return persistence.RunMigrations(cmd.Context(), rt.pg.PoolHandle(), rt.logger)
		},
	}
}
