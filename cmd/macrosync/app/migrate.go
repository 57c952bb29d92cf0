package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macrohub/macrosync/internal/config"
	"github.com/macrohub/macrosync/internal/store/postgres"
	"github.com/macrohub/macrosync/pkg/errors"
)

// migrateCommand applies the embedded schema migrations.
func (a *App) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			dsn := config.DatabaseURL()
			if dsn == "" {
				dsn = a.config.DatabaseURL
			}
			if dsn == "" {
				return errors.NewConfigError("database_url", "required for migrate", nil)
			}

			if err := postgres.Migrate(dsn); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}
