package commands

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/courierwatch/courier-tracker/internal/database"
)

var databaseURL *string

func init() {
	databaseURL = migrateCmd.PersistentFlags().String("database-url", "", "Postgres URL (defaults to $DATABASE_URL).")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

func resolveDatabaseURL() (string, error) {
	if *databaseURL != "" {
		return *databaseURL, nil
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url, nil
	}
	return "", errors.New("no database: pass --database-url or set DATABASE_URL")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Applies or rolls back the couriers/orders schema.",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Applies all pending migrations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := resolveDatabaseURL()
		if err != nil {
			return err
		}
		if err := database.RunMigrations(url); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Rolls back the last migration. This drops stored couriers and sessions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := resolveDatabaseURL()
		if err != nil {
			return err
		}
		if err := database.RollbackMigration(url); err != nil {
			return err
		}
		log.Info().Msg("last migration rolled back")
		return nil
	},
}
