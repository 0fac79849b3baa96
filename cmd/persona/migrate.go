package main

import (
	"context"

	"github.com/sandevgo/personas/internal/config"
	"github.com/sandevgo/personas/internal/storage/postgres"
	"github.com/sandevgo/personas/internal/storage/sqlite"
	"github.com/sandevgo/personas/pkg/log"
	"github.com/sandevgo/personas/pkg/retry"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the relational schema",
	Long:  `Waits for the configured database to accept connections, then applies pending migrations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()
		logger := log.FromCtx(ctx)

		appCfg, dbCfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		switch appCfg.GetDatabaseDriver() {
		case config.DriverSQLite:
			db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
			if err != nil {
				return err
			}
			defer db.Close()

		case config.DriverPostgres:
			dsn := dbCfg.DSN()
			err := retry.NewDefaultRetrier().Named("postgres ping").Do(ctx, func(ctx context.Context) error {
				return postgres.Ping(ctx, dsn)
			})
			if err != nil {
				return err
			}
			if err := postgres.Migrate(ctx, dsn); err != nil {
				return err
			}
		}

		logger.Info().Str("driver", appCfg.GetDatabaseDriver()).Msg("schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
