package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/personas/internal/config"
	"github.com/sandevgo/personas/internal/core"
	"github.com/sandevgo/personas/internal/service/personality"
	"github.com/sandevgo/personas/internal/storage/files"
	"github.com/sandevgo/personas/internal/storage/postgres"
	"github.com/sandevgo/personas/internal/storage/sqlite"
	"github.com/sandevgo/personas/pkg/log"
	"github.com/sandevgo/personas/pkg/srv"
	"github.com/spf13/cobra"
)

// runtime bundles the configuration and stores every subcommand works with.
type runtime struct {
	appCfg     *config.AppConfig
	dbCfg      *config.DBConfig
	coreRepo   core.CoreRepository
	detailRepo *files.DetailRepo
	svc        *personality.Service

	services []srv.Service
}

func (r *runtime) Close(ctx context.Context) {
	srv.Shutdown(ctx, r.services)
}

// loadConfig reads .env, the environment and the optional config file.
func loadConfig(ctx context.Context) (*config.AppConfig, *config.DBConfig, error) {
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, nil, fmt.Errorf("failed to init env: %w", err)
	}

	appCfg, err := config.ParseAppConfig()
	if err != nil {
		return nil, nil, err
	}
	if configFile != "" {
		appCfg.ConfigFile = configFile
	}

	dbCfg, err := config.LoadDBConfig(ctx, appCfg.ConfigFile)
	if err != nil {
		return nil, nil, err
	}
	return appCfg, dbCfg, nil
}

func newRuntime(ctx context.Context) (*runtime, error) {
	logger := log.FromCtx(ctx)

	appCfg, dbCfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	r := &runtime{appCfg: appCfg, dbCfg: dbCfg}

	r.detailRepo = files.NewDetailRepo(appCfg.GetPersonalitiesPath())
	if err := r.detailRepo.Init(); err != nil {
		return nil, err
	}

	switch appCfg.GetDatabaseDriver() {
	case config.DriverSQLite:
		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		r.services = append(r.services, srv.NewCleanup(db.Close))
		r.coreRepo = sqlite.NewPersonalityRepo(db)
	case config.DriverPostgres:
		r.coreRepo = postgres.NewPersonalityRepo(dbCfg.DSN())
	}

	r.svc = personality.NewService(r.coreRepo, r.detailRepo)

	logger.Debug().
		Str("driver", appCfg.GetDatabaseDriver()).
		Str("personalities", appCfg.GetPersonalitiesPath()).
		Msg("runtime ready")
	return r, nil
}

// withRuntime wraps a subcommand body with logging setup and store lifetime.
func withRuntime(fn func(ctx context.Context, cmd *cobra.Command, r *runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		r, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer r.Close(ctx)

		return fn(ctx, cmd, r, args)
	}
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
