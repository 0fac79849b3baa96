package main

import (
	"fmt"
	"os"

	"github.com/sandevgo/personas/internal/config"
	"github.com/sandevgo/personas/pkg/env"
	"github.com/sandevgo/personas/pkg/log"
	"github.com/spf13/cobra"
)

var (
	initDriver string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the runtime directory and write its .env",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()
		logger := log.FromCtx(ctx)

		if initDriver != "" {
			if err := os.Setenv("PERSONA_DB_DRIVER", initDriver); err != nil {
				return err
			}
		}

		appCfg, dbCfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}

		envPath := appCfg.GetEnvPath()
		if _, err := os.Stat(envPath); err == nil && !initForce {
			return fmt.Errorf("%s already exists, use --force to overwrite", envPath)
		}

		for _, dir := range []string{appCfg.GetRuntimePath(), appCfg.GetPersonalitiesPath(), appCfg.GetLogPath()} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}

		content, err := env.MarshalEnv(config.NewEnvVars(appCfg, dbCfg))
		if err != nil {
			return fmt.Errorf("failed to render .env: %w", err)
		}
		if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
			return fmt.Errorf("failed to write .env: %w", err)
		}

		logger.Info().Str("path", appCfg.GetRuntimePath()).Str("driver", appCfg.DBDriver).Msg("initialized runtime directory")
		if appCfg.DBDriver == config.DriverPostgres {
			logger.Info().Msg("run 'persona migrate' once the database is reachable")
		}
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initDriver, "driver", "", "relational backend to record: postgres or sqlite")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing .env")
	rootCmd.AddCommand(initCmd)
}
