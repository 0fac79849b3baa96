package config

import (
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/personas/internal/core"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var (
	_ core.AppConfig      = AppConfig{}
	_ core.DatabaseConfig = DBConfig{}
)

type AppConfig struct {
	RuntimePath string `env:"PERSONA_RUNTIME_PATH"`
	// Relational backend: postgres or sqlite
	DBDriver string `env:"PERSONA_DB_DRIVER" envDefault:"postgres"`
	// Optional yaml/json file with connection parameters
	ConfigFile string `env:"PERSONA_CONFIG_FILE"`

	PersonalitiesDir string `env:"PERSONA_PERSONALITIES_DIR"`
	LogDir           string `env:"PERSONA_LOG_DIR"`
}

func ParseAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	// relative paths resolve against the home directory
	c.RuntimePath = GetRuntimePath()
	if c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite {
		return nil, &UnknownDriverError{Driver: c.DBDriver}
	}
	return c, nil
}

type UnknownDriverError struct {
	Driver string
}

func (e *UnknownDriverError) Error() string {
	return "PERSONA_DB_DRIVER must be 'postgres' or 'sqlite', got: " + e.Driver
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabaseDriver() string {
	return c.DBDriver
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "personas.db")
}

func (c AppConfig) GetPersonalitiesPath() string {
	if c.PersonalitiesDir != "" {
		return c.PersonalitiesDir
	}
	return filepath.Join(c.RuntimePath, "personalities")
}

func (c AppConfig) GetLogPath() string {
	if c.LogDir != "" {
		return c.LogDir
	}
	return filepath.Join(c.RuntimePath, "logs")
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}
