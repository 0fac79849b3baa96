package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/personas/pkg/log"
	"gopkg.in/yaml.v3"
)

// DBConfig holds the relational store connection parameters. The config file
// uses the libpq-style keys host, database, user, password and port.
type DBConfig struct {
	Host     string `env:"DB_HOST" envDefault:"localhost" yaml:"host"`
	Database string `env:"DB_NAME" envDefault:"agent_system" yaml:"database"`
	User     string `env:"DB_USER" envDefault:"agent_user" yaml:"user"`
	Password string `env:"DB_PASSWORD" yaml:"password"`
	Port     int    `env:"DB_PORT" envDefault:"5432" yaml:"port"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable" yaml:"sslmode"`
}

// LoadDBConfig resolves connection parameters from the environment and then
// overlays the optional config file. A missing file is not an error.
func LoadDBConfig(ctx context.Context, path string) (*DBConfig, error) {
	logger := log.FromCtx(ctx)

	c := &DBConfig{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("failed to parse DB config from env: %w", err)
	}

	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug().Str("path", path).Msg("db config file not found, using defaults")
			return c, nil
		}
		return nil, fmt.Errorf("failed to read db config: %w", err)
	}

	// JSON is valid YAML, so .json config files parse here too
	var file DBConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse db config %s: %w", path, err)
	}
	c.overlay(file)

	logger.Debug().Str("path", path).Msg("loaded db config file")
	return c, nil
}

func (c *DBConfig) overlay(o DBConfig) {
	if o.Host != "" {
		c.Host = o.Host
	}
	if o.Database != "" {
		c.Database = o.Database
	}
	if o.User != "" {
		c.User = o.User
	}
	if o.Password != "" {
		c.Password = o.Password
	}
	if o.Port != 0 {
		c.Port = o.Port
	}
	if o.SSLMode != "" {
		c.SSLMode = o.SSLMode
	}
}

// DSN renders the parameters as a postgres:// URL understood by pgx.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// EnvVars is the subset written to the runtime .env by `persona init`.
type EnvVars struct {
	DBDriver   string `env:"PERSONA_DB_DRIVER"`
	ConfigFile string `env:"PERSONA_CONFIG_FILE"`
	Host       string `env:"DB_HOST"`
	Database   string `env:"DB_NAME"`
	User       string `env:"DB_USER"`
	Password   string `env:"DB_PASSWORD"`
	Port       int    `env:"DB_PORT"`
	SSLMode    string `env:"DB_SSLMODE"`
}

func NewEnvVars(app *AppConfig, db *DBConfig) *EnvVars {
	return &EnvVars{
		DBDriver:   app.DBDriver,
		ConfigFile: app.ConfigFile,
		Host:       db.Host,
		Database:   db.Database,
		User:       db.User,
		Password:   db.Password,
		Port:       db.Port,
		SSLMode:    db.SSLMode,
	}
}
