package core

type AppConfig interface {
	GetRuntimePath() string
	GetDatabaseDriver() string
	GetDatabasePath() string
	GetPersonalitiesPath() string
	GetLogPath() string
	GetEnvPath() string
}

type DatabaseConfig interface {
	DSN() string
}
