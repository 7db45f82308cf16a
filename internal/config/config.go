// Package config provides configuration for the application.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

var (
	// ErrDBUriNotSetInProduction is returned when DB_URI is not set in production. We need this to prevent accidental
	// production deployments without a database.
	ErrDBUriNotSetInProduction = errors.New("DB_URI must be set in production")
	// ErrInvalidDBDriver is returned when DB_DRIVER names a driver the application cannot use.
	ErrInvalidDBDriver = errors.New("invalid DB_DRIVER")
	// ErrInvalidLogFormat is returned when LOG_FORMAT is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid LOG_FORMAT")
)

const (
	// AppEnvironmentDefault is the default application environment.
	AppEnvironmentDefault = "development"
	// AppEnvironmentProduction is the production application environment.
	AppEnvironmentProduction = "production"
	// HostDefault is the default host to listen on. Can be an IP address or hostname.
	HostDefault = "localhost"
	// PortDefault is the default port to listen on.
	PortDefault = "8080"

	// DBDriverSQLite selects the modernc.org/sqlite driver.
	DBDriverSQLite = "sqlite"
	// DBDriverPostgres selects the pgx driver.
	DBDriverPostgres = "pgx"
	// DBDriverMemory keeps all data in memory. DB_URI is ignored.
	DBDriverMemory = "memory"

	// DBDriverDefault is the default database driver.
	DBDriverDefault = DBDriverSQLite
	// DBURIDefault is the default database URI. Default is quizbench.sqlite in the current directory.
	DBURIDefault = "file:quizbench.sqlite?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	// DBMaxOpenConnsDefault is the default maximum number of open database connections.
	DBMaxOpenConnsDefault = 10
	// DBMaxIdleConnsDefault is the default maximum number of idle database connections.
	DBMaxIdleConnsDefault = 10
	// DBConnMaxLifetimeDefault is the default maximum lifetime of a database connection.
	DBConnMaxLifetimeDefault = 5 * time.Minute

	// LogLevelDefault is the default minimum log level.
	LogLevelDefault = slog.LevelInfo
	// LogFormatText writes logs as key=value pairs.
	LogFormatText = "text"
	// LogFormatJSON writes logs as JSON objects.
	LogFormatJSON = "json"
	// LogFormatDefault is the default log format.
	LogFormatDefault = LogFormatText

	// SeedFixturesDefault controls whether the member fixture is loaded into an empty database at start-up.
	SeedFixturesDefault = false
	// MetricsEnabledDefault controls whether /metrics is served.
	MetricsEnabledDefault = true
)

// Config represents the application configuration.
type Config struct {
	AppEnvironment string

	Host string
	Port string

	DBDriver string
	DBURI    string

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	LogLevel  slog.Level
	LogFormat string

	SeedFixtures   bool
	MetricsEnabled bool
}

// IsProduction reports whether the application runs in production.
func (c *Config) IsProduction() bool {
	return c.AppEnvironment == AppEnvironmentProduction
}

// Parse parses environment variables into the config.
func Parse(getenv func(string) string) (*Config, error) {
	c := Config{
		AppEnvironment:    AppEnvironmentDefault,
		Host:              HostDefault,
		Port:              PortDefault,
		DBDriver:          DBDriverDefault,
		DBURI:             DBURIDefault,
		DBMaxOpenConns:    DBMaxOpenConnsDefault,
		DBMaxIdleConns:    DBMaxIdleConnsDefault,
		DBConnMaxLifetime: DBConnMaxLifetimeDefault,
		LogLevel:          LogLevelDefault,
		LogFormat:         LogFormatDefault,
		SeedFixtures:      SeedFixturesDefault,
		MetricsEnabled:    MetricsEnabledDefault,
	}
	// Overwrite defaults with environment variables.
	if val := getenv("APP_ENV"); val != "" {
		c.AppEnvironment = val
	}
	if val := getenv("HOST"); val != "" {
		c.Host = val
	}
	if val := getenv("PORT"); val != "" {
		c.Port = val
	}
	if val := getenv("DB_URI"); val != "" {
		c.DBURI = val
	}

	// Strict validation for types
	if val := getenv("DB_DRIVER"); val != "" {
		switch val {
		case DBDriverSQLite, DBDriverPostgres, DBDriverMemory:
			c.DBDriver = val
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidDBDriver, val)
		}
	}

	if val := getenv("DB_MAX_OPEN_CONNS"); val != "" {
		var err error
		c.DBMaxOpenConns, err = strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %q, err: %w", val, err)
		}
	}

	if val := getenv("DB_MAX_IDLE_CONNS"); val != "" {
		var err error
		c.DBMaxIdleConns, err = strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %q, err: %w", val, err)
		}
	}

	if val := getenv("DB_CONN_MAX_LIFETIME"); val != "" {
		var err error
		c.DBConnMaxLifetime, err = time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %q, err: %w", val, err)
		}
	}

	if val := getenv("LOG_LEVEL"); val != "" {
		if err := c.LogLevel.UnmarshalText([]byte(val)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %q, err: %w", val, err)
		}
	}

	if val := getenv("LOG_FORMAT"); val != "" {
		switch val {
		case LogFormatText, LogFormatJSON:
			c.LogFormat = val
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidLogFormat, val)
		}
	}

	if val := getenv("SEED_FIXTURES"); val != "" {
		var err error
		c.SeedFixtures, err = strconv.ParseBool(val)
		if err != nil {
			return nil, fmt.Errorf("invalid SEED_FIXTURES: %q, err: %w", val, err)
		}
	}

	if val := getenv("METRICS_ENABLED"); val != "" {
		var err error
		c.MetricsEnabled, err = strconv.ParseBool(val)
		if err != nil {
			return nil, fmt.Errorf("invalid METRICS_ENABLED: %q, err: %w", val, err)
		}
	}

	// Mandatory fields
	if c.IsProduction() && c.DBDriver != DBDriverMemory && getenv("DB_URI") == "" {
		return nil, ErrDBUriNotSetInProduction
	}

	return &c, nil
}
