package internal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
	StoreBackendSQLite   = "sqlite"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server" envPrefix:"HTTP_SERVER_"`
	Database      DatabaseConfig      `mapstructure:"database" envPrefix:"DATABASE_"`
	Store         StoreConfig         `mapstructure:"store" envPrefix:"STORE_"`
	Security      SecurityConfig      `mapstructure:"security" envPrefix:"SECURITY_"`
	Session       SessionConfig       `mapstructure:"session" envPrefix:"SESSION_"`
	Notification  NotificationConfig  `mapstructure:"notification" envPrefix:"NOTIFICATION_"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler" envPrefix:"SCHEDULER_"`
	Observability ObservabilityConfig `mapstructure:"observability" envPrefix:"OBSERVABILITY_"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" env:"PORT" envDefault:"8080"`
	BaseURL           string        `mapstructure:"base_url" env:"BASE_URL"`
	AllowedOrigins    string        `mapstructure:"allowed_origins" env:"ALLOWED_ORIGINS"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" env:"READ_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" env:"IDLE_TIMEOUT" envDefault:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" env:"WRITE_TIMEOUT" envDefault:"15s"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" env:"CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME" envDefault:"5m"`
	Source          string        `mapstructure:"source" env:"SOURCE"`
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Backend        string        `mapstructure:"backend" env:"BACKEND" envDefault:"redis"`
	RedisURL       string        `mapstructure:"redis_url" env:"REDIS_URL"`
	Prefix         string        `mapstructure:"prefix" env:"PREFIX" envDefault:"genops:"`
	PoolSize       int           `mapstructure:"pool_size" env:"POOL_SIZE" envDefault:"10"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" env:"CONNECT_TIMEOUT" envDefault:"5s"`
	SQLitePath     string        `mapstructure:"sqlite_path" env:"SQLITE_PATH" envDefault:"./data/genops.db"`
}

type SecurityConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" env:"JWT_SECRET"`
	JWTIssuer     string        `mapstructure:"jwt_issuer" env:"JWT_ISSUER" envDefault:"genops-idp"`
	JWTAudience   string        `mapstructure:"jwt_audience" env:"JWT_AUDIENCE" envDefault:"genops"`
	TokenDuration time.Duration `mapstructure:"token_duration" env:"TOKEN_DURATION" envDefault:"1h"`
	AuthRateLimit float64       `mapstructure:"auth_rate_limit" env:"AUTH_RATE_LIMIT" envDefault:"5"`
	AuthRateBurst int           `mapstructure:"auth_rate_burst" env:"AUTH_RATE_BURST" envDefault:"10"`
}

type SessionConfig struct {
	CookieName   string        `mapstructure:"cookie_name" env:"COOKIE_NAME" envDefault:"genops_client"`
	Lifetime     time.Duration `mapstructure:"lifetime" env:"LIFETIME" envDefault:"24h"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" env:"IDLE_TIMEOUT" envDefault:"30m"`
	SecureCookie bool          `mapstructure:"secure_cookie" env:"SECURE_COOKIE" envDefault:"false"`
}

type NotificationConfig struct {
	MaxRetries     uint64        `mapstructure:"max_retries" env:"MAX_RETRIES" envDefault:"3"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" env:"INITIAL_BACKOFF" envDefault:"200ms"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout" env:"HANDLER_TIMEOUT" envDefault:"10s"`
}

type SchedulerConfig struct {
	Enabled         bool   `mapstructure:"enabled" env:"ENABLED" envDefault:"true"`
	OverdueSchedule string `mapstructure:"overdue_schedule" env:"OVERDUE_SCHEDULE" envDefault:"@every 5m"`
	EvictSchedule   string `mapstructure:"evict_schedule" env:"EVICT_SCHEDULE" envDefault:"@every 10m"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging" envPrefix:"LOGGING_"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" env:"LEVEL" envDefault:"info"`
	Format string `mapstructure:"format" env:"FORMAT" envDefault:"json"`
}

// LoadConfigFromEnv reads the whole configuration from GENOPS_* environment variables.
func LoadConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "GENOPS_"}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Store.Validate(c.Database); err != nil {
		errs = append(errs, fmt.Sprintf("store config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Session.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("session config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *StoreConfig) Validate(db DatabaseConfig) error {
	switch c.Backend {
	case StoreBackendRedis:
		if c.RedisURL == "" {
			return errors.New("redis_url is required for the redis backend")
		}
	case StoreBackendPostgres:
		if db.Source == "" {
			return errors.New("database.source is required for the postgres backend")
		}
	case StoreBackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	if c.JWTIssuer == "" {
		return errors.New("jwt_issuer is required")
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		return errors.New("auth_rate_limit and auth_rate_burst must be positive")
	}
	return nil
}

func (c *SessionConfig) Validate() error {
	if c.CookieName == "" {
		return errors.New("cookie_name is required")
	}
	if c.Lifetime <= 0 {
		return errors.New("lifetime must be positive")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", c.Level)
	}
	switch c.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}
