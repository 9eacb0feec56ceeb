package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// ConfigPathEnvVar points at an optional YAML file layered between defaults and env
	ConfigPathEnvVar = "CONFIG_FILE"

	defaultJWTSecret = "your-secret-key-change-in-production"
)

// Config chứa toàn bộ application configuration
// Precedence: ENV > YAML file > defaults
type Config struct {
	App      AppConfig      `koanf:"app"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	JWT      JWTConfig      `koanf:"jwt"`
	Sources  SourcesConfig  `koanf:"sources"`
	Search   SearchConfig   `koanf:"search"`
	Worker   WorkerConfig   `koanf:"worker"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Environment string `koanf:"environment"` // development, staging, production
	Port        string `koanf:"port"`
	Version     string `koanf:"version"`
	LogLevel    string `koanf:"log_level"`
}

type DatabaseConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`
	MaxConns int    `koanf:"max_conns"`
	MinConns int    `koanf:"min_conns"`

	MaxConnLifetime   time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `koanf:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `koanf:"health_check_period"`
	MaxRetries        int           `koanf:"max_retries"`
	RetryDelay        time.Duration `koanf:"retry_delay"`
	ConnectTimeout    time.Duration `koanf:"connect_timeout"`
}

type RedisConfig struct {
	Host     string `koanf:"host"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type JWTConfig struct {
	Secret            string        `koanf:"secret"`
	AccessTokenExpiry time.Duration `koanf:"access_expiry"`
}

type SourcesConfig struct {
	OpenLibrary OpenLibraryConfig `koanf:"openlibrary"`
	GoogleBooks GoogleBooksConfig `koanf:"googlebooks"`
	Breaker     BreakerConfig     `koanf:"breaker"`
}

type OpenLibraryConfig struct {
	Enabled   bool          `koanf:"enabled"`
	BaseURL   string        `koanf:"base_url"`
	UserAgent string        `koanf:"user_agent"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"` // requests per second
	Burst     int           `koanf:"burst"`
}

type GoogleBooksConfig struct {
	Enabled   bool          `koanf:"enabled"`
	BaseURL   string        `koanf:"base_url"`
	APIKey    string        `koanf:"api_key"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
}

type BreakerConfig struct {
	MaxFailures  uint32        `koanf:"max_failures"`
	OpenTimeout  time.Duration `koanf:"open_timeout"`
	HalfOpenReqs uint32        `koanf:"half_open_requests"`
}

type SearchConfig struct {
	LocalLimit         int           `koanf:"local_limit"`
	LocalSufficient    int           `koanf:"local_sufficient"`
	ExternalMaxResults int           `koanf:"external_max_results"`
	SearchTTL          time.Duration `koanf:"cache_ttl"`
	PopularTTL         time.Duration `koanf:"popular_ttl"`
	PopularConcurrency int           `koanf:"popular_concurrency"`
}

type WorkerConfig struct {
	Concurrency         int    `koanf:"concurrency"`
	HealthPort          string `koanf:"health_port"`
	RefreshPopularCron  string `koanf:"refresh_popular_cron"` // empty disables the job
	RefreshPopularLimit int    `koanf:"refresh_popular_limit"`
	AsyncReconcile      bool   `koanf:"async_reconcile"` // expose POST /authors/reconcile/async
}

func defaultConfig() Config {
	return Config{
		App: AppConfig{
			Name:        "bookreview-api",
			Environment: "development",
			Port:        "8080",
			Version:     "1.0.0",
			LogLevel:    "info",
		},
		Database: DatabaseConfig{
			Host:              "localhost",
			Port:              5432,
			User:              "bookreview",
			Password:          "secret",
			Database:          "bookreview_dev",
			SSLMode:           "disable",
			MaxConns:          25,
			MinConns:          5,
			MaxConnLifetime:   5 * time.Minute,
			MaxConnIdleTime:   time.Minute,
			HealthCheckPeriod: time.Minute,
			MaxRetries:        5,
			RetryDelay:        time.Second,
			ConnectTimeout:    10 * time.Second,
		},
		Redis: RedisConfig{
			Host: "localhost:6379",
		},
		JWT: JWTConfig{
			Secret:            defaultJWTSecret,
			AccessTokenExpiry: 15 * time.Minute,
		},
		Sources: SourcesConfig{
			OpenLibrary: OpenLibraryConfig{
				Enabled:   true,
				BaseURL:   "https://openlibrary.org",
				UserAgent: "bookreview-backend/1.0",
				Timeout:   5 * time.Second,
				RateLimit: 5,
				Burst:     5,
			},
			GoogleBooks: GoogleBooksConfig{
				Enabled:   true,
				BaseURL:   "https://www.googleapis.com/books/v1",
				Timeout:   5 * time.Second,
				RateLimit: 5,
				Burst:     5,
			},
			Breaker: BreakerConfig{
				MaxFailures:  5,
				OpenTimeout:  30 * time.Second,
				HalfOpenReqs: 1,
			},
		},
		Search: SearchConfig{
			LocalLimit:         20,
			LocalSufficient:    5,
			ExternalMaxResults: 10,
			SearchTTL:          5 * time.Minute,
			PopularTTL:         24 * time.Hour,
			PopularConcurrency: 5,
		},
		Worker: WorkerConfig{
			Concurrency:         10,
			HealthPort:          "9999",
			RefreshPopularCron:  "0 3 * * *",
			RefreshPopularLimit: 10,
			AsyncReconcile:      true,
		},
	}
}

// envMappings maps the flat environment names the deployment already uses
// onto koanf paths. Unlisted variables are ignored.
var envMappings = map[string]string{
	"app_name":    "app.name",
	"app_env":     "app.environment",
	"app_port":    "app.port",
	"app_version": "app.version",
	"log_level":   "app.log_level",

	"db_host":                "database.host",
	"db_port":                "database.port",
	"db_user":                "database.user",
	"db_password":            "database.password",
	"db_name":                "database.name",
	"db_sslmode":             "database.sslmode",
	"db_max_conns":           "database.max_conns",
	"db_min_conns":           "database.min_conns",
	"db_max_conn_lifetime":   "database.max_conn_lifetime",
	"db_max_conn_idle_time":  "database.max_conn_idle_time",
	"db_health_check_period": "database.health_check_period",
	"db_max_retries":         "database.max_retries",
	"db_retry_delay":         "database.retry_delay",
	"db_connect_timeout":     "database.connect_timeout",

	"redis_host":     "redis.host",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",

	"jwt_secret":        "jwt.secret",
	"jwt_access_expiry": "jwt.access_expiry",

	"openlibrary_enabled":    "sources.openlibrary.enabled",
	"openlibrary_base_url":   "sources.openlibrary.base_url",
	"openlibrary_user_agent": "sources.openlibrary.user_agent",
	"openlibrary_timeout":    "sources.openlibrary.timeout",
	"openlibrary_rate_limit": "sources.openlibrary.rate_limit",
	"googlebooks_enabled":    "sources.googlebooks.enabled",
	"googlebooks_base_url":   "sources.googlebooks.base_url",
	"googlebooks_api_key":    "sources.googlebooks.api_key",
	"googlebooks_timeout":    "sources.googlebooks.timeout",
	"googlebooks_rate_limit": "sources.googlebooks.rate_limit",
	"breaker_max_failures":   "sources.breaker.max_failures",
	"breaker_open_timeout":   "sources.breaker.open_timeout",

	"search_local_limit":         "search.local_limit",
	"search_local_sufficient":    "search.local_sufficient",
	"search_external_max":        "search.external_max_results",
	"search_cache_ttl":           "search.cache_ttl",
	"search_popular_ttl":         "search.popular_ttl",
	"search_popular_concurrency": "search.popular_concurrency",

	"worker_concurrency":           "worker.concurrency",
	"worker_health_port":           "worker.health_port",
	"worker_refresh_popular_cron":  "worker.refresh_popular_cron",
	"worker_refresh_popular_limit": "worker.refresh_popular_limit",
	"worker_async_reconcile":       "worker.async_reconcile",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Load đọc config: defaults -> optional YAML (CONFIG_FILE) -> environment variables
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late at request time
func (c *Config) Validate() error {
	if c.App.Port == "" {
		return fmt.Errorf("APP_PORT must not be empty")
	}
	if c.Search.LocalSufficient > c.Search.LocalLimit {
		return fmt.Errorf("SEARCH_LOCAL_SUFFICIENT (%d) must not exceed SEARCH_LOCAL_LIMIT (%d)",
			c.Search.LocalSufficient, c.Search.LocalLimit)
	}
	if c.Search.ExternalMaxResults <= 0 {
		return fmt.Errorf("SEARCH_EXTERNAL_MAX must be positive")
	}

	// Production environment phải có JWT secret
	if c.IsProduction() {
		if c.JWT.Secret == defaultJWTSecret || c.JWT.Secret == "" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// DSN builds the pgx connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
		d.SSLMode,
	)
}
