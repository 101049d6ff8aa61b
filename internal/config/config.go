package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

const (
	StorageBackendDisk     = "disk"
	StorageBackendRedis    = "redis"
	StorageBackendPostgres = "postgres"
	StorageBackendMemory   = "memory"
)

const (
	DefaultStorageKey  = "blogs"
	DefaultBannerDelay = 3 * time.Second
	DefaultDateLayout  = "1/2/2006"
	DefaultSessionTTL  = 12 * time.Hour
)

type Config struct {
	Environment string `toml:"-"`

	Host        string `toml:"host" env:"BLOGBOX_HOST, overwrite"`
	Port        int    `toml:"port" env:"BLOGBOX_PORT, overwrite"`
	MetricsHost string `toml:"metrics_host" env:"BLOGBOX_METRICS_HOST, overwrite"`
	MetricsPort string `toml:"metrics_port" env:"BLOGBOX_METRICS_PORT, overwrite"`

	// logging
	LogLevel      string `toml:"log_level" env:"BLOGBOX_LOG_LEVEL, overwrite"`
	LogsPath      string `toml:"logs_path" env:"BLOGBOX_LOGS_PATH, overwrite"`
	LogToStdout   bool   `toml:"log_to_stdout" env:"BLOGBOX_LOG_TO_STDOUT, overwrite"`
	LogFormatJSON bool   `toml:"log_format_json" env:"BLOGBOX_LOG_FORMAT_JSON, overwrite"`
	SentryEnabled bool   `toml:"sentry_enabled" env:"BLOGBOX_SENTRY_ENABLED, overwrite"`
	SentryDSN     string `toml:"-" env:"SENTRY_DSN"`

	// tracing
	HoneycombEnabled bool `toml:"honeycomb_enabled" env:"HONEYCOMB_ENABLED, overwrite"`

	// storage
	StorageBackend string `toml:"storage_backend" env:"BLOGBOX_STORAGE_BACKEND, overwrite"`
	StorageKey     string `toml:"storage_key" env:"BLOGBOX_STORAGE_KEY, overwrite"`
	DiskStoreRoot  string `toml:"disk_store_root" env:"BLOGBOX_DISK_STORE_ROOT, overwrite"`
	RedisHost      string `toml:"redis_host" env:"BLOGBOX_REDIS_HOST, overwrite"`
	RedisPort      string `toml:"redis_port" env:"BLOGBOX_REDIS_PORT, overwrite"`
	RedisPassword  string `toml:"-" env:"BLOGBOX_REDIS_PASS"`
	PostgresHost   string `toml:"postgres_host" env:"BLOGBOX_POSTGRES_HOST, overwrite"`
	PostgresPort   string `toml:"postgres_port" env:"BLOGBOX_POSTGRES_PORT, overwrite"`
	PostgresDBName string `toml:"postgres_db_name" env:"BLOGBOX_POSTGRES_DB_NAME, overwrite"`

	// ui
	BannerDelay time.Duration `toml:"banner_delay" env:"BLOGBOX_BANNER_DELAY, overwrite"`
	DateLayout  string        `toml:"date_layout" env:"BLOGBOX_DATE_LAYOUT, overwrite"`
	SessionTTL  time.Duration `toml:"session_ttl" env:"BLOGBOX_SESSION_TTL, overwrite"`

	// json api
	AllowedOrigins     []string `toml:"allowed_origins" env:"BLOGBOX_ALLOWED_ORIGINS, overwrite"`
	APIRateLimitPerMin int      `toml:"api_rate_limit_per_min" env:"BLOGBOX_API_RATE_LIMIT_PER_MIN, overwrite"`
}

type Toml struct {
	Development *Config
	Production  *Config
	DockerDev   *Config `toml:"dockerdev"`
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	case "ddev", "dockerdev":
		cfg = t.DockerDev
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env [%s] not set", env)
	}
	return cfg, nil
}

// Load reads the TOML config at path, picks the section for env, and
// applies environment variable overrides on top of it.
func Load(env, path string) (*Config, error) {
	return load(context.Background(), env, path, envconfig.OsLookuper())
}

func load(ctx context.Context, env, path string, lookuper envconfig.Lookuper) (*Config, error) {
	var tomlCfg Toml
	if _, err := toml.DecodeFile(path, &tomlCfg); err != nil {
		return nil, fmt.Errorf("decode toml config [%s]: %w", path, err)
	}

	cfg, err := tomlCfg.Get(env)
	if err != nil {
		return nil, err
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env overrides: %w", err)
	}

	cfg.Environment = strings.ToLower(env)
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.MetricsHost == "" {
		c.MetricsHost = "localhost"
	}
	if c.MetricsPort == "" {
		c.MetricsPort = "2112"
	}
	if c.StorageBackend == "" {
		c.StorageBackend = StorageBackendDisk
	}
	if c.StorageKey == "" {
		c.StorageKey = DefaultStorageKey
	}
	if c.BannerDelay == 0 {
		c.BannerDelay = DefaultBannerDelay
	}
	if c.DateLayout == "" {
		c.DateLayout = DefaultDateLayout
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = DefaultSessionTTL
	}
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageBackendDisk:
		if c.DiskStoreRoot == "" {
			return errors.New("disk storage backend requires disk_store_root")
		}
	case StorageBackendRedis:
		if c.RedisHost == "" || c.RedisPort == "" {
			return errors.New("redis storage backend requires redis_host and redis_port")
		}
	case StorageBackendPostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			return errors.New("postgres storage backend requires postgres host, port and db name")
		}
	case StorageBackendMemory:
	default:
		return fmt.Errorf("unknown storage backend: %s", c.StorageBackend)
	}

	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.BannerDelay < 0 {
		return fmt.Errorf("invalid banner delay: %s", c.BannerDelay)
	}

	return nil
}
