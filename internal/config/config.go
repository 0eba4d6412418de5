package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "ERASURE_BRIDGE"

// Config holds all application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Datastore DatastoreConfig `mapstructure:"datastore"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

// APIConfig holds HTTP server configuration.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// CORSAllowedOrigins enables CORS on the admin API for these origins.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	PoolMin        int32         `mapstructure:"pool_min"`
	PoolMax        int32         `mapstructure:"pool_max"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// AutoMigrate applies pending migrations before the server starts.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	FilePath  string `mapstructure:"file_path"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

// DatastoreConfig holds settings for the external datastore deletion API.
type DatastoreConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Workers bounds concurrent (tenant, rule) deletions. 1 is sequential.
	Workers int `mapstructure:"workers"`
}

// RedisConfig holds the catalog cache connection. An empty URL disables caching.
type RedisConfig struct {
	URL      string        `mapstructure:"url"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// ArchiveConfig selects where raw deletion notifications are kept.
type ArchiveConfig struct {
	Type       string `mapstructure:"type"` // none, local, s3
	Path       string `mapstructure:"path"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Prefix   string `mapstructure:"s3_prefix"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
	S3Region   string `mapstructure:"s3_region"`
}

// AuthConfig holds admin API token settings.
type AuthConfig struct {
	SigningKey  string        `mapstructure:"signing_key"`
	Issuer      string        `mapstructure:"issuer"`
	Audience    string        `mapstructure:"audience"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
	// AdminPasswordHash is a bcrypt hash checked by the login endpoint.
	// Empty disables password login; tokens can still be minted offline.
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
	// Login lockout, enforced only when Redis is configured.
	LoginAttemptsLimit   int           `mapstructure:"login_attempts_limit"`
	LoginLockoutDuration time.Duration `mapstructure:"login_lockout_duration"`
}

// BootstrapConfig holds values applied once at startup.
type BootstrapConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", 10*time.Second)
	v.SetDefault("api.write_timeout", 60*time.Second)
	v.SetDefault("api.cors_allowed_origins", []string{})

	v.SetDefault("database.url", "")
	v.SetDefault("database.pool_min", 1)
	v.SetDefault("database.pool_max", 10)
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.file_path", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_files", 5)

	v.SetDefault("datastore.base_url", "https://apis.roblox.com")
	v.SetDefault("datastore.timeout", 10*time.Second)
	v.SetDefault("datastore.workers", 1)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.cache_ttl", time.Minute)

	v.SetDefault("archive.type", "none")
	v.SetDefault("archive.path", "")
	v.SetDefault("archive.s3_bucket", "")
	v.SetDefault("archive.s3_prefix", "notifications/")
	v.SetDefault("archive.s3_endpoint", "")
	v.SetDefault("archive.s3_region", "")

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.issuer", "erasure-bridge")
	v.SetDefault("auth.audience", "erasure-bridge-admin")
	v.SetDefault("auth.token_expiry", 12*time.Hour)
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.login_attempts_limit", 5)
	v.SetDefault("auth.login_lockout_duration", 15*time.Minute)

	v.SetDefault("bootstrap.webhook_secret", "")
}

// Load reads configuration from the given config directory path.
// It looks for a file named "config.yaml" in that directory; a missing file
// leaves the defaults in place. A .env file in the working directory is
// loaded into the process environment first, without overriding variables
// that are already set. Environment variables with prefix ERASURE_BRIDGE_
// override file values, e.g. ERASURE_BRIDGE_DATABASE_URL sets database.url.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	if c.Datastore.Timeout <= 0 {
		return errors.New("datastore.timeout must be positive")
	}
	if c.Datastore.Workers < 1 {
		return errors.New("datastore.workers must be at least 1")
	}
	switch c.Archive.Type {
	case "", "none", "local", "s3":
	default:
		return fmt.Errorf("archive.type %q is not one of none, local, s3", c.Archive.Type)
	}
	if c.Archive.Type == "s3" && c.Archive.S3Bucket == "" {
		return errors.New("archive.s3_bucket is required when archive.type is s3")
	}
	return nil
}
