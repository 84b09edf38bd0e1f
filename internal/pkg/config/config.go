package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// PublicBaseURL prefixes links placed in outgoing emails.
	PublicBaseURL string `env:"PUBLIC_BASE_URL, default=http://localhost:8080"`

	Auth   AuthConfig
	Status StatusConfig
	Mongo  MongoConfig
	Redis  RedisConfig
	Queue  QueueConfig
	SMTP   SMTPConfig
}

type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET"`
	AdminTokenTTL  time.Duration `env:"ADMIN_TOKEN_TTL, default=24h"`
	VoterKeySecret string        `env:"VOTER_KEY_SECRET"`
	CronSecret     string        `env:"CRON_SECRET"`
}

type StatusConfig struct {
	// Interval of the in-process status updater. Zero disables it and leaves
	// reconciliation to the HTTP trigger.
	Interval time.Duration `env:"STATUS_UPDATE_INTERVAL, default=1m"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=elections"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type QueueConfig struct {
	Workers     int `env:"QUEUE_WORKERS,      default=4"`
	MaxAttempts int `env:"QUEUE_MAX_ATTEMPTS, default=8"`
}

type SMTPConfig struct {
	Host       string `env:"SMTP_HOST"`
	Port       int    `env:"SMTP_PORT,       default=587"`
	Username   string `env:"SMTP_USERNAME"`
	Password   string `env:"SMTP_PASSWORD"`
	From       string `env:"SMTP_FROM,       default=noreply@localhost"`
	Encryption string `env:"SMTP_ENCRYPTION, default=starttls"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects configurations the service cannot run safely with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.VoterKeySecret == "" {
		errs = append(errs, errors.New("VOTER_KEY_SECRET is required"))
	}
	if c.Auth.JWTSecret != "" && c.Auth.JWTSecret == c.Auth.VoterKeySecret {
		errs = append(errs, errors.New("VOTER_KEY_SECRET must differ from JWT_SECRET"))
	}
	if c.IsProduction() && c.Auth.CronSecret == "" {
		errs = append(errs, errors.New("CRON_SECRET is required in production"))
	}
	if c.Status.Interval < 0 {
		errs = append(errs, errors.New("STATUS_UPDATE_INTERVAL must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through lookuper.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
