// Package config loads runtime configuration from the environment, an optional
// .env file and an optional config.yaml, and holds domain constants.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration of the backend.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Embedding EmbeddingConfig
	Duplicate DuplicateConfig
	SLA       SLAConfig
	Telegram  TelegramConfig
	Log       LogConfig
}

type AppConfig struct {
	Env    string
	Port   string
	Origin string
}

type DatabaseConfig struct {
	DSN string
}

// RedisConfig is optional; an empty Address disables the event bus and the sweep lock.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// EmbeddingConfig points at the embedding sidecar. An empty URL disables embeddings,
// which routes every submission through the fallback assignment path.
type EmbeddingConfig struct {
	URL     string
	Timeout time.Duration
}

type DuplicateConfig struct {
	Threshold float64
	Window    int
	// IncludeFlagged lets records already marked as duplicates act as candidates.
	IncludeFlagged bool
}

type SLAConfig struct {
	Schedule string
	LockTTL  time.Duration
}

type TelegramConfig struct {
	Token    string
	Language string
}

type LogConfig struct {
	Level       string
	Development bool
}

// IsDev reports whether the app runs in a development environment.
func (c *Config) IsDev() bool {
	return c.App.Env == "dev" || c.App.Env == "development"
}

// Load reads .env (if present), config.yaml (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", "5000")
	v.SetDefault("app.origin", "http://localhost:5173")
	v.SetDefault("database.dsn", "host=localhost user=user password=password dbname=grievancedb port=5432 sslmode=disable")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", DefaultTokenTTL)
	v.SetDefault("embedding.url", "")
	v.SetDefault("embedding.timeout", DefaultEmbedTimeout)
	v.SetDefault("duplicate.threshold", DefaultDuplicateThreshold)
	v.SetDefault("duplicate.window", DefaultDuplicateWindow)
	v.SetDefault("duplicate.include_flagged", false)
	v.SetDefault("sla.schedule", DefaultSweepSchedule)
	v.SetDefault("sla.lock_ttl", DefaultSweepLockTTL)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.language", "en")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:    v.GetString("app.env"),
			Port:   v.GetString("app.port"),
			Origin: v.GetString("app.origin"),
		},
		Database: DatabaseConfig{DSN: v.GetString("database.dsn")},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Embedding: EmbeddingConfig{
			URL:     strings.TrimRight(v.GetString("embedding.url"), "/"),
			Timeout: v.GetDuration("embedding.timeout"),
		},
		Duplicate: DuplicateConfig{
			Threshold:      v.GetFloat64("duplicate.threshold"),
			Window:         v.GetInt("duplicate.window"),
			IncludeFlagged: v.GetBool("duplicate.include_flagged"),
		},
		SLA: SLAConfig{
			Schedule: v.GetString("sla.schedule"),
			LockTTL:  v.GetDuration("sla.lock_ttl"),
		},
		Telegram: TelegramConfig{
			Token:    v.GetString("telegram.token"),
			Language: v.GetString("telegram.language"),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required")
	}
	if c.Duplicate.Threshold <= 0 || c.Duplicate.Threshold > 1 {
		return fmt.Errorf("duplicate threshold must be in (0, 1], got %v", c.Duplicate.Threshold)
	}
	if c.Duplicate.Window <= 0 {
		return fmt.Errorf("duplicate window must be positive, got %d", c.Duplicate.Window)
	}
	if c.SLA.Schedule == "" {
		return errors.New("sla schedule is required")
	}
	return nil
}
