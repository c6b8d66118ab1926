package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-jwt-secret"

type Config struct {
	App    AppConfig      `mapstructure:"app"`
	Server ServerConfig   `mapstructure:"server"`
	DB     DatabaseConfig `mapstructure:"db"`
	Auth   AuthConfig     `mapstructure:"auth"`
	Gym    GymConfig      `mapstructure:"gym"`
	Redis  RedisConfig    `mapstructure:"redis"`
	NATS   NATSConfig     `mapstructure:"nats"`
	Log    LogConfig      `mapstructure:"log"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig: a postgres:// DSN selects PostgreSQL, anything else is a
// sqlite file path (":memory:" works).
type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type GymConfig struct {
	Timezone        string `mapstructure:"timezone"`
	DefaultCapacity int    `mapstructure:"default_capacity"`
	// CancelNotice is how long before the start members can still cancel.
	CancelNotice time.Duration `mapstructure:"cancel_notice"`
}

// RedisConfig: empty Addr keeps locking in-process.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig: empty URL disables event publishing to NATS.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads defaults, then an optional config file, then GYM_* env vars.
// A .env file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("app.env", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("db.dsn", "gym.db")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)

	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.access_token_ttl", "24h")

	v.SetDefault("gym.timezone", "Africa/Tunis")
	v.SetDefault("gym.default_capacity", 20)
	v.SetDefault("gym.cancel_notice", "24h")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "gym")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("GYM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		return fmt.Errorf("db.dsn must not be empty")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be > 0")
	}
	if c.Gym.DefaultCapacity <= 0 {
		return fmt.Errorf("gym.default_capacity must be > 0")
	}
	if c.Gym.CancelNotice < 0 {
		return fmt.Errorf("gym.cancel_notice must be >= 0")
	}
	if _, err := time.LoadLocation(c.Gym.Timezone); err != nil {
		return fmt.Errorf("gym.timezone %q: %w", c.Gym.Timezone, err)
	}
	if c.IsProdLike() && c.Auth.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("in prod/release auth.jwt_secret must be set and not default")
	}
	return nil
}

// Location is the gym time zone. Validate has already checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Gym.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProdLike() bool {
	env := strings.ToLower(strings.TrimSpace(c.App.Env))
	return env == "prod" || env == "production" || env == "release"
}
