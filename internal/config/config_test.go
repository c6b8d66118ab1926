package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:    AppConfig{Env: "dev"},
		Server: ServerConfig{Port: 8080},
		DB:     DatabaseConfig{DSN: ":memory:"},
		Auth:   AuthConfig{JWTSecret: "0123456789abcdef", AccessTokenTTL: time.Hour},
		Gym:    GymConfig{Timezone: "UTC", DefaultCapacity: 20},
	}
}

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("GYM_AUTH_JWT_SECRET", "a-very-long-test-secret")
	t.Setenv("GYM_SERVER_PORT", "9090")
	t.Setenv("GYM_GYM_TIMEZONE", "UTC")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "a-very-long-test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 20, cfg.Gym.DefaultCapacity)
	assert.Equal(t, 24*time.Hour, cfg.Gym.CancelNotice)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, false},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, false},
		{"unknown timezone", func(c *Config) { c.Gym.Timezone = "Mars/Olympus" }, false},
		{"zero capacity", func(c *Config) { c.Gym.DefaultCapacity = 0 }, false},
		{"negative cancel notice", func(c *Config) { c.Gym.CancelNotice = -time.Hour }, false},
		{"empty dsn", func(c *Config) { c.DB.DSN = " " }, false},
		{"default secret in prod", func(c *Config) {
			c.App.Env = "production"
			c.Auth.JWTSecret = defaultJWTSecret
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
