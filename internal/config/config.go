// Package config loads and validates server configuration from flags,
// environment variables, and an optional config file, following the same
// Viper-backed pattern the rest of this repo's lineage uses.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the goredis server.
type Config struct {
	// Server settings
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Performance settings
	MaxClients int `mapstructure:"max_clients"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Event loop heartbeat, per spec.md §4.6/§5 (the poll timeout).
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Host:        "0.0.0.0",
		Port:        1234,
		MaxClients:  10000,
		LogLevel:    "info",
		LogFormat:   "text",
		PollTimeout: time.Second,
	}
}

// Load reads configuration from environment variables, an optional config
// file, and command-line flags already bound to Viper by the caller.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("goredis")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/goredis/")
	viper.AddConfigPath("$HOME/.goredis")

	viper.SetEnvPrefix("GOREDIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("max_clients", cfg.MaxClients)
	viper.SetDefault("log_level", cfg.LogLevel)
	viper.SetDefault("log_format", cfg.LogFormat)
	viper.SetDefault("poll_timeout", cfg.PollTimeout)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}

	if c.MaxClients < 1 {
		return fmt.Errorf("max_clients must be at least 1")
	}

	validLogLevels := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	validLevel := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	return nil
}

// String returns a human-readable summary of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("goredis config: %s:%d, MaxClients: %d, LogLevel: %s",
		c.Host, c.Port, c.MaxClients, c.LogLevel)
}
