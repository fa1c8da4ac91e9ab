// Package config provides environment-based configuration for Keyfold.
//
// Configuration is loaded from KEYFOLD_-prefixed environment variables
// via Viper, with documented defaults for every knob:
//
//   - KEYFOLD_DATA_DIR: directory for record files. Default: keyfold-data
//   - KEYFOLD_LOG_LEVEL: debug, info, warn, error. Default: info
//   - KEYFOLD_SESSION_TTL_MINUTES: default session lifetime. Default: 60
//   - KEYFOLD_MAX_FAILED_ATTEMPTS: failures before lockout. Default: 5
//   - KEYFOLD_LOCKOUT_MINUTES: lockout duration. Default: 15
//   - KEYFOLD_BCRYPT_COST: password hash cost factor. Default: 12
//   - KEYFOLD_ISSUER: TOTP provisioning issuer label. Default: Keyfold
//   - KEYFOLD_TOKEN_SECRET: HMAC key for signed session tokens
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DataDir  string `mapstructure:"DATA_DIR"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	SessionTTLMinutes int `mapstructure:"SESSION_TTL_MINUTES"`
	MaxFailedAttempts int `mapstructure:"MAX_FAILED_ATTEMPTS"`
	LockoutMinutes    int `mapstructure:"LOCKOUT_MINUTES"`
	BcryptCost        int `mapstructure:"BCRYPT_COST"`

	Issuer      string `mapstructure:"ISSUER"`
	TokenSecret string `mapstructure:"TOKEN_SECRET"`
}

// SessionTTL converts the minute knob to a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// LockoutDuration converts the minute knob to a duration.
func (c *Config) LockoutDuration() time.Duration {
	return time.Duration(c.LockoutMinutes) * time.Minute
}

// LoadConfig reads configuration from the environment with defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("DATA_DIR", "keyfold-data")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_TTL_MINUTES", 60)
	v.SetDefault("MAX_FAILED_ATTEMPTS", 5)
	v.SetDefault("LOCKOUT_MINUTES", 15)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("ISSUER", "Keyfold")
	v.SetDefault("TOKEN_SECRET", "")

	v.SetEnvPrefix("KEYFOLD")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
