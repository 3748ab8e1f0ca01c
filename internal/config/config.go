// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GymTracker Contributors

// Package config loads GymTracker settings from a YAML file, command-line
// flags and the environment.
package config

import (
	"net/url"
	"os"
	"time"

	"github.com/samber/oops"

	"github.com/gymtracker/gymtracker/internal/auth"
	"github.com/gymtracker/gymtracker/internal/logging"
	"github.com/gymtracker/gymtracker/internal/store"
)

// Environment variables consulted when the matching value is unset.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvTokenSecret = "GYMTRACKER_TOKEN_SECRET"
)

// Config is the complete GymTracker configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database" json:"database,omitempty" yaml:"database"`
	Log      LogConfig      `koanf:"log" json:"log,omitempty" yaml:"log"`
	Hash     HashConfig     `koanf:"hash" json:"hash,omitempty" yaml:"hash"`
	Token    TokenConfig    `koanf:"token" json:"token,omitempty" yaml:"token"`
	Recovery RecoveryConfig `koanf:"recovery" json:"recovery,omitempty" yaml:"recovery"`
}

// DatabaseConfig locates the PostgreSQL credential store.
type DatabaseConfig struct {
	URL            string        `koanf:"url" json:"url,omitempty" yaml:"url" jsonschema:"description=PostgreSQL connection URL"`
	ConnectTimeout time.Duration `koanf:"connect_timeout" json:"connect_timeout,omitempty" yaml:"connect_timeout" jsonschema:"description=How long to retry the first connection"`
}

// LogConfig controls log output.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" yaml:"format" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// HashConfig holds argon2id cost parameters for new password hashes.
type HashConfig struct {
	Time      uint32 `koanf:"time" json:"time,omitempty" yaml:"time" jsonschema:"minimum=1,maximum=64"`
	MemoryKiB uint32 `koanf:"memory_kib" json:"memory_kib,omitempty" yaml:"memory_kib" jsonschema:"minimum=8,maximum=4194304"`
	Threads   uint8  `koanf:"threads" json:"threads,omitempty" yaml:"threads" jsonschema:"minimum=1,maximum=255"`
}

// TokenConfig configures session tokens.
type TokenConfig struct {
	Secret string        `koanf:"secret" json:"secret,omitempty" yaml:"secret" jsonschema:"minLength=32,description=HMAC key for session tokens"`
	Issuer string        `koanf:"issuer" json:"issuer,omitempty" yaml:"issuer"`
	TTL    time.Duration `koanf:"ttl" json:"ttl,omitempty" yaml:"ttl"`
}

// RecoveryConfig configures password recovery.
type RecoveryConfig struct {
	CodeTTL time.Duration `koanf:"code_ttl" json:"code_ttl,omitempty" yaml:"code_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	params := auth.DefaultArgon2Params()
	return Config{
		Database: DatabaseConfig{ConnectTimeout: store.DefaultConnectTimeout},
		Log:      LogConfig{Format: "json", Level: "info"},
		Hash: HashConfig{
			Time:      params.Time,
			MemoryKiB: params.Memory,
			Threads:   params.Threads,
		},
		Token: TokenConfig{
			Issuer: auth.DefaultTokenIssuer,
			TTL:    auth.DefaultTokenTTL,
		},
		Recovery: RecoveryConfig{CodeTTL: auth.DefaultRecoveryCodeTTL},
	}
}

// applyEnv fills unset secrets from the environment.
func (c *Config) applyEnv() {
	if c.Database.URL == "" {
		c.Database.URL = os.Getenv(EnvDatabaseURL)
	}
	if c.Token.Secret == "" {
		c.Token.Secret = os.Getenv(EnvTokenSecret)
	}
}

func invalid(key string, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
}

// Validate checks values that do not depend on the command being run.
func (c *Config) Validate() error {
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Database.ConnectTimeout <= 0 {
		return invalid("database.connect_timeout", "database.connect_timeout must be positive")
	}
	if c.Hash.Time < 1 || c.Hash.Time > 64 {
		return invalid("hash.time", "hash.time must be between 1 and 64, got %d", c.Hash.Time)
	}
	if c.Hash.Threads < 1 {
		return invalid("hash.threads", "hash.threads must be at least 1")
	}
	if c.Hash.MemoryKiB < 8*uint32(c.Hash.Threads) || c.Hash.MemoryKiB > 4*1024*1024 {
		return invalid("hash.memory_kib", "hash.memory_kib must be between 8*threads and 4194304, got %d", c.Hash.MemoryKiB)
	}
	if c.Token.TTL <= 0 {
		return invalid("token.ttl", "token.ttl must be positive")
	}
	if c.Token.Secret != "" && len(c.Token.Secret) < auth.MinTokenSecretLen {
		return invalid("token.secret", "token.secret must be at least %d bytes", auth.MinTokenSecretLen)
	}
	if c.Recovery.CodeTTL <= 0 {
		return invalid("recovery.code_ttl", "recovery.code_ttl must be positive")
	}
	return nil
}

// RequireDatabase reports an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return invalid("database.url", "database.url is required (or set %s)", EnvDatabaseURL)
	}
	return nil
}

// RequireTokenSecret reports an error when no token secret is configured.
func (c *Config) RequireTokenSecret() error {
	if c.Token.Secret == "" {
		return invalid("token.secret", "token.secret is required (or set %s)", EnvTokenSecret)
	}
	return nil
}

// Argon2Params converts the hash settings.
func (c *Config) Argon2Params() auth.Argon2Params {
	return auth.Argon2Params{
		Time:    c.Hash.Time,
		Memory:  c.Hash.MemoryKiB,
		Threads: c.Hash.Threads,
	}
}

// Redacted returns a copy safe to print: the token secret is masked and the
// database URL loses its password.
func (c Config) Redacted() Config {
	if c.Token.Secret != "" {
		c.Token.Secret = logging.Redacted
	}
	if c.Database.URL != "" {
		if u, err := url.Parse(c.Database.URL); err == nil {
			c.Database.URL = u.Redacted()
		} else {
			c.Database.URL = logging.Redacted
		}
	}
	return c
}
