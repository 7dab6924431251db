// Package config loads server configuration from defaults, an optional YAML
// file, PETSERVER_* environment variables and command-line flags, in that order.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable, e.g. PETSERVER_HTTP_ADDR.
const EnvPrefix = "PETSERVER_"

// Driver names.
const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverSQL      = "sql"
	DriverRedis    = "redis"
	DriverLog      = "log"
	DriverSMTP     = "smtp"
)

// Config is the full server configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Log      LogConfig      `koanf:"log"`
	Storage  StorageConfig  `koanf:"storage"`
	Sessions SessionsConfig `koanf:"sessions"`
	Redis    RedisConfig    `koanf:"redis"`
	Signup   SignupConfig   `koanf:"signup"`
	Mail     MailConfig     `koanf:"mail"`
}

type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// StorageConfig selects where users live. Dir holds the JSON documents,
// and the SQLite file when DSN is empty.
type StorageConfig struct {
	Driver         string        `koanf:"driver"`
	Dir            string        `koanf:"dir"`
	DSN            string        `koanf:"dsn"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// SessionsConfig selects where sessions live. "sql" shares the storage database.
type SessionsConfig struct {
	Driver string        `koanf:"driver"`
	TTL    time.Duration `koanf:"ttl"`
	Prefix string        `koanf:"prefix"`
}

// RedisConfig configures the Redis used for sessions and the user cache.
// UserCacheTTL > 0 caches SQL user lookups in Redis.
type RedisConfig struct {
	Addr         string        `koanf:"addr"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	UserCacheTTL time.Duration `koanf:"user_cache_ttl"`
}

type SignupConfig struct {
	PendingTTL time.Duration `koanf:"pending_ttl"`
}

// MailConfig configures signup mail. Address is the SMTP envelope sender;
// From is the display name. RatePerMinute caps outgoing mail, 0 means unlimited.
type MailConfig struct {
	Driver        string `koanf:"driver"`
	Host          string `koanf:"host"`
	Port          int    `koanf:"port"`
	Username      string `koanf:"username"`
	Password      string `koanf:"password"`
	Address       string `koanf:"address"`
	From          string `koanf:"from"`
	Subject       string `koanf:"subject"`
	RatePerMinute int    `koanf:"rate_per_minute"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		HTTP:     HTTPConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Log:      LogConfig{Format: "json", Level: "info"},
		Storage:  StorageConfig{Driver: DriverJSON, Dir: "./saveData", ConnectTimeout: 60 * time.Second},
		Sessions: SessionsConfig{Driver: DriverJSON, Prefix: "session"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		Mail: MailConfig{
			Driver:  DriverLog,
			Port:    587,
			From:    "old dude",
			Subject: "Pet-Server: Signup",
		},
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":               "http.addr",
	"log-format":         "log.format",
	"log-level":          "log.level",
	"storage-driver":     "storage.driver",
	"storage-dir":        "storage.dir",
	"sessions-driver":    "sessions.driver",
	"mail-driver":        "mail.driver",
	"signup-pending-ttl": "signup.pending_ttl",
}

// RegisterFlags adds the flags understood by Load to fs, defaulted from Default.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("addr", d.HTTP.Addr, "HTTP listen address")
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("storage-driver", d.Storage.Driver, "user storage (json, sqlite or postgres)")
	fs.String("storage-dir", d.Storage.Dir, "directory for JSON documents and the SQLite file")
	fs.String("sessions-driver", d.Sessions.Driver, "session storage (json, redis or sql)")
	fs.String("mail-driver", d.Mail.Driver, "mail transport (log or smtp)")
	fs.Duration("signup-pending-ttl", d.Signup.PendingTTL, "expiry of unconfirmed signup codes (0 = never)")
}

// envKey turns PETSERVER_SIGNUP_PENDING_TTL into signup.pending_ttl.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// Load reads path (optional), the environment and fs (optional) over Default.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is valid.
func (cfg *Config) Validate() error {
	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("log.format must be 'json' or 'text', got %q", cfg.Log.Format)
	}

	switch cfg.Storage.Driver {
	case DriverJSON, DriverSQLite:
	case DriverPostgres:
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("storage.driver must be json, sqlite or postgres, got %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Dir == "" {
		return fmt.Errorf("storage.dir is required")
	}

	switch cfg.Sessions.Driver {
	case DriverJSON:
	case DriverRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for redis sessions")
		}
	case DriverSQL:
		if !cfg.Storage.UsesSQL() {
			return fmt.Errorf("sessions.driver sql requires storage.driver sqlite or postgres")
		}
	default:
		return fmt.Errorf("sessions.driver must be json, redis or sql, got %q", cfg.Sessions.Driver)
	}

	switch cfg.Mail.Driver {
	case DriverLog:
	case DriverSMTP:
		if cfg.Mail.Host == "" || cfg.Mail.Address == "" {
			return fmt.Errorf("mail.host and mail.address are required for smtp")
		}
	default:
		return fmt.Errorf("mail.driver must be log or smtp, got %q", cfg.Mail.Driver)
	}

	if cfg.Redis.UserCacheTTL > 0 {
		if !cfg.Storage.UsesSQL() {
			return fmt.Errorf("redis.user_cache_ttl requires storage.driver sqlite or postgres")
		}
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the user cache")
		}
	}

	if cfg.Mail.RatePerMinute < 0 {
		return fmt.Errorf("mail.rate_per_minute must not be negative")
	}
	if cfg.Sessions.TTL < 0 || cfg.Signup.PendingTTL < 0 {
		return fmt.Errorf("ttl values must not be negative")
	}
	return nil
}

// NeedsRedis reports whether a Redis connection must be opened.
func (cfg *Config) NeedsRedis() bool {
	return cfg.Sessions.Driver == DriverRedis || cfg.Redis.UserCacheTTL > 0
}

// UsesSQL reports whether users are kept in a relational database.
func (s StorageConfig) UsesSQL() bool {
	return s.Driver == DriverSQLite || s.Driver == DriverPostgres
}

// DSNOrDefault returns DSN, or for sqlite a file inside Dir when DSN is empty.
func (s StorageConfig) DSNOrDefault() string {
	if s.DSN == "" && s.Driver == DriverSQLite {
		return filepath.Join(s.Dir, "petserver.db")
	}
	return s.DSN
}
