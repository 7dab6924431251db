package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "petserver.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "old dude", cfg.Mail.From)
	assert.Equal(t, "Pet-Server: Signup", cfg.Mail.Subject)
	assert.Equal(t, "./saveData", cfg.Storage.Dir)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":9090"
log:
  format: text
storage:
  driver: sqlite
  dir: /var/lib/petserver
sessions:
  driver: redis
  ttl: 24h
redis:
  addr: redis:6379
  db: 2
signup:
  pending_ttl: 15m
`)

	cfg, err := Load(path, nil)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "unset keys keep their default")
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/var/lib/petserver/petserver.db", cfg.Storage.DSNOrDefault())
	assert.Equal(t, DriverRedis, cfg.Sessions.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 15*time.Minute, cfg.Signup.PendingTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)

	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "http:\n  addr: \":9090\"\n")
	t.Setenv("PETSERVER_HTTP_ADDR", ":7070")
	t.Setenv("PETSERVER_SIGNUP_PENDING_TTL", "30m")
	t.Setenv("PETSERVER_MAIL_FROM", "pets@example.com")

	cfg, err := Load(path, nil)

	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Signup.PendingTTL)
	assert.Equal(t, "pets@example.com", cfg.Mail.From)
}

func TestLoad_FlagsOverrideEverything(t *testing.T) {
	path := writeConfig(t, "http:\n  addr: \":9090\"\nlog:\n  level: debug\n")
	t.Setenv("PETSERVER_HTTP_ADDR", ":7070")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--addr", ":6060", "--storage-dir", "/tmp/pets"}))

	cfg, err := Load(path, fs)

	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.HTTP.Addr)
	assert.Equal(t, "/tmp/pets", cfg.Storage.Dir)
	assert.Equal(t, "debug", cfg.Log.Level, "unchanged flags must not override the file")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "http.addr", envKey("PETSERVER_HTTP_ADDR"))
	assert.Equal(t, "signup.pending_ttl", envKey("PETSERVER_SIGNUP_PENDING_TTL"))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid default", func(c *Config) {}, ""},
		{"empty addr", func(c *Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"unknown storage driver", func(c *Config) { c.Storage.Driver = "mysql" }, "storage.driver"},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = DriverPostgres }, "storage.dsn"},
		{"postgres with dsn", func(c *Config) {
			c.Storage.Driver = DriverPostgres
			c.Storage.DSN = "host=db user=pets dbname=pets"
		}, ""},
		{"unknown sessions driver", func(c *Config) { c.Sessions.Driver = "memcached" }, "sessions.driver"},
		{"sql sessions on json storage", func(c *Config) { c.Sessions.Driver = DriverSQL }, "sessions.driver sql"},
		{"sql sessions on sqlite", func(c *Config) {
			c.Storage.Driver = DriverSQLite
			c.Sessions.Driver = DriverSQL
		}, ""},
		{"redis without addr", func(c *Config) {
			c.Sessions.Driver = DriverRedis
			c.Redis.Addr = ""
		}, "redis.addr"},
		{"smtp without host", func(c *Config) { c.Mail.Driver = DriverSMTP }, "mail.host"},
		{"smtp with host and address", func(c *Config) {
			c.Mail.Driver = DriverSMTP
			c.Mail.Host = "smtp.example.com"
			c.Mail.Address = "noreply@example.com"
		}, ""},
		{"unknown mail driver", func(c *Config) { c.Mail.Driver = "pigeon" }, "mail.driver"},
		{"negative ttl", func(c *Config) { c.Sessions.TTL = -time.Second }, "ttl"},
		{"negative mail rate", func(c *Config) { c.Mail.RatePerMinute = -1 }, "mail.rate_per_minute"},
		{"user cache on json storage", func(c *Config) { c.Redis.UserCacheTTL = time.Minute }, "redis.user_cache_ttl"},
		{"user cache on sqlite", func(c *Config) {
			c.Storage.Driver = DriverSQLite
			c.Redis.UserCacheTTL = time.Minute
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("PETSERVER_STORAGE_DRIVER", "mysql")

	_, err := Load("", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestConfig_NeedsRedis(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.NeedsRedis())

	cfg.Redis.UserCacheTTL = time.Minute
	assert.True(t, cfg.NeedsRedis())

	cfg = Default()
	cfg.Sessions.Driver = DriverRedis
	assert.True(t, cfg.NeedsRedis())
}
