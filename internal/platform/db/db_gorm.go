// Package db opens the relational store used by the sql storage drivers.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"petserver/internal/feature/auth/adapters"
	"petserver/internal/feature/auth/domain/entity"

	"github.com/jackc/pgx/v5"
	"github.com/sethvargo/go-retry"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const retryInterval = 3 * time.Second

// Config selects the database driver and its DSN.
// DSN is a file path for sqlite and a connection string for postgres.
type Config struct {
	Driver         string
	DSN            string
	ConnectTimeout time.Duration
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// OpenerFor returns the Opener for a driver.
func OpenerFor(driver string) (Opener, error) {
	switch driver {
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) {
			if dir := filepath.Dir(dsn); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, err
				}
			}
			return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		}, nil
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), &gorm.Config{})
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// ConnectWithRetry calls open every few seconds until it succeeds or timeout elapses.
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	var db *gorm.DB
	backoff := retry.WithMaxDuration(timeout, retry.NewConstant(retryInterval))

	err := retry.Do(context.Background(), backoff, func(_ context.Context) error {
		var err error
		db, err = open(dsn)
		if err != nil {
			slog.Warn("DB connect failed, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
	}
	return db, nil
}

// ValidateDSN parses a postgres DSN without connecting, so malformed values
// fail immediately instead of after the retry window.
func ValidateDSN(driver, dsn string) error {
	if driver != DriverPostgres {
		return nil
	}
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return fmt.Errorf("invalid postgres dsn: %w", err)
	}
	return nil
}

// Migrate creates the users and sessions tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&entity.User{}, &adapters.SessionModel{})
}

// Open connects with retry and migrates the schema.
func Open(cfg Config) (*gorm.DB, error) {
	open, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if err := ValidateDSN(cfg.Driver, cfg.DSN); err != nil {
		return nil, err
	}

	db, err := ConnectWithRetry(cfg.DSN, cfg.ConnectTimeout, open)
	if err != nil {
		return nil, err
	}

	// マイグレーション（User, Session）
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	slog.Info("database ready", "driver", cfg.Driver)
	return db, nil
}
