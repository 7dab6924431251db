// Package di wires configuration into the repositories, services and handlers of the server.
package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"petserver/internal/config"
	authadapters "petserver/internal/feature/auth/adapters"
	authhandler "petserver/internal/feature/auth/transport/handler"
	"petserver/internal/feature/auth/usecase"
	"petserver/internal/platform/cache"
	"petserver/internal/platform/db"
	platformhandler "petserver/internal/platform/http/handler"
	"petserver/internal/platform/jsonstore"
	"petserver/internal/platform/metrics"
	"petserver/internal/platform/password"
	infraredis "petserver/internal/platform/redis"
)

// AuthService is the auth usecase as used by the process entry points.
type AuthService interface {
	authhandler.AuthUsecase
	Reset(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Container holds everything built from one Config.
type Container struct {
	Config  *config.Config
	Auth    AuthService
	Handler *authhandler.AuthHandler
	Store   *jsonstore.Store
	DB      *gorm.DB
	Redis   *redis.Client
	Checks  []platformhandler.Check
}

// Build opens the configured backends and constructs the auth service.
// reg receives the auth metrics; nil disables them.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config: cfg,
		Store:  jsonstore.New(cfg.Storage.Dir),
	}

	if cfg.Storage.UsesSQL() {
		gdb, err := db.Open(db.Config{
			Driver:         cfg.Storage.Driver,
			DSN:            cfg.Storage.DSNOrDefault(),
			ConnectTimeout: cfg.Storage.ConnectTimeout,
		})
		if err != nil {
			return nil, err
		}
		c.DB = gdb
		c.Checks = append(c.Checks, func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
	}

	if cfg.NeedsRedis() {
		rdb, err := infraredis.NewRedisClient(ctx, infraredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.Redis = rdb
		c.Checks = append(c.Checks, func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	auth, err := c.newAuthService(logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Auth = auth
	c.Handler = authhandler.NewAuthHandler(auth, newMetrics(reg))
	return c, nil
}

func newMetrics(reg prometheus.Registerer) *metrics.AuthMetrics {
	if reg == nil {
		return nil
	}
	return metrics.NewAuthMetrics(reg)
}

func (c *Container) newAuthService(logger *slog.Logger) (AuthService, error) {
	users, err := NewUserRepository(c.Config.Storage, c.Store, c.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open users: %w", err)
	}
	if c.Redis != nil && c.Config.Redis.UserCacheTTL > 0 {
		users = cache.NewCachingUserRepository(c.Redis, c.Config.Redis.UserCacheTTL, users, "")
	}
	sessions, err := NewSessionRepository(c.Config.Sessions, c.Store, c.Redis, c.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open sessions: %w", err)
	}
	mailer, err := NewMailSender(c.Config.Mail, logger)
	if err != nil {
		return nil, err
	}

	return usecase.NewAuthUsecase(
		users,
		sessions,
		authadapters.NewPendingMemory(),
		password.NewBcryptHasher(password.DefaultCost),
		mailer,
		usecase.WithLogger(logger),
		usecase.WithPendingTTL(c.Config.Signup.PendingTTL),
		usecase.WithMailIdentity(c.Config.Mail.From, c.Config.Mail.Subject),
	), nil
}

// Reset clears every table. With JSON storage the storage directory is removed as well.
func (c *Container) Reset(ctx context.Context) error {
	if err := c.Auth.Reset(ctx); err != nil {
		return err
	}
	if c.Config.Storage.UsesSQL() {
		return nil
	}
	return c.Store.RemoveAll()
}

// Close waits up to http.shutdown_timeout for pending mail and releases backend connections.
func (c *Container) Close() error {
	if c.Auth != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.Config.HTTP.ShutdownTimeout)
		err := c.Auth.Shutdown(ctx)
		cancel()
		if err != nil {
			slog.Warn("abandoned pending signup mail", "error", err)
		}
	}

	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
