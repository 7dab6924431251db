package di

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"petserver/internal/config"
	authadapters "petserver/internal/feature/auth/adapters"
	"petserver/internal/feature/auth/usecase"
	"petserver/internal/platform/jsonstore"
	"petserver/internal/platform/session"
)

// NewSessionRepository creates the SessionRepository selected by cfg.Driver.
// rdb is required for "redis" and db for "sql".
func NewSessionRepository(cfg config.SessionsConfig, store *jsonstore.Store, rdb *redis.Client, db *gorm.DB) (usecase.SessionRepository, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis sessions need a redis client")
		}
		return session.NewSessionRedis(rdb, cfg.Prefix, cfg.TTL), nil
	case config.DriverSQL:
		if db == nil {
			return nil, fmt.Errorf("sql sessions need a database")
		}
		return authadapters.NewSessionGorm(db), nil
	case config.DriverJSON:
		return authadapters.NewSessionJSON(store)
	default:
		return nil, fmt.Errorf("unsupported sessions driver %q", cfg.Driver)
	}
}

// NewUserRepository creates the UserRepository selected by cfg.Driver.
func NewUserRepository(cfg config.StorageConfig, store *jsonstore.Store, db *gorm.DB) (usecase.UserRepository, error) {
	switch {
	case cfg.UsesSQL():
		if db == nil {
			return nil, fmt.Errorf("%s storage needs a database", cfg.Driver)
		}
		return authadapters.NewUserGorm(db), nil
	case cfg.Driver == config.DriverJSON:
		return authadapters.NewUserJSON(store)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
