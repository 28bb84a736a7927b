// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"errors"
	"fmt"

	redisv9 "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"users_backend/internal/feature/users/adapters"
	"users_backend/internal/feature/users/usecase"
	"users_backend/internal/platform/cache"
	"users_backend/internal/platform/config"
	"users_backend/internal/platform/db"
	"users_backend/internal/platform/dynamo"
	"users_backend/internal/platform/http/handler"
	"users_backend/internal/platform/redis"
)

// Store bundles the configured UserStore with what the process needs around it.
type Store struct {
	// Users is the store handed to the use case, cache-wrapped when Redis is available.
	Users usecase.UserStore
	// Pinger checks the underlying backend for /healthz.
	Pinger handler.Pinger

	closers []func() error
}

// Close releases every connection opened by NewUserStore.
func (s *Store) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewUserStore creates the UserStore selected by cfg.StoreBackend.
// If Redis is configured and reachable, lookups are cached there.
// Otherwise, it runs without cache.
func NewUserStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	s := &Store{}

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		gdb, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite user store")
		if err := s.useGorm(ctx, gdb, true); err != nil {
			return nil, err
		}
	case config.BackendPostgres:
		gdb, err := db.OpenDB(cfg.DB)
		if err != nil {
			return nil, err
		}
		log.Info().Str("host", cfg.DB.Host).Str("db", cfg.DB.Name).Msg("using postgres user store")
		if err := s.useGorm(ctx, gdb, cfg.DB.RunMigrations); err != nil {
			return nil, err
		}
	case config.BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.Dynamo)
		if err != nil {
			return nil, err
		}
		repo := adapters.NewUserDynamoDB(client, cfg.Dynamo.Table, cfg.Dynamo.EmailIndex)
		log.Info().Str("table", cfg.Dynamo.Table).Str("index", cfg.Dynamo.EmailIndex).Msg("using dynamodb user store")
		s.Users, s.Pinger = repo, repo
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.Redis.Enabled() {
		rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, running without cache")
		} else {
			s.closers = append(s.closers, rdb.Close)
			s.Users = wrapWithCache(rdb, cfg, s.Users)
		}
	}
	return s, nil
}

func (s *Store) useGorm(ctx context.Context, gdb *gorm.DB, migrate bool) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	s.closers = append(s.closers, sqlDB.Close)

	repo := adapters.NewUserGorm(gdb)
	if migrate {
		if err := repo.Migrate(ctx); err != nil {
			_ = s.Close()
			return err
		}
	}
	s.Users, s.Pinger = repo, repo
	return nil
}

// wrapWithCache Redisキャッシュでラップ
func wrapWithCache(rdb *redisv9.Client, cfg *config.Config, inner usecase.UserStore) usecase.UserStore {
	return cache.NewCachingUserStore(rdb, cfg.CacheTTL, inner, "users")
}
