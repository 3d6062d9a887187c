package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type OpenOptions struct {
	Backend     string
	RedisClient *redis.Client
	PostgresDSN string
}

// Backend is an opened repository. DB is set only for the postgres backend.
type Backend struct {
	Name       string
	Repository domain.NotificationRepository
	DB         *gorm.DB
	close      func() error
}

// Close releases connections the repository owns; the redis client stays
// with the caller.
func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the repository for the configured backend.
func Open(ctx context.Context, opts OpenOptions) (*Backend, error) {
	switch opts.Backend {
	case BackendRedis, "":
		if opts.RedisClient == nil {
			return nil, fmt.Errorf("%w: redis client is required", ErrUnknownBackend)
		}
		return &Backend{
			Name:       BackendRedis,
			Repository: NewNotificationRepository(opts.RedisClient),
		}, nil
	case BackendPostgres:
		db, err := OpenPostgres(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get postgres handle: %w", err)
		}
		return &Backend{
			Name:       BackendPostgres,
			Repository: NewPostgresRepository(db),
			DB:         db,
			close:      sqlDB.Close,
		}, nil
	case BackendMemory:
		return &Backend{
			Name:       BackendMemory,
			Repository: NewMemoryRepository(),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
