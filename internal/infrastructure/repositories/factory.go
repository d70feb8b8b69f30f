package repositories

import (
	"context"
	"time"

	"gridcast/internal/core/ports"
	"gridcast/internal/infrastructure/repositories/memory"
	redisrepo "gridcast/internal/infrastructure/repositories/redis"
	"gridcast/pkg/config"
	"gridcast/pkg/retry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		logger:   logger,
	}

	// Try to connect to Redis if enabled, with a few retries so a Redis
	// that is still coming up does not force a memory fallback
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		client, err := retry.RetryWithResult(ctx, retry.DefaultConfig(), func() (*redis.Client, error) {
			return redisrepo.NewRedisClient(
				cfg.Redis.Address,
				cfg.Redis.Password,
				cfg.Redis.DB,
				cfg.Redis.PoolSize,
				logger,
			)
		})
		cancel()
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreateRelayRepository creates a relay repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateRelayRepository() ports.RelayRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisRelayRepository(f.redisClient)
	}
	return memory.NewMemoryRelayRepository()
}

// CreateSourceRepository creates a source repository (Redis or memory with fallback)
func (f *RepositoryFactory) CreateSourceRepository() ports.SourceRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisSourceRepository(f.redisClient)
	}
	return memory.NewMemorySourceRepository()
}

// CreateLayoutRepository creates a layout repository (always memory for now)
func (f *RepositoryFactory) CreateLayoutRepository() ports.LayoutRepository {
	// Layout templates are few and small, memory is enough
	// Can be extended to Redis later if needed
	return memory.NewMemoryLayoutRepository()
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
