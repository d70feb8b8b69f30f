package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisSourceRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisSourceRepository(client *redis.Client) ports.SourceRepository {
	return &RedisSourceRepository{
		client: client,
		prefix: "gridcast:source:",
	}
}

func (r *RedisSourceRepository) sourceKey(id domain.SourceID) string {
	return r.prefix + string(id)
}

func (r *RedisSourceRepository) indexKey() string {
	return r.prefix + "all"
}

func (r *RedisSourceRepository) Create(ctx context.Context, source *domain.Source) error {
	data, err := json.Marshal(source)
	if err != nil {
		return fmt.Errorf("failed to marshal source: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.sourceKey(source.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set source in Redis: %w", err)
	}
	if !ok {
		return fmt.Errorf("source already exists: %s", source.ID)
	}

	if err := r.client.SAdd(ctx, r.indexKey(), string(source.ID)).Err(); err != nil {
		return fmt.Errorf("failed to index source: %w", err)
	}
	return nil
}

func (r *RedisSourceRepository) GetByID(ctx context.Context, id domain.SourceID) (*domain.Source, error) {
	data, err := r.client.Get(ctx, r.sourceKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrSourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source from Redis: %w", err)
	}

	var source domain.Source
	if err := json.Unmarshal([]byte(data), &source); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source: %w", err)
	}
	return &source, nil
}

func (r *RedisSourceRepository) Update(ctx context.Context, source *domain.Source) error {
	if _, err := r.GetByID(ctx, source.ID); err != nil {
		return err
	}

	data, err := json.Marshal(source)
	if err != nil {
		return fmt.Errorf("failed to marshal source: %w", err)
	}
	if err := r.client.Set(ctx, r.sourceKey(source.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update source in Redis: %w", err)
	}
	return nil
}

func (r *RedisSourceRepository) Delete(ctx context.Context, id domain.SourceID) error {
	deleted, err := r.client.Del(ctx, r.sourceKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete source from Redis: %w", err)
	}
	if deleted == 0 {
		return domain.ErrSourceNotFound
	}
	if err := r.client.SRem(ctx, r.indexKey(), string(id)).Err(); err != nil {
		return fmt.Errorf("failed to unindex source: %w", err)
	}
	return nil
}

func (r *RedisSourceRepository) List(ctx context.Context) ([]*domain.Source, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	sources := make([]*domain.Source, 0, len(ids))
	for _, id := range ids {
		source, err := r.GetByID(ctx, domain.SourceID(id))
		if err == domain.ErrSourceNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	sort.Slice(sources, func(i, k int) bool { return sources[i].ID < sources[k].ID })
	return sources, nil
}
