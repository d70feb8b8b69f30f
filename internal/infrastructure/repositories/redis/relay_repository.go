package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisRelayRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisRelayRepository(client *redis.Client) ports.RelayRepository {
	return &RedisRelayRepository{
		client: client,
		prefix: "gridcast:relay:",
	}
}

func (r *RedisRelayRepository) relayKey(id domain.RelayID) string {
	return r.prefix + string(id)
}

func (r *RedisRelayRepository) mappingsKey(id domain.RelayID) string {
	return r.prefix + string(id) + ":mappings"
}

func (r *RedisRelayRepository) indexKey() string {
	return r.prefix + "all"
}

func (r *RedisRelayRepository) Create(ctx context.Context, job *domain.RelayJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal relay job: %w", err)
	}

	key := r.relayKey(job.ID)
	ok, err := r.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set relay job in Redis: %w", err)
	}
	if !ok {
		return fmt.Errorf("relay job already exists: %s", job.ID)
	}

	if err := r.client.SAdd(ctx, r.indexKey(), string(job.ID)).Err(); err != nil {
		return fmt.Errorf("failed to index relay job: %w", err)
	}
	return nil
}

func (r *RedisRelayRepository) GetByID(ctx context.Context, id domain.RelayID) (*domain.RelayJob, error) {
	data, err := r.client.Get(ctx, r.relayKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrRelayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relay job from Redis: %w", err)
	}

	var job domain.RelayJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal relay job: %w", err)
	}
	return &job, nil
}

func (r *RedisRelayRepository) Update(ctx context.Context, job *domain.RelayJob) error {
	if _, err := r.GetByID(ctx, job.ID); err != nil {
		return err
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal relay job: %w", err)
	}
	if err := r.client.Set(ctx, r.relayKey(job.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update relay job in Redis: %w", err)
	}
	return nil
}

func (r *RedisRelayRepository) Delete(ctx context.Context, id domain.RelayID) error {
	deleted, err := r.client.Del(ctx, r.relayKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete relay job from Redis: %w", err)
	}
	if deleted == 0 {
		return domain.ErrRelayNotFound
	}

	pipe := r.client.Pipeline()
	pipe.SRem(ctx, r.indexKey(), string(id))
	pipe.Del(ctx, r.mappingsKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clean up relay job keys: %w", err)
	}
	return nil
}

func (r *RedisRelayRepository) List(ctx context.Context) ([]*domain.RelayJob, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list relay jobs: %w", err)
	}

	jobs := make([]*domain.RelayJob, 0, len(ids))
	for _, id := range ids {
		job, err := r.GetByID(ctx, domain.RelayID(id))
		if err == domain.ErrRelayNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID < jobs[k].ID })
	return jobs, nil
}

func (r *RedisRelayRepository) ListByTemplate(ctx context.Context, templateID domain.TemplateID) ([]*domain.RelayJob, error) {
	jobs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*domain.RelayJob
	for _, job := range jobs {
		if job.TemplateID == templateID {
			matched = append(matched, job)
		}
	}
	return matched, nil
}

func (r *RedisRelayRepository) GetMappings(ctx context.Context, id domain.RelayID) ([]domain.SlotMapping, error) {
	fields, err := r.client.HGetAll(ctx, r.mappingsKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get mappings from Redis: %w", err)
	}

	mappings := make([]domain.SlotMapping, 0, len(fields))
	for slotField, sourceID := range fields {
		slot, err := strconv.Atoi(slotField)
		if err != nil {
			return nil, fmt.Errorf("corrupt mapping slot %q: %w", slotField, err)
		}
		mappings = append(mappings, domain.SlotMapping{
			RelayID:  id,
			Slot:     slot,
			SourceID: domain.SourceID(sourceID),
		})
	}
	sort.Slice(mappings, func(i, k int) bool { return mappings[i].Slot < mappings[k].Slot })
	return mappings, nil
}

func (r *RedisRelayRepository) PutMapping(ctx context.Context, mapping domain.SlotMapping) error {
	if _, err := r.GetByID(ctx, mapping.RelayID); err != nil {
		return err
	}

	err := r.client.HSet(ctx, r.mappingsKey(mapping.RelayID),
		strconv.Itoa(mapping.Slot), string(mapping.SourceID)).Err()
	if err != nil {
		return fmt.Errorf("failed to set mapping in Redis: %w", err)
	}
	return nil
}

func (r *RedisRelayRepository) DeleteMapping(ctx context.Context, id domain.RelayID, slot int) error {
	err := r.client.HDel(ctx, r.mappingsKey(id), strconv.Itoa(slot)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete mapping from Redis: %w", err)
	}
	return nil
}
