package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
)

type MemoryRelayRepository struct {
	jobs     map[domain.RelayID]domain.RelayJob
	mappings map[domain.RelayID]map[int]domain.SlotMapping
	mu       sync.RWMutex
}

func NewMemoryRelayRepository() ports.RelayRepository {
	return &MemoryRelayRepository{
		jobs:     make(map[domain.RelayID]domain.RelayJob),
		mappings: make(map[domain.RelayID]map[int]domain.SlotMapping),
	}
}

func (r *MemoryRelayRepository) Create(ctx context.Context, job *domain.RelayJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("relay job already exists: %s", job.ID)
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *MemoryRelayRepository) GetByID(ctx context.Context, id domain.RelayID) (*domain.RelayJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, exists := r.jobs[id]
	if !exists {
		return nil, domain.ErrRelayNotFound
	}
	return &job, nil
}

func (r *MemoryRelayRepository) Update(ctx context.Context, job *domain.RelayJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; !exists {
		return domain.ErrRelayNotFound
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *MemoryRelayRepository) Delete(ctx context.Context, id domain.RelayID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[id]; !exists {
		return domain.ErrRelayNotFound
	}
	delete(r.jobs, id)
	delete(r.mappings, id)
	return nil
}

func (r *MemoryRelayRepository) List(ctx context.Context) ([]*domain.RelayJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]*domain.RelayJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		j := job
		jobs = append(jobs, &j)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID < jobs[k].ID })
	return jobs, nil
}

func (r *MemoryRelayRepository) ListByTemplate(ctx context.Context, templateID domain.TemplateID) ([]*domain.RelayJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var jobs []*domain.RelayJob
	for _, job := range r.jobs {
		if job.TemplateID == templateID {
			j := job
			jobs = append(jobs, &j)
		}
	}
	return jobs, nil
}

func (r *MemoryRelayRepository) GetMappings(ctx context.Context, id domain.RelayID) ([]domain.SlotMapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slots := r.mappings[id]
	mappings := make([]domain.SlotMapping, 0, len(slots))
	for _, m := range slots {
		mappings = append(mappings, m)
	}
	sort.Slice(mappings, func(i, k int) bool { return mappings[i].Slot < mappings[k].Slot })
	return mappings, nil
}

func (r *MemoryRelayRepository) PutMapping(ctx context.Context, mapping domain.SlotMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[mapping.RelayID]; !exists {
		return domain.ErrRelayNotFound
	}
	slots, ok := r.mappings[mapping.RelayID]
	if !ok {
		slots = make(map[int]domain.SlotMapping)
		r.mappings[mapping.RelayID] = slots
	}
	slots[mapping.Slot] = mapping
	return nil
}

func (r *MemoryRelayRepository) DeleteMapping(ctx context.Context, id domain.RelayID, slot int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slots, ok := r.mappings[id]
	if !ok {
		return domain.ErrRelayNotFound
	}
	delete(slots, slot)
	return nil
}
