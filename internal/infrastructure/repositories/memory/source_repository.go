package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
)

type MemorySourceRepository struct {
	sources map[domain.SourceID]domain.Source
	mu      sync.RWMutex
}

func NewMemorySourceRepository() ports.SourceRepository {
	return &MemorySourceRepository{
		sources: make(map[domain.SourceID]domain.Source),
	}
}

func (r *MemorySourceRepository) Create(ctx context.Context, source *domain.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[source.ID]; exists {
		return fmt.Errorf("source already exists: %s", source.ID)
	}
	r.sources[source.ID] = *source
	return nil
}

func (r *MemorySourceRepository) GetByID(ctx context.Context, id domain.SourceID) (*domain.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	source, exists := r.sources[id]
	if !exists {
		return nil, domain.ErrSourceNotFound
	}
	return &source, nil
}

func (r *MemorySourceRepository) Update(ctx context.Context, source *domain.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[source.ID]; !exists {
		return domain.ErrSourceNotFound
	}
	r.sources[source.ID] = *source
	return nil
}

func (r *MemorySourceRepository) Delete(ctx context.Context, id domain.SourceID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[id]; !exists {
		return domain.ErrSourceNotFound
	}
	delete(r.sources, id)
	return nil
}

func (r *MemorySourceRepository) List(ctx context.Context) ([]*domain.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]*domain.Source, 0, len(r.sources))
	for _, source := range r.sources {
		s := source
		sources = append(sources, &s)
	}
	sort.Slice(sources, func(i, k int) bool { return sources[i].ID < sources[k].ID })
	return sources, nil
}
