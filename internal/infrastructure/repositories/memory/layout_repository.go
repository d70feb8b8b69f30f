package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
)

type MemoryLayoutRepository struct {
	templates map[domain.TemplateID]domain.LayoutTemplate
	mu        sync.RWMutex
}

func NewMemoryLayoutRepository() ports.LayoutRepository {
	return &MemoryLayoutRepository{
		templates: make(map[domain.TemplateID]domain.LayoutTemplate),
	}
}

func (r *MemoryLayoutRepository) Create(ctx context.Context, template *domain.LayoutTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[template.ID]; exists {
		return fmt.Errorf("template already exists: %s", template.ID)
	}
	r.templates[template.ID] = *template
	return nil
}

func (r *MemoryLayoutRepository) GetByID(ctx context.Context, id domain.TemplateID) (*domain.LayoutTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	template, exists := r.templates[id]
	if !exists {
		return nil, domain.ErrTemplateNotFound
	}
	return &template, nil
}

func (r *MemoryLayoutRepository) Delete(ctx context.Context, id domain.TemplateID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[id]; !exists {
		return domain.ErrTemplateNotFound
	}
	delete(r.templates, id)
	return nil
}

func (r *MemoryLayoutRepository) List(ctx context.Context) ([]*domain.LayoutTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	templates := make([]*domain.LayoutTemplate, 0, len(r.templates))
	for _, template := range r.templates {
		t := template
		templates = append(templates, &t)
	}
	sort.Slice(templates, func(i, k int) bool { return templates[i].ID < templates[k].ID })
	return templates, nil
}
