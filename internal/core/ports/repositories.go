package ports

import (
	"context"

	"gridcast/internal/core/domain"
)

type RelayRepository interface {
	Create(ctx context.Context, job *domain.RelayJob) error
	GetByID(ctx context.Context, id domain.RelayID) (*domain.RelayJob, error)
	Update(ctx context.Context, job *domain.RelayJob) error
	Delete(ctx context.Context, id domain.RelayID) error
	List(ctx context.Context) ([]*domain.RelayJob, error)
	ListByTemplate(ctx context.Context, templateID domain.TemplateID) ([]*domain.RelayJob, error)

	GetMappings(ctx context.Context, id domain.RelayID) ([]domain.SlotMapping, error)
	PutMapping(ctx context.Context, mapping domain.SlotMapping) error
	DeleteMapping(ctx context.Context, id domain.RelayID, slot int) error
}

type SourceRepository interface {
	Create(ctx context.Context, source *domain.Source) error
	GetByID(ctx context.Context, id domain.SourceID) (*domain.Source, error)
	Update(ctx context.Context, source *domain.Source) error
	Delete(ctx context.Context, id domain.SourceID) error
	List(ctx context.Context) ([]*domain.Source, error)
}

type LayoutRepository interface {
	Create(ctx context.Context, template *domain.LayoutTemplate) error
	GetByID(ctx context.Context, id domain.TemplateID) (*domain.LayoutTemplate, error)
	Delete(ctx context.Context, id domain.TemplateID) error
	List(ctx context.Context) ([]*domain.LayoutTemplate, error)
}
