package services

import (
	"context"
	"fmt"
	"time"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/pipeline"
	"gridcast/internal/core/ports"

	"github.com/google/uuid"
)

// CatalogService manages the persisted entities the relay core consumes:
// sources, layout templates, relay jobs and slot mappings.
type CatalogService struct {
	relayRepo  ports.RelayRepository
	sourceRepo ports.SourceRepository
	layoutRepo ports.LayoutRepository
	controller ports.RelayController
}

func NewCatalogService(
	relayRepo ports.RelayRepository,
	sourceRepo ports.SourceRepository,
	layoutRepo ports.LayoutRepository,
	controller ports.RelayController,
) *CatalogService {
	return &CatalogService{
		relayRepo:  relayRepo,
		sourceRepo: sourceRepo,
		layoutRepo: layoutRepo,
		controller: controller,
	}
}

func (c *CatalogService) CreateSource(ctx context.Context, name, url, username, password string) (*domain.Source, error) {
	if url == "" {
		return nil, fmt.Errorf("source url must not be empty")
	}
	source := &domain.Source{
		ID:        domain.SourceID(uuid.NewString()),
		Name:      name,
		URL:       url,
		Username:  username,
		Password:  password,
		CreatedAt: time.Now(),
	}
	if err := c.sourceRepo.Create(ctx, source); err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return source, nil
}

func (c *CatalogService) GetSource(ctx context.Context, id domain.SourceID) (*domain.Source, error) {
	return c.sourceRepo.GetByID(ctx, id)
}

func (c *CatalogService) ListSources(ctx context.Context) ([]*domain.Source, error) {
	return c.sourceRepo.List(ctx)
}

func (c *CatalogService) DeleteSource(ctx context.Context, id domain.SourceID) error {
	return c.sourceRepo.Delete(ctx, id)
}

func (c *CatalogService) CreateTemplate(ctx context.Context, name string, rows, cols int) (*domain.LayoutTemplate, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("grid must be at least 1x1, got %dx%d", rows, cols)
	}
	template := &domain.LayoutTemplate{
		ID:        domain.TemplateID(uuid.NewString()),
		Name:      name,
		Rows:      rows,
		Cols:      cols,
		CreatedAt: time.Now(),
	}
	if err := c.layoutRepo.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return template, nil
}

func (c *CatalogService) ListTemplates(ctx context.Context) ([]*domain.LayoutTemplate, error) {
	return c.layoutRepo.List(ctx)
}

// DeleteTemplate refuses to delete a template any relay job still
// references, rather than silently orphaning the job's grid.
func (c *CatalogService) DeleteTemplate(ctx context.Context, id domain.TemplateID) error {
	jobs, err := c.relayRepo.ListByTemplate(ctx, id)
	if err != nil {
		return fmt.Errorf("check template references: %w", err)
	}
	if len(jobs) > 0 {
		return fmt.Errorf("template %s referenced by %d jobs: %w", id, len(jobs), domain.ErrTemplateInUse)
	}
	return c.layoutRepo.Delete(ctx, id)
}

func (c *CatalogService) CreateRelay(ctx context.Context, name string, templateID domain.TemplateID, params pipeline.Params) (*domain.RelayJob, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if _, err := c.layoutRepo.GetByID(ctx, templateID); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &domain.RelayJob{
		ID:          domain.RelayID(uuid.NewString()),
		Name:        name,
		TemplateID:  templateID,
		Width:       params.Width,
		Height:      params.Height,
		Framerate:   params.Framerate,
		BitrateKbps: params.BitrateKbps,
		State:       domain.StateStopped,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.relayRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create relay: %w", err)
	}
	return job, nil
}

func (c *CatalogService) GetRelay(ctx context.Context, id domain.RelayID) (*domain.RelayJob, error) {
	return c.relayRepo.GetByID(ctx, id)
}

func (c *CatalogService) ListRelays(ctx context.Context) ([]*domain.RelayJob, error) {
	return c.relayRepo.List(ctx)
}

func (c *CatalogService) DeleteRelay(ctx context.Context, id domain.RelayID) error {
	job, err := c.relayRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job.Active() {
		return domain.ErrAlreadyRunning
	}
	return c.relayRepo.Delete(ctx, id)
}

// SetMapping assigns a source to one slot of a relay's grid. Mappings may
// change at any time; a Running job keeps its launched pipeline and picks
// the change up on its next start.
func (c *CatalogService) SetMapping(ctx context.Context, relayID domain.RelayID, slot int, sourceID domain.SourceID) error {
	job, err := c.relayRepo.GetByID(ctx, relayID)
	if err != nil {
		return err
	}
	template, err := c.layoutRepo.GetByID(ctx, job.TemplateID)
	if err != nil {
		return err
	}
	if slot < 0 || slot >= template.Slots() {
		return fmt.Errorf("slot %d: %w (grid %dx%d)", slot, domain.ErrSlotOutOfRange, template.Rows, template.Cols)
	}
	if _, err := c.sourceRepo.GetByID(ctx, sourceID); err != nil {
		return err
	}

	return c.relayRepo.PutMapping(ctx, domain.SlotMapping{
		RelayID:  relayID,
		Slot:     slot,
		SourceID: sourceID,
	})
}

func (c *CatalogService) ClearMapping(ctx context.Context, relayID domain.RelayID, slot int) error {
	return c.relayRepo.DeleteMapping(ctx, relayID, slot)
}

func (c *CatalogService) GetMappings(ctx context.Context, relayID domain.RelayID) ([]domain.SlotMapping, error) {
	if _, err := c.relayRepo.GetByID(ctx, relayID); err != nil {
		return nil, err
	}
	return c.relayRepo.GetMappings(ctx, relayID)
}
