package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gridcast/internal/core/domain"
	"gridcast/internal/core/layout"
	"gridcast/internal/core/pipeline"
	"gridcast/internal/core/ports"
	"gridcast/pkg/tracing"

	"go.uber.org/zap"
)

// jobState tracks the live process of one relay job. Its mutex serializes
// start, stop and the async exit notification for that job, so no job can
// ever be Starting and Stopping at the same time.
type jobState struct {
	mu     sync.Mutex
	handle ports.ProcessHandle
	port   int
}

type relayService struct {
	relayRepo  ports.RelayRepository
	sourceRepo ports.SourceRepository
	layoutRepo ports.LayoutRepository
	engine     ports.Engine
	allocator  ports.PortAllocator
	events     ports.EventSink
	publicHost string

	mu   sync.Mutex
	jobs map[domain.RelayID]*jobState

	logger *zap.SugaredLogger
}

func NewRelayService(
	relayRepo ports.RelayRepository,
	sourceRepo ports.SourceRepository,
	layoutRepo ports.LayoutRepository,
	engine ports.Engine,
	allocator ports.PortAllocator,
	events ports.EventSink,
	publicHost string,
	logger *zap.SugaredLogger,
) ports.RelayController {
	return &relayService{
		relayRepo:  relayRepo,
		sourceRepo: sourceRepo,
		layoutRepo: layoutRepo,
		engine:     engine,
		allocator:  allocator,
		events:     events,
		publicHost: publicHost,
		jobs:       make(map[domain.RelayID]*jobState),
		logger:     logger,
	}
}

func (s *relayService) jobState(id domain.RelayID) *jobState {
	s.mu.Lock()
	defer s.mu.Unlock()

	js, ok := s.jobs[id]
	if !ok {
		js = &jobState{}
		s.jobs[id] = js
	}
	return js
}

// Start brings a relay job to Running: load config and mappings, resolve
// the layout, build the pipeline description, acquire a port, launch the
// engine. A job that already owns a live process fails with
// domain.ErrAlreadyRunning; a second process is never spawned.
func (s *relayService) Start(ctx context.Context, id domain.RelayID) (*domain.Endpoint, error) {
	began := time.Now()
	ctx, span := tracing.TraceRelayOperation(ctx, "start", string(id))
	defer span.End()
	defer tracing.MeasureDuration(ctx, began, "relay.start")

	js := s.jobState(id)
	js.mu.Lock()
	defer js.mu.Unlock()

	if js.handle != nil {
		return nil, domain.ErrAlreadyRunning
	}

	job, err := s.relayRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load relay job %s: %w", id, err)
	}

	mappings, err := s.relayRepo.GetMappings(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, job, "load", err)
	}
	if len(mappings) == 0 {
		return nil, s.fail(ctx, job, "load", domain.ErrNoMappings)
	}

	template, err := s.layoutRepo.GetByID(ctx, job.TemplateID)
	if err != nil {
		return nil, s.fail(ctx, job, "load", err)
	}

	sources, err := s.loadSources(ctx, mappings)
	if err != nil {
		return nil, s.fail(ctx, job, "load", err)
	}

	job.State = domain.StateStarting
	job.LastError = ""
	if err := s.persist(ctx, job); err != nil {
		return nil, err
	}

	// Configuration errors are rejected here, before any resource is
	// touched.
	placements, err := layout.Resolve(template.Rows, template.Cols, job.Width, job.Height, mappings)
	if err != nil {
		return nil, s.fail(ctx, job, "build", err)
	}
	spec, err := pipeline.Build(placements, sources, pipeline.Params{
		Width:       job.Width,
		Height:      job.Height,
		Framerate:   job.Framerate,
		BitrateKbps: job.BitrateKbps,
	})
	if err != nil {
		return nil, s.fail(ctx, job, "build", err)
	}

	port, err := s.allocator.Acquire()
	if err != nil {
		return nil, s.fail(ctx, job, "allocate", err)
	}
	endpoint := domain.Endpoint{
		Port: port,
		URL:  fmt.Sprintf("rtsp://%s:%d/%s", s.publicHost, port, id),
	}

	handle, err := s.engine.Start(ctx, spec, endpoint)
	if err != nil {
		s.allocator.Release(port)
		return nil, s.fail(ctx, job, "launch", err)
	}

	js.handle = handle
	js.port = port

	job.State = domain.StateRunning
	job.Endpoint = &endpoint
	if err := s.persist(ctx, job); err != nil {
		s.logger.Errorw("relay running but status not persisted", "relay_id", id, "error", err)
	}

	s.logger.Infow("relay started",
		"relay_id", id,
		"port", port,
		"inputs", len(spec.Inputs),
	)
	s.events.PublishEvent(domain.RelayEvent{
		Type:      domain.EventStarted,
		RelayID:   id,
		Timestamp: time.Now(),
	})

	go s.watch(id, js, handle)

	return &endpoint, nil
}

// watch observes unsolicited process exits. It takes the same per-job lock
// as Start and Stop, so exit handling is serialized with explicit requests.
// An exit consumed by Stop (handle already cleared) is not reported twice.
func (s *relayService) watch(id domain.RelayID, js *jobState, handle ports.ProcessHandle) {
	exit := <-handle.Done()

	js.mu.Lock()
	defer js.mu.Unlock()

	if js.handle != handle {
		return
	}
	js.handle = nil
	s.allocator.Release(js.port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	detail := exit.Stderr
	if detail == "" && exit.Err != nil {
		detail = exit.Err.Error()
	}
	s.logger.Errorw("relay process exited unexpectedly",
		"relay_id", id,
		"exit_code", exit.ExitCode,
		"stderr", detail,
	)

	if job, err := s.relayRepo.GetByID(ctx, id); err == nil {
		job.State = domain.StateError
		job.LastError = detail
		job.Endpoint = nil
		if err := s.persist(ctx, job); err != nil {
			s.logger.Errorw("failed to persist crash state", "relay_id", id, "error", err)
		}
	} else {
		s.logger.Errorw("failed to load relay for crash state", "relay_id", id, "error", err)
	}

	s.events.PublishEvent(domain.RelayEvent{
		Type:      domain.EventError,
		RelayID:   id,
		Detail:    detail,
		Timestamp: time.Now(),
	})
}

// Stop terminates a job's process gracefully, escalating inside the handle
// after the configured timeout. Stopping a job with no live process is a
// no-op. The port is released only after the process is confirmed reaped.
func (s *relayService) Stop(ctx context.Context, id domain.RelayID) error {
	ctx, span := tracing.TraceRelayOperation(ctx, "stop", string(id))
	defer span.End()

	js := s.jobState(id)
	js.mu.Lock()
	defer js.mu.Unlock()

	if js.handle == nil {
		return nil
	}

	job, err := s.relayRepo.GetByID(ctx, id)
	if err == nil {
		job.State = domain.StateStopping
		if err := s.persist(ctx, job); err != nil {
			s.logger.Warnw("failed to persist stopping state", "relay_id", id, "error", err)
		}
	}

	handle := js.handle
	js.handle = nil
	if err := handle.Stop(ctx); err != nil {
		s.logger.Warnw("relay process did not stop cleanly", "relay_id", id, "error", err)
	}
	// Stop returns only after the process is reaped; the watcher sees the
	// cleared handle and stays silent.
	s.allocator.Release(js.port)

	if job != nil {
		job.State = domain.StateStopped
		job.Endpoint = nil
		if err := s.persist(ctx, job); err != nil {
			s.logger.Errorw("failed to persist stopped state", "relay_id", id, "error", err)
		}
	}

	s.logger.Infow("relay stopped", "relay_id", id, "port", js.port)
	s.events.PublishEvent(domain.RelayEvent{
		Type:      domain.EventStopped,
		RelayID:   id,
		Timestamp: time.Now(),
	})
	return nil
}

// StopAll stops every tracked job concurrently and waits for all of them.
// Per-job locks are acquired independently, so the stops cannot deadlock
// against each other.
func (s *relayService) StopAll(ctx context.Context) error {
	ids := s.ActiveIDs()

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id domain.RelayID) {
			defer wg.Done()
			if err := s.Stop(ctx, id); err != nil {
				errs <- fmt.Errorf("stop %s: %w", id, err)
			}
		}(id)
	}
	wg.Wait()
	close(errs)

	var failed int
	for err := range errs {
		failed++
		s.logger.Errorw("stop during shutdown failed", "error", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d relays failed to stop", failed, len(ids))
	}
	return nil
}

func (s *relayService) ActiveIDs() []domain.RelayID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]domain.RelayID, 0, len(s.jobs))
	for id, js := range s.jobs {
		js.mu.Lock()
		live := js.handle != nil
		js.mu.Unlock()
		if live {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *relayService) loadSources(ctx context.Context, mappings []domain.SlotMapping) (map[domain.SourceID]domain.Source, error) {
	sources := make(map[domain.SourceID]domain.Source, len(mappings))
	for _, m := range mappings {
		if _, ok := sources[m.SourceID]; ok {
			continue
		}
		src, err := s.sourceRepo.GetByID(ctx, m.SourceID)
		if err != nil {
			return nil, fmt.Errorf("slot %d source %s: %w", m.Slot, m.SourceID, err)
		}
		sources[m.SourceID] = *src
	}
	return sources, nil
}

// fail records a start failure on the job so observers see it without the
// caller's response, emits an error event and returns the wrapped error.
func (s *relayService) fail(ctx context.Context, job *domain.RelayJob, phase string, cause error) error {
	tracing.RecordError(ctx, cause)

	job.State = domain.StateError
	job.LastError = cause.Error()
	job.Endpoint = nil
	if err := s.persist(ctx, job); err != nil {
		s.logger.Errorw("failed to persist error state", "relay_id", job.ID, "error", err)
	}

	s.logger.Errorw("relay start failed",
		"relay_id", job.ID,
		"phase", phase,
		"error", cause,
	)
	s.events.PublishEvent(domain.RelayEvent{
		Type:      domain.EventError,
		RelayID:   job.ID,
		Detail:    cause.Error(),
		Timestamp: time.Now(),
	})
	return fmt.Errorf("%s: %w", phase, cause)
}

func (s *relayService) persist(ctx context.Context, job *domain.RelayJob) error {
	job.UpdatedAt = time.Now()
	if err := s.relayRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("persist relay %s: %w", job.ID, err)
	}
	return nil
}
