package ports

import (
	"context"

	"gridcast/internal/core/domain"
)

// RelayController supervises relay job processes. All state mutations for a
// single job are serialized; see the service implementation.
type RelayController interface {
	Start(ctx context.Context, id domain.RelayID) (*domain.Endpoint, error)
	Stop(ctx context.Context, id domain.RelayID) error
	StopAll(ctx context.Context) error
	ActiveIDs() []domain.RelayID
}

// PortAllocator hands out publish ports from a configured range. Release is
// driven by confirmed process termination, never by the caller assuming
// success.
type PortAllocator interface {
	Acquire() (int, error)
	Release(port int)
	InUse() int
}

// EventSink receives discrete lifecycle events as they occur. Delivery is
// at-least-once and must never block the caller.
type EventSink interface {
	PublishEvent(event domain.RelayEvent)
}

// ProcessExit describes how an engine process terminated.
type ProcessExit struct {
	Err      error
	Stderr   string
	ExitCode int
}

// ProcessHandle is a live engine process. Done is closed after the process
// has been fully reaped; Stop sends a graceful termination signal and
// escalates to a kill after a bounded wait.
type ProcessHandle interface {
	Done() <-chan ProcessExit
	Stop(ctx context.Context) error
}

// Engine launches the external transcoding process for a rendered pipeline.
type Engine interface {
	Start(ctx context.Context, spec *domain.PipelineSpec, endpoint domain.Endpoint) (ProcessHandle, error)
}
