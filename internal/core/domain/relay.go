package domain

import (
	"time"
)

type RelayID string
type SourceID string
type TemplateID string

// RelayState is the lifecycle state of a relay job.
type RelayState string

const (
	StateStopped  RelayState = "stopped"
	StateStarting RelayState = "starting"
	StateRunning  RelayState = "running"
	StateStopping RelayState = "stopping"
	StateError    RelayState = "error"
)

// RelayJob is one configured composite output: a layout, a slot->source
// mapping set and encoding parameters, re-emitted as a single stream.
type RelayJob struct {
	ID          RelayID
	Name        string
	TemplateID  TemplateID
	Width       int
	Height      int
	Framerate   int
	BitrateKbps int

	State     RelayState
	LastError string
	Endpoint  *Endpoint

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Endpoint is the network port a running relay publishes on, plus the
// externally reachable URL derived from it.
type Endpoint struct {
	Port int    `json:"port"`
	URL  string `json:"url"`
}

// Active reports whether the job is in a state that owns a process.
func (j *RelayJob) Active() bool {
	return j.State == StateStarting || j.State == StateRunning || j.State == StateStopping
}
