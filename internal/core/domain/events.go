package domain

import "time"

type EventType string

const (
	EventStarted EventType = "started"
	EventStopped EventType = "stopped"
	EventError   EventType = "error"
)

// RelayEvent is a discrete lifecycle transition, pushed to observers
// immediately rather than waiting for the next status snapshot.
type RelayEvent struct {
	Type      EventType `json:"eventType"`
	RelayID   RelayID   `json:"jobId"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
