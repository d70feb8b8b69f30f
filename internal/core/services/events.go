package services

import (
	"gridcast/internal/core/domain"
	"gridcast/internal/core/ports"
)

// MultiSink fans one lifecycle event out to several sinks (the broadcast
// hub, the metrics collector). Sinks are responsible for not blocking.
type MultiSink []ports.EventSink

func (m MultiSink) PublishEvent(event domain.RelayEvent) {
	for _, sink := range m {
		sink.PublishEvent(event)
	}
}
