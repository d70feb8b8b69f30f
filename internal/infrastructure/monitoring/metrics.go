package monitoring

import (
	"gridcast/internal/core/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exposes relay orchestration metrics. It implements
// ports.EventSink so lifecycle counters track the same event stream that
// observers see.
type Collector struct {
	eventsTotal    *prometheus.CounterVec
	processCrashes prometheus.Counter
}

func NewCollector() *Collector {
	return &Collector{
		eventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gridcast_relay_events_total",
			Help: "Relay lifecycle events by type",
		}, []string{"type"}),

		processCrashes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gridcast_engine_crashes_total",
			Help: "Engine processes that exited without being asked to stop",
		}),
	}
}

// PublishEvent counts lifecycle events; implements ports.EventSink.
func (c *Collector) PublishEvent(event domain.RelayEvent) {
	c.eventsTotal.WithLabelValues(string(event.Type)).Inc()
	if event.Type == domain.EventError {
		c.processCrashes.Inc()
	}
}

// RegisterActiveRelays publishes a gauge backed by the supervisor's live
// registry. Registered after the supervisor exists, since the collector is
// built first as its event sink.
func (c *Collector) RegisterActiveRelays(active func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "gridcast_relays_active",
		Help: "Relay jobs with a live engine process",
	}, func() float64 { return float64(active()) })
}

// RegisterPortsInUse publishes a gauge backed by the port allocator.
func (c *Collector) RegisterPortsInUse(inUse func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "gridcast_ports_in_use",
		Help: "Publish ports currently bound to engine processes",
	}, func() float64 { return float64(inUse()) })
}

// RegisterObservers publishes a gauge backed by the broadcast hub.
func (c *Collector) RegisterObservers(count func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "gridcast_observers_connected",
		Help: "WebSocket status observers currently connected",
	}, func() float64 { return float64(count()) })
}
