package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Registry metrics
	RegistryRecords    prometheus.Gauge
	Registrations      *prometheus.CounterVec
	Unregistrations    prometheus.Counter
	EventsEmitted      *prometheus.CounterVec
	ListenerInvocation *prometheus.CounterVec

	// RPC metrics
	RPCCalls    *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec

	// Sync metrics
	SyncPushes   *prometheus.CounterVec
	SyncDropped  prometheus.Counter
	SyncSinks    prometheus.Gauge
	SyncSequence prometheus.Gauge

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec
}

// NewMetrics creates a metrics collector on the default Prometheus registry.
// Call it once per process.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a metrics collector on the given registerer
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpchub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpchub_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		RegistryRecords: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "rpchub_registry_records",
				Help: "Number of service records currently registered",
			},
		),
		Registrations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpchub_registry_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		Unregistrations: f.NewCounter(
			prometheus.CounterOpts{
				Name: "rpchub_registry_unregistrations_total",
				Help: "Total number of unregister calls",
			},
		),
		EventsEmitted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpchub_events_emitted_total",
				Help: "Events broadcast through the registry",
			},
			[]string{"event"},
		),
		ListenerInvocation: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpchub_listener_invocations_total",
				Help: "Listener invocations by outcome",
			},
			[]string{"event", "outcome"},
		),

		RPCCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpchub_rpc_calls_total",
				Help: "Total number of dispatched RPC calls",
			},
			[]string{"service", "method", "status"},
		),
		RPCDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rpchub_rpc_duration_seconds",
				Help:    "RPC call duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"service", "method"},
		),

		SyncPushes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpchub_sync_pushes_total",
				Help: "Snapshot pushes to sync sinks by outcome",
			},
			[]string{"outcome"},
		),
		SyncDropped: f.NewCounter(
			prometheus.CounterOpts{
				Name: "rpchub_sync_coalesced_total",
				Help: "Synchronization requests merged into a pending one",
			},
		),
		SyncSinks: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "rpchub_sync_sinks",
				Help: "Number of subscribed sync sinks",
			},
		),
		SyncSequence: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "rpchub_sync_sequence",
				Help: "Sequence number of the last pushed snapshot",
			},
		),

		WSConnections: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "rpchub_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpchub_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRegistration records a registration attempt ("ok" or "duplicate")
func (m *Metrics) RecordRegistration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

// RecordUnregistration records an unregister call
func (m *Metrics) RecordUnregistration() {
	m.Unregistrations.Inc()
}

// SetRegistryRecords sets the number of registered records
func (m *Metrics) SetRegistryRecords(count int) {
	m.RegistryRecords.Set(float64(count))
}

// RecordEvent records one broadcast
func (m *Metrics) RecordEvent(name string) {
	m.EventsEmitted.WithLabelValues(name).Inc()
}

// RecordListener records one listener invocation ("ok", "error" or "panic")
func (m *Metrics) RecordListener(event, outcome string) {
	m.ListenerInvocation.WithLabelValues(event, outcome).Inc()
}

// RecordRPCCall records a dispatched RPC call
func (m *Metrics) RecordRPCCall(service, method, status string, duration time.Duration) {
	m.RPCCalls.WithLabelValues(service, method, status).Inc()
	m.RPCDuration.WithLabelValues(service, method).Observe(duration.Seconds())
}

// RecordSyncPush records a snapshot push to one sink ("ok" or "error")
func (m *Metrics) RecordSyncPush(outcome string) {
	m.SyncPushes.WithLabelValues(outcome).Inc()
}

// IncSyncCoalesced counts a synchronization request folded into a pending one
func (m *Metrics) IncSyncCoalesced() {
	m.SyncDropped.Inc()
}

// SetSyncSinks sets the number of subscribed sinks
func (m *Metrics) SetSyncSinks(count int) {
	m.SyncSinks.Set(float64(count))
}

// SetSyncSequence records the sequence of the last snapshot
func (m *Metrics) SetSyncSequence(seq uint64) {
	m.SyncSequence.Set(float64(seq))
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}
