// Package metrics exposes Prometheus counters and gauges describing the
// device connection: attempts, failures, reconnects and forwarded bytes.
//
// A nil *Collector is a valid no-op receiver, so callers never need to
// nil-check.  Each Collector owns its own registry; nothing is
// registered on the global default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "scanlink"

// States are the values reported by the state gauge, in the order of
// the connection state machine.
var States = []string{"disconnected", "connected", "reconnecting", "fatal", "stopped"}

// Collector tracks runtime metrics for a scanlink process.
type Collector struct {
	registry *prometheus.Registry

	connectAttempts prometheus.Counter
	connectFailures *prometheus.CounterVec
	socketSkips     prometheus.Counter
	connections     prometheus.Counter
	active          prometheus.Gauge
	reconnects      prometheus.Counter
	bytesIn         prometheus.Counter
	chunksIn        prometheus.Counter
	readOutcomes    *prometheus.CounterVec
	state           *prometheus.GaugeVec
}

// New creates a collector with all metrics registered on a private
// registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		connectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connect",
			Name:      "attempts_total",
			Help:      "Connect attempts against the device, including retries.",
		}),
		connectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connect",
			Name:      "failures_total",
			Help:      "Failed connect attempts by reason.",
		}, []string{"reason"}),
		socketSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connect",
			Name:      "socket_skips_total",
			Help:      "Candidates skipped because a socket could not be created.",
		}),
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "opened_total",
			Help:      "Connections successfully established.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "active",
			Help:      "1 while a device connection is open.",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "reconnects_total",
			Help:      "Reconnect cycles started after a lost or failed connection.",
		}),
		bytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "bytes_total",
			Help:      "Bytes received from the device and forwarded to the output.",
		}),
		chunksIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "chunks_total",
			Help:      "Non-empty receive chunks forwarded to the output.",
		}),
		readOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "read_outcomes_total",
			Help:      "How read loops ended.",
		}, []string{"outcome"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Current connection state (1 for the active state).",
		}, []string{"state"}),
	}

	c.registry.MustRegister(
		c.connectAttempts, c.connectFailures, c.socketSkips,
		c.connections, c.active, c.reconnects,
		c.bytesIn, c.chunksIn, c.readOutcomes, c.state,
	)
	c.SetState("disconnected")
	return c
}

// Registry returns the registry holding every scanlink metric.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectAttempt records the start of one connect attempt.
func (c *Collector) ConnectAttempt() {
	if c == nil {
		return
	}
	c.connectAttempts.Inc()
}

// ConnectFailed records a failed attempt with a short reason label
// ("resolve", "no_candidates", "exhausted", "connect").
func (c *Collector) ConnectFailed(reason string) {
	if c == nil {
		return
	}
	c.connectFailures.WithLabelValues(reason).Inc()
}

// SocketSkipped records a candidate skipped on socket creation.
func (c *Collector) SocketSkipped() {
	if c == nil {
		return
	}
	c.socketSkips.Inc()
}

// ConnectionOpened marks a new live connection.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connections.Inc()
	c.active.Set(1)
}

// ConnectionClosed marks the live connection as released.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.active.Set(0)
}

// Reconnect records the start of a reconnect cycle.
func (c *Collector) Reconnect() {
	if c == nil {
		return
	}
	c.reconnects.Inc()
}

// ── Stream metrics ───────────────────────────────────────────────────

// ChunkForwarded records n bytes received and written to the output.
func (c *Collector) ChunkForwarded(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.chunksIn.Inc()
	c.bytesIn.Add(float64(n))
}

// ReadOutcome records how a read loop ended.
func (c *Collector) ReadOutcome(outcome string) {
	if c == nil {
		return
	}
	c.readOutcomes.WithLabelValues(outcome).Inc()
}

// SetState flags state as the current one and clears the others.
func (c *Collector) SetState(state string) {
	if c == nil {
		return
	}
	for _, s := range States {
		v := 0.0
		if s == state {
			v = 1
		}
		c.state.WithLabelValues(s).Set(v)
	}
}
