// Package metrics provides Prometheus metrics and the HTTP status API for
// the receiver console.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// --- Session overview ---
var (
	srtRxInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "srt_rx_info",
			Help: "Information about the receiver console (value always 1)",
		},
		[]string{"receiver_version", "mode", "address", "port"},
	)

	srtRxSessionTimeoutSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "srt_rx_session_timeout_seconds",
			Help: "Configured session timeout",
		},
	)

	srtRxSessionRemainingSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "srt_rx_session_remaining_seconds",
			Help: "Seconds remaining in the current session countdown",
		},
	)

	srtRxSessionElapsedSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "srt_rx_session_elapsed_seconds",
			Help: "Seconds since the current session started",
		},
	)

	srtRxConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "srt_rx_connected",
			Help: "Whether the current session has an established connection (0/1)",
		},
	)
)

// --- Session events ---
var (
	srtRxLaunchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "srt_rx_launches_total",
			Help: "Total receiver process launches",
		},
	)

	srtRxConnectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "srt_rx_connections_total",
			Help: "Total established connections observed",
		},
	)

	srtRxTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "srt_rx_ticks_total",
			Help: "Total countdown ticks completed",
		},
	)

	srtRxSessionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "srt_rx_sessions_expired_total",
			Help: "Sessions that ran to natural expiry",
		},
	)
)

// --- Network emulation ---
var (
	srtRxNetemActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "srt_rx_netem_active",
			Help: "Whether a netem delay rule is applied (0/1)",
		},
	)

	srtRxNetemDelayMs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "srt_rx_netem_delay_ms",
			Help: "Configured netem delay in milliseconds",
		},
	)
)

// Collector manages the console's Prometheus metrics.
type Collector struct {
	mu        sync.Mutex
	startTime time.Time
	timeout   time.Duration
}

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	ReceiverVersion string
	Mode            string
	Address         string
	Port            string
	Timeout         time.Duration
	NetemDelayMs    int
}

// NewCollector creates a collector on the default registry.
func NewCollector(cfg CollectorConfig) *Collector {
	return NewCollectorWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{timeout: cfg.Timeout}

	registry.MustRegister(
		srtRxInfo,
		srtRxSessionTimeoutSeconds,
		srtRxSessionRemainingSeconds,
		srtRxSessionElapsedSeconds,
		srtRxConnected,

		srtRxLaunchesTotal,
		srtRxConnectionsTotal,
		srtRxTicksTotal,
		srtRxSessionsExpiredTotal,

		srtRxNetemActive,
		srtRxNetemDelayMs,
	)

	srtRxInfo.WithLabelValues(cfg.ReceiverVersion, cfg.Mode, cfg.Address, cfg.Port).Set(1)
	srtRxSessionTimeoutSeconds.Set(cfg.Timeout.Seconds())
	srtRxNetemDelayMs.Set(float64(cfg.NetemDelayMs))

	return c
}

// SessionLaunched records a new session and resets per-session gauges.
func (c *Collector) SessionLaunched() {
	c.mu.Lock()
	c.startTime = time.Now()
	c.mu.Unlock()

	srtRxLaunchesTotal.Inc()
	srtRxConnected.Set(0)
	srtRxSessionRemainingSeconds.Set(c.timeout.Seconds())
	srtRxSessionElapsedSeconds.Set(0)
}

// Tick records one completed countdown tick.
func (c *Collector) Tick(remaining time.Duration) {
	srtRxTicksTotal.Inc()
	srtRxSessionRemainingSeconds.Set(remaining.Seconds())

	c.mu.Lock()
	start := c.startTime
	c.mu.Unlock()
	if !start.IsZero() {
		srtRxSessionElapsedSeconds.Set(time.Since(start).Seconds())
	}
}

// Connected records an established connection for the current session.
func (c *Collector) Connected() {
	srtRxConnectionsTotal.Inc()
	srtRxConnected.Set(1)
}

// SessionExpired records a session that ran its full countdown.
func (c *Collector) SessionExpired() {
	srtRxSessionsExpiredTotal.Inc()
	srtRxSessionRemainingSeconds.Set(0)
}

// SessionEnded resets per-session gauges after teardown.
func (c *Collector) SessionEnded() {
	srtRxConnected.Set(0)
}

// NetemApplied records that an emulation rule is in force.
func (c *Collector) NetemApplied() { srtRxNetemActive.Set(1) }

// NetemCleared records that emulation rules have been removed.
func (c *Collector) NetemCleared() { srtRxNetemActive.Set(0) }
