// Package countdown drives one session's cancellable timeout loop.
//
// The loop is single-threaded and cooperative: it ticks once per second,
// renders the remaining time, and polls the supervisor's connection status.
// Nothing after launch can abort it early except cancellation — a receiver
// that dies or never connects just counts down to zero with the connected
// sink left unset.
package countdown

import (
	"context"
	"log/slog"
	"time"
)

// tickInterval is the loop's fixed granularity.
const tickInterval = 1 * time.Second

// StatusSource is the supervisor surface the loop consumes.
type StatusSource interface {
	// ConnectionStatus reports whether the session has connected.
	ConnectionStatus() bool

	// ConnectedEndpoint resolves the peer endpoint once connected.
	ConnectedEndpoint() string

	// ResetConnection clears the connected flag for the next refresh.
	ResetConnection()
}

// CounterSink receives the remaining-time display each tick.
type CounterSink interface {
	RenderRemaining(remaining time.Duration)
}

// ConnectedSink receives the one-shot connected notification.
type ConnectedSink interface {
	RenderConnected(endpoint string)
}

// Clock abstracts the per-tick wait for deterministic tests.
type Clock interface {
	// Wait blocks for d or until ctx is cancelled, returning ctx.Err()
	// in the latter case.
	Wait(ctx context.Context, d time.Duration) error
}

// realClock waits on the wall clock but yields to cancellation, so an
// operator's terminate lands mid-tick instead of on the next boundary.
type realClock struct{}

func (realClock) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Result summarizes one completed countdown.
type Result struct {
	// Expired is true for natural expiry, false for cancellation.
	Expired bool

	// Connected is true if a connection was observed during the countdown.
	Connected bool

	// Endpoint is the peer reported on first connection ("" if never
	// connected; may be the supervisor's sentinel if unresolvable).
	Endpoint string

	// Ticks is the number of completed ticks.
	Ticks int
}

// Config assembles a Controller.
type Config struct {
	Source    StatusSource
	Timeout   time.Duration
	Counter   CounterSink
	Connected ConnectedSink
	Logger    *slog.Logger

	// Cleanup runs exactly once when the countdown ends, on both the
	// expiry and cancellation paths. The session wires netem clearing
	// here so an applied impairment is removed exactly once.
	Cleanup func(ctx context.Context)

	// Clock overrides the tick wait (tests). Nil means wall clock.
	Clock Clock
}

// Controller owns references to the supervisor and sinks but none of the
// session's resources; it only observes and renders.
type Controller struct {
	cfg   Config
	clock Clock
}

// New creates a countdown controller.
func New(cfg Config) *Controller {
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Controller{cfg: cfg, clock: clock}
}

// Run executes the countdown until expiry or cancellation and returns the
// outcome. The connected notification is rendered at most once, on the
// first tick where the source reports a connection. Natural expiry renders
// a final zero so the display runs all the way down.
func (c *Controller) Run(ctx context.Context) Result {
	var result Result
	remaining := c.cfg.Timeout

	for remaining > 0 {
		c.cfg.Counter.RenderRemaining(remaining)

		if err := c.clock.Wait(ctx, tickInterval); err != nil {
			c.cfg.Logger.Info("session_cancelled",
				"remaining", remaining.String(),
				"connected", result.Connected,
			)
			c.finish(ctx)
			return result
		}

		remaining -= tickInterval
		result.Ticks++

		if result.Connected {
			continue
		}
		if c.cfg.Source.ConnectionStatus() {
			result.Connected = true
			result.Endpoint = c.cfg.Source.ConnectedEndpoint()
			c.cfg.Connected.RenderConnected(result.Endpoint)
		}
	}

	result.Expired = true
	c.cfg.Counter.RenderRemaining(0)
	c.cfg.Logger.Info("session_timed_out",
		"connected", result.Connected,
		"ticks", result.Ticks,
	)
	c.finish(ctx)
	return result
}

// finish performs end-of-session cleanup: the connected flag is cleared for
// the next status refresh and the configured cleanup runs once. Cleanup gets
// a context detached from cancellation: on the cancellation path the loop's
// context is already dead, and teardown commands (clearing netem) must still
// run.
func (c *Controller) finish(ctx context.Context) {
	c.cfg.Source.ResetConnection()
	if c.cfg.Cleanup != nil {
		c.cfg.Cleanup(context.WithoutCancel(ctx))
	}
}
